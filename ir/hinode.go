// Copyright 2025 dllxray Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

// HiNodeKind selects which structured-node variant is populated.
// Structured nodes are optional: the lifting engine never produces them
// (it only ever emits linear BasicBlocks), but a pass or a future
// control-flow-structuring component may attach a HiNode tree to
// FunctionIR.StructuredBody, in which case the printer prefers it.
type HiNodeKind int

const (
	HSeq HiNodeKind = iota
	HStmt
	HIf
	HWhile
	HDoWhile
	HSwitch
)

// SwitchCase is one arm of a SwitchNode: either a concrete match value or
// the default arm (IsDefault true, MatchValue ignored).
type SwitchCase struct {
	MatchValue *Expr
	IsDefault  bool
	Body       *HiNode
}

// HiNode is the tagged sum for structured control-flow nodes.
type HiNode struct {
	Kind HiNodeKind

	// HSeq
	Children []HiNode

	// HStmt
	Statement *Stmt

	// HIf / HWhile / HDoWhile
	Cond *Expr
	Then *HiNode
	Else *HiNode // HIf only, nil when there is no else branch
	Body *HiNode // HWhile / HDoWhile

	// HSwitch
	Scrutinee *Expr
	Cases     []SwitchCase
}

func Seq(children ...HiNode) HiNode {
	return HiNode{Kind: HSeq, Children: children}
}

func StmtNode(s Stmt) HiNode {
	return HiNode{Kind: HStmt, Statement: &s}
}

func IfNode(cond Expr, then HiNode, els *HiNode) HiNode {
	return HiNode{Kind: HIf, Cond: &cond, Then: &then, Else: els}
}

func WhileNode(cond Expr, body HiNode) HiNode {
	return HiNode{Kind: HWhile, Cond: &cond, Body: &body}
}

func DoWhileNode(body HiNode, cond Expr) HiNode {
	return HiNode{Kind: HDoWhile, Cond: &cond, Body: &body}
}

func SwitchNode(scrutinee Expr, cases []SwitchCase) HiNode {
	return HiNode{Kind: HSwitch, Scrutinee: &scrutinee, Cases: cases}
}
