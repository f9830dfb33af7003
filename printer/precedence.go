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

package printer

import "github.com/gorse-io/dllxray/ir"

// Precedence levels, following C. Higher binds tighter. Atoms (literals,
// names, calls, casts, unary/deref) sit above every binary operator so
// they are never parenthesized as a sub-expression of one.
const (
	precAtom     = 15
	precUnary    = 14
	precMulDiv   = 12
	precAddSub   = 11
	precShift    = 10
	precRelation = 9
	precEquality = 8
	precBitAnd   = 7
	precBitXor   = 6
	precBitOr    = 5
	precTernary  = 2
)

func binOpPrecedence(op ir.BinOp) int {
	switch op {
	case ir.OpMul, ir.OpUDiv, ir.OpSDiv, ir.OpURem, ir.OpSRem:
		return precMulDiv
	case ir.OpAdd, ir.OpSub:
		return precAddSub
	case ir.OpShl, ir.OpShr, ir.OpSar:
		return precShift
	case ir.OpAnd:
		return precBitAnd
	case ir.OpXor:
		return precBitXor
	case ir.OpOr:
		return precBitOr
	default:
		return precAtom
	}
}

func cmpOpPrecedence(op ir.CompareOp) int {
	switch op {
	case ir.CmpEQ, ir.CmpNE:
		return precEquality
	default:
		return precRelation
	}
}

// exprPrecedence reports the binding precedence of e's outermost
// operator, used to decide whether a parent must parenthesize it.
func exprPrecedence(e ir.Expr) int {
	switch e.Kind {
	case ir.EBinOp:
		return binOpPrecedence(e.BinOp)
	case ir.ECompare:
		return cmpOpPrecedence(e.CmpOp)
	case ir.ETernary:
		return precTernary
	case ir.EUnOp, ir.ECast, ir.EAddrOf, ir.ELoad:
		return precUnary
	default:
		return precAtom
	}
}

func binOpSymbol(op ir.BinOp) string {
	switch op {
	case ir.OpMul:
		return "*"
	case ir.OpUDiv, ir.OpSDiv:
		return "/"
	case ir.OpURem, ir.OpSRem:
		return "%"
	case ir.OpAdd:
		return "+"
	case ir.OpSub:
		return "-"
	case ir.OpShl:
		return "<<"
	case ir.OpShr, ir.OpSar:
		return ">>"
	case ir.OpAnd:
		return "&"
	case ir.OpXor:
		return "^"
	case ir.OpOr:
		return "|"
	default:
		return "?"
	}
}

func cmpOpSymbol(op ir.CompareOp) string {
	switch op {
	case ir.CmpEQ:
		return "=="
	case ir.CmpNE:
		return "!="
	case ir.CmpSLT, ir.CmpULT:
		return "<"
	case ir.CmpSLE, ir.CmpULE:
		return "<="
	case ir.CmpSGT, ir.CmpUGT:
		return ">"
	case ir.CmpSGE, ir.CmpUGE:
		return ">="
	default:
		return "?"
	}
}
