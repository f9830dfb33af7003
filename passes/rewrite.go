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

package passes

import "github.com/gorse-io/dllxray/ir"

// mapExpr rewrites e bottom-up: every sub-expression is rewritten first,
// then f is applied to the resulting node. Passes that only need to match
// and replace specific shapes (x+0, !!x, literal-only subtrees) build on
// this instead of hand-rolling a tree walk each time.
func mapExpr(e ir.Expr, f func(ir.Expr) ir.Expr) ir.Expr {
	switch e.Kind {
	case ir.EAddrOf, ir.EUnOp, ir.ECast:
		if e.Operand != nil {
			child := mapExpr(*e.Operand, f)
			e.Operand = &child
		}
	case ir.ELoad:
		if e.Address != nil {
			child := mapExpr(*e.Address, f)
			e.Address = &child
		}
	case ir.EBinOp, ir.ECompare:
		if e.Left != nil {
			l := mapExpr(*e.Left, f)
			e.Left = &l
		}
		if e.Right != nil {
			r := mapExpr(*e.Right, f)
			e.Right = &r
		}
	case ir.ETernary:
		if e.Cond != nil {
			c := mapExpr(*e.Cond, f)
			e.Cond = &c
		}
		if e.WhenTrue != nil {
			t := mapExpr(*e.WhenTrue, f)
			e.WhenTrue = &t
		}
		if e.WhenFalse != nil {
			w := mapExpr(*e.WhenFalse, f)
			e.WhenFalse = &w
		}
	case ir.ECall, ir.EIntrinsic:
		if e.Call.Address != nil {
			a := mapExpr(*e.Call.Address, f)
			e.Call.Address = &a
		}
		for i := range e.Args {
			e.Args[i] = mapExpr(e.Args[i], f)
		}
	}
	return f(e)
}

// rewriteStmtExprs applies mapExpr to every expression-valued field a
// Stmt variant carries, covering every StmtKind that embeds an Expr.
func rewriteStmtExprs(s *ir.Stmt, f func(ir.Expr) ir.Expr) {
	if s.Lhs != nil {
		*s.Lhs = mapExpr(*s.Lhs, f)
	}
	if s.Rhs != nil {
		*s.Rhs = mapExpr(*s.Rhs, f)
	}
	if s.Address != nil {
		*s.Address = mapExpr(*s.Address, f)
	}
	if s.Value != nil {
		*s.Value = mapExpr(*s.Value, f)
	}
	if s.Call != nil {
		*s.Call = mapExpr(*s.Call, f)
	}
	if s.Cond != nil {
		*s.Cond = mapExpr(*s.Cond, f)
	}
	if s.ReturnValue != nil {
		*s.ReturnValue = mapExpr(*s.ReturnValue, f)
	}
}

// walkFunctionExprs rewrites every expression in every statement of fn
// in place.
func walkFunctionExprs(fn *ir.FunctionIR, f func(ir.Expr) ir.Expr) {
	for bi := range fn.Blocks {
		stmts := fn.Blocks[bi].Statements
		for si := range stmts {
			rewriteStmtExprs(&stmts[si], f)
		}
	}
}
