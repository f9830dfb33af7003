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

// SimplifyLogicalNots collapses double logical negation (!!x -> x) and
// pushes a negation through a comparison into the comparison's inverse
// operator (!(a == b) -> a != b, and so on for the other nine compare
// operators).
func SimplifyLogicalNots(fn *ir.FunctionIR) {
	walkFunctionExprs(fn, simplifyLogicalNot)
}

func simplifyLogicalNot(e ir.Expr) ir.Expr {
	if e.Kind != ir.EUnOp || ir.UnOp(e.BinOp) != ir.OpLNot || e.Operand == nil {
		return e
	}
	inner := *e.Operand

	if inner.Kind == ir.EUnOp && ir.UnOp(inner.BinOp) == ir.OpLNot && inner.Operand != nil {
		return *inner.Operand
	}

	if inner.Kind == ir.ECompare {
		if inv, ok := invertCompareOp(inner.CmpOp); ok {
			return ir.Compare(inv, *inner.Left, *inner.Right)
		}
	}

	return e
}

func invertCompareOp(op ir.CompareOp) (ir.CompareOp, bool) {
	switch op {
	case ir.CmpEQ:
		return ir.CmpNE, true
	case ir.CmpNE:
		return ir.CmpEQ, true
	case ir.CmpSLT:
		return ir.CmpSGE, true
	case ir.CmpSGE:
		return ir.CmpSLT, true
	case ir.CmpSLE:
		return ir.CmpSGT, true
	case ir.CmpSGT:
		return ir.CmpSLE, true
	case ir.CmpULT:
		return ir.CmpUGE, true
	case ir.CmpUGE:
		return ir.CmpULT, true
	case ir.CmpULE:
		return ir.CmpUGT, true
	case ir.CmpUGT:
		return ir.CmpULE, true
	default:
		return 0, false
	}
}
