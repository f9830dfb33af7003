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

// SimplifyArithmeticIdentities collapses the standard algebraic identity
// shapes (x+0, x-0, x*1, x&0, x&~0, x|0, x^0, x<<0, x>>0, x-x, x^x) down
// to their simplified form. It is a no-op on IR containing none of these
// patterns.
func SimplifyArithmeticIdentities(fn *ir.FunctionIR) {
	walkFunctionExprs(fn, simplifyArithmeticIdentity)
}

func simplifyArithmeticIdentity(e ir.Expr) ir.Expr {
	if e.Kind != ir.EBinOp {
		return e
	}
	l, r := *e.Left, *e.Right

	if l.Equal(r) {
		switch e.BinOp {
		case ir.OpSub, ir.OpXor:
			return ir.UConst(0, e.Bits)
		}
	}

	switch e.BinOp {
	case ir.OpAdd, ir.OpSub, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpShr:
		if isZeroLiteral(r) {
			return l
		}
	case ir.OpMul:
		if isOneLiteral(r) {
			return l
		}
	case ir.OpAnd:
		if isZeroLiteral(r) {
			return ir.UConst(0, e.Bits)
		}
		if isAllOnesLiteral(r, e.Bits) {
			return l
		}
	}
	return e
}

func isZeroLiteral(e ir.Expr) bool {
	return e.IsLiteral() && e.AsUint64() == 0
}

func isOneLiteral(e ir.Expr) bool {
	return e.IsLiteral() && e.AsUint64() == 1
}

func isAllOnesLiteral(e ir.Expr, bits int) bool {
	if !e.IsLiteral() {
		return false
	}
	return e.AsUint64() == allOnesMask(bits)
}

func allOnesMask(bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}
