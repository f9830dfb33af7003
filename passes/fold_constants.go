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

// FoldConstants evaluates any expression whose leaves are all literals.
// Arithmetic wraps around in the declared width for unsigned operations
// and uses two's-complement semantics for signed ones; shift counts at or
// beyond the operand width yield 0; signed comparisons against unsigned
// literals sign-extend the operand before comparing.
func FoldConstants(fn *ir.FunctionIR) {
	walkFunctionExprs(fn, foldConstant)
}

func foldConstant(e ir.Expr) ir.Expr {
	switch e.Kind {
	case ir.EUnOp:
		if e.Operand == nil || !e.Operand.IsLiteral() {
			return e
		}
		return foldUnary(ir.UnOp(e.BinOp), *e.Operand, e.Bits)
	case ir.EBinOp:
		if e.Left == nil || e.Right == nil || !e.Left.IsLiteral() || !e.Right.IsLiteral() {
			return e
		}
		return foldBinary(e.BinOp, *e.Left, *e.Right, e.Bits)
	case ir.ECompare:
		if e.Left == nil || e.Right == nil || !e.Left.IsLiteral() || !e.Right.IsLiteral() {
			return e
		}
		return foldCompare(e.CmpOp, *e.Left, *e.Right)
	default:
		return e
	}
}

func foldUnary(op ir.UnOp, operand ir.Expr, bits int) ir.Expr {
	v := maskTo(operand.AsUint64(), bits)
	switch op {
	case ir.OpNeg:
		return ir.UConst(maskTo(uint64(-int64(v)), bits), bits)
	case ir.OpNot:
		return ir.UConst(maskTo(^v, bits), bits)
	case ir.OpLNot:
		if v == 0 {
			return ir.UConst(1, bits)
		}
		return ir.UConst(0, bits)
	default:
		return ir.UConst(v, bits)
	}
}

func foldBinary(op ir.BinOp, l, r ir.Expr, bits int) ir.Expr {
	a, b := maskTo(l.AsUint64(), bits), maskTo(r.AsUint64(), bits)
	switch op {
	case ir.OpAdd:
		return ir.UConst(maskTo(a+b, bits), bits)
	case ir.OpSub:
		return ir.UConst(maskTo(a-b, bits), bits)
	case ir.OpMul:
		return ir.UConst(maskTo(a*b, bits), bits)
	case ir.OpAnd:
		return ir.UConst(maskTo(a&b, bits), bits)
	case ir.OpOr:
		return ir.UConst(maskTo(a|b, bits), bits)
	case ir.OpXor:
		return ir.UConst(maskTo(a^b, bits), bits)
	case ir.OpShl:
		if b >= uint64(bits) {
			return ir.UConst(0, bits)
		}
		return ir.UConst(maskTo(a<<b, bits), bits)
	case ir.OpShr:
		if b >= uint64(bits) {
			return ir.UConst(0, bits)
		}
		return ir.UConst(maskTo(a>>b, bits), bits)
	case ir.OpSar:
		if b >= uint64(bits) {
			if signBit(a, bits) {
				return ir.UConst(allOnesMask(bits), bits)
			}
			return ir.UConst(0, bits)
		}
		return ir.UConst(maskTo(uint64(signExtend(a, bits)>>int64(b)), bits), bits)
	case ir.OpUDiv:
		if b == 0 {
			return ir.UConst(0, bits)
		}
		return ir.UConst(maskTo(a/b, bits), bits)
	case ir.OpSDiv:
		if b == 0 {
			return ir.UConst(0, bits)
		}
		return ir.UConst(maskTo(uint64(signExtend(a, bits)/signExtend(b, bits)), bits), bits)
	case ir.OpURem:
		if b == 0 {
			return ir.UConst(0, bits)
		}
		return ir.UConst(maskTo(a%b, bits), bits)
	case ir.OpSRem:
		if b == 0 {
			return ir.UConst(0, bits)
		}
		return ir.UConst(maskTo(uint64(signExtend(a, bits)%signExtend(b, bits)), bits), bits)
	default:
		return ir.Bin(op, l, r, bits)
	}
}

func foldCompare(op ir.CompareOp, l, r ir.Expr) ir.Expr {
	bits := l.Bits
	if r.Bits > bits {
		bits = r.Bits
	}
	a, b := maskTo(l.AsUint64(), bits), maskTo(r.AsUint64(), bits)
	var result bool
	switch op {
	case ir.CmpEQ:
		result = a == b
	case ir.CmpNE:
		result = a != b
	case ir.CmpULT:
		result = a < b
	case ir.CmpULE:
		result = a <= b
	case ir.CmpUGT:
		result = a > b
	case ir.CmpUGE:
		result = a >= b
	case ir.CmpSLT:
		result = signExtend(a, bits) < signExtend(b, bits)
	case ir.CmpSLE:
		result = signExtend(a, bits) <= signExtend(b, bits)
	case ir.CmpSGT:
		result = signExtend(a, bits) > signExtend(b, bits)
	case ir.CmpSGE:
		result = signExtend(a, bits) >= signExtend(b, bits)
	default:
		return ir.Compare(op, l, r)
	}
	if result {
		return ir.UConst(1, 1)
	}
	return ir.UConst(0, 1)
}

func maskTo(v uint64, bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return v
	}
	return v & allOnesMask(bits)
}

func signBit(v uint64, bits int) bool {
	if bits <= 0 || bits >= 64 {
		return int64(v) < 0
	}
	return v&(uint64(1)<<uint(bits-1)) != 0
}

// signExtend reinterprets the low bits-width bits of v as a signed value.
func signExtend(v uint64, bits int) int64 {
	if bits <= 0 || bits >= 64 {
		return int64(v)
	}
	shift := uint(64 - bits)
	return int64(v<<shift) >> shift
}
