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

package lift

import (
	"github.com/gorse-io/dllxray/ir"
	"golang.org/x/arch/x86/x86asm"
)

// compareFact remembers the operands of the most recent cmp/test so a
// following Jcc can be lowered into a single ir.Compare expression
// instead of an opaque flags check.
type compareFact struct {
	valid  bool
	isTest bool // true for `test a,b` (compares a&b against 0)
	lhs    ir.Expr
	rhs    ir.Expr
	bits   int
}

// jccCompareOp maps a conditional jump opcode to the ir.CompareOp it
// tests for. Jcc variants with no single-comparison meaning (JCXZ,
// JECXZ, JRCXZ, parity flags) are not handled here.
func jccCompareOp(op x86asm.Op) (ir.CompareOp, bool) {
	switch op {
	case x86asm.JE:
		return ir.CmpEQ, true
	case x86asm.JNE:
		return ir.CmpNE, true
	case x86asm.JL:
		return ir.CmpSLT, true
	case x86asm.JLE:
		return ir.CmpSLE, true
	case x86asm.JG:
		return ir.CmpSGT, true
	case x86asm.JGE:
		return ir.CmpSGE, true
	case x86asm.JB:
		return ir.CmpULT, true
	case x86asm.JBE:
		return ir.CmpULE, true
	case x86asm.JA:
		return ir.CmpUGT, true
	case x86asm.JAE:
		return ir.CmpUGE, true
	default:
		return 0, false
	}
}

// buildCondition turns the current compareFact plus a Jcc opcode into
// an ir.Expr suitable for an IfGoto condition. When no compareFact is
// available (the Jcc wasn't preceded by a recognized cmp/test), it
// falls back to a best-effort "flags != 0" placeholder so the pipeline
// still produces valid, if imprecise, IR instead of failing the lift.
func buildCondition(fact compareFact, op x86asm.Op) ir.Expr {
	cmpOp, ok := jccCompareOp(op)
	if !ok || !fact.valid {
		return ir.Compare(ir.CmpNE, ir.Reg("flags", 32), ir.UConst(0, 32))
	}
	if fact.isTest {
		masked := ir.Bin(ir.OpAnd, fact.lhs, fact.rhs, fact.bits)
		return ir.Compare(cmpOp, masked, ir.UConst(0, fact.bits))
	}
	return ir.Compare(cmpOp, fact.lhs, fact.rhs)
}
