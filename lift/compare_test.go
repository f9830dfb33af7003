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
	"testing"

	"github.com/gorse-io/dllxray/ir"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

func TestJccCompareOpMapping(t *testing.T) {
	tests := []struct {
		op      x86asm.Op
		want    ir.CompareOp
	}{
		{x86asm.JE, ir.CmpEQ},
		{x86asm.JNE, ir.CmpNE},
		{x86asm.JL, ir.CmpSLT},
		{x86asm.JLE, ir.CmpSLE},
		{x86asm.JG, ir.CmpSGT},
		{x86asm.JGE, ir.CmpSGE},
		{x86asm.JB, ir.CmpULT},
		{x86asm.JBE, ir.CmpULE},
		{x86asm.JA, ir.CmpUGT},
		{x86asm.JAE, ir.CmpUGE},
	}
	for _, tt := range tests {
		got, ok := jccCompareOp(tt.op)
		require.True(t, ok)
		require.Equal(t, tt.want, got)
	}

	_, ok := jccCompareOp(x86asm.JCXZ)
	require.False(t, ok)
}

func TestBuildConditionNoFactFallsBackToFlagsCheck(t *testing.T) {
	cond := buildCondition(compareFact{}, x86asm.JE)
	require.Equal(t, ir.ECompare, cond.Kind)
	require.Equal(t, ir.CmpNE, cond.CmpOp)
	require.Equal(t, "flags", cond.Left.Name)
}

func TestBuildConditionPlainCompare(t *testing.T) {
	fact := compareFact{valid: true, lhs: ir.Reg("rax", 32), rhs: ir.Const(0, 32), bits: 32}
	cond := buildCondition(fact, x86asm.JG)
	require.Equal(t, ir.ECompare, cond.Kind)
	require.Equal(t, ir.CmpSGT, cond.CmpOp)
	require.True(t, cond.Left.Equal(ir.Reg("rax", 32)))
	require.True(t, cond.Right.Equal(ir.Const(0, 32)))
}

func TestBuildConditionTestMasksOperands(t *testing.T) {
	fact := compareFact{valid: true, isTest: true, lhs: ir.Reg("rax", 32), rhs: ir.Reg("rax", 32), bits: 32}
	cond := buildCondition(fact, x86asm.JNE)
	require.Equal(t, ir.ECompare, cond.Kind)
	require.Equal(t, ir.CmpNE, cond.CmpOp)
	require.Equal(t, ir.EBinOp, cond.Left.Kind)
	require.Equal(t, ir.OpAnd, cond.Left.BinOp)
	require.True(t, cond.Right.Equal(ir.UConst(0, 32)))
}

func TestBuildConditionUnmappedOpcodeFallsBack(t *testing.T) {
	fact := compareFact{valid: true, lhs: ir.Reg("rcx", 32), rhs: ir.Const(1, 32), bits: 32}
	cond := buildCondition(fact, x86asm.JCXZ)
	require.Equal(t, ir.CmpNE, cond.CmpOp)
	require.Equal(t, "flags", cond.Left.Name)
}
