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

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

func TestCanonicalRegisterWidths(t *testing.T) {
	tests := []struct {
		reg      x86asm.Reg
		wantName string
		wantBits int
	}{
		{x86asm.AL, "rax", 8},
		{x86asm.AX, "rax", 16},
		{x86asm.EAX, "rax", 32},
		{x86asm.RAX, "rax", 64},
		{x86asm.R9B, "r9", 8},
		{x86asm.R9, "r9", 64},
		{x86asm.RSP, "rsp", 64},
		{x86asm.RBP, "rbp", 64},
		{x86asm.X0, "xmm0", 128},
		{x86asm.GS, "gs", 16},
	}
	for _, tt := range tests {
		name, bits := canonicalRegister(tt.reg)
		require.Equal(t, tt.wantName, name)
		require.Equal(t, tt.wantBits, bits)
	}
}

func TestIsCalleeSaved(t *testing.T) {
	require.True(t, isCalleeSaved("rbx"))
	require.True(t, isCalleeSaved("r12"))
	require.False(t, isCalleeSaved("rax"))
	require.False(t, isCalleeSaved("rcx"))
}

func TestParamIndexForIntRegister(t *testing.T) {
	idx, ok := paramIndexForIntRegister("rdx")
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = paramIndexForIntRegister("rax")
	require.False(t, ok)
}

func TestParamIndexForFloatRegister(t *testing.T) {
	idx, ok := paramIndexForFloatRegister("xmm2")
	require.True(t, ok)
	require.Equal(t, 2, idx)
}
