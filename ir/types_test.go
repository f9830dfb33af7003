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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntCName(t *testing.T) {
	tests := []struct {
		bits     int
		signed   bool
		useStd   bool
		expected string
	}{
		{32, false, true, "uint32_t"},
		{32, false, false, "unsigned int"},
		{64, true, true, "int64_t"},
		{8, false, false, "unsigned char"},
	}
	for _, tt := range tests {
		got := Int(tt.bits, tt.signed).CName(tt.useStd)
		require.Equal(t, tt.expected, got)
	}
}

func TestPointerCName(t *testing.T) {
	p := Pointer(Int(8, false))
	require.Equal(t, "uint8_t*", p.CName(true))
}

func TestVectorAlignment(t *testing.T) {
	require.Equal(t, 16, VectorAlignment(128))
	require.Equal(t, 32, VectorAlignment(256))
	require.Equal(t, 64, VectorAlignment(512))
	require.Equal(t, 0, VectorAlignment(100))
}

func TestIsVectorWidth(t *testing.T) {
	require.True(t, IsVectorWidth(128))
	require.True(t, IsVectorWidth(256))
	require.True(t, IsVectorWidth(512))
	require.False(t, IsVectorWidth(64))
}

func TestTypeEqual(t *testing.T) {
	require.True(t, Int(32, true).Equal(Int(32, true)))
	require.False(t, Int(32, true).Equal(Int(32, false)))
	require.True(t, Pointer(Int(8, false)).Equal(Pointer(Int(8, false))))
	require.False(t, Pointer(Int(8, false)).Equal(Pointer(Int(16, false))))
}

func TestIntWidthPanicsOnInvalid(t *testing.T) {
	require.Panics(t, func() { Int(24, false) })
}
