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

package dllxray

import (
	"context"
	"testing"

	"github.com/gorse-io/dllxray/peformat"
	"github.com/stretchr/testify/require"
)

func TestDecompileBytesSimpleFunction(t *testing.T) {
	// mov eax, ecx; add eax, edx; ret
	code := []byte{0x8B, 0xC1, 0x03, 0xC2, 0xC3}
	out, err := DecompileBytes(context.Background(), code, 0x1000, "add2", Options{})
	require.NoError(t, err)
	require.Contains(t, out, "add2")
	require.Contains(t, out, "return")
}

func TestDecompileBytesEmptyCodeIsNoFunctionBytes(t *testing.T) {
	_, err := DecompileBytes(context.Background(), nil, 0x1000, "empty", Options{})
	require.ErrorIs(t, err, peformat.ErrNoFunctionBytes)
}

func TestDecompileBytesTruncatesToMaxBytes(t *testing.T) {
	code := []byte{0x8B, 0xC1, 0x03, 0xC2, 0xC3, 0x90, 0x90, 0x90}
	_, err := DecompileBytes(context.Background(), code, 0x1000, "add2", Options{MaxBytes: 5})
	require.NoError(t, err)
}

func TestDecompileBytesRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DecompileBytes(ctx, []byte{0xC3}, 0x1000, "f", Options{})
	require.ErrorIs(t, err, ErrCancelled)
}

func TestDecompileBytesUsesStdIntNamesOption(t *testing.T) {
	code := []byte{0x8B, 0xC1, 0x03, 0xC2, 0xC3}
	out, err := DecompileBytes(context.Background(), code, 0x1000, "add2", Options{UseStdIntNames: true})
	require.NoError(t, err)
	require.Contains(t, out, "uint64_t")
}

func TestDecompileBytesNoOpWithoutConstantDatabase(t *testing.T) {
	// mov eax, 0; ret — a bare literal assigned into the return alias,
	// rendered as a plain decimal literal with no ConstantDatabase
	// configured to substitute a symbolic name.
	code := []byte{0xB8, 0x00, 0x00, 0x00, 0x00, 0xC3}
	out, err := DecompileBytes(context.Background(), code, 0x1000, "f", Options{})
	require.NoError(t, err)
	require.Contains(t, out, "ret = 0; // RAX")
	require.Contains(t, out, "return ret;")
}

func TestNoConstantsSatisfiesConstantDatabaseInterface(t *testing.T) {
	found, formatted := noConstants{}.TryFormatValue("ANY", 5)
	require.False(t, found)
	require.Empty(t, formatted)
}
