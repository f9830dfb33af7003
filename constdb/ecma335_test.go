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

package constdb

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeCompressedUintOneByte(t *testing.T) {
	v, n := decodeCompressedUint([]byte{0x03})
	require.Equal(t, uint32(3), v)
	require.Equal(t, 1, n)
}

func TestDecodeCompressedUintTwoByte(t *testing.T) {
	// 0x80 0x80 == 0x80 (the smallest two-byte-encoded value, per the spec example).
	v, n := decodeCompressedUint([]byte{0x80, 0x80})
	require.Equal(t, uint32(0x80), v)
	require.Equal(t, 2, n)
}

func TestDecodeCompressedUintFourByte(t *testing.T) {
	v, n := decodeCompressedUint([]byte{0xC0, 0x00, 0x40, 0x00})
	require.Equal(t, uint32(0x4000), v)
	require.Equal(t, 4, n)
}

func TestDecodeCompressedUintEmpty(t *testing.T) {
	_, n := decodeCompressedUint(nil)
	require.Equal(t, 0, n)
}

func TestConstantLiteralValueU4(t *testing.T) {
	blob := []byte{0x04, 0x00, 0x00, 0x00}
	v, bits, ok := constantLiteralValue(elemU4, blob)
	require.True(t, ok)
	require.Equal(t, uint64(4), v)
	require.Equal(t, 32, bits)
}

func TestConstantLiteralValueTruncatedBlob(t *testing.T) {
	_, _, ok := constantLiteralValue(elemU4, []byte{0x01})
	require.False(t, ok)
}

func TestConstantLiteralValueUnsupportedType(t *testing.T) {
	_, _, ok := constantLiteralValue(elemString, []byte("hi"))
	require.False(t, ok)
}

// buildMetadataRoot assembles a minimal, well-formed "BSJB" root with
// no streams, exercising only the header/version-string parsing path.
func buildMetadataRoot(version string) []byte {
	verPadded := make([]byte, (len(version)+1+3)&^3)
	copy(verPadded, version)

	buf := make([]byte, 16+len(verPadded)+4)
	binary.LittleEndian.PutUint32(buf[0:4], 0x424A5342)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(verPadded)))
	copy(buf[16:16+len(verPadded)], verPadded)
	off := 16 + len(verPadded)
	binary.LittleEndian.PutUint16(buf[off:off+2], 0) // flags
	binary.LittleEndian.PutUint16(buf[off+2:off+4], 0) // stream count
	return buf
}

func TestParseMetadataRootNoStreams(t *testing.T) {
	root, err := parseMetadataRoot(buildMetadataRoot("v4.0.30319"))
	require.NoError(t, err)
	require.Empty(t, root.streams)
}

func TestParseMetadataRootBadSignature(t *testing.T) {
	_, err := parseMetadataRoot([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, errBadMetadataRoot)
}

func TestParseTablesStreamMissingStream(t *testing.T) {
	root, err := parseMetadataRoot(buildMetadataRoot("v4.0.30319"))
	require.NoError(t, err)
	_, err = parseTablesStream(root)
	require.Error(t, err)
}

func TestFindMetadataRootLocatesSignature(t *testing.T) {
	data := append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, buildMetadataRoot("v4.0.30319")...)
	require.Equal(t, 4, findMetadataRoot(data))
}

func TestFindMetadataRootAbsent(t *testing.T) {
	require.Equal(t, -1, findMetadataRoot([]byte{1, 2, 3, 4}))
}
