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
	"errors"
	"fmt"
)

// ECMA-335 metadata table indices (partition II, section 22). Only the
// tables the enum loaders actually read are named; the rest are skipped
// by row-size arithmetic alone. Mirrors the constant block saferwall's
// dotnet reader carries for the CLR metadata tables.
const (
	tblModule                = 0x00
	tblTypeRef               = 0x01
	tblTypeDef               = 0x02
	tblField                 = 0x04
	tblMethodDef             = 0x06
	tblParam                 = 0x08
	tblInterfaceImpl         = 0x09
	tblMemberRef             = 0x0A
	tblConstant              = 0x0B
	tblCustomAttribute       = 0x0C
	tblFieldMarshal          = 0x0D
	tblDeclSecurity          = 0x0E
	tblClassLayout           = 0x0F
	tblFieldLayout           = 0x10
	tblStandAloneSig         = 0x11
	tblEventMap              = 0x12
	tblEvent                 = 0x14
	tblPropertyMap           = 0x15
	tblProperty              = 0x17
	tblMethodSemantics       = 0x18
	tblMethodImpl            = 0x19
	tblModuleRef             = 0x1A
	tblTypeSpec              = 0x1B
	tblImplMap               = 0x1C
	tblFieldRVA              = 0x1D
	tblAssembly              = 0x20
	tblAssemblyRef           = 0x23
	tblFile                  = 0x26
	tblExportedType          = 0x27
	tblManifestResource      = 0x28
	tblNestedClass           = 0x29
	tblGenericParam          = 0x2A
	tblMethodSpec            = 0x2B
	tblGenericParamConstr   = 0x2C
	tableCount               = 0x2D
)

// ELEMENT_TYPE constants used by the Constant table's one-byte type
// tag and by field signature blobs (ECMA-335 section II.23.1.16).
const (
	elemEnd      = 0x00
	elemVoid     = 0x01
	elemBoolean  = 0x02
	elemChar     = 0x03
	elemI1       = 0x04
	elemU1       = 0x05
	elemI2       = 0x06
	elemU2       = 0x07
	elemI4       = 0x08
	elemU4       = 0x09
	elemI8       = 0x0A
	elemU8       = 0x0B
	elemR4       = 0x0C
	elemR8       = 0x0D
	elemString   = 0x0E
	elemValueType = 0x11
)

// corFlags bits from the CLI header (not currently consulted beyond
// documenting intent; metadata parsing does not depend on them).
const (
	corILOnly = 0x00000001
)

var errBadMetadataRoot = errors.New("constdb: not an ECMA-335 metadata root (bad signature)")

// metadataRoot is the parsed "BSJB" root header plus its stream
// directory, per ECMA-335 section II.24.2.1.
type metadataRoot struct {
	streams map[string][]byte
}

// parseMetadataRoot parses a buffer starting exactly at the metadata
// root signature (0x424A5342, "BSJB").
func parseMetadataRoot(data []byte) (*metadataRoot, error) {
	if len(data) < 16 || binary.LittleEndian.Uint32(data[0:4]) != 0x424A5342 {
		return nil, errBadMetadataRoot
	}
	verLen := int(binary.LittleEndian.Uint32(data[12:16]))
	off := 16 + verLen
	if off+4 > len(data) {
		return nil, errBadMetadataRoot
	}
	off += 2 // flags
	streamCount := int(binary.LittleEndian.Uint16(data[off : off+2]))
	off += 2

	streams := map[string][]byte{}
	for i := 0; i < streamCount; i++ {
		if off+8 > len(data) {
			return nil, errBadMetadataRoot
		}
		streamOff := int(binary.LittleEndian.Uint32(data[off : off+4]))
		streamSize := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		off += 8
		nameStart := off
		nameEnd := nameStart
		for nameEnd < len(data) && data[nameEnd] != 0 {
			nameEnd++
		}
		name := string(data[nameStart:nameEnd])
		off = nameEnd + 1
		off = (off + 3) &^ 3 // 4-byte align
		if streamOff+streamSize > len(data) {
			return nil, errBadMetadataRoot
		}
		streams[name] = data[streamOff : streamOff+streamSize]
	}
	return &metadataRoot{streams: streams}, nil
}

// tablesStream holds the decoded #~ (or #-) logical tables stream: row
// counts per table, heap index widths, and raw per-table row bytes.
type tablesStream struct {
	rows        [tableCount]uint32
	wideStrings bool
	wideGUID    bool
	wideBlob    bool
	tableData   [tableCount][]byte
	stringHeap  []byte
	blobHeap    []byte
}

// parseTablesStream decodes the #~ stream header (ECMA-335 section
// II.24.2.6) and slices out each present table's raw row bytes. Row
// layouts are fixed width per table based on heap-index widths; coded
// indices that reference more than one table (TypeDefOrRef etc.) are
// conservatively sized as 2 bytes when the referenced tables are all
// small, which covers the managed-assembly enum sources this loader
// targets.
func parseTablesStream(root *metadataRoot) (*tablesStream, error) {
	raw, ok := root.streams["#~"]
	if !ok {
		raw, ok = root.streams["#-"]
	}
	if !ok {
		return nil, fmt.Errorf("constdb: no #~ metadata tables stream")
	}
	if len(raw) < 24 {
		return nil, fmt.Errorf("constdb: truncated #~ stream")
	}
	heapSizes := raw[6]
	valid := binary.LittleEndian.Uint64(raw[8:16])
	off := 24

	ts := &tablesStream{
		wideStrings: heapSizes&0x01 != 0,
		wideGUID:    heapSizes&0x02 != 0,
		wideBlob:    heapSizes&0x04 != 0,
	}
	var present []int
	for i := 0; i < tableCount; i++ {
		if valid&(1<<uint(i)) != 0 {
			if off+4 > len(raw) {
				return nil, fmt.Errorf("constdb: truncated #~ row-count array")
			}
			ts.rows[i] = binary.LittleEndian.Uint32(raw[off : off+4])
			off += 4
			present = append(present, i)
		}
	}

	ts.stringHeap = root.streams["#Strings"]
	ts.blobHeap = root.streams["#Blob"]

	for _, idx := range present {
		rowSize := ts.rowSize(idx)
		total := int(ts.rows[idx]) * rowSize
		if off+total > len(raw) {
			return nil, fmt.Errorf("constdb: truncated table %#x", idx)
		}
		ts.tableData[idx] = raw[off : off+total]
		off += total
	}
	return ts, nil
}

func (ts *tablesStream) strIdxSize() int {
	if ts.wideStrings {
		return 4
	}
	return 2
}

func (ts *tablesStream) blobIdxSize() int {
	if ts.wideBlob {
		return 4
	}
	return 2
}

// rowSize returns the fixed byte width of one row of table, per
// ECMA-335 section II.22, with table and coded indices taken as 2
// bytes. Every table numbered up to Constant has its exact width here
// (the FieldPtr/MethodPtr/ParamPtr indirection rows are one 2-byte
// index, the default), so the TypeDef, Field and Constant rows the enum
// loaders walk are sliced at the right offsets; tables numbered above
// Constant fall to the 2-byte default and are not sized exactly.
func (ts *tablesStream) rowSize(table int) int {
	switch table {
	case tblModule:
		guidIdx := 2
		if ts.wideGUID {
			guidIdx = 4
		}
		return 2 + ts.strIdxSize() + 3*guidIdx // generation, name, mvid, encId, encBaseId
	case tblTypeRef:
		return 2 + ts.strIdxSize()*2
	case tblTypeDef:
		return 4 + ts.strIdxSize()*2 + 2 + 2 + 2 // flags, name, namespace, extends(2), fieldList(2), methodList(2)
	case tblField:
		return 2 + ts.strIdxSize() + ts.blobIdxSize()
	case tblMethodDef:
		return 4 + 2 + 2 + ts.strIdxSize() + ts.blobIdxSize() + 2 // rva, implFlags, flags, name, signature, paramList
	case tblParam:
		return 2 + 2 + ts.strIdxSize()
	case tblInterfaceImpl:
		return 2 + 2 // class, interface
	case tblMemberRef:
		return 2 + ts.strIdxSize() + ts.blobIdxSize() // class, name, signature
	case tblConstant:
		return 1 + 1 + 2 + ts.blobIdxSize() // type, padding, parent(2), value
	default:
		return 2
	}
}

func (ts *tablesStream) stringAt(idx uint32) string {
	w := ts.strIdxSize()
	_ = w
	if int(idx) >= len(ts.stringHeap) {
		return ""
	}
	end := int(idx)
	for end < len(ts.stringHeap) && ts.stringHeap[end] != 0 {
		end++
	}
	return string(ts.stringHeap[idx:end])
}

// blobAt reads a length-prefixed blob (ECMA-335 section II.24.2.4
// compressed integer length) starting at idx in the #Blob heap.
func (ts *tablesStream) blobAt(idx uint32) []byte {
	if int(idx) >= len(ts.blobHeap) {
		return nil
	}
	b := ts.blobHeap[idx:]
	if len(b) == 0 {
		return nil
	}
	length, consumed := decodeCompressedUint(b)
	if consumed == 0 || consumed+int(length) > len(b) {
		return nil
	}
	return b[consumed : consumed+int(length)]
}

// decodeCompressedUint decodes an ECMA-335 compressed unsigned integer
// (section II.23.2).
func decodeCompressedUint(b []byte) (value uint32, consumed int) {
	if len(b) == 0 {
		return 0, 0
	}
	first := b[0]
	switch {
	case first&0x80 == 0:
		return uint32(first), 1
	case first&0xC0 == 0x80:
		if len(b) < 2 {
			return 0, 0
		}
		return uint32(first&0x3F)<<8 | uint32(b[1]), 2
	case first&0xE0 == 0xC0:
		if len(b) < 4 {
			return 0, 0
		}
		return uint32(first&0x1F)<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), 4
	default:
		return 0, 0
	}
}

// constantLiteralValue reinterprets a Constant-table blob according to
// its ELEMENT_TYPE tag as a 64-bit pattern: signed sources (I1/I2/I4)
// are sign-extended, unsigned, boolean and char sources zero-extended.
// The second result is the source width in bits.
func constantLiteralValue(elemType byte, blob []byte) (uint64, int, bool) {
	switch elemType {
	case elemU1, elemI1, elemBoolean:
		if len(blob) < 1 {
			return 0, 0, false
		}
		if elemType == elemI1 {
			return uint64(int64(int8(blob[0]))), 8, true
		}
		return uint64(blob[0]), 8, true
	case elemU2, elemI2, elemChar:
		if len(blob) < 2 {
			return 0, 0, false
		}
		if elemType == elemI2 {
			return uint64(int64(int16(binary.LittleEndian.Uint16(blob)))), 16, true
		}
		return uint64(binary.LittleEndian.Uint16(blob)), 16, true
	case elemU4, elemI4:
		if len(blob) < 4 {
			return 0, 0, false
		}
		if elemType == elemI4 {
			return uint64(int64(int32(binary.LittleEndian.Uint32(blob)))), 32, true
		}
		return uint64(binary.LittleEndian.Uint32(blob)), 32, true
	case elemU8, elemI8:
		if len(blob) < 8 {
			return 0, 0, false
		}
		return binary.LittleEndian.Uint64(blob), 64, true
	default:
		return 0, 0, false
	}
}
