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
	"fmt"
	"strings"
)

func init() {
	RegisterLoader(&AssemblyEnumLoader{})
	RegisterLoader(&WinmdLoader{})
}

// enumsFromTables walks the TypeDef/Field/Constant tables of a decoded
// #~ stream and registers one EnumDesc per TypeDef that owns at least
// one literal-valued integral field, treating the TypeDef's own fields
// as its members. This sidesteps fully decoding the TypeDefOrRef coded
// index used by a strict "extends System.Enum" check, at the cost of
// also picking up literal-only structs; tolerable here because the
// only consumer is symbolic constant formatting; see DESIGN.md.
func enumsFromTables(db *Database, ts *tablesStream) error {
	typeDefRows := int(ts.rows[tblTypeDef])
	fieldRows := int(ts.rows[tblField])
	constRows := int(ts.rows[tblConstant])
	if typeDefRows == 0 || fieldRows == 0 || constRows == 0 {
		return nil
	}

	fieldToConstant := make(map[int]int, constRows) // 1-based field row -> constant row index
	constRowSize := ts.rowSize(tblConstant)
	constData := ts.tableData[tblConstant]
	for i := 0; i < constRows; i++ {
		row := constData[i*constRowSize : (i+1)*constRowSize]
		parent := binary.LittleEndian.Uint16(row[2:4])
		tag := parent & 0x3
		index := int(parent >> 2)
		if tag == 0 && index > 0 { // HasConstant tag 0 == Field
			fieldToConstant[index] = i
		}
	}

	fieldRowSize := ts.rowSize(tblField)
	fieldData := ts.tableData[tblField]
	typeDefRowSize := ts.rowSize(tblTypeDef)
	typeDefData := ts.tableData[tblTypeDef]
	strIdx := ts.strIdxSize()

	fieldListAt := func(typeDefIdx int) int {
		row := typeDefData[typeDefIdx*typeDefRowSize : (typeDefIdx+1)*typeDefRowSize]
		off := 4 + strIdx*2 + 2 // flags, name, namespace, extends
		return int(binary.LittleEndian.Uint16(row[off : off+2]))
	}

	for t := 0; t < typeDefRows; t++ {
		row := typeDefData[t*typeDefRowSize : (t+1)*typeDefRowSize]
		nameIdx := binary.LittleEndian.Uint16(row[4 : 4+strIdx])
		nsIdx := binary.LittleEndian.Uint16(row[4+strIdx : 4+2*strIdx])
		name := ts.stringAt(uint32(nameIdx))
		namespace := ts.stringAt(uint32(nsIdx))
		if name == "" {
			continue
		}
		fullName := name
		if namespace != "" {
			fullName = namespace + "." + name
		}

		start := fieldListAt(t)
		end := fieldRows + 1
		if t+1 < typeDefRows {
			end = fieldListAt(t + 1)
		}
		if start <= 0 || start > fieldRows {
			continue
		}

		var desc *EnumDesc
		for f := start; f < end && f <= fieldRows; f++ {
			constRowIdx, ok := fieldToConstant[f]
			if !ok {
				continue
			}
			crow := constData[constRowIdx*constRowSize : (constRowIdx+1)*constRowSize]
			elemType := crow[0]
			blobIdx := binary.LittleEndian.Uint16(crow[4 : 4+ts.blobIdxSize()])
			blob := ts.blobAt(uint32(blobIdx))
			value, bits, ok := constantLiteralValue(elemType, blob)
			if !ok {
				continue
			}

			frow := fieldData[(f-1)*fieldRowSize : f*fieldRowSize]
			fieldName := ts.stringAt(uint32(binary.LittleEndian.Uint16(frow[2 : 2+strIdx])))
			if fieldName == "" || fieldName == "value__" {
				continue
			}
			if desc == nil {
				desc = newEnumDesc(fullName, bits, false)
			}
			desc.addMember(fieldName, value)
		}
		if desc != nil && len(desc.order) > 0 {
			desc.finalize()
			db.addEnum(desc)
		}
	}
	return nil
}

// AssemblyEnumLoader loads enum definitions out of a managed .NET
// assembly (.dll/.exe). It locates the ECMA-335 metadata root by
// scanning the image for the "BSJB" signature (see Load), then decodes
// the tables stream directly since no ecosystem Go library parses
// managed metadata.
type AssemblyEnumLoader struct{}

func (l *AssemblyEnumLoader) Name() string { return "assembly" }

func (l *AssemblyEnumLoader) Accepts(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".dll") || strings.HasSuffix(lower, ".exe")
}

// Load expects data to be the full PE image bytes of a managed
// assembly. It scans for the "BSJB" metadata-root signature rather
// than walking the CLI header/RVA chain, which keeps this loader free
// of a peformat dependency at the cost of a linear scan; acceptable
// given assemblies are parsed once, offline, not on a decode hot path.
func (l *AssemblyEnumLoader) Load(db *Database, path string, data []byte) error {
	rootOff := findMetadataRoot(data)
	if rootOff < 0 {
		return fmt.Errorf("constdb: %s: no CLR metadata root found", path)
	}
	root, err := parseMetadataRoot(data[rootOff:])
	if err != nil {
		return fmt.Errorf("constdb: %s: %w", path, err)
	}
	ts, err := parseTablesStream(root)
	if err != nil {
		return fmt.Errorf("constdb: %s: %w", path, err)
	}
	return enumsFromTables(db, ts)
}

func findMetadataRoot(data []byte) int {
	const sig = "\x42\x53\x4A\x42" // "BSJB" little-endian of 0x424A5342
	for i := 0; i+4 <= len(data); i++ {
		if data[i] == sig[0] && data[i+1] == sig[1] && data[i+2] == sig[2] && data[i+3] == sig[3] {
			return i
		}
	}
	return -1
}

// WinmdLoader loads enum definitions out of a standalone .winmd
// metadata file (a Windows Runtime metadata-only CLR image, per
// ECMA-335 augmented by the WinRT projection rules). Unlike
// AssemblyEnumLoader it is handed the metadata root directly, since
// .winmd inputs in this pipeline are already-extracted metadata
// streams rather than full PE images.
type WinmdLoader struct{}

func (l *WinmdLoader) Name() string { return "winmd" }

func (l *WinmdLoader) Accepts(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".winmd")
}

func (l *WinmdLoader) Load(db *Database, path string, data []byte) error {
	root, err := parseMetadataRoot(data)
	if err != nil {
		// Fall back to scanning, in case a full PE image was handed in
		// under a .winmd name.
		if off := findMetadataRoot(data); off >= 0 {
			root, err = parseMetadataRoot(data[off:])
		}
		if err != nil {
			return fmt.Errorf("constdb: %s: %w", path, err)
		}
	}
	ts, err := parseTablesStream(root)
	if err != nil {
		return fmt.Errorf("constdb: %s: %w", path, err)
	}
	return enumsFromTables(db, ts)
}
