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

// Package constdb maps numeric values back to symbolic names drawn from
// loaded enum definitions, so the pretty-printer can render e.g. 0x04 as
// PAGE_READWRITE instead of a bare hex literal.
package constdb

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// FlagPart is one single-bit mask of a flag-like enum. FlagParts are
// ordered by descending mask, so TryFormatValue's greedy subtraction
// tries the highest bits first.
type FlagPart struct {
	Mask uint64
	Name string
}

// EnumDesc describes one loaded enum type.
type EnumDesc struct {
	FullName       string
	UnderlyingBits int
	DeclaredFlags  bool // carried a [Flags]-equivalent attribute
	LooksLikeFlags bool // computed once, after all members load
	ValueToName    map[uint64]string
	FlagParts      []FlagPart
	order          []uint64 // insertion order, for duplicate-preserving ValueToName
}

func newEnumDesc(fullName string, underlyingBits int, declaredFlags bool) *EnumDesc {
	return &EnumDesc{
		FullName:       fullName,
		UnderlyingBits: underlyingBits,
		DeclaredFlags:  declaredFlags,
		ValueToName:    map[uint64]string{},
	}
}

// addMember records a member/value pair. Duplicates preserve the
// earliest entry, per the constant database's invariant.
func (e *EnumDesc) addMember(name string, value uint64) {
	if _, exists := e.ValueToName[value]; exists {
		return
	}
	e.ValueToName[value] = name
	e.order = append(e.order, value)
}

// finalize computes LooksLikeFlags and FlagParts. Must run exactly once,
// after every member has been added.
func (e *EnumDesc) finalize() {
	singleBit := 0
	for _, v := range e.order {
		if v != 0 && v&(v-1) == 0 {
			singleBit++
		}
	}
	total := len(e.order)
	threshold := total / 2
	if threshold < 1 {
		threshold = 1
	}
	e.LooksLikeFlags = e.DeclaredFlags || singleBit >= threshold

	if !e.LooksLikeFlags {
		return
	}
	for _, v := range e.order {
		if v != 0 && v&(v-1) == 0 {
			e.FlagParts = append(e.FlagParts, FlagPart{Mask: v, Name: e.ValueToName[v]})
		}
	}
	sort.Slice(e.FlagParts, func(i, j int) bool { return e.FlagParts[i].Mask > e.FlagParts[j].Mask })
}

// ConstantMatch is one hit returned by FindByValue: a value equal to v in
// the named enum, formatted the way TryFormatValue would format it.
type ConstantMatch struct {
	EnumFullName string
	Formatted    string
}

// Database answers "format value V as a member of enum E" and "which
// known constants equal V, possibly as an OR of flags".
type Database struct {
	enumsByName   map[string]*EnumDesc
	valueIndex    map[uint64][]ConstantMatch
	flagEnums     []*EnumDesc
	callArgEnums  map[string]map[int]string // lower(callee) -> argIndex -> enum full name
}

// NewDatabase returns an empty database pre-populated with the
// call-argument hints for common Win32 APIs (spec.md section 4.2's
// "small built-in table").
func NewDatabase() *Database {
	db := &Database{
		enumsByName:  map[string]*EnumDesc{},
		valueIndex:   map[uint64][]ConstantMatch{},
		callArgEnums: map[string]map[int]string{},
	}
	for callee, args := range builtinCallArgEnums {
		for argIndex, enumName := range args {
			db.MapArgEnum(callee, argIndex, enumName)
		}
	}
	return db
}

// builtinCallArgEnums seeds the well-known Win32 call sites named in
// SPEC_FULL.md section 4.2. Argument indices are zero-based.
var builtinCallArgEnums = map[string]map[int]string{
	"VirtualAlloc": {
		2: "MEM_ALLOCATION_TYPE",
		3: "PAGE_PROTECTION_FLAGS",
	},
	"CreateFileW": {
		1: "FILE_ACCESS_RIGHTS",
		4: "FILE_CREATION_DISPOSITION",
		5: "FILE_FLAGS_AND_ATTRIBUTES",
	},
	"NtCreateFile": {
		1: "FILE_ACCESS_RIGHTS",
	},
	"LoadLibraryExW": {
		2: "LOAD_LIBRARY_SEARCH_FLAGS",
	},
}

// addEnum registers a fully-built EnumDesc, indexing its members into
// the global value index and flag-enum list. Called by loaders after
// finalize().
func (db *Database) addEnum(e *EnumDesc) {
	db.enumsByName[e.FullName] = e
	for v, name := range e.ValueToName {
		formatted := e.FullName + "." + name
		db.valueIndex[v] = append(db.valueIndex[v], ConstantMatch{EnumFullName: e.FullName, Formatted: formatted})
	}
	if e.LooksLikeFlags {
		db.flagEnums = append(db.flagEnums, e)
	}
}

// LoadedEnumNames lists every enum currently loaded, for CLI
// introspection (SPEC_FULL.md section 10).
func (db *Database) LoadedEnumNames() []string {
	names := make([]string, 0, len(db.enumsByName))
	for name := range db.enumsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TryFormatValue renders value as a member of enumFullName. It returns
// the exact member name when one exists; for flag-like enums it
// greedily subtracts the largest known flag mask (masks sorted
// descending) and, if the residual reaches zero, returns the
// "A | B | C" composition, listed from the lowest mask up. Otherwise it
// returns the hex literal and found=false.
func (db *Database) TryFormatValue(enumFullName string, value uint64) (found bool, formatted string) {
	e, ok := db.enumsByName[enumFullName]
	if !ok {
		return false, hexLiteral(value)
	}
	if name, ok := e.ValueToName[value]; ok {
		return true, e.FullName + "." + name
	}
	if !e.LooksLikeFlags || len(e.FlagParts) == 0 {
		return false, hexLiteral(value)
	}
	remaining := value
	var parts []string
	for _, part := range e.FlagParts {
		if part.Mask != 0 && remaining&part.Mask == part.Mask {
			parts = append(parts, e.FullName+"."+part.Name)
			remaining &^= part.Mask
		}
	}
	if remaining == 0 && len(parts) > 0 {
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
		return true, strings.Join(parts, " | ")
	}
	return false, hexLiteral(value)
}

func hexLiteral(v uint64) string {
	return "0x" + strings.ToUpper(uintToHex(v))
}

// FindByValue returns every exact match from the global value index plus
// synthesized flag compositions from every flag enum whose underlying
// width is <= bitWidth. Results are deduplicated; ordering is
// unspecified (callers apply their own ranking).
func (db *Database) FindByValue(value uint64, bitWidth int) []ConstantMatch {
	if bitWidth <= 0 {
		bitWidth = 32
	}
	matches := append([]ConstantMatch(nil), db.valueIndex[value]...)
	for _, e := range db.flagEnums {
		if e.UnderlyingBits > bitWidth {
			continue
		}
		if _, exact := e.ValueToName[value]; exact {
			continue // already present via valueIndex
		}
		if found, formatted := db.TryFormatValue(e.FullName, value); found {
			matches = append(matches, ConstantMatch{EnumFullName: e.FullName, Formatted: formatted})
		}
	}
	return lo.UniqBy(matches, func(m ConstantMatch) string { return m.EnumFullName + "|" + m.Formatted })
}

// MapArgEnum registers a call-site hint: the argIndex'th argument of
// calleeName is expected to be a member of enumFullName.
func (db *Database) MapArgEnum(calleeName string, argIndex int, enumFullName string) {
	key := strings.ToLower(calleeName)
	args, ok := db.callArgEnums[key]
	if !ok {
		args = map[int]string{}
		db.callArgEnums[key] = args
	}
	args[argIndex] = enumFullName
}

// TryGetArgExpectedEnumType strips any "module!" prefix from calleeName
// before lookup; it returns a match only when the mapping exists AND the
// referenced enum has actually been loaded.
func (db *Database) TryGetArgExpectedEnumType(calleeName string, argIndex int) (enumFullName string, ok bool) {
	name := calleeName
	if idx := strings.IndexByte(name, '!'); idx >= 0 {
		name = name[idx+1:]
	}
	args, ok := db.callArgEnums[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	enumFullName, ok = args[argIndex]
	if !ok {
		return "", false
	}
	if _, loaded := db.enumsByName[enumFullName]; !loaded {
		return "", false
	}
	return enumFullName, true
}

func uintToHex(v uint64) string {
	if v == 0 {
		return "0"
	}
	const digits = "0123456789abcdef"
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}
