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
	"testing"

	"github.com/stretchr/testify/require"
)

func pageProtectionEnum() *EnumDesc {
	e := newEnumDesc("PAGE_PROTECTION_FLAGS", 32, true)
	e.addMember("PAGE_NOACCESS", 0x01)
	e.addMember("PAGE_READONLY", 0x02)
	e.addMember("PAGE_READWRITE", 0x04)
	e.addMember("PAGE_GUARD", 0x100)
	e.finalize()
	return e
}

func TestTryFormatValueExactMember(t *testing.T) {
	db := NewDatabase()
	db.addEnum(pageProtectionEnum())

	found, formatted := db.TryFormatValue("PAGE_PROTECTION_FLAGS", 0x04)
	require.True(t, found)
	require.Equal(t, "PAGE_PROTECTION_FLAGS.PAGE_READWRITE", formatted)
}

func TestTryFormatValueFlagComposition(t *testing.T) {
	db := NewDatabase()
	db.addEnum(pageProtectionEnum())

	found, formatted := db.TryFormatValue("PAGE_PROTECTION_FLAGS", 0x04|0x100)
	require.True(t, found)
	require.Equal(t, "PAGE_PROTECTION_FLAGS.PAGE_READWRITE | PAGE_PROTECTION_FLAGS.PAGE_GUARD", formatted)
}

func TestTryFormatValueNoMatchFallsBackToHex(t *testing.T) {
	db := NewDatabase()
	db.addEnum(pageProtectionEnum())

	found, formatted := db.TryFormatValue("PAGE_PROTECTION_FLAGS", 0x08|0x10)
	require.False(t, found)
	require.Equal(t, "0x18", formatted)
}

func TestTryFormatValueUnknownEnum(t *testing.T) {
	db := NewDatabase()
	found, formatted := db.TryFormatValue("NOT_LOADED", 1)
	require.False(t, found)
	require.Equal(t, "0x1", formatted)
}

func TestFindByValueDedupesAcrossEnums(t *testing.T) {
	db := NewDatabase()
	db.addEnum(pageProtectionEnum())

	matches := db.FindByValue(0x04, 32)
	require.Len(t, matches, 1)
	require.Equal(t, "PAGE_PROTECTION_FLAGS", matches[0].EnumFullName)
}

func TestFindByValueRespectsBitWidth(t *testing.T) {
	db := NewDatabase()
	db.addEnum(pageProtectionEnum())

	matches := db.FindByValue(0x04|0x100, 8)
	require.Empty(t, matches)
}

func TestBuiltinCallArgEnumsSeeded(t *testing.T) {
	db := NewDatabase()
	db.addEnum(pageProtectionEnum())

	enumName, ok := db.TryGetArgExpectedEnumType("VirtualAlloc", 3)
	require.True(t, ok)
	require.Equal(t, "PAGE_PROTECTION_FLAGS", enumName)
}

func TestTryGetArgExpectedEnumTypeStripsModulePrefix(t *testing.T) {
	db := NewDatabase()
	db.addEnum(pageProtectionEnum())

	enumName, ok := db.TryGetArgExpectedEnumType("kernel32!VirtualAlloc", 3)
	require.True(t, ok)
	require.Equal(t, "PAGE_PROTECTION_FLAGS", enumName)
}

func TestTryGetArgExpectedEnumTypeUnmappedArg(t *testing.T) {
	db := NewDatabase()
	_, ok := db.TryGetArgExpectedEnumType("VirtualAlloc", 0)
	require.False(t, ok)
}

func TestTryGetArgExpectedEnumTypeRequiresLoadedEnum(t *testing.T) {
	db := NewDatabase()
	// PAGE_PROTECTION_FLAGS is mapped but never loaded.
	_, ok := db.TryGetArgExpectedEnumType("VirtualAlloc", 3)
	require.False(t, ok)
}

func TestMapArgEnumOverridesBuiltin(t *testing.T) {
	db := NewDatabase()
	db.addEnum(newEnumDescForTest("CUSTOM_PROTECTION"))
	db.MapArgEnum("VirtualAlloc", 3, "CUSTOM_PROTECTION")

	enumName, ok := db.TryGetArgExpectedEnumType("VIRTUALALLOC", 3)
	require.True(t, ok)
	require.Equal(t, "CUSTOM_PROTECTION", enumName)
}

func TestLoadedEnumNamesSorted(t *testing.T) {
	db := NewDatabase()
	db.addEnum(newEnumDescForTest("Zeta"))
	db.addEnum(newEnumDescForTest("Alpha"))

	require.Equal(t, []string{"Alpha", "Zeta"}, db.LoadedEnumNames())
}

func newEnumDescForTest(name string) *EnumDesc {
	e := newEnumDesc(name, 32, false)
	e.addMember("ONE", 1)
	e.finalize()
	return e
}

func TestEnumDescLooksLikeFlagsHeuristic(t *testing.T) {
	nonFlag := newEnumDesc("Color", 32, false)
	nonFlag.addMember("Red", 3)
	nonFlag.addMember("Green", 5)
	nonFlag.addMember("Blue", 6)
	nonFlag.finalize()
	require.False(t, nonFlag.LooksLikeFlags)

	flagLike := newEnumDesc("Access", 32, false)
	flagLike.addMember("Read", 1)
	flagLike.addMember("Write", 2)
	flagLike.addMember("Execute", 4)
	flagLike.finalize()
	require.True(t, flagLike.LooksLikeFlags)
}

func TestEnumDescDuplicateValuePreservesFirst(t *testing.T) {
	e := newEnumDesc("Dup", 32, false)
	e.addMember("First", 1)
	e.addMember("Second", 1)
	e.finalize()
	require.Equal(t, "First", e.ValueToName[1])
}
