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

func TestLabelNamerEncounterOrder(t *testing.T) {
	next := NewLabelNamer()
	require.Equal(t, "L1", next())
	require.Equal(t, "L2", next())
	require.Equal(t, "L3", next())
}

func TestFunctionIRTags(t *testing.T) {
	fn := NewFunctionIR("foo", Int(64, false))
	require.False(t, fn.UsesFramePointer())

	fn.SetTag(TagUsesFramePointer, true)
	fn.SetTag(TagLocalSize, 32)

	require.True(t, fn.UsesFramePointer())
	size, ok := fn.LocalSize()
	require.True(t, ok)
	require.Equal(t, 32, size)
}

func TestAddLocalIdempotent(t *testing.T) {
	fn := NewFunctionIR("foo", Void())
	fn.AddLocal(LocalInfo{Name: "local_0x20", Type: Pointer(Int(8, false))})
	fn.AddLocal(LocalInfo{Name: "local_0x20", Type: Pointer(Int(8, false))})
	require.Len(t, fn.Locals, 1)
}

func TestWalkVisitsEveryStatement(t *testing.T) {
	l1 := &LabelSymbol{Name: "L1"}
	fn := &FunctionIR{
		Name: "foo",
		Blocks: []BasicBlock{
			{Statements: []Stmt{AsmComment("nop", 0), Goto(l1)}},
			{Label: l1, Statements: []Stmt{Return(nil)}},
		},
	}
	var count int
	fn.Walk(func(_, _ int, s *Stmt) { count++ })
	require.Equal(t, 3, count)
}

func TestFindBlock(t *testing.T) {
	l1 := &LabelSymbol{Name: "L1"}
	fn := &FunctionIR{Blocks: []BasicBlock{{Label: l1}}}
	require.NotNil(t, fn.FindBlock(l1))
	require.Nil(t, fn.FindBlock(&LabelSymbol{Name: "L2"}))
}
