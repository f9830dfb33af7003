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

package passes

import (
	"testing"

	"github.com/gorse-io/dllxray/ir"
	"github.com/stretchr/testify/require"
)

func TestManagerRunsPassesInOrder(t *testing.T) {
	var order []string
	record := func(name string) Pass {
		return func(*ir.FunctionIR) { order = append(order, name) }
	}
	m := Manager{Passes: []Pass{record("a"), record("b"), record("c")}}
	m.Run(ir.NewFunctionIR("f", ir.Int(64, false)))
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDefaultPipelineFoldsAndDropsDeadCode(t *testing.T) {
	db := stubDB{table: map[uint64]string{5: "FIVE"}}
	fn := blockFunc(
		ir.Assign(ir.Reg("eax", 32), ir.Reg("eax", 32)),
		ir.Assign(ir.Param("ret", 32), ir.Bin(ir.OpAdd, ir.UConst(2, 32), ir.UConst(3, 32), 32)),
		ir.Return(exprPtr(ir.Param("ret", 32))),
	)
	fn.SetTag(ir.TagReturnEnumType, "SOME_ENUM")

	DefaultPipeline(db).Run(fn)

	stmts := fn.Blocks[0].Statements
	require.Len(t, stmts, 2, "the self-assign should have been dropped")
	require.Equal(t, ir.ESymConst, stmts[0].Rhs.Kind)
	require.Equal(t, "FIVE", stmts[0].Rhs.SymName)
}
