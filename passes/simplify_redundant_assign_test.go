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

func blockFunc(stmts ...ir.Stmt) *ir.FunctionIR {
	fn := ir.NewFunctionIR("f", ir.Int(64, false))
	fn.Blocks = []ir.BasicBlock{{Statements: stmts}}
	return fn
}

func TestSimplifyRedundantAssignRemovesSelfAssign(t *testing.T) {
	fn := blockFunc(
		ir.Assign(ir.Reg("rax", 32), ir.Reg("rax", 32)),
		ir.Assign(ir.Reg("rbx", 32), ir.Const(1, 32)),
	)
	SimplifyRedundantAssign(fn)
	require.Len(t, fn.Blocks[0].Statements, 1)
	require.True(t, fn.Blocks[0].Statements[0].Rhs.Equal(ir.Const(1, 32)))
}

func TestSimplifyRedundantAssignNoopWhenNoMatch(t *testing.T) {
	fn := blockFunc(ir.Assign(ir.Reg("rax", 32), ir.Const(5, 32)))
	before := len(fn.Blocks[0].Statements)
	SimplifyRedundantAssign(fn)
	require.Equal(t, before, len(fn.Blocks[0].Statements))
}
