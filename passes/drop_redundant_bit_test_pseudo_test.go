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

func TestDropRedundantBitTestPseudoRemovesMatches(t *testing.T) {
	fn := blockFunc(
		ir.Pseudo("BT_bit"),
		ir.Assign(ir.Reg("eax", 32), ir.Const(1, 32)),
		ir.Pseudo("CF = bit(eax, 3)"),
	)
	DropRedundantBitTestPseudo(fn)
	require.Len(t, fn.Blocks[0].Statements, 1)
	require.Equal(t, ir.SAssign, fn.Blocks[0].Statements[0].Kind)
}

func TestDropRedundantBitTestPseudoLeavesOtherPseudosAlone(t *testing.T) {
	fn := blockFunc(ir.Pseudo("unhandled_opcode(vmcall)"))
	DropRedundantBitTestPseudo(fn)
	require.Len(t, fn.Blocks[0].Statements, 1)
}
