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
	"strings"

	"github.com/gorse-io/dllxray/ir"
)

// DropRedundantBitTestPseudo removes "<op>_bit"/"CF = bit(...)" pseudo
// notes left by lift's BT/BTS/BTR/BTC lowering once their consumer is
// gone. lift does not currently thread CF into a following Jcc (see
// DESIGN.md's lift section), so every such pseudo is unconsumed as soon
// as it is emitted; this pass is still structured around a named
// predicate (isBitTestPseudo) rather than a blanket removal so that a
// future CF-aware Jcc consumer can narrow it to "truly dead" notes only.
func DropRedundantBitTestPseudo(fn *ir.FunctionIR) {
	for bi := range fn.Blocks {
		stmts := fn.Blocks[bi].Statements
		kept := stmts[:0]
		for _, s := range stmts {
			if s.Kind == ir.SPseudo && isBitTestPseudo(s.Text) {
				continue
			}
			kept = append(kept, s)
		}
		fn.Blocks[bi].Statements = kept
	}
}

func isBitTestPseudo(text string) bool {
	return strings.HasSuffix(text, "_bit") || strings.HasPrefix(text, "CF = bit(")
}
