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

import "github.com/gorse-io/dllxray/ir"

// SimplifyRedundantAssign removes "x = x" statements left behind by
// width-normalization earlier in the pipeline (e.g. a mov that widens a
// register into itself).
func SimplifyRedundantAssign(fn *ir.FunctionIR) {
	for bi := range fn.Blocks {
		stmts := fn.Blocks[bi].Statements
		kept := stmts[:0]
		for _, s := range stmts {
			if s.Kind == ir.SAssign && s.Lhs.Equal(*s.Rhs) {
				continue
			}
			kept = append(kept, s)
		}
		fn.Blocks[bi].Statements = kept
	}
}
