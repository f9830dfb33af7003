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

// Package passes rewrites a lifted ir.FunctionIR in place through a fixed,
// ordered pipeline of small independent transforms. There is no dependency
// graph between passes and no rollback on failure: each pass is a pure
// mutation that either improves the IR or leaves it alone.
package passes

import "github.com/gorse-io/dllxray/ir"

// Pass mutates a FunctionIR in place.
type Pass func(fn *ir.FunctionIR)

// Manager runs an ordered list of passes.
type Manager struct {
	Passes []Pass
}

// Run applies every pass in order, once each.
func (m Manager) Run(fn *ir.FunctionIR) {
	for _, p := range m.Passes {
		p(fn)
	}
}

// DefaultPipeline returns the seven standard passes in their mandated
// order: redundant-assign removal, arithmetic-identity simplification,
// constant folding, frame-object clustering, dead bit-test pseudo
// removal, named-constant mapping (return value and ret-register
// assignment), then logical-not simplification.
func DefaultPipeline(db ConstantDatabase) Manager {
	return Manager{Passes: []Pass{
		SimplifyRedundantAssign,
		SimplifyArithmeticIdentities,
		FoldConstants,
		FrameObjectClusteringAndRspAlias,
		DropRedundantBitTestPseudo,
		MapNamedReturnConstants(db),
		MapNamedRetAssignConstants(db),
		SimplifyLogicalNots,
	}}
}

// ConstantDatabase is the capability a pass needs from constdb.Database,
// named as a narrow interface here so passes does not import constdb
// directly (the dependency runs printer/root -> constdb, passes only
// needs the one lookup method).
type ConstantDatabase interface {
	TryFormatValue(enumFullName string, value uint64) (found bool, formatted string)
}
