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

// Package printer renders a lifted, rewritten ir.FunctionIR back to
// C-like pseudo-source: operator-precedence-aware parenthesization,
// signed/unsigned comparison hints, typed memory-access syntax, and
// symbolic constants substituted at call sites via a ConstantProvider.
package printer

// ConstantProvider is the narrow capability the printer needs from
// constdb.Database: given a callee symbol and argument position, what
// enum type (if any) is that argument expected to hold, and given an
// enum type and value, what is its symbolic name (if known). Kept as an
// interface here, not a concrete constdb.Database, so printer tests run
// against a stub and the package carries no global ambient config.
type ConstantProvider interface {
	TryGetArgExpectedEnumType(calleeName string, argIndex int) (string, bool)
	TryFormatValue(enumFullName string, value uint64) (found bool, formatted string)
}

// NoConstants is a ConstantProvider that never resolves anything, for
// callers that don't have (or don't want) symbolic constant lookups.
type NoConstants struct{}

func (NoConstants) TryGetArgExpectedEnumType(string, int) (string, bool) { return "", false }
func (NoConstants) TryFormatValue(string, uint64) (bool, string)        { return false, "" }

// Options configures rendering. The zero value is usable: no header
// comment, no block labels, no signedness hints, non-stdint type names,
// a four-space indent, and NoConstants{} as the constant provider.
type Options struct {
	EmitHeaderComment      bool
	EmitBlockLabels        bool
	CommentSignednessOnCmp bool
	UseStdIntNames         bool
	Indent                 string
	ConstantProvider       ConstantProvider
}

func (o Options) indent() string {
	if o.Indent != "" {
		return o.Indent
	}
	return "    "
}

func (o Options) provider() ConstantProvider {
	if o.ConstantProvider != nil {
		return o.ConstantProvider
	}
	return NoConstants{}
}
