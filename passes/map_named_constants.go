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

// MapNamedReturnConstants replaces a literal ReturnStmt value with a
// SymConst when fn is tagged with a known return-enum type (ir.
// TagReturnEnumType) and db recognizes the literal as one of that enum's
// members. Functions with no such tag, or a value the database doesn't
// recognize, are left untouched.
func MapNamedReturnConstants(db ConstantDatabase) Pass {
	return func(fn *ir.FunctionIR) {
		enumName, ok := fn.Tags[ir.TagReturnEnumType].(string)
		if !ok || enumName == "" {
			return
		}
		for bi := range fn.Blocks {
			stmts := fn.Blocks[bi].Statements
			for si := range stmts {
				s := &stmts[si]
				if s.Kind != ir.SReturn || s.ReturnValue == nil || !s.ReturnValue.IsLiteral() {
					continue
				}
				if sym, found := mapLiteralToSymConst(db, enumName, *s.ReturnValue); found {
					s.ReturnValue = &sym
				}
			}
		}
	}
}

// MapNamedRetAssignConstants does the same substitution for a literal
// assigned directly to the ret alias (the MSVC return-value register
// before a RET is reached), covering the common case of a function
// setting its return status mid-body rather than only at the final
// return.
func MapNamedRetAssignConstants(db ConstantDatabase) Pass {
	return func(fn *ir.FunctionIR) {
		enumName, ok := fn.Tags[ir.TagReturnEnumType].(string)
		if !ok || enumName == "" {
			return
		}
		for bi := range fn.Blocks {
			stmts := fn.Blocks[bi].Statements
			for si := range stmts {
				s := &stmts[si]
				if s.Kind != ir.SAssign || s.Lhs == nil || s.Rhs == nil {
					continue
				}
				if s.Lhs.Kind != ir.EParam || s.Lhs.Name != "ret" || !s.Rhs.IsLiteral() {
					continue
				}
				if sym, found := mapLiteralToSymConst(db, enumName, *s.Rhs); found {
					s.Rhs = &sym
				}
			}
		}
	}
}

func mapLiteralToSymConst(db ConstantDatabase, enumName string, lit ir.Expr) (ir.Expr, bool) {
	found, formatted := db.TryFormatValue(enumName, lit.AsUint64())
	if !found {
		return ir.Expr{}, false
	}
	return ir.SymConst(formatted, lit.AsUint64(), lit.Bits), true
}
