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

package printer

import (
	"fmt"
	"strings"

	"github.com/gorse-io/dllxray/ir"
)

// printState carries the options and output buffer threaded through one
// PrintFunction call. It is not safe for concurrent use, matching the
// teacher's own single-goroutine-per-render `strings.Builder` codegen.
type printState struct {
	opts Options
	buf  strings.Builder
}

func (p *printState) writeLine(depth int, text string) {
	p.buf.WriteString(strings.Repeat(p.opts.indent(), depth))
	p.buf.WriteString(text)
	p.buf.WriteByte('\n')
}

// renderStmt renders one statement at the given indent depth. It returns
// false for SNop, which callers skip rather than emit a blank line for.
func (p *printState) renderStmt(s ir.Stmt, depth int) bool {
	switch s.Kind {
	case ir.SNop:
		return false
	case ir.SAssign:
		p.writeLine(depth, p.renderAssign(*s.Lhs, *s.Rhs))
	case ir.SStore:
		addr := p.renderExpr(*s.Address, 0)
		if prefix := s.Segment.String(); prefix != "" {
			addr = prefix + ":" + addr
		}
		text := fmt.Sprintf("*((%s*)(%s)) = %s;", s.ElemType.CName(p.opts.UseStdIntNames), addr, p.renderExpr(*s.Value, 0))
		p.writeLine(depth, text)
	case ir.SCall:
		p.writeLine(depth, p.renderExpr(*s.Call, 0)+";")
	case ir.SIfGoto:
		p.writeLine(depth, fmt.Sprintf("if (%s) goto %s;", p.renderExpr(*s.Cond, 0), s.Label.String()))
	case ir.SGoto:
		p.writeLine(depth, fmt.Sprintf("goto %s;", s.Label.String()))
	case ir.SLabel:
		// Labels are emitted flush against the left margin, C style.
		p.buf.WriteString(s.Label.String())
		p.buf.WriteString(":\n")
	case ir.SReturn:
		if s.ReturnValue == nil {
			p.writeLine(depth, "return;")
		} else {
			p.writeLine(depth, fmt.Sprintf("return %s;", p.renderExpr(*s.ReturnValue, 0)))
		}
	case ir.SAsmComment:
		p.writeLine(depth, fmt.Sprintf("// %#x: %s", s.IP, s.Text))
	case ir.SPseudo:
		p.writeLine(depth, fmt.Sprintf("// %s", s.Text))
	}
	return true
}

// renderAssign renders "lhs = rhs;", appending the "// RAX" annotation
// when the assignment target is the return-value register/alias, so a
// reader can tell at a glance which of several assignments in a block
// is the one that actually determines the function's result.
func (p *printState) renderAssign(lhs, rhs ir.Expr) string {
	text := fmt.Sprintf("%s = %s;", p.renderExpr(lhs, 0), p.renderExpr(rhs, 0))
	if isReturnRegister(lhs) {
		text += " // RAX"
	}
	return text
}

func isReturnRegister(e ir.Expr) bool {
	switch e.Kind {
	case ir.EParam:
		return e.Name == "ret"
	case ir.EReg:
		switch e.Name {
		case "rax", "eax", "ax", "al":
			return true
		}
	}
	return false
}
