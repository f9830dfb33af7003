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

	"github.com/gorse-io/dllxray/ir"
)

// PrintFunction renders fn as C-like pseudo-source under opts. Prefers
// fn.StructuredBody when a pass or structuring component attached one;
// otherwise falls back to emitting fn.Blocks linearly, with labels and
// gotos exactly as the lifter produced them.
func PrintFunction(fn *ir.FunctionIR, opts Options) string {
	p := &printState{opts: opts}
	p.writeHeader(fn)
	p.writeSignature(fn)
	p.buf.WriteString("{\n")
	p.writeLocals(fn)
	if fn.StructuredBody != nil {
		p.renderHiNode(*fn.StructuredBody, 1)
	} else {
		p.renderLinearBody(fn)
	}
	p.buf.WriteString("}\n")
	return p.buf.String()
}

func (p *printState) writeHeader(fn *ir.FunctionIR) {
	if !p.opts.EmitHeaderComment {
		return
	}
	p.buf.WriteString("// Decompiled by dllxray. DO NOT EDIT.\n")
	p.buf.WriteString(fmt.Sprintf("// function: %s\n", fn.Name))
	if size, ok := fn.LocalSize(); ok {
		p.buf.WriteString(fmt.Sprintf("// frame size: %#x\n", size))
	}
	if fn.UsesFramePointer() {
		p.buf.WriteString("// uses frame pointer\n")
	}
	p.buf.WriteString("\n")
}

func (p *printState) writeSignature(fn *ir.FunctionIR) {
	params := make([]string, len(fn.Parameters))
	for i, param := range fn.Parameters {
		params[i] = fmt.Sprintf("%s %s", param.Type.CName(p.opts.UseStdIntNames), param.Name)
	}
	sig := fmt.Sprintf("%s %s(", fn.ReturnType.CName(p.opts.UseStdIntNames), fn.Name)
	for i, s := range params {
		if i > 0 {
			sig += ", "
		}
		sig += s
	}
	if len(params) == 0 {
		sig += "void"
	}
	sig += ")"
	p.buf.WriteString(sig + "\n")
}

func (p *printState) writeLocals(fn *ir.FunctionIR) {
	for _, l := range fn.Locals {
		decl := fmt.Sprintf("%s %s", l.Type.CName(p.opts.UseStdIntNames), l.Name)
		if l.Initializer != nil {
			decl += " = " + p.renderExpr(*l.Initializer, 0)
		}
		p.writeLine(1, decl+";")
	}
}

func (p *printState) renderLinearBody(fn *ir.FunctionIR) {
	for _, block := range fn.Blocks {
		if p.opts.EmitBlockLabels && block.Label != nil {
			p.buf.WriteString(block.Label.String())
			p.buf.WriteString(":\n")
		}
		for _, s := range block.Statements {
			p.renderStmt(s, 1)
		}
	}
}

func (p *printState) renderHiNode(n ir.HiNode, depth int) {
	switch n.Kind {
	case ir.HSeq:
		for _, child := range n.Children {
			p.renderHiNode(child, depth)
		}
	case ir.HStmt:
		p.renderStmt(*n.Statement, depth)
	case ir.HIf:
		p.writeLine(depth, fmt.Sprintf("if (%s) {", p.renderExpr(*n.Cond, 0)))
		p.renderHiNode(*n.Then, depth+1)
		if n.Else != nil {
			p.writeLine(depth, "} else {")
			p.renderHiNode(*n.Else, depth+1)
		}
		p.writeLine(depth, "}")
	case ir.HWhile:
		p.writeLine(depth, fmt.Sprintf("while (%s) {", p.renderExpr(*n.Cond, 0)))
		p.renderHiNode(*n.Body, depth+1)
		p.writeLine(depth, "}")
	case ir.HDoWhile:
		p.writeLine(depth, "do {")
		p.renderHiNode(*n.Body, depth+1)
		p.writeLine(depth, fmt.Sprintf("} while (%s);", p.renderExpr(*n.Cond, 0)))
	case ir.HSwitch:
		p.writeLine(depth, fmt.Sprintf("switch (%s) {", p.renderExpr(*n.Scrutinee, 0)))
		for _, c := range n.Cases {
			if c.IsDefault {
				p.writeLine(depth, "default:")
			} else {
				p.writeLine(depth, fmt.Sprintf("case %s:", p.renderExpr(*c.MatchValue, 0)))
			}
			if c.Body != nil {
				p.renderHiNode(*c.Body, depth+1)
			}
			p.writeLine(depth+1, "break;")
		}
		p.writeLine(depth, "}")
	}
}
