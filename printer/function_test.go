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
	"strings"
	"testing"

	"github.com/gorse-io/dllxray/ir"
	"github.com/stretchr/testify/require"
)

func TestPrintFunctionLinearBody(t *testing.T) {
	fn := ir.NewFunctionIR("add2", ir.Int(32, false))
	fn.Parameters = []ir.ParamInfo{
		{Index: 0, Name: "p1", Type: ir.Int(32, false)},
		{Index: 1, Name: "p2", Type: ir.Int(32, false)},
	}
	fn.Blocks = []ir.BasicBlock{{
		Statements: []ir.Stmt{
			ir.Assign(ir.Param("ret", 32), ir.Bin(ir.OpAdd, ir.Param("p1", 32), ir.Param("p2", 32), 32)),
			ir.Return(func() *ir.Expr { e := ir.Param("ret", 32); return &e }()),
		},
	}}

	out := PrintFunction(fn, Options{})

	require.Contains(t, out, "unsigned int add2(unsigned int p1, unsigned int p2)")
	require.Contains(t, out, "ret = p1 + p2; // RAX")
	require.Contains(t, out, "return ret;")
	require.True(t, strings.HasPrefix(out, "unsigned int add2"), "no header comment without EmitHeaderComment")
}

func TestPrintFunctionHeaderComment(t *testing.T) {
	fn := ir.NewFunctionIR("f", ir.Void())
	fn.SetTag(ir.TagLocalSize, 0x28)
	fn.SetTag(ir.TagUsesFramePointer, true)
	fn.Blocks = []ir.BasicBlock{{Statements: []ir.Stmt{ir.Return(nil)}}}

	out := PrintFunction(fn, Options{EmitHeaderComment: true})

	require.Contains(t, out, "// function: f")
	require.Contains(t, out, "// frame size: 0x28")
	require.Contains(t, out, "// uses frame pointer")
}

func TestPrintFunctionVoidNoArgs(t *testing.T) {
	fn := ir.NewFunctionIR("g", ir.Void())
	fn.Blocks = []ir.BasicBlock{{Statements: []ir.Stmt{ir.Return(nil)}}}
	out := PrintFunction(fn, Options{})
	require.Contains(t, out, "void g(void)")
}

func TestPrintFunctionLocalsWithInitializer(t *testing.T) {
	fn := ir.NewFunctionIR("h", ir.Void())
	init := ir.UConst(0, 64)
	fn.AddLocal(ir.LocalInfo{Name: "frame_0x20", Type: ir.Pointer(ir.Int(8, false)), Initializer: &init})
	fn.Blocks = []ir.BasicBlock{{Statements: []ir.Stmt{ir.Return(nil)}}}
	out := PrintFunction(fn, Options{})
	require.Contains(t, out, "unsigned char* frame_0x20 = 0;")
}

func TestPrintFunctionBlockLabelsOptional(t *testing.T) {
	label := &ir.LabelSymbol{Name: "L1"}
	fn := ir.NewFunctionIR("k", ir.Void())
	fn.Blocks = []ir.BasicBlock{
		{Statements: []ir.Stmt{ir.Goto(label)}},
		{Label: label, Statements: []ir.Stmt{ir.Return(nil)}},
	}

	withLabels := PrintFunction(fn, Options{EmitBlockLabels: true})
	require.Contains(t, withLabels, "L1:")

	withoutLabels := PrintFunction(fn, Options{})
	require.NotContains(t, withoutLabels, "L1:")
}

func TestPrintFunctionStructuredBodyPreferredOverBlocks(t *testing.T) {
	fn := ir.NewFunctionIR("m", ir.Void())
	// Blocks present but should be ignored since StructuredBody is set.
	fn.Blocks = []ir.BasicBlock{{Statements: []ir.Stmt{ir.Pseudo("should not appear")}}}
	body := ir.Seq(
		ir.IfNode(
			ir.Compare(ir.CmpEQ, ir.Reg("eax", 32), ir.UConst(0, 32)),
			ir.StmtNode(ir.Return(nil)),
			nil,
		),
	)
	fn.StructuredBody = &body

	out := PrintFunction(fn, Options{})

	require.Contains(t, out, "if (eax == 0) {")
	require.Contains(t, out, "return;")
	require.NotContains(t, out, "should not appear")
}

func TestPrintFunctionWhileAndSwitch(t *testing.T) {
	fn := ir.NewFunctionIR("n", ir.Void())
	matchVal := ir.UConst(1, 32)
	whileBody := ir.WhileNode(
		ir.Compare(ir.CmpNE, ir.Reg("ecx", 32), ir.UConst(0, 32)),
		ir.StmtNode(ir.Pseudo("loop body")),
	)
	sw := ir.SwitchNode(ir.Reg("edx", 32), []ir.SwitchCase{
		{MatchValue: &matchVal, Body: func() *ir.HiNode { n := ir.StmtNode(ir.Return(nil)); return &n }()},
		{IsDefault: true},
	})
	body := ir.Seq(whileBody, sw)
	fn.StructuredBody = &body

	out := PrintFunction(fn, Options{})

	require.Contains(t, out, "while (ecx != 0) {")
	require.Contains(t, out, "switch (edx) {")
	require.Contains(t, out, "case 1:")
	require.Contains(t, out, "default:")
}
