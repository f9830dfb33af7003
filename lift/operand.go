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

package lift

import (
	"fmt"

	"github.com/gorse-io/dllxray/ir"
	"golang.org/x/arch/x86/x86asm"
)

// frameObjectName names a stack slot after the displacement of its
// [rsp+disp] or [rbp+disp] operand: local_0x<disp in hex>, or
// local_n0x<-disp in hex> for a negative displacement.
func frameObjectName(offset int64) string {
	if offset < 0 {
		return fmt.Sprintf("local_n0x%x", -offset)
	}
	return fmt.Sprintf("local_0x%x", offset)
}

// readArg converts a decoded instruction argument into an ir.Expr,
// registering any newly-seen stack local under fn. bits gives the
// operand width to use for register reads. ip is the address of the
// *next* instruction, needed to resolve Mem operands whose Base is RIP.
func (e *Engine) readArg(arg x86asm.Arg, bits int, nextIP uint64) ir.Expr {
	switch a := arg.(type) {
	case x86asm.Reg:
		name, width := canonicalRegister(a)
		if width == 0 {
			width = bits
		}
		if alias, ok := e.paramAliasFor(name); ok {
			return ir.Param(alias, width)
		}
		return ir.Reg(name, width)
	case x86asm.Imm:
		return ir.Const(int64(a), bits)
	case x86asm.Mem:
		return e.memExpr(a, bits, nextIP)
	case x86asm.Rel:
		return ir.UConst(uint64(int64(nextIP)+int64(a)), 64)
	default:
		return ir.Intrinsic("unsupported_operand", nil)
	}
}

// memExpr lowers a Mem operand to a Load of the effective address,
// recognizing two special cases: a pure [rsp/rbp + disp] slot becomes
// a Local reference instead of an explicit Load(AddrOf(...)), and
// [gs:0x60] becomes the Windows PEB reference idiom.
func (e *Engine) memExpr(m x86asm.Mem, bits int, nextIP uint64) ir.Expr {
	baseName, _ := canonicalRegister(m.Base)
	if m.Segment == x86asm.GS && baseName == "" && m.Disp == 0x60 {
		e.fn.AddLocal(ir.LocalInfo{Name: "peb", Type: ir.Pointer(ir.Unknown("PEB"))})
		return ir.Local("peb", 64)
	}

	elem := ir.Int(bits, true)
	if (baseName == "rsp" || baseName == "rbp") && m.Index == 0 {
		name := frameObjectName(m.Disp)
		e.fn.AddLocal(ir.LocalInfo{Name: name, Type: elem})
		return ir.Local(name, bits)
	}

	addr := e.effectiveAddress(m, nextIP)
	seg := ir.SegNone
	switch m.Segment {
	case x86asm.FS:
		seg = ir.SegFS
	case x86asm.GS:
		seg = ir.SegGS
	}
	return ir.Load(elem, addr, seg)
}

func (e *Engine) effectiveAddress(m x86asm.Mem, nextIP uint64) ir.Expr {
	if baseName, _ := canonicalRegister(m.Base); m.Base == x86asm.RIP {
		_ = baseName
		return ir.UConst(uint64(int64(nextIP)+m.Disp), 64)
	}
	var addr ir.Expr
	if m.Base != 0 {
		name, _ := canonicalRegister(m.Base)
		addr = ir.Reg(name, 64)
	} else {
		addr = ir.UConst(0, 64)
	}
	if m.Index != 0 {
		idxName, _ := canonicalRegister(m.Index)
		scaled := ir.Bin(ir.OpMul, ir.Reg(idxName, 64), ir.UConst(uint64(m.Scale), 64), 64)
		addr = ir.Bin(ir.OpAdd, addr, scaled, 64)
	}
	if m.Disp != 0 {
		if m.Disp > 0 {
			addr = ir.Bin(ir.OpAdd, addr, ir.UConst(uint64(m.Disp), 64), 64)
		} else {
			addr = ir.Bin(ir.OpSub, addr, ir.UConst(uint64(-m.Disp), 64), 64)
		}
	}
	return addr
}

// paramAliasFor reports the pN/fpN/ret alias for a register name while
// parameter aliases are live: from function entry until the first CALL,
// after which every register reads under its plain name.
func (e *Engine) paramAliasFor(reg string) (string, bool) {
	if e.paramAliasesLive {
		return ir.ParamAliasForRegister(reg)
	}
	return "", false
}

// writeTarget returns the Stmt-level lvalue Expr for an argument being
// written (a register or memory destination), mirroring readArg but
// without producing a Load for memory operands (Store takes an address
// directly).
func (e *Engine) writeTarget(arg x86asm.Arg, bits int, nextIP uint64) (isMem bool, reg ir.Expr, memAddr ir.Expr, elem ir.Type, seg ir.Segment) {
	switch a := arg.(type) {
	case x86asm.Reg:
		name, width := canonicalRegister(a)
		if width == 0 {
			width = bits
		}
		if alias, ok := e.paramAliasFor(name); ok {
			return false, ir.Param(alias, width), ir.Expr{}, ir.Type{}, ir.SegNone
		}
		return false, ir.Reg(name, width), ir.Expr{}, ir.Type{}, ir.SegNone
	case x86asm.Mem:
		baseName, _ := canonicalRegister(a.Base)
		if (baseName == "rsp" || baseName == "rbp") && a.Index == 0 {
			name := frameObjectName(a.Disp)
			e.fn.AddLocal(ir.LocalInfo{Name: name, Type: ir.Int(bits, true)})
			return false, ir.Local(name, bits), ir.Expr{}, ir.Type{}, ir.SegNone
		}
		t := ir.Int(bits, true)
		segKind := ir.SegNone
		switch a.Segment {
		case x86asm.FS:
			segKind = ir.SegFS
		case x86asm.GS:
			segKind = ir.SegGS
		}
		return true, ir.Expr{}, e.effectiveAddress(a, nextIP), t, segKind
	default:
		return false, ir.Intrinsic("unsupported_lvalue", nil), ir.Expr{}, ir.Type{}, ir.SegNone
	}
}
