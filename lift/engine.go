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

// Engine holds the mutable state threaded through one Lift call: the
// function being built, the label table, and whether register reads
// still alias their entry-point parameter meaning.
type Engine struct {
	opts Options
	fn   *ir.FunctionIR

	labels map[uint64]*ir.LabelSymbol
	nextLabel func() string

	paramAliasesLive bool
	lastCompare      compareFact
}

// Lift decodes code (exactly the bytes belonging to one function, as
// sliced by the caller from a PE image) starting at opts.EntryAddress,
// producing a FunctionIR with a flat, unstructured statement stream
// split into basic blocks (lift only produces the linear form; the
// passes rewrite it in place and none of them builds a StructuredBody).
func Lift(code []byte, opts Options) (*ir.FunctionIR, error) {
	if opts.Imports == nil {
		opts.Imports = NoImports{}
	}
	name := opts.FunctionName
	if name == "" {
		name = fmt.Sprintf("sub_%x", opts.EntryAddress)
	}

	fn := ir.NewFunctionIR(name, ir.Int(64, false))
	e := &Engine{
		opts:             opts,
		fn:               fn,
		labels:           map[uint64]*ir.LabelSymbol{},
		nextLabel:        ir.NewLabelNamer(),
		paramAliasesLive: true,
	}

	insts, err := e.decodeAll(code)
	if err != nil && len(insts) == 0 {
		return nil, err
	}

	var shape prologueShape
	if !opts.SkipPrologueDetection {
		shape = DetectPrologue(insts)
		if shape.StackAllocSize > 0 {
			fn.SetTag(ir.TagLocalSize, int(shape.StackAllocSize))
		}
		if shape.UsesFramePointer {
			fn.SetTag(ir.TagUsesFramePointer, true)
		}
	}

	e.prescanLabels(insts)

	prologueStmts := e.collapsePrologue(insts[:shape.Length])
	body := insts[shape.Length:]
	stmts := append(prologueStmts, e.emitBody(body, shape.CalleeSavedPushed)...)
	fn.Blocks = partitionIntoBlocks(stmts, e.labels)
	return fn, nil
}

// collapsePrologue turns a recognized MSVC prologue instruction range
// into its retained per-instruction AsmCommentStmts plus a single
// trailing PseudoStmt summarizing the collapse, per spec step 2:
// the boilerplate reads as one note instead of N push/sub-rsp/lea
// assignments, but the raw asm is never discarded.
func (e *Engine) collapsePrologue(insts []decoded) []ir.Stmt {
	if len(insts) == 0 {
		return nil
	}
	stmts := make([]ir.Stmt, 0, len(insts)+1)
	for _, d := range insts {
		stmts = append(stmts, e.asmComment(d))
	}
	return append(stmts, ir.Pseudo("prologue"))
}

// decodeAll decodes code sequentially from byte 0 to the end of the
// slice, stopping early once opts.MaxInstructions instructions have
// decoded. A byte that fails to decode is skipped, with no statement
// emitted for it, and decoding resumes at the next byte. The first
// such failure is returned alongside whatever did decode; Lift fails
// only when nothing decoded at all.
func (e *Engine) decodeAll(code []byte) ([]decoded, error) {
	var out []decoded
	var firstErr error
	addr := e.opts.EntryAddress
	off := 0
	for off < len(code) && len(out) < e.opts.maxInstructions() {
		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil || inst.Len == 0 {
			if firstErr == nil {
				firstErr = fmt.Errorf("lift: decode error at %#x: %w", addr, err)
			}
			off++
			addr++
			continue
		}
		out = append(out, decoded{Addr: addr, Inst: inst})
		off += inst.Len
		addr += uint64(inst.Len)
	}
	return out, firstErr
}

// prescanLabels finds the target of every relative Jcc/JMP (see
// isBranch; CALL targets get no label) and allocates a label name for
// each new target in the order the branches appear. Targets are not
// checked against the decoded range.
func (e *Engine) prescanLabels(insts []decoded) {
	for _, d := range insts {
		if !isBranch(d.Inst.Op) {
			continue
		}
		rel, ok := d.Inst.Args[0].(x86asm.Rel)
		if !ok {
			continue
		}
		target := uint64(int64(d.Addr+uint64(d.Inst.Len)) + int64(rel))
		if _, exists := e.labels[target]; !exists {
			e.labels[target] = &ir.LabelSymbol{Name: e.nextLabel(), IP: target}
		}
	}
}

func isBranch(op x86asm.Op) bool {
	switch op {
	case x86asm.JMP, x86asm.JE, x86asm.JNE, x86asm.JL, x86asm.JLE, x86asm.JG, x86asm.JGE,
		x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JS, x86asm.JNS,
		x86asm.JO, x86asm.JNO, x86asm.JP, x86asm.JNP:
		return true
	default:
		return false
	}
}

// emitBody translates each decoded instruction into zero or more
// statements, in address order. Every instruction first contributes
// its own AsmCommentStmt for provenance (spec step 1's "an
// AsmCommentStmt carrying its IP in hex and textual disassembly"),
// including the callee-saved register pops and stack-deallocation
// instructions of a recognized epilogue, whose semantic effect is
// otherwise dropped (they carry no meaning once locals/params replace
// raw register traffic, but the raw asm is never discarded).
func (e *Engine) emitBody(insts []decoded, pushed []string) []ir.Stmt {
	var stmts []ir.Stmt
	for i := 0; i < len(insts); i++ {
		d := insts[i]
		if lbl, ok := e.labels[d.Addr]; ok {
			stmts = append(stmts, ir.LabelStmt(lbl))
		}

		if n := epilogueLength(insts[i:], pushed); n > 0 {
			// Retain the add rsp/pop sequence's asm comments but drop
			// their semantic effect; keep the RET itself by letting
			// the loop continue into it below.
			skip := n - 1
			for skip > 0 && insts[i].Inst.Op != x86asm.RET {
				stmts = append(stmts, e.asmComment(insts[i]))
				i++
				skip--
			}
			d = insts[i]
		}

		stmts = append(stmts, e.asmComment(d))

		nextIP := d.Addr + uint64(d.Inst.Len)
		s, ok := e.translate(d, nextIP)
		if ok {
			for k := range s {
				s[k].IP = d.Addr
			}
			stmts = append(stmts, s...)
		}
	}
	return stmts
}

// asmComment renders one decoded instruction's GNU-syntax disassembly
// text as its AsmCommentStmt, the provenance line spec step 1 requires
// for every decoded instruction regardless of how (or whether) it is
// otherwise translated.
func (e *Engine) asmComment(d decoded) ir.Stmt {
	return ir.AsmComment(x86asm.GNUSyntax(d.Inst, d.Addr, nil), d.Addr)
}

// hasRepPrefix reports whether in carries a REP prefix, ignoring
// prefix bytes the decoder marked implicit/ignored/invalid. STOS/MOVS
// only encode the memset/memcpy idiom under REP; a lone stosb/movsb
// performs exactly one iteration.
func hasRepPrefix(in x86asm.Inst) bool {
	const prefixMask = x86asm.PrefixImplicit | x86asm.PrefixIgnored | x86asm.PrefixInvalid
	for _, p := range in.Prefix {
		if p == 0 {
			break
		}
		if p&^prefixMask == x86asm.PrefixREP {
			return true
		}
	}
	return false
}

// translate lowers one decoded instruction into statements beyond its
// own AsmCommentStmt (already emitted by emitBody/collapsePrologue).
// Unhandled opcodes become a PseudoStmt rather than aborting the lift,
// per the "downgrade, don't fail" error handling stance.
func (e *Engine) translate(d decoded, nextIP uint64) ([]ir.Stmt, bool) {
	in := d.Inst
	switch in.Op {
	case x86asm.MOV, x86asm.MOVZX, x86asm.MOVSX, x86asm.MOVSXD:
		return e.translateMov(in, nextIP), true
	case x86asm.LEA:
		return e.translateLea(in, nextIP), true
	case x86asm.ADD, x86asm.SUB, x86asm.AND, x86asm.OR, x86asm.XOR:
		return e.translateArith(in, nextIP), true
	case x86asm.CMP:
		return e.translateCompareSetup(in, nextIP, false), true
	case x86asm.TEST:
		return e.translateCompareSetup(in, nextIP, true), true
	case x86asm.PUSH, x86asm.POP:
		return nil, true
	case x86asm.CALL:
		return e.translateCall(in, nextIP), true
	case x86asm.RET:
		return []ir.Stmt{e.translateReturn()}, true
	case x86asm.JMP:
		return e.translateJmp(in, nextIP), true
	case x86asm.JE, x86asm.JNE, x86asm.JL, x86asm.JLE, x86asm.JG, x86asm.JGE,
		x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE:
		return e.translateJcc(in, nextIP), true
	case x86asm.NOP:
		return nil, true
	case x86asm.NEG:
		return e.translateUnary(in, nextIP, ir.OpNeg), true
	case x86asm.NOT:
		return e.translateUnary(in, nextIP, ir.OpNot), true
	case x86asm.BT, x86asm.BTC, x86asm.BTR, x86asm.BTS:
		return e.translateBitTest(in, nextIP), true
	case x86asm.STOSB, x86asm.STOSW, x86asm.STOSD, x86asm.STOSQ:
		if hasRepPrefix(in) {
			return e.translateStos(in), true
		}
		return []ir.Stmt{ir.Pseudo(fmt.Sprintf("%s_without_rep", in.Op))}, true
	case x86asm.MOVSB, x86asm.MOVSW, x86asm.MOVSD, x86asm.MOVSQ:
		if hasRepPrefix(in) {
			return e.translateMovs(in), true
		}
		return []ir.Stmt{ir.Pseudo(fmt.Sprintf("%s_without_rep", in.Op))}, true
	default:
		return []ir.Stmt{ir.Pseudo(fmt.Sprintf("unhandled_opcode(%s)", in.Op))}, true
	}
}

func operandBits(in x86asm.Inst) int {
	if in.MemBytes > 0 {
		return in.MemBytes * 8
	}
	if in.DataSize > 0 {
		return in.DataSize
	}
	return 32
}

func (e *Engine) translateMov(in x86asm.Inst, nextIP uint64) []ir.Stmt {
	bits := operandBits(in)
	src := e.readArg(in.Args[1], bits, nextIP)
	isMem, reg, addr, elem, seg := e.writeTarget(in.Args[0], bits, nextIP)
	if isMem {
		return []ir.Stmt{ir.Store(elem, addr, src, seg)}
	}
	return []ir.Stmt{ir.Assign(reg, src)}
}

func (e *Engine) translateLea(in x86asm.Inst, nextIP uint64) []ir.Stmt {
	mem, ok := in.Args[1].(x86asm.Mem)
	if !ok {
		return []ir.Stmt{ir.Pseudo("lea_non_memory_operand")}
	}
	addr := e.effectiveAddress(mem, nextIP)
	_, reg, _, _, _ := e.writeTarget(in.Args[0], 64, nextIP)
	return []ir.Stmt{ir.Assign(reg, addr)}
}

func (e *Engine) translateArith(in x86asm.Inst, nextIP uint64) []ir.Stmt {
	bits := operandBits(in)
	var binOp ir.BinOp
	switch in.Op {
	case x86asm.ADD:
		binOp = ir.OpAdd
	case x86asm.SUB:
		binOp = ir.OpSub
	case x86asm.AND:
		binOp = ir.OpAnd
	case x86asm.OR:
		binOp = ir.OpOr
	case x86asm.XOR:
		binOp = ir.OpXor
	}
	lhs := e.readArg(in.Args[0], bits, nextIP)
	rhs := e.readArg(in.Args[1], bits, nextIP)
	if in.Op == x86asm.XOR && lhs.Kind == ir.EReg && rhs.Kind == ir.EReg && lhs.Name == rhs.Name {
		isMem, reg, addr, elem, seg := e.writeTarget(in.Args[0], bits, nextIP)
		zero := ir.UConst(0, bits)
		if isMem {
			return []ir.Stmt{ir.Store(elem, addr, zero, seg)}
		}
		return []ir.Stmt{ir.Assign(reg, zero)}
	}
	result := ir.Bin(binOp, lhs, rhs, bits)
	isMem, reg, addr, elem, seg := e.writeTarget(in.Args[0], bits, nextIP)
	if isMem {
		return []ir.Stmt{ir.Store(elem, addr, result, seg)}
	}
	return []ir.Stmt{ir.Assign(reg, result)}
}

func (e *Engine) translateUnary(in x86asm.Inst, nextIP uint64, op ir.UnOp) []ir.Stmt {
	bits := operandBits(in)
	operand := e.readArg(in.Args[0], bits, nextIP)
	result := ir.Un(op, operand, bits)
	isMem, reg, addr, elem, seg := e.writeTarget(in.Args[0], bits, nextIP)
	if isMem {
		return []ir.Stmt{ir.Store(elem, addr, result, seg)}
	}
	return []ir.Stmt{ir.Assign(reg, result)}
}

// translateCompareSetup records the compare/test operands for the next
// Jcc to consume; cmp/test have no side effect of their own in the IR
// (they only set flags), so by default it contributes no statement
// beyond its AsmCommentStmt. With CommentCompare set, it also emits a
// PseudoStmt note naming the compare, per spec step 5.
func (e *Engine) translateCompareSetup(in x86asm.Inst, nextIP uint64, isTest bool) []ir.Stmt {
	bits := operandBits(in)
	lhs := e.readArg(in.Args[0], bits, nextIP)
	rhs := e.readArg(in.Args[1], bits, nextIP)
	e.lastCompare = compareFact{valid: true, isTest: isTest, lhs: lhs, rhs: rhs, bits: bits}
	if e.opts.CommentCompare {
		return []ir.Stmt{ir.Pseudo(fmt.Sprintf("compare: %s", in.String()))}
	}
	return nil
}

func (e *Engine) translateJcc(in x86asm.Inst, nextIP uint64) []ir.Stmt {
	rel, ok := in.Args[0].(x86asm.Rel)
	if !ok {
		return []ir.Stmt{ir.Pseudo("jcc_non_relative_target")}
	}
	target := uint64(int64(nextIP) + int64(rel))
	lbl, ok := e.labels[target]
	if !ok {
		lbl = &ir.LabelSymbol{Name: e.nextLabel(), IP: target}
		e.labels[target] = lbl
	}
	cond := buildCondition(e.lastCompare, in.Op)
	e.lastCompare = compareFact{}
	return []ir.Stmt{ir.IfGoto(cond, lbl)}
}

func (e *Engine) translateJmp(in x86asm.Inst, nextIP uint64) []ir.Stmt {
	rel, ok := in.Args[0].(x86asm.Rel)
	if !ok {
		return []ir.Stmt{ir.Pseudo("jmp_indirect_or_unsupported")}
	}
	target := uint64(int64(nextIP) + int64(rel))
	lbl, ok := e.labels[target]
	if !ok {
		lbl = &ir.LabelSymbol{Name: e.nextLabel(), IP: target}
		e.labels[target] = lbl
	}
	return []ir.Stmt{ir.Goto(lbl)}
}

func (e *Engine) translateCall(in x86asm.Inst, nextIP uint64) []ir.Stmt {
	args := []ir.Expr{
		e.aliasedOrReg("rcx", 64),
		e.aliasedOrReg("rdx", 64),
		e.aliasedOrReg("r8", 64),
		e.aliasedOrReg("r9", 64),
	}
	var callExpr ir.Expr
	switch target := in.Args[0].(type) {
	case x86asm.Rel:
		addr := uint64(int64(nextIP) + int64(target))
		if sym, ok := e.opts.Imports.ResolveCall(addr); ok {
			callExpr = ir.CallSym(sym, args, 64)
		} else {
			callExpr = ir.CallAddr(ir.UConst(addr, 64), args, 64)
		}
	case x86asm.Mem:
		addr := e.effectiveAddress(target, nextIP)
		resolved := false
		if addr.IsLiteral() {
			if sym, ok := e.opts.Imports.ResolveCall(addr.AsUint64()); ok {
				callExpr = ir.CallSym(sym, args, 64)
				resolved = true
			}
		}
		if !resolved {
			callExpr = ir.CallAddr(addr, args, 64)
		}
	default:
		callExpr = ir.CallAddr(e.readArg(in.Args[0], 64, nextIP), args, 64)
	}
	e.paramAliasesLive = false
	return []ir.Stmt{
		ir.Assign(ir.Param("ret", 64), callExpr),
	}
}

func (e *Engine) aliasedOrReg(reg string, bits int) ir.Expr {
	if alias, ok := e.paramAliasFor(reg); ok {
		return ir.Param(alias, bits)
	}
	return ir.Reg(reg, bits)
}

func (e *Engine) translateReturn() ir.Stmt {
	val := e.aliasedOrReg("rax", 64)
	return ir.Return(&val)
}

func (e *Engine) translateBitTest(in x86asm.Inst, nextIP uint64) []ir.Stmt {
	bits := operandBits(in)
	base := e.readArg(in.Args[0], bits, nextIP)
	bitIndex := e.readArg(in.Args[1], bits, nextIP)
	mask := ir.Bin(ir.OpShl, ir.UConst(1, bits), bitIndex, bits)
	tested := ir.Bin(ir.OpAnd, base, mask, bits)
	e.lastCompare = compareFact{} // bt/btc/btr/bts sets CF, not a simple cmp
	stmts := []ir.Stmt{ir.Pseudo(fmt.Sprintf("%s_bit", in.Op))}

	switch in.Op {
	case x86asm.BT:
		_ = tested // the tested mask is only meaningful to a following Jcc via CF, which this engine does not thread through yet
		return stmts
	case x86asm.BTS:
		result := ir.Bin(ir.OpOr, base, mask, bits)
		return e.storeBitTestResult(in, nextIP, result)
	case x86asm.BTR:
		result := ir.Bin(ir.OpAnd, base, ir.Un(ir.OpNot, mask, bits), bits)
		return e.storeBitTestResult(in, nextIP, result)
	case x86asm.BTC:
		result := ir.Bin(ir.OpXor, base, mask, bits)
		return e.storeBitTestResult(in, nextIP, result)
	default:
		return stmts
	}
}

func (e *Engine) storeBitTestResult(in x86asm.Inst, nextIP uint64, value ir.Expr) []ir.Stmt {
	bits := operandBits(in)
	isMem, reg, addr, elem, seg := e.writeTarget(in.Args[0], bits, nextIP)
	if isMem {
		return []ir.Stmt{ir.Store(elem, addr, value, seg)}
	}
	return []ir.Stmt{ir.Assign(reg, value)}
}

// translateStos lowers `rep stos*` into an Intrinsic call statement,
// memset_pattern(rdi, rax, rcx), whose arguments are the raw register
// (or parameter alias) expressions. FrameObjectClusteringAndRspAlias
// matches only memset calls whose destination is an rsp + K
// expression, so nothing resolves these arguments to a frame object or
// a literal byte count.
func (e *Engine) translateStos(in x86asm.Inst) []ir.Stmt {
	bits := stosWidth(in.Op)
	val := e.aliasedOrReg("rax", bits)
	dst := e.aliasedOrReg("rdi", 64)
	count := e.aliasedOrReg("rcx", 64)
	call := ir.Intrinsic("memset_pattern", []ir.Expr{dst, val, count})
	return []ir.Stmt{ir.CallStmt(call)}
}

func stosWidth(op x86asm.Op) int {
	switch op {
	case x86asm.STOSB:
		return 8
	case x86asm.STOSW:
		return 16
	case x86asm.STOSD:
		return 32
	case x86asm.STOSQ:
		return 64
	default:
		return 32
	}
}

// translateMovs lowers `rep movs*` into a memcpy idiom call.
func (e *Engine) translateMovs(in x86asm.Inst) []ir.Stmt {
	dst := e.aliasedOrReg("rdi", 64)
	src := e.aliasedOrReg("rsi", 64)
	count := e.aliasedOrReg("rcx", 64)
	call := ir.Intrinsic("memcpy", []ir.Expr{dst, src, count})
	return []ir.Stmt{ir.CallStmt(call)}
}

// partitionIntoBlocks splits a flat statement stream into BasicBlocks,
// starting a new block at every SLabel statement (its label becomes the
// block's Label and the label statement itself is dropped) and after
// every Goto or Return. An IfGoto does not end a block.
func partitionIntoBlocks(stmts []ir.Stmt, labels map[uint64]*ir.LabelSymbol) []ir.BasicBlock {
	var blocks []ir.BasicBlock
	var cur []ir.Stmt
	var curLabel *ir.LabelSymbol

	flush := func() {
		if len(cur) > 0 || curLabel != nil {
			blocks = append(blocks, ir.BasicBlock{Label: curLabel, Statements: cur})
		}
		cur = nil
	}

	for _, s := range stmts {
		if s.Kind == ir.SLabel {
			flush()
			curLabel = s.Label
			continue
		}
		cur = append(cur, s)
		if s.Kind == ir.SGoto || s.Kind == ir.SIfGoto || s.Kind == ir.SReturn {
			if s.Kind != ir.SIfGoto {
				flush()
				curLabel = nil
			}
		}
	}
	flush()
	return blocks
}
