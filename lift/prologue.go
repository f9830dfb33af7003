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

import "golang.org/x/arch/x86/x86asm"

// decoded pairs one successfully decoded instruction with the address
// it was decoded from.
type decoded struct {
	Addr uint64
	Inst x86asm.Inst
}

// prologueShape is what DetectPrologue found at the start of a decoded
// instruction stream: how many leading instructions belong to the
// prologue, which callee-saved registers were pushed (in push order),
// the fixed stack-frame size allocated by `sub rsp, imm`, and whether
// a conventional frame pointer (`lea rbp, [rsp+N]` or `mov rbp, rsp`)
// was established.
type prologueShape struct {
	Length           int
	CalleeSavedPushed []string
	StackAllocSize    int64
	UsesFramePointer  bool
}

// DetectPrologue recognizes the MSVC x64 prologue idiom: zero or more
// `push reg` of callee-saved registers, followed optionally by a
// `sub rsp, imm` stack allocation, followed optionally by a frame
// pointer establishment instruction. It stops at the first instruction
// that doesn't fit the pattern. This mirrors the role the teacher's
// amd64CalleeSavePush/amd64StackAllocLine regexes play, but is matched
// against decoded x86asm.Inst values instead of assembler text.
func DetectPrologue(insts []decoded) prologueShape {
	var shape prologueShape
	i := 0
	for i < len(insts) {
		in := insts[i].Inst
		if in.Op != x86asm.PUSH {
			break
		}
		reg, ok := in.Args[0].(x86asm.Reg)
		if !ok {
			break
		}
		name, _ := canonicalRegister(reg)
		if !isCalleeSaved(name) {
			break
		}
		shape.CalleeSavedPushed = append(shape.CalleeSavedPushed, name)
		i++
	}

	if i < len(insts) {
		in := insts[i].Inst
		if in.Op == x86asm.SUB {
			if reg, ok := in.Args[0].(x86asm.Reg); ok {
				if name, _ := canonicalRegister(reg); name == "rsp" {
					if imm, ok := in.Args[1].(x86asm.Imm); ok {
						shape.StackAllocSize = int64(imm)
						i++
					}
				}
			}
		}
	}

	if i < len(insts) {
		in := insts[i].Inst
		if in.Op == x86asm.LEA {
			if dst, ok := in.Args[0].(x86asm.Reg); ok {
				if name, _ := canonicalRegister(dst); name == "rbp" {
					if mem, ok := in.Args[1].(x86asm.Mem); ok {
						if base, _ := canonicalRegister(mem.Base); base == "rsp" {
							shape.UsesFramePointer = true
							i++
						}
					}
				}
			}
		} else if in.Op == x86asm.MOV {
			if dst, ok := in.Args[0].(x86asm.Reg); ok {
				if src, ok := in.Args[1].(x86asm.Reg); ok {
					dname, _ := canonicalRegister(dst)
					sname, _ := canonicalRegister(src)
					if dname == "rbp" && sname == "rsp" {
						shape.UsesFramePointer = true
						i++
					}
				}
			}
		}
	}

	shape.Length = i
	return shape
}

// epilogueLength reports how many instructions starting at insts form
// a matching MSVC epilogue: an optional `add rsp, imm`, then `pop reg`
// for each callee-saved register pushed (in reverse push order), then
// a RET. It returns 0 if insts does not start with RET after the
// pops/add, so callers can detect the epilogue by scanning backward
// from a RET instruction instead, when preferred.
func epilogueLength(insts []decoded, pushed []string) int {
	i := 0
	if i < len(insts) && insts[i].Inst.Op == x86asm.ADD {
		if reg, ok := insts[i].Inst.Args[0].(x86asm.Reg); ok {
			if name, _ := canonicalRegister(reg); name == "rsp" {
				i++
			}
		}
	}
	for j := len(pushed) - 1; j >= 0; j-- {
		if i >= len(insts) || insts[i].Inst.Op != x86asm.POP {
			return 0
		}
		reg, ok := insts[i].Inst.Args[0].(x86asm.Reg)
		if !ok {
			return 0
		}
		name, _ := canonicalRegister(reg)
		if name != pushed[j] {
			return 0
		}
		i++
	}
	if i < len(insts) && insts[i].Inst.Op == x86asm.RET {
		i++
		return i
	}
	return 0
}
