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

// canonicalRegister maps one of x86asm's many sub-register spellings
// (AL, AX, EAX, RAX, ...) to this package's canonical family name
// (always the 64-bit name) plus the width the instruction actually
// referenced it at. This plays the role the teacher's amd64ToGoRegister
// switch plays for its own (text-based) register dialect translation,
// reimplemented here over x86asm's typed Reg enum instead of regex
// matches on objdump text.
func canonicalRegister(r x86asm.Reg) (name string, bits int) {
	switch r {
	case x86asm.AL, x86asm.AX, x86asm.EAX, x86asm.RAX:
		return "rax", widthOf(r)
	case x86asm.CL, x86asm.CX, x86asm.ECX, x86asm.RCX:
		return "rcx", widthOf(r)
	case x86asm.DL, x86asm.DX, x86asm.EDX, x86asm.RDX:
		return "rdx", widthOf(r)
	case x86asm.BL, x86asm.BX, x86asm.EBX, x86asm.RBX:
		return "rbx", widthOf(r)
	case x86asm.SPB, x86asm.SP, x86asm.ESP, x86asm.RSP:
		return "rsp", widthOf(r)
	case x86asm.BPB, x86asm.BP, x86asm.EBP, x86asm.RBP:
		return "rbp", widthOf(r)
	case x86asm.SIB, x86asm.SI, x86asm.ESI, x86asm.RSI:
		return "rsi", widthOf(r)
	case x86asm.DIB, x86asm.DI, x86asm.EDI, x86asm.RDI:
		return "rdi", widthOf(r)
	case x86asm.R8B, x86asm.R8W, x86asm.R8L, x86asm.R8:
		return "r8", widthOf(r)
	case x86asm.R9B, x86asm.R9W, x86asm.R9L, x86asm.R9:
		return "r9", widthOf(r)
	case x86asm.R10B, x86asm.R10W, x86asm.R10L, x86asm.R10:
		return "r10", widthOf(r)
	case x86asm.R11B, x86asm.R11W, x86asm.R11L, x86asm.R11:
		return "r11", widthOf(r)
	case x86asm.R12B, x86asm.R12W, x86asm.R12L, x86asm.R12:
		return "r12", widthOf(r)
	case x86asm.R13B, x86asm.R13W, x86asm.R13L, x86asm.R13:
		return "r13", widthOf(r)
	case x86asm.R14B, x86asm.R14W, x86asm.R14L, x86asm.R14:
		return "r14", widthOf(r)
	case x86asm.R15B, x86asm.R15W, x86asm.R15L, x86asm.R15:
		return "r15", widthOf(r)
	case x86asm.IP, x86asm.EIP, x86asm.RIP:
		return "rip", widthOf(r)
	case x86asm.X0:
		return "xmm0", 128
	case x86asm.X1:
		return "xmm1", 128
	case x86asm.X2:
		return "xmm2", 128
	case x86asm.X3:
		return "xmm3", 128
	case x86asm.X4:
		return "xmm4", 128
	case x86asm.X5:
		return "xmm5", 128
	case x86asm.X6:
		return "xmm6", 128
	case x86asm.X7:
		return "xmm7", 128
	case x86asm.ES:
		return "es", 16
	case x86asm.CS:
		return "cs", 16
	case x86asm.SS:
		return "ss", 16
	case x86asm.DS:
		return "ds", 16
	case x86asm.FS:
		return "fs", 16
	case x86asm.GS:
		return "gs", 16
	default:
		return r.String(), 0
	}
}

func widthOf(r x86asm.Reg) int {
	switch {
	case r >= x86asm.AL && r <= x86asm.R15B:
		return 8
	case r >= x86asm.AX && r <= x86asm.R15W:
		return 16
	case r >= x86asm.EAX && r <= x86asm.R15L:
		return 32
	case r >= x86asm.RAX && r <= x86asm.R15:
		return 64
	case r == x86asm.IP:
		return 16
	case r == x86asm.EIP:
		return 32
	case r == x86asm.RIP:
		return 64
	default:
		return 0
	}
}

// msvcIntParamRegisters is rcx/rdx/r8/r9 in argument order, per the
// Microsoft x64 calling convention.
var msvcIntParamRegisters = []string{"rcx", "rdx", "r8", "r9"}

// msvcFloatParamRegisters is xmm0-xmm3 in argument order.
var msvcFloatParamRegisters = []string{"xmm0", "xmm1", "xmm2", "xmm3"}

// isCalleeSaved reports whether register name must be preserved across
// a call under the Microsoft x64 ABI (rbx, rbp, rdi, rsi, rsp, r12-r15).
func isCalleeSaved(name string) bool {
	switch name {
	case "rbx", "rbp", "rdi", "rsi", "rsp", "r12", "r13", "r14", "r15":
		return true
	default:
		return false
	}
}

func paramIndexForIntRegister(name string) (int, bool) {
	for i, r := range msvcIntParamRegisters {
		if r == name {
			return i, true
		}
	}
	return 0, false
}

func paramIndexForFloatRegister(name string) (int, bool) {
	for i, r := range msvcFloatParamRegisters {
		if r == name {
			return i, true
		}
	}
	return 0, false
}
