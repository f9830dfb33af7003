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

// Package lift decodes x86-64 machine code into the IR defined in
// package ir, recognizing the MSVC x64 calling convention, the REP
// MOVS/STOS idioms (lowered to memcpy/memset_pattern intrinsic calls),
// and the prologue/epilogue shapes cl.exe emits. XMM zero-init store
// runs are not coalesced into a memset.
package lift

// ImportResolver answers "what symbol does this call target address
// resolve to", typically backed by the import address table of the
// image being lifted. It replaces a plain callback/closure with a
// named capability interface, matching SPEC_FULL.md's design note.
type ImportResolver interface {
	// ResolveCall returns the imported symbol name for a call/jmp
	// target address, and whether one was found. Addresses that are
	// not IAT slots (e.g. calls to other functions in the same image)
	// return ok=false.
	ResolveCall(address uint64) (symbol string, ok bool)
}

// NoImports is an ImportResolver that never resolves anything, for
// callers lifting a function in isolation with no import table context.
type NoImports struct{}

func (NoImports) ResolveCall(uint64) (string, bool) { return "", false }

// Options configures one Lift invocation. It is passed explicitly
// rather than read from package-level globals or ambient state,
// matching SPEC_FULL.md's design note on threading configuration
// through as an immutable value.
type Options struct {
	// EntryAddress is the virtual address of the function's first byte.
	EntryAddress uint64
	// Imports resolves call targets to imported symbol names.
	Imports ImportResolver
	// MaxInstructions bounds how many instructions Lift will decode
	// before giving up, guarding against runaway decoding into data.
	MaxInstructions int
	// FunctionName is used to name the resulting FunctionIR; callers
	// typically pass the export name.
	FunctionName string
	// SkipPrologueDetection disables DetectPrologue's collapsing of the
	// recognized MSVC push/sub-rsp prologue shape, leaving every
	// instruction (including the prologue) in the linear statement
	// stream instead. Most callers want detection on; this exists for
	// the CLI's --detect-prologue=false escape hatch.
	SkipPrologueDetection bool
	// CommentCompare emits a PseudoStmt note alongside the asm comment
	// for every cmp/test that sets up a compare fact for the following
	// Jcc, instead of leaving the compare's intent implicit in the
	// fact-tracking state.
	CommentCompare bool
}

const defaultMaxInstructions = 20000

func (o Options) maxInstructions() int {
	if o.MaxInstructions <= 0 {
		return defaultMaxInstructions
	}
	return o.MaxInstructions
}
