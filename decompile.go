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

// Package dllxray wires peformat, lift, passes, constdb and printer
// together into the two entry points a caller actually wants: decompile
// a named export straight out of a DLL on disk, or decompile a raw byte
// slice already in memory.
package dllxray

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorse-io/dllxray/constdb"
	"github.com/gorse-io/dllxray/ir"
	"github.com/gorse-io/dllxray/lift"
	"github.com/gorse-io/dllxray/passes"
	"github.com/gorse-io/dllxray/peformat"
	"github.com/gorse-io/dllxray/printer"
	"github.com/saferwall/pe/log"
)

// ErrCancelled is returned when ctx is done before decompilation
// completes. No partial pseudocode is returned alongside it.
var ErrCancelled = errors.New("dllxray: cancelled")

const defaultMaxBytes = 4096

// Options configures one decompile call, threaded explicitly rather
// than read from package globals (SPEC_FULL.md section 9's no-ambient-
// -state note, mirrored from lift.Options/printer.Options below it).
type Options struct {
	// BaseAddress overrides the image's own preferred load address used
	// for RIP-relative and branch-target arithmetic. Zero means use the
	// image's own ImageBase.
	BaseAddress uint64
	// MaxBytes bounds how many bytes are decoded for one function.
	MaxBytes int
	// MaxForwarderHops bounds forwarder chain length before
	// ErrForwarderTooDeep. Zero means peformat's own default (16).
	MaxForwarderHops int
	// EmitLabels prints the L1:-style label of every labelled block,
	// which the lifter gives to branch targets only. Either this or
	// EmitBlockLabels turns label printing on.
	EmitLabels bool
	// SkipPrologueDetection disables collapsing the recognized MSVC
	// prologue shape; zero value (false) means detection runs, matching
	// lift.Options.SkipPrologueDetection's own polarity.
	SkipPrologueDetection bool
	// CommentCompare emits a PseudoStmt note alongside the asm comment
	// for every cmp/test that feeds the following conditional branch.
	CommentCompare bool

	UseStdIntNames         bool
	EmitBlockLabels        bool
	CommentSignednessOnCmp bool

	// Imports resolves call targets to imported symbol names, e.g. by
	// consulting the image's import address table. Nil means calls
	// never resolve to a symbol (lift.NoImports{}'s behavior) — this
	// package does not parse the import directory itself; a caller that
	// has already done so (or that loaded the image some other way)
	// supplies the resolver it built.
	Imports lift.ImportResolver

	// ConstantDatabase resolves symbolic names for literal constants at
	// call sites. Nil is valid: no symbolic substitution happens.
	ConstantDatabase *constdb.Database
	// ReturnEnumType names the enum (if any) this export's return value
	// is documented to hold, e.g. "NTSTATUS".
	ReturnEnumType string
	// Logger receives PE-parsing diagnostics; nil uses peformat's
	// stderr default.
	Logger log.Logger
}

func (o Options) maxBytes() int {
	if o.MaxBytes <= 0 {
		return defaultMaxBytes
	}
	return o.MaxBytes
}

// DecompileExport resolves exportName in the DLL at dllPath (following
// forwarder chains per o.MaxForwarderHops), lifts and rewrites its
// machine code, and returns pretty-printed pseudocode prefixed by a
// 5-line header naming the source path, export name, image base,
// function RVA, and the byte count actually decoded.
func DecompileExport(ctx context.Context, dllPath, exportName string, o Options) (string, error) {
	if err := checkCancelled(ctx); err != nil {
		return "", err
	}
	reader, err := peformat.Open(dllPath, o.Logger)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	info, err := reader.FindExport(exportName)
	if err != nil {
		return "", err
	}

	owner := reader
	if info.Kind == peformat.ExportForwarder {
		owner, info, err = peformat.ResolveForwarderWithLimit(info, noHosts{}, o.MaxForwarderHops)
		if err != nil {
			return "", err
		}
	}

	if err := checkCancelled(ctx); err != nil {
		return "", err
	}

	code, length, err := functionBytes(owner, info.RVA, o.maxBytes())
	if err != nil {
		return "", err
	}

	baseAddress := o.BaseAddress
	if baseAddress == 0 {
		baseAddress = owner.ImageBase()
	}
	entry := baseAddress + uint64(info.RVA)

	body, err := decompileCore(ctx, code, entry, exportName, o)
	if err != nil {
		return "", err
	}

	header := fmt.Sprintf(
		"// source: %s\n// export: %s\n// image base: %#x\n// function rva: %#x\n// bytes decoded: %d\n\n",
		dllPath, exportName, baseAddress, info.RVA, length)
	return header + body, nil
}

// DecompileBytes lifts and pretty-prints code directly, with no PE
// involvement: the caller supplies the exact bytes and the address they
// are assumed to load at.
func DecompileBytes(ctx context.Context, code []byte, entryAddress uint64, functionName string, o Options) (string, error) {
	if err := checkCancelled(ctx); err != nil {
		return "", err
	}
	if o.maxBytes() < len(code) {
		code = code[:o.maxBytes()]
	}
	return decompileCore(ctx, code, entryAddress, functionName, o)
}

func decompileCore(ctx context.Context, code []byte, entryAddress uint64, functionName string, o Options) (string, error) {
	if len(code) == 0 {
		return "", peformat.ErrNoFunctionBytes
	}

	liftOpts := lift.Options{
		EntryAddress:          entryAddress,
		FunctionName:          functionName,
		Imports:               o.Imports,
		SkipPrologueDetection: o.SkipPrologueDetection,
		CommentCompare:        o.CommentCompare,
	}
	fn, err := lift.Lift(code, liftOpts)
	if err != nil {
		return "", fmt.Errorf("dllxray: lifting %s: %w", functionName, err)
	}

	if err := checkCancelled(ctx); err != nil {
		return "", err
	}

	if o.ReturnEnumType != "" {
		fn.SetTag(ir.TagReturnEnumType, o.ReturnEnumType)
	}

	var db passes.ConstantDatabase = noConstants{}
	if o.ConstantDatabase != nil {
		db = o.ConstantDatabase
	}
	passes.DefaultPipeline(db).Run(fn)

	if err := checkCancelled(ctx); err != nil {
		return "", err
	}

	printOpts := printer.Options{
		EmitHeaderComment:      false,
		EmitBlockLabels:        o.EmitBlockLabels || o.EmitLabels,
		CommentSignednessOnCmp: o.CommentSignednessOnCmp,
		UseStdIntNames:         o.UseStdIntNames,
	}
	if o.ConstantDatabase != nil {
		printOpts.ConstantProvider = o.ConstantDatabase
	}
	return printer.PrintFunction(fn, printOpts), nil
}

func checkCancelled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	default:
		return nil
	}
}

// functionBytes reads up to maxBytes of code at rva, clamped to the end
// of the section that contains it (spec.md section 6's
// min(maxBytes, sectionEnd - functionOffset) rule).
func functionBytes(r *peformat.Reader, rva uint32, maxBytes int) ([]byte, int, error) {
	avail, err := bytesToSectionEnd(r, rva)
	if err != nil {
		return nil, 0, err
	}
	if avail <= 0 {
		return nil, 0, peformat.ErrNoFunctionBytes
	}
	length := maxBytes
	if avail < length {
		length = avail
	}
	data, err := r.ReadBytesAtRVA(rva, length)
	if err != nil {
		return nil, 0, err
	}
	return data, length, nil
}

func bytesToSectionEnd(r *peformat.Reader, rva uint32) (int, error) {
	for _, sec := range r.Sections() {
		end := sec.VirtualAddress + sec.VirtualSize
		if sec.VirtualSize == 0 {
			end = sec.VirtualAddress + sec.RawDataSize
		}
		if rva >= sec.VirtualAddress && rva < end {
			return int(end - rva), nil
		}
	}
	return 0, peformat.ErrRvaUnmapped
}

// noHosts is a peformat.HostResolver that never resolves anything,
// used when DecompileExport is given no way to follow a forwarder
// across a DLL boundary: forwarders are then reported via whatever
// error ResolveForwarderWithLimit's first hop produces.
type noHosts struct{}

func (noHosts) ResolveHost(moduleName string) (*peformat.Reader, error) {
	return nil, fmt.Errorf("dllxray: cannot resolve forwarder host %q without a HostResolver", moduleName)
}

// noConstants is a passes.ConstantDatabase that never resolves
// anything, used when Options.ConstantDatabase is nil.
type noConstants struct{}

func (noConstants) TryFormatValue(string, uint64) (bool, string) { return false, "" }
