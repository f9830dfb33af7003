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

package peformat

import (
	"fmt"
	"strconv"
	"strings"

	peparser "github.com/saferwall/pe"
)

// ExportKind distinguishes a direct (code/data) export from one that
// forwards to another module's export.
type ExportKind int

const (
	ExportDirect ExportKind = iota
	ExportForwarder
)

// ExportInfo describes one resolved entry of the export directory.
type ExportInfo struct {
	Name      string
	Ordinal   uint32
	Kind      ExportKind
	RVA       uint32 // valid when Kind == ExportDirect
	Forwarder string // "Module.Function" or "Module.#123", valid when Kind == ExportForwarder
}

// ExportNames yields every exported name in the directory's table
// order, skipping ordinal-only exports (those are reached via
// FindExportByOrdinal instead).
func (r *Reader) ExportNames() []string {
	names := make([]string, 0, len(r.file.Export.Functions))
	for _, fn := range r.file.Export.Functions {
		if fn.Name != "" {
			names = append(names, fn.Name)
		}
	}
	return names
}

// FindExport resolves a single export by name.
func (r *Reader) FindExport(name string) (ExportInfo, error) {
	for _, fn := range r.file.Export.Functions {
		if fn.Name == name {
			return exportInfoFromFunction(fn), nil
		}
	}
	return ExportInfo{}, fmt.Errorf("%w: %s", ErrExportNotFound, name)
}

// FindExportByOrdinal resolves a single export by its ordinal value
// (the saferwall/pe library normalizes this to include the export
// directory's ordinal base already applied).
func (r *Reader) FindExportByOrdinal(ordinal uint32) (ExportInfo, error) {
	for _, fn := range r.file.Export.Functions {
		if fn.Ordinal == ordinal {
			return exportInfoFromFunction(fn), nil
		}
	}
	return ExportInfo{}, fmt.Errorf("%w: ordinal %d", ErrExportNotFound, ordinal)
}

// exportInfoFromFunction converts one saferwall/pe ExportFunction row
// into our own ExportInfo, classifying it as direct or forwarder based
// on whether the library populated ForwarderName.
func exportInfoFromFunction(fn peparser.ExportFunction) ExportInfo {
	if fn.ForwarderName != "" {
		return ExportInfo{
			Name:      fn.Name,
			Ordinal:   fn.Ordinal,
			Kind:      ExportForwarder,
			Forwarder: fn.ForwarderName,
		}
	}
	return ExportInfo{
		Name:    fn.Name,
		Ordinal: fn.Ordinal,
		Kind:    ExportDirect,
		RVA:     fn.RVA,
	}
}

// HostResolver looks up another module's image by name, so forwarder
// chains that cross DLL boundaries (e.g. api-ms-win-core-*.dll
// forwarding into kernelbase.dll) can be followed to their final,
// directly-exported implementation. Implementations typically consult
// a directory of known system DLLs or an already-loaded image cache.
type HostResolver interface {
	ResolveHost(moduleName string) (*Reader, error)
}

const maxForwarderHops = 16

// ResolveForwarder follows a (possibly multi-hop) forwarder chain
// starting at info, using hosts to open each referenced module, until
// it reaches a direct export. It detects cycles and enforces the
// default hop limit, per SPEC_FULL.md's error-handling section.
func ResolveForwarder(info ExportInfo, hosts HostResolver) (owner *Reader, resolved ExportInfo, err error) {
	return ResolveForwarderWithLimit(info, hosts, maxForwarderHops)
}

// ResolveForwarderWithLimit is ResolveForwarder with a caller-supplied
// hop limit, exposed so the CLI's --max-forwarder-hops flag can tighten
// or loosen the default without a package-level knob.
func ResolveForwarderWithLimit(info ExportInfo, hosts HostResolver, maxHops int) (owner *Reader, resolved ExportInfo, err error) {
	if info.Kind != ExportForwarder {
		return nil, info, nil
	}
	if maxHops <= 0 {
		maxHops = maxForwarderHops
	}
	seen := map[string]bool{}
	current := info
	var currentReader *Reader
	for hop := 0; ; hop++ {
		if hop >= maxHops {
			return nil, ExportInfo{}, ErrForwarderTooDeep
		}
		moduleName, exportName, ordinal, isOrdinal, perr := parseForwarder(current.Forwarder)
		if perr != nil {
			return nil, ExportInfo{}, perr
		}
		key := strings.ToLower(moduleName) + "!" + exportName
		if isOrdinal {
			key = strings.ToLower(moduleName) + "!#" + strconv.FormatUint(uint64(ordinal), 10)
		}
		if seen[key] {
			return nil, ExportInfo{}, ErrForwarderCycle
		}
		seen[key] = true

		next, err := hosts.ResolveHost(moduleName)
		if err != nil {
			return nil, ExportInfo{}, fmt.Errorf("peformat: resolving forwarder host %s: %w", moduleName, err)
		}
		currentReader = next

		var nextInfo ExportInfo
		if isOrdinal {
			nextInfo, err = next.FindExportByOrdinal(ordinal)
		} else {
			nextInfo, err = next.FindExport(exportName)
		}
		if err != nil {
			return nil, ExportInfo{}, err
		}
		if nextInfo.Kind == ExportDirect {
			return currentReader, nextInfo, nil
		}
		current = nextInfo
	}
}

// parseForwarder splits a forwarder string of the form "MODULE.Function"
// or "MODULE.#123" into its module name and either an export name or an
// ordinal.
func parseForwarder(s string) (module, export string, ordinal uint32, isOrdinal bool, err error) {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		return "", "", 0, false, fmt.Errorf("%w: %q", ErrForwarderUnsupported, s)
	}
	module = s[:dot]
	rest := s[dot+1:]
	if strings.HasPrefix(rest, "#") {
		v, perr := strconv.ParseUint(rest[1:], 10, 32)
		if perr != nil {
			return "", "", 0, false, fmt.Errorf("%w: %q", ErrForwarderUnsupported, s)
		}
		return module, "", uint32(v), true, nil
	}
	return module, rest, 0, false, nil
}
