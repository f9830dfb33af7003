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

import "errors"

var (
	// ErrExportNotFound is returned when the requested export name or
	// ordinal does not appear in the image's export directory.
	ErrExportNotFound = errors.New("peformat: export not found")
	// ErrRvaUnmapped is returned when an RVA does not fall inside any
	// section's virtual address range.
	ErrRvaUnmapped = errors.New("peformat: rva not mapped into any section")
	// ErrInvalidRva is returned when an RVA falls inside a section's
	// virtual range but past the end of its raw data, or when a read at
	// an RVA runs past the end of the file.
	ErrInvalidRva = errors.New("peformat: rva out of image bounds")
	// ErrForwarderUnsupported is returned when a forwarder string cannot
	// be parsed into dll!function or dll!#ordinal form.
	ErrForwarderUnsupported = errors.New("peformat: unsupported forwarder string")
	// ErrForwarderCycle is returned when resolving a forwarder chain
	// revisits a module!export pair already seen in the chain.
	ErrForwarderCycle = errors.New("peformat: forwarder chain cycle detected")
	// ErrForwarderTooDeep is returned when a forwarder chain exceeds the
	// configured hop limit without resolving to a direct export.
	ErrForwarderTooDeep = errors.New("peformat: forwarder chain exceeds hop limit")
	// ErrBadImageFormat is returned when the input bytes are not a
	// recognizable PE image.
	ErrBadImageFormat = errors.New("peformat: not a valid PE image")
	// ErrNoFunctionBytes is returned when an export resolves to an RVA
	// with no readable code bytes (e.g. a data export).
	ErrNoFunctionBytes = errors.New("peformat: export has no function bytes")
)
