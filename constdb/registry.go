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

package constdb

import (
	"fmt"
	"sort"
	"sync"
)

// EnumLoader parses one kind of enum source (a managed assembly, a
// .winmd metadata file, ...) into EnumDescs and registers them into a
// Database. Implementations are registered via RegisterLoader and
// looked up by name (GetLoader) or by file path (LoaderFor).
type EnumLoader interface {
	// Name identifies the loader, e.g. "assembly" or "winmd".
	Name() string
	// Accepts reports whether this loader can handle a source with the
	// given file path, typically by extension sniffing.
	Accepts(path string) bool
	// Load parses data and registers every enum it finds into db.
	Load(db *Database, path string, data []byte) error
}

var (
	loaderMu   sync.RWMutex
	loaders    = map[string]EnumLoader{}
	loaderList []string
)

// RegisterLoader adds loader to the global registry. It panics if a
// loader with the same name is already registered, matching the
// "no silent shadowing" behavior callers rely on at init time.
func RegisterLoader(loader EnumLoader) {
	loaderMu.Lock()
	defer loaderMu.Unlock()
	name := loader.Name()
	if _, exists := loaders[name]; exists {
		panic(fmt.Sprintf("constdb: loader %q already registered", name))
	}
	loaders[name] = loader
	loaderList = append(loaderList, name)
}

// GetLoader looks up a previously-registered loader by name.
func GetLoader(name string) (EnumLoader, bool) {
	loaderMu.RLock()
	defer loaderMu.RUnlock()
	l, ok := loaders[name]
	return l, ok
}

// ListLoaders returns every registered loader name, sorted.
func ListLoaders() []string {
	loaderMu.RLock()
	defer loaderMu.RUnlock()
	out := append([]string(nil), loaderList...)
	sort.Strings(out)
	return out
}

// LoaderFor returns the first registered loader that accepts path, or
// false if none claims it.
func LoaderFor(path string) (EnumLoader, bool) {
	loaderMu.RLock()
	defer loaderMu.RUnlock()
	for _, name := range loaderList {
		if l := loaders[name]; l.Accepts(path) {
			return l, true
		}
	}
	return nil, false
}

// LoadFile dispatches path/data to whichever registered loader accepts
// it and runs it against db. It returns an error if no loader claims
// the path.
func (db *Database) LoadFile(path string, data []byte) error {
	loader, ok := LoaderFor(path)
	if !ok {
		return fmt.Errorf("constdb: no loader registered for %q", path)
	}
	return loader.Load(db, path, data)
}
