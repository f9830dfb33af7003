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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinLoadersRegistered(t *testing.T) {
	require.Contains(t, ListLoaders(), "assembly")
	require.Contains(t, ListLoaders(), "winmd")
}

func TestLoaderForDispatchesByExtension(t *testing.T) {
	l, ok := LoaderFor("Windows.Foundation.winmd")
	require.True(t, ok)
	require.Equal(t, "winmd", l.Name())

	l, ok = LoaderFor("MyAssembly.dll")
	require.True(t, ok)
	require.Equal(t, "assembly", l.Name())

	_, ok = LoaderFor("notes.txt")
	require.False(t, ok)
}

func TestRegisterLoaderPanicsOnDuplicateName(t *testing.T) {
	require.Panics(t, func() {
		RegisterLoader(&WinmdLoader{})
	})
}

func TestDatabaseLoadFileUnknownExtension(t *testing.T) {
	db := NewDatabase()
	err := db.LoadFile("notes.txt", nil)
	require.Error(t, err)
}
