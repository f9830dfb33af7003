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

package printer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsDefaultIndent(t *testing.T) {
	require.Equal(t, "    ", Options{}.indent())
	require.Equal(t, "\t", Options{Indent: "\t"}.indent())
}

func TestOptionsDefaultProvider(t *testing.T) {
	_, ok := Options{}.provider().TryGetArgExpectedEnumType("f", 0)
	require.False(t, ok)
	found, _ := Options{}.provider().TryFormatValue("E", 1)
	require.False(t, found)
}

func TestOptionsCustomProvider(t *testing.T) {
	provider := stubProvider{argEnum: map[int]string{0: "E"}}
	opts := Options{ConstantProvider: provider}
	require.Equal(t, provider, opts.provider())
}
