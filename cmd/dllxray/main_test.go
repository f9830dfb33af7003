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

package main

import (
	"testing"
)

func TestLoadConstantDatabaseNoPathsReturnsNil(t *testing.T) {
	db, err := loadConstantDatabase("", "")
	if err != nil {
		t.Fatalf("loadConstantDatabase(\"\", \"\") error = %v, want nil", err)
	}
	if db != nil {
		t.Fatalf("loadConstantDatabase(\"\", \"\") = %v, want nil", db)
	}
}

func TestLoadConstantDatabaseMissingWinmdFile(t *testing.T) {
	_, err := loadConstantDatabase("/nonexistent/path.winmd", "")
	if err == nil {
		t.Fatal("loadConstantDatabase with a missing winmd path: want error, got nil")
	}
}

func TestLoadConstantDatabaseMissingAssemblyFile(t *testing.T) {
	_, err := loadConstantDatabase("", "/nonexistent/path.dll")
	if err == nil {
		t.Fatal("loadConstantDatabase with a missing assembly path: want error, got nil")
	}
}

func TestLoadEnumSourceUnknownLoader(t *testing.T) {
	err := loadEnumSource(nil, "not-a-real-loader", "irrelevant.bin")
	if err == nil {
		t.Fatal("loadEnumSource with an unregistered loader name: want error, got nil")
	}
}
