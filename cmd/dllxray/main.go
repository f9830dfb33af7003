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
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gorse-io/dllxray"
	"github.com/gorse-io/dllxray/constdb"
	"github.com/gorse-io/dllxray/peformat"
)

var rootCmd = &cobra.Command{
	Use:   "dllxray",
	Short: "Static decompiler for x86-64 PE exports",
}

var decompileCmd = &cobra.Command{
	Use:   "decompile <dll-path> <export-name>",
	Short: "Decompile one export to C-like pseudocode",
	Args:  cobra.ExactArgs(2),
	Run:   runDecompile,
}

var listExportsCmd = &cobra.Command{
	Use:   "list-exports <dll-path>",
	Short: "List every named export of a DLL",
	Args:  cobra.ExactArgs(1),
	Run:   runListExports,
}

func init() {
	decompileCmd.Flags().Int("max-bytes", 0, "upper bound on bytes decoded for the function (0: engine default)")
	decompileCmd.Flags().Int("max-forwarder-hops", 0, "maximum export-forwarder chain length (0: engine default)")
	decompileCmd.Flags().Bool("labels", true, "emit L1:-style labels at branch targets")
	decompileCmd.Flags().Bool("detect-prologue", true, "collapse recognized MSVC prologue/epilogue shapes")
	decompileCmd.Flags().Bool("comment-compare", false, "emit a pseudo note alongside each cmp/test's asm comment")
	decompileCmd.Flags().Bool("stdint-names", false, "use uintNN_t/intNN_t instead of unsigned/short/long")
	decompileCmd.Flags().Bool("block-labels", false, "print block labels; only branch targets carry one, so this prints the same labels as --labels")
	decompileCmd.Flags().Bool("signedness-comments", false, "inline /* signed */ /* unsigned */ hint on comparisons")
	decompileCmd.Flags().Uint64("base-address", 0, "override the image's preferred load address")
	decompileCmd.Flags().String("winmd", "", "path to a .winmd file to load symbolic constants from")
	decompileCmd.Flags().String("assembly-enums", "", "path to a managed assembly to load symbolic constants from")
	decompileCmd.Flags().String("return-enum", "", "enum full name the export's return value is documented to hold")

	rootCmd.AddCommand(decompileCmd)
	rootCmd.AddCommand(listExportsCmd)
}

func runDecompile(cmd *cobra.Command, args []string) {
	dllPath, exportName := args[0], args[1]
	flags := cmd.Flags()

	maxBytes, _ := flags.GetInt("max-bytes")
	maxHops, _ := flags.GetInt("max-forwarder-hops")
	labels, _ := flags.GetBool("labels")
	detectPrologue, _ := flags.GetBool("detect-prologue")
	commentCompare, _ := flags.GetBool("comment-compare")
	stdIntNames, _ := flags.GetBool("stdint-names")
	blockLabels, _ := flags.GetBool("block-labels")
	signednessComments, _ := flags.GetBool("signedness-comments")
	baseAddress, _ := flags.GetUint64("base-address")
	winmdPath, _ := flags.GetString("winmd")
	assemblyPath, _ := flags.GetString("assembly-enums")
	returnEnum, _ := flags.GetString("return-enum")

	db, err := loadConstantDatabase(winmdPath, assemblyPath)
	if err != nil {
		fail(err)
	}

	opts := dllxray.Options{
		BaseAddress:            baseAddress,
		MaxBytes:               maxBytes,
		MaxForwarderHops:       maxHops,
		EmitLabels:             labels,
		SkipPrologueDetection:  !detectPrologue,
		CommentCompare:         commentCompare,
		UseStdIntNames:         stdIntNames,
		EmitBlockLabels:        blockLabels,
		CommentSignednessOnCmp: signednessComments,
		ConstantDatabase:       db,
		ReturnEnumType:         returnEnum,
	}

	out, err := dllxray.DecompileExport(context.Background(), dllPath, exportName, opts)
	if err != nil {
		fail(err)
	}
	fmt.Print(out)
}

func runListExports(cmd *cobra.Command, args []string) {
	reader, err := peformat.Open(args[0], nil)
	if err != nil {
		fail(err)
	}
	defer reader.Close()

	for _, name := range reader.ExportNames() {
		fmt.Println(name)
	}
}

// loadConstantDatabase builds a constdb.Database from whichever of
// --winmd/--assembly-enums were given, or returns nil when neither was
// set (no symbolic constant substitution).
func loadConstantDatabase(winmdPath, assemblyPath string) (*constdb.Database, error) {
	if winmdPath == "" && assemblyPath == "" {
		return nil, nil
	}
	db := constdb.NewDatabase()
	if winmdPath != "" {
		if err := loadEnumSource(db, "winmd", winmdPath); err != nil {
			return nil, err
		}
	}
	if assemblyPath != "" {
		if err := loadEnumSource(db, "assembly", assemblyPath); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func loadEnumSource(db *constdb.Database, loaderName, path string) error {
	loader, ok := constdb.GetLoader(loaderName)
	if !ok {
		return fmt.Errorf("dllxray: no %q constant loader registered", loaderName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("dllxray: reading %s: %w", path, err)
	}
	return loader.Load(db, path, data)
}

func fail(err error) {
	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}
