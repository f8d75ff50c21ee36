package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pysema/internal/resolver"
)

var resolveFormat string

var resolveCmd = &cobra.Command{
	Use:   "resolve <module>",
	Short: "Resolve a module name to a file",
	Long: `Resolve a dotted module name against the project's search paths and
print the winning file.

Examples:
  pysema resolve os
  pysema resolve app.services.billing
  pysema resolve numpy --format=json`,
	Args: cobra.ExactArgs(1),
	Run:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(resolveCmd)
}

// ResolveResponseCLI is the resolve command's output payload.
type ResolveResponseCLI struct {
	Module   string `json:"module" yaml:"module"`
	Resolved bool   `json:"resolved" yaml:"resolved"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	RootKind string `json:"rootKind,omitempty" yaml:"rootKind,omitempty"`
	RootPath string `json:"rootPath,omitempty" yaml:"rootPath,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) {
	logger := newLogger()
	root := mustProjectRoot()
	database, _ := mustGetDatabase(root, logger)

	name := resolver.ModuleName(args[0])
	resolved, ok := database.ResolveModule(name)

	resp := &ResolveResponseCLI{Module: string(name), Resolved: ok}
	if ok {
		resp.Path = resolved.Path
		resp.RootKind = string(resolved.Root.Kind)
		resp.RootPath = resolved.Root.Path
	}

	output, err := FormatResponse(resp, OutputFormat(resolveFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	if !ok {
		os.Exit(1)
	}
}
