package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pysema/internal/semantic"
)

var symbolsFormat string

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "Dump a file's symbol table",
	Long: `Build and print the symbol table of one Python file: every scope,
the names it owns, their flags and definition sites.

Examples:
  pysema symbols src/app/config.py
  pysema symbols src/app/config.py --format=json`,
	Args: cobra.ExactArgs(1),
	Run:  runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&symbolsFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(symbolsCmd)
}

// DefinitionCLI is one definition site.
type DefinitionCLI struct {
	Kind   string `json:"kind" yaml:"kind"`
	Line   uint32 `json:"line" yaml:"line"`
	Column uint32 `json:"column" yaml:"column"`
}

// SymbolCLI is one symbol with its flags and definitions.
type SymbolCLI struct {
	Name        string          `json:"name" yaml:"name"`
	Qualified   string          `json:"qualified" yaml:"qualified"`
	Flags       []string        `json:"flags" yaml:"flags"`
	Definitions []DefinitionCLI `json:"definitions,omitempty" yaml:"definitions,omitempty"`
}

// ScopeCLI is one scope and the symbols it owns.
type ScopeCLI struct {
	Kind    string      `json:"kind" yaml:"kind"`
	Name    string      `json:"name,omitempty" yaml:"name,omitempty"`
	Symbols []SymbolCLI `json:"symbols" yaml:"symbols"`
}

// SymbolsResponseCLI is the symbols command's output payload.
type SymbolsResponseCLI struct {
	Path   string     `json:"path" yaml:"path"`
	Scopes []ScopeCLI `json:"scopes" yaml:"scopes"`
}

func runSymbols(cmd *cobra.Command, args []string) {
	logger := newLogger()
	root := mustProjectRoot()
	database, _ := mustGetDatabase(root, logger)

	path, err := filepath.Abs(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	id, err := database.Intern(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	table := database.SymbolTable(id)
	resp := &SymbolsResponseCLI{Path: relToRoot(root, path)}

	for scopeID := semantic.ModuleScope; int(scopeID) < table.NumScopes(); scopeID++ {
		scope := table.Scope(scopeID)
		out := ScopeCLI{Kind: string(scope.Kind), Name: scope.Name}

		for _, symID := range table.SymbolsInScope(scopeID) {
			sym := table.Symbol(symID)
			out.Symbols = append(out.Symbols, SymbolCLI{
				Name:        sym.Name,
				Qualified:   table.QualifiedName(symID),
				Flags:       flagNames(sym.Flags),
				Definitions: definitionsCLI(table, symID),
			})
		}
		resp.Scopes = append(resp.Scopes, out)
	}

	output, err := FormatResponse(resp, OutputFormat(symbolsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func flagNames(flags semantic.SymbolFlags) []string {
	var names []string
	if flags.Bound() {
		names = append(names, "bound")
	}
	if flags.Used() {
		names = append(names, "used")
	}
	if flags.Imported() {
		names = append(names, "imported")
	}
	if flags.Parameter() {
		names = append(names, "parameter")
	}
	if flags.Global() {
		names = append(names, "global")
	}
	if flags.Nonlocal() {
		names = append(names, "nonlocal")
	}
	if len(names) == 0 {
		names = append(names, "unbound")
	}
	return names
}

func definitionsCLI(table *semantic.Table, id semantic.SymbolID) []DefinitionCLI {
	defs := table.DefinitionsOf(id)
	out := make([]DefinitionCLI, 0, len(defs))
	for _, def := range defs {
		out = append(out, DefinitionCLI{
			Kind:   string(def.Kind),
			Line:   def.Line,
			Column: def.Column,
		})
	}
	return out
}
