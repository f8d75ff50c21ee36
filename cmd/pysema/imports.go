package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var importsFormat string

var importsCmd = &cobra.Command{
	Use:   "imports <file>",
	Short: "List a file's imports and where they resolve",
	Long: `Extract every import binding of one Python file and resolve each
absolute module name against the project's search paths.

Relative imports are listed but not resolved.

Examples:
  pysema imports src/app/main.py
  pysema imports src/app/main.py --format=json`,
	Args: cobra.ExactArgs(1),
	Run:  runImports,
}

func init() {
	importsCmd.Flags().StringVar(&importsFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(importsCmd)
}

// ImportCLI is one import binding with its resolution outcome.
type ImportCLI struct {
	Module       string `json:"module,omitempty" yaml:"module,omitempty"`
	ImportedName string `json:"importedName,omitempty" yaml:"importedName,omitempty"`
	BoundName    string `json:"boundName,omitempty" yaml:"boundName,omitempty"`
	Wildcard     bool   `json:"wildcard,omitempty" yaml:"wildcard,omitempty"`
	RelativeDots int    `json:"relativeDots,omitempty" yaml:"relativeDots,omitempty"`
	Line         uint32 `json:"line" yaml:"line"`
	Resolved     bool   `json:"resolved" yaml:"resolved"`
	Path         string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ImportsResponseCLI is the imports command's output payload.
type ImportsResponseCLI struct {
	Path    string      `json:"path" yaml:"path"`
	Imports []ImportCLI `json:"imports" yaml:"imports"`
}

func runImports(cmd *cobra.Command, args []string) {
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

	resp := &ImportsResponseCLI{Path: relToRoot(root, path)}
	for _, fi := range database.FileImports(id) {
		resp.Imports = append(resp.Imports, ImportCLI{
			Module:       fi.Binding.Module,
			ImportedName: fi.Binding.ImportedName,
			BoundName:    fi.Binding.BoundName,
			Wildcard:     fi.Binding.Wildcard,
			RelativeDots: fi.Binding.RelativeDots,
			Line:         fi.Binding.Line,
			Resolved:     fi.Resolved,
			Path:         fi.Path,
		})
	}

	output, err := FormatResponse(resp, OutputFormat(importsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// importSpec renders a binding the way it would appear in source.
func importSpec(imp ImportCLI) string {
	var sb strings.Builder
	if imp.RelativeDots > 0 || imp.ImportedName != "" || imp.Wildcard {
		sb.WriteString("from ")
		sb.WriteString(strings.Repeat(".", imp.RelativeDots))
		sb.WriteString(imp.Module)
		sb.WriteString(" import ")
		if imp.Wildcard {
			sb.WriteString("*")
		} else {
			sb.WriteString(imp.ImportedName)
			if imp.BoundName != imp.ImportedName {
				sb.WriteString(" as ")
				sb.WriteString(imp.BoundName)
			}
		}
		return sb.String()
	}
	sb.WriteString("import ")
	sb.WriteString(imp.Module)
	if imp.BoundName != topLevel(imp.Module) {
		sb.WriteString(" as ")
		sb.WriteString(imp.BoundName)
	}
	return sb.String()
}

func topLevel(module string) string {
	if i := strings.IndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return module
}
