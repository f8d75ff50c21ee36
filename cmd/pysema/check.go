package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pysema/internal/lint"
)

var checkFormat string

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Analyze Python sources and report diagnostics",
	Long: `Analyze the project's Python sources and report syntax and semantic
diagnostics. Without arguments the whole project tree is checked;
with file arguments only those files are.

Exits with status 1 when any diagnostic is reported.

Examples:
  pysema check
  pysema check src/app/main.py
  pysema check --format=human`,
	Run: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "json", "Output format (json, human, yaml)")
	rootCmd.AddCommand(checkCmd)
}

// FileDiagnosticsCLI groups one file's diagnostics for output.
type FileDiagnosticsCLI struct {
	Path        string            `json:"path" yaml:"path"`
	Diagnostics []lint.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// CheckResponseCLI is the check command's output payload.
type CheckResponseCLI struct {
	Project      string               `json:"project" yaml:"project"`
	FilesChecked int                  `json:"filesChecked" yaml:"filesChecked"`
	ErrorCount   int                  `json:"errorCount" yaml:"errorCount"`
	WarningCount int                  `json:"warningCount" yaml:"warningCount"`
	Files        []FileDiagnosticsCLI `json:"files,omitempty" yaml:"files,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger()

	root := mustProjectRoot()
	database, cfg := mustGetDatabase(root, logger)

	paths, ids, err := projectFiles(database, cfg, root, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	resp := &CheckResponseCLI{
		Project:      root,
		FilesChecked: len(ids),
	}
	for i, id := range ids {
		diags := filterDiagnostics(database.Check(id), cfg.Analysis.DisabledRules)
		if len(diags) == 0 {
			continue
		}
		for _, d := range diags {
			switch d.Severity {
			case lint.SeverityError:
				resp.ErrorCount++
			case lint.SeverityWarning:
				resp.WarningCount++
			}
		}
		resp.Files = append(resp.Files, FileDiagnosticsCLI{
			Path:        relToRoot(root, paths[i]),
			Diagnostics: diags,
		})
	}

	output, err := FormatResponse(resp, OutputFormat(checkFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	logger.Debug("Check completed",
		"files", resp.FilesChecked,
		"errors", resp.ErrorCount,
		"warnings", resp.WarningCount,
		"duration", time.Since(start).Milliseconds(),
	)

	if resp.ErrorCount+resp.WarningCount > 0 {
		os.Exit(1)
	}
}

// filterDiagnostics drops diagnostics whose rule the config disables.
func filterDiagnostics(diags []lint.Diagnostic, disabled []string) []lint.Diagnostic {
	if len(disabled) == 0 {
		return diags
	}
	off := make(map[string]bool, len(disabled))
	for _, code := range disabled {
		off[code] = true
	}

	kept := diags[:0:0]
	for _, d := range diags {
		if !off[d.Code] {
			kept = append(kept, d)
		}
	}
	return kept
}

// relToRoot shortens absolute paths for output when they sit under the
// project root.
func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || len(rel) >= len(path) {
		return path
	}
	return rel
}
