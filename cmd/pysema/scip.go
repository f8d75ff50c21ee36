package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pysema/internal/scipexport"
	"pysema/internal/version"
)

var scipOutput string

var scipCmd = &cobra.Command{
	Use:   "scip",
	Short: "Export a SCIP index of the project",
	Long: `Export the project's definitions as a SCIP index for code
navigation tooling.

Examples:
  pysema scip
  pysema scip --output=index.scip`,
	Run: runScip,
}

func init() {
	scipCmd.Flags().StringVarP(&scipOutput, "output", "o", "", "Output path (default: export.scipPath from config)")
	rootCmd.AddCommand(scipCmd)
}

func runScip(cmd *cobra.Command, args []string) {
	logger := newLogger()
	root := mustProjectRoot()
	database, cfg := mustGetDatabase(root, logger)

	paths, ids, err := projectFiles(database, cfg, root, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	exporter := scipexport.NewExporter(scipexport.Options{
		ProjectRoot:    root,
		ToolName:       "pysema",
		ToolVersion:    version.Version,
		PackageName:    filepath.Base(root),
		PackageVersion: "0.0.0",
	}, logger)

	searchPaths := database.SearchPaths()
	for i, id := range ids {
		module := ""
		if name, ok := searchPaths.ModuleNameForPath(paths[i]); ok {
			module = string(name)
		}
		exporter.AddDocument(relToRoot(root, paths[i]), module, database.SymbolTable(id))
	}

	out := scipOutput
	if out == "" {
		out = cfg.Export.ScipPath
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(root, out)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	if err := exporter.WriteFile(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing index: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote SCIP index: %s (%d documents)\n", out, len(ids))
}
