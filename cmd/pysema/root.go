package main

import (
	"github.com/spf13/cobra"

	"pysema/internal/version"
)

var (
	projectFlag string
	verbosity   int
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "pysema",
	Short: "pysema - incremental Python analyzer",
	Long: `pysema analyzes Python projects incrementally. Parse trees, symbol
tables and diagnostics are memoized per file; change batches evict only
the affected entries and queries recompute lazily on the next read.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("pysema version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "",
		"Project root directory (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false,
		"Suppress all log output")
}
