package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show query cache statistics",
	Long: `Analyze the project once, then report per-family cache statistics
from the analysis database. Hit and miss counters are populated in
builds with the diagnostics tag; entry counts are always live.

Examples:
  pysema stats
  pysema stats --format=json`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(statsCmd)
}

// FamilyStatsCLI is one query family's cache counters.
type FamilyStatsCLI struct {
	Name    string `json:"name" yaml:"name"`
	Entries int    `json:"entries" yaml:"entries"`
	Hits    uint64 `json:"hits" yaml:"hits"`
	Misses  uint64 `json:"misses" yaml:"misses"`
}

// StatsResponseCLI is the stats command's output payload.
type StatsResponseCLI struct {
	Instance  string           `json:"instance" yaml:"instance"`
	Files     int              `json:"files" yaml:"files"`
	Collected bool             `json:"collected" yaml:"collected"`
	Families  []FamilyStatsCLI `json:"families" yaml:"families"`
}

func runStats(cmd *cobra.Command, args []string) {
	logger := newLogger()
	root := mustProjectRoot()
	database, cfg := mustGetDatabase(root, logger)

	_, ids, err := projectFiles(database, cfg, root, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, id := range ids {
		database.Check(id)
	}

	stats := database.Stats()
	resp := &StatsResponseCLI{
		Instance:  stats.Instance,
		Files:     stats.Files,
		Collected: stats.Collected,
	}
	for name, family := range stats.Families {
		resp.Families = append(resp.Families, FamilyStatsCLI{
			Name:    name,
			Entries: family.Entries,
			Hits:    family.Hits,
			Misses:  family.Misses,
		})
	}
	sort.Slice(resp.Families, func(i, j int) bool { return resp.Families[i].Name < resp.Families[j].Name })

	output, err := FormatResponse(resp, OutputFormat(statsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
