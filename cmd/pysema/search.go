package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pysema/internal/search"
)

var (
	searchLimit  int
	searchFormat string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for symbols by name",
	Long: `Search the project's symbols. Exact name matches rank first, then
prefix matches, then substring matches.

Examples:
  pysema search load_config
  pysema search Config --limit=10
  pysema search handle --format=json`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(searchCmd)
}

// SearchResultCLI is one search hit.
type SearchResultCLI struct {
	Name      string  `json:"name" yaml:"name"`
	Qualified string  `json:"qualified" yaml:"qualified"`
	Kind      string  `json:"kind" yaml:"kind"`
	Scope     string  `json:"scope" yaml:"scope"`
	Path      string  `json:"path" yaml:"path"`
	Line      uint32  `json:"line" yaml:"line"`
	Rank      float64 `json:"rank" yaml:"rank"`
	MatchType string  `json:"matchType" yaml:"matchType"`
}

// SearchResponseCLI is the search command's output payload.
type SearchResponseCLI struct {
	Query   string            `json:"query" yaml:"query"`
	Indexed int               `json:"indexedFiles" yaml:"indexedFiles"`
	Results []SearchResultCLI `json:"results" yaml:"results"`
}

func runSearch(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger()
	query := args[0]

	root := mustProjectRoot()
	database, cfg := mustGetDatabase(root, logger)
	ctx := context.Background()

	paths, ids, err := projectFiles(database, cfg, root, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	index, err := search.NewIndex(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening search index: %v\n", err)
		os.Exit(1)
	}
	defer index.Close()

	for i, id := range ids {
		if err := index.IndexFile(ctx, relToRoot(root, paths[i]), database.SymbolTable(id)); err != nil {
			fmt.Fprintf(os.Stderr, "Error indexing %s: %v\n", paths[i], err)
			os.Exit(1)
		}
	}

	results, err := index.Search(ctx, query, searchLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching symbols: %v\n", err)
		os.Exit(1)
	}

	resp := &SearchResponseCLI{Query: query, Indexed: len(ids)}
	for _, r := range results {
		resp.Results = append(resp.Results, SearchResultCLI{
			Name:      r.Name,
			Qualified: r.Qualified,
			Kind:      r.Kind,
			Scope:     r.Scope,
			Path:      r.Path,
			Line:      r.Line,
			Rank:      r.Rank,
			MatchType: r.MatchType,
		})
	}

	output, err := FormatResponse(resp, OutputFormat(searchFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	logger.Debug("Search completed",
		"query", query,
		"results", len(resp.Results),
		"duration", time.Since(start).Milliseconds(),
	)
}
