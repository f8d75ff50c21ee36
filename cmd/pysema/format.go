package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects how command responses are rendered.
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
)

// FormatResponse renders a response in the requested format.
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *CheckResponseCLI:
		return formatCheckHuman(v), nil
	case *ResolveResponseCLI:
		return formatResolveHuman(v), nil
	case *SymbolsResponseCLI:
		return formatSymbolsHuman(v), nil
	case *ImportsResponseCLI:
		return formatImportsHuman(v), nil
	case *SearchResponseCLI:
		return formatSearchHuman(v), nil
	case *StatsResponseCLI:
		return formatStatsHuman(v), nil
	default:
		// Unknown types fall back to JSON.
		return formatJSON(resp)
	}
}

func formatCheckHuman(resp *CheckResponseCLI) string {
	var b strings.Builder

	for _, file := range resp.Files {
		for _, d := range file.Diagnostics {
			fmt.Fprintf(&b, "%s:%d:%d: %s %s\n",
				file.Path, d.Range.Start.Line, d.Range.Start.Column, d.Code, d.Message)
		}
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Checked %d files: %d errors, %d warnings",
		resp.FilesChecked, resp.ErrorCount, resp.WarningCount)
	return b.String()
}

func formatResolveHuman(resp *ResolveResponseCLI) string {
	if !resp.Resolved {
		return fmt.Sprintf("module not found: %s", resp.Module)
	}
	return fmt.Sprintf("%s -> %s (%s)", resp.Module, resp.Path, resp.RootKind)
}

func formatSymbolsHuman(resp *SymbolsResponseCLI) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Symbols for %s\n", resp.Path)
	for _, scope := range resp.Scopes {
		b.WriteString("\n")
		if scope.Name == "" {
			fmt.Fprintf(&b, "%s (%d symbols)\n", scope.Kind, len(scope.Symbols))
		} else {
			fmt.Fprintf(&b, "%s %s (%d symbols)\n", scope.Kind, scope.Name, len(scope.Symbols))
		}
		for _, sym := range scope.Symbols {
			fmt.Fprintf(&b, "  %-24s %s\n", sym.Name, strings.Join(sym.Flags, ", "))
			for _, def := range sym.Definitions {
				fmt.Fprintf(&b, "    %s at %d:%d\n", def.Kind, def.Line, def.Column)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatImportsHuman(resp *ImportsResponseCLI) string {
	if len(resp.Imports) == 0 {
		return fmt.Sprintf("no imports in %s", resp.Path)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Imports for %s\n", resp.Path)
	for _, imp := range resp.Imports {
		target := "not resolved"
		if imp.Resolved {
			target = imp.Path
		}
		fmt.Fprintf(&b, "  %3d  %-36s %s\n", imp.Line, importSpec(imp), target)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSearchHuman(resp *SearchResponseCLI) string {
	if len(resp.Results) == 0 {
		return fmt.Sprintf("no symbols match %q", resp.Query)
	}

	var b strings.Builder
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "%-28s %-10s %s:%d (%s)\n",
			r.Qualified, r.Kind, r.Path, r.Line, r.MatchType)
	}
	fmt.Fprintf(&b, "\n%d matches", len(resp.Results))
	return b.String()
}

func formatStatsHuman(resp *StatsResponseCLI) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Instance: %s\n", resp.Instance)
	fmt.Fprintf(&b, "Files: %d\n", resp.Files)
	if !resp.Collected {
		b.WriteString("Hit/miss counters need a diagnostics build; entry counts are live.\n")
	}
	b.WriteString("Query families:\n")
	for _, family := range resp.Families {
		fmt.Fprintf(&b, "  %-16s entries=%-6d hits=%-8d misses=%d\n",
			family.Name, family.Entries, family.Hits, family.Misses)
	}
	return strings.TrimRight(b.String(), "\n")
}
