package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/present"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

var (
	searchLimit   int
	searchJSON    bool
	searchRefresh bool
	searchType    string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalogue",
	Long: `Searches products, banners, offers, recommendations and categories.

Matches are case-insensitive substring matches on the id, name,
description, category and tags of each active record. Results are ranked
by relevance and each id appears once.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	indexJSON    bool
	indexRefresh bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Show search index statistics",
	RunE:  runIndex,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchRefresh, "refresh", false, "rebuild the index before searching")
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "only show records of this type")
	rootCmd.AddCommand(searchCmd)

	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output statistics as JSON")
	indexCmd.Flags().BoolVar(&indexRefresh, "refresh", false, "rebuild the index first")
	rootCmd.AddCommand(indexCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	var typ domain.RecordType
	if searchType != "" {
		typ = domain.RecordType(strings.ToLower(searchType))
		if !typ.IsValid() {
			return fmt.Errorf("%w: unknown record type %q", domain.ErrInvalidInput, searchType)
		}
	}

	ctx := cmd.Context()

	if searchRefresh {
		if err := refreshIndex(cmd); err != nil {
			return err
		}
	}

	results, err := searchService.Search(ctx, query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	// The type filter applies after the limit.
	if typ != "" {
		filtered := results[:0]
		for i := range results {
			if results[i].Record.Type == typ {
				filtered = append(filtered, results[i])
			}
		}
		results = filtered
	}

	if searchJSON {
		return outputJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

// refreshIndex rebuilds the index and reports a throttled refresh on stderr.
func refreshIndex(cmd *cobra.Command) error {
	rebuilt, err := searchService.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}
	if !rebuilt {
		cmd.PrintErrln("Index refresh throttled; cached results cleared.")
	}
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		rec := results[i].Record

		// Format: [N] Name [type] (score)
		cmd.Printf("  [%d] %s [%s] (%d)\n", i+1, present.Title(rec), rec.Type, results[i].Score)

		var details []string
		if price := present.RecordPrice(rec); price != "" {
			details = append(details, price)
		}
		if rec.Category != "" {
			details = append(details, rec.Category)
		}
		if rec.ProductCount != nil {
			details = append(details, fmt.Sprintf("%d products", *rec.ProductCount))
		}
		if len(details) > 0 {
			cmd.Printf("      %s\n", strings.Join(details, " | "))
		}
		if rec.Description != "" {
			cmd.Printf("      %s\n", rec.Description)
		}
		if rec.Collection != "" {
			cmd.Printf("      %s in %s\n", rec.ID, rec.Collection)
		}
		cmd.Println()
	}

	return nil
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	if indexRefresh {
		if err := refreshIndex(cmd); err != nil {
			return err
		}
	}

	stats := searchService.Stats()
	if indexJSON {
		return outputJSON(cmd, stats)
	}

	cmd.Println("Search Index")
	cmd.Println("============")
	cmd.Printf("Records:  %d\n", stats.Records)
	for _, typ := range domain.RecordTypes() {
		cmd.Printf("  %-16s %d\n", typ, stats.ByType[typ])
	}
	cmd.Printf("Skipped:  %d\n", stats.Skipped)
	cmd.Printf("Cached:   %d queries\n", stats.CachedItems)
	if !stats.BuiltAt.IsZero() {
		cmd.Printf("Built at: %s\n", stats.BuiltAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
