package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
	searchRepo  string
	searchMode  string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed code",
	Long: `Performs hybrid search across all ingested repositories.
Combines keyword (BM25) and semantic (vector) search for best results.
Use --mode deep for semantic-only retrieval.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVar(&searchRepo, "repo", "", "restrict to one repository id")
	searchCmd.Flags().StringVar(&searchMode, "mode", "fast", "retrieval mode (fast or deep)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	mode := domain.SearchMode(searchMode)
	if !mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, searchMode)
	}

	if err := ensureApp(cmd.Context()); err != nil {
		return err
	}

	opts := domain.SearchOptions{
		RepoFilter: searchRepo,
		Mode:       mode,
		Limit:      searchLimit,
	}

	results, err := application.Search.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
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
		cmd.Printf("  [%d] %s:%d-%d (%.4f)\n",
			i+1, results[i].FilePath, results[i].LineStart, results[i].LineEnd, results[i].Score)
		cmd.Printf("      Repo: %s\n", results[i].RepoID)
		if results[i].Snippet != "" {
			cmd.Printf("      %s\n", firstLine(results[i].Snippet))
		}
		cmd.Println()
	}

	return nil
}

// firstLine keeps the table output one line per hit.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
