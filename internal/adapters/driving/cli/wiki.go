package cli

import (
	"github.com/spf13/cobra"
)

var wikiLong bool

var wikiCmd = &cobra.Command{
	Use:   "wiki",
	Short: "Wiki page commands",
}

var wikiShowCmd = &cobra.Command{
	Use:   "show [repo-id]",
	Short: "Print the current wiki page for a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runWikiShow,
}

var wikiHistoryCmd = &cobra.Command{
	Use:   "history [repo-id]",
	Short: "List wiki versions for a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runWikiHistory,
}

var wikiRegenerateCmd = &cobra.Command{
	Use:   "regenerate [repo-id]",
	Short: "Generate a new wiki version",
	Args:  cobra.ExactArgs(1),
	RunE:  runWikiRegenerate,
}

func init() {
	wikiShowCmd.Flags().BoolVar(&wikiLong, "long", false, "print the long summary")
	wikiCmd.AddCommand(wikiShowCmd)
	wikiCmd.AddCommand(wikiHistoryCmd)
	wikiCmd.AddCommand(wikiRegenerateCmd)
	rootCmd.AddCommand(wikiCmd)
}

func runWikiShow(cmd *cobra.Command, args []string) error {
	if err := ensureApp(cmd.Context()); err != nil {
		return err
	}

	page, err := application.Wiki.Page(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if wikiLong && page.LongSummary != "" {
		cmd.Println(page.LongSummary)
		return nil
	}
	cmd.Println(page.Summary)
	return nil
}

func runWikiHistory(cmd *cobra.Command, args []string) error {
	if err := ensureApp(cmd.Context()); err != nil {
		return err
	}

	page, err := application.Wiki.Page(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	for i := range page.History {
		art := &page.History[i]
		commit := art.CommitSHA
		if len(commit) > 12 {
			commit = commit[:12]
		}
		cmd.Printf("  v%d  %s  %s\n",
			art.Version, commit, art.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runWikiRegenerate(cmd *cobra.Command, args []string) error {
	if err := ensureApp(cmd.Context()); err != nil {
		return err
	}

	art, err := application.Wiki.Regenerate(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Generated wiki v%d for commit %s\n", art.Version, art.CommitSHA)
	return nil
}
