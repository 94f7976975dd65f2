package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codewiki/internal/core/domain"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Manage the repository registry",
}

var reposAddCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Register a public GitHub repository",
	Long: `Register a public GitHub repository by URL. Registration is
idempotent: adding a known URL returns the existing record. Run
"codewiki repos index" afterwards to ingest it.`,
	Args: cobra.ExactArgs(1),
	RunE: runReposAdd,
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered repositories",
	RunE:  runReposList,
}

var reposIndexCmd = &cobra.Command{
	Use:   "index [id]",
	Short: "Ingest a repository and wait for completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runReposIndex,
}

var reposStatusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show the ingestion status of a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runReposStatus,
}

func init() {
	reposCmd.AddCommand(reposAddCmd)
	reposCmd.AddCommand(reposListCmd)
	reposCmd.AddCommand(reposIndexCmd)
	reposCmd.AddCommand(reposStatusCmd)
	rootCmd.AddCommand(reposCmd)
}

func runReposAdd(cmd *cobra.Command, args []string) error {
	if err := ensureApp(cmd.Context()); err != nil {
		return err
	}

	repo, err := application.Repos.Register(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Registered %s/%s (%s)\n", repo.Owner, repo.Name, repo.ID)
	return nil
}

func runReposList(cmd *cobra.Command, _ []string) error {
	if err := ensureApp(cmd.Context()); err != nil {
		return err
	}

	repos, err := application.Repos.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(repos) == 0 {
		cmd.Println("No repositories registered.")
		return nil
	}

	for i := range repos {
		commit := repos[i].CommitSHA
		if commit == "" {
			commit = "not ingested"
		} else if len(commit) > 12 {
			commit = commit[:12]
		}
		cmd.Printf("  %s  %s/%s  %s\n", repos[i].ID, repos[i].Owner, repos[i].Name, commit)
	}
	return nil
}

func runReposIndex(cmd *cobra.Command, args []string) error {
	if err := ensureApp(cmd.Context()); err != nil {
		return err
	}

	repoID := args[0]

	updates, cancel := application.Ingest.Subscribe(repoID)
	defer cancel()

	if _, err := application.Ingest.Start(cmd.Context(), repoID); err != nil {
		return err
	}

	for {
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case status, ok := <-updates:
			if !ok {
				return nil
			}
			printStatus(cmd, &status)
			if status.Stage.IsTerminal() {
				if status.Stage == domain.StageError {
					return fmt.Errorf("ingestion failed: %s", status.Error)
				}
				return nil
			}
		}
	}
}

func runReposStatus(cmd *cobra.Command, args []string) error {
	if err := ensureApp(cmd.Context()); err != nil {
		return err
	}

	status, err := application.Ingest.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printStatus(cmd, status)
	return nil
}

func printStatus(cmd *cobra.Command, status *domain.IngestionStatus) {
	line := string(status.Stage)
	if status.Message != "" {
		line += ": " + status.Message
	}
	if status.Progress >= 0 {
		line += fmt.Sprintf(" (%d%%)", int(status.Progress*100))
	}
	cmd.Println(line)
	if status.Error != "" {
		cmd.Printf("  error: %s\n", status.Error)
	}
}
