package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codewiki/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := file.NewStore(flagConfigDir)
		if err != nil {
			return err
		}
		cmd.Println(store.Path())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := file.NewStore(flagConfigDir)
	if err != nil {
		return err
	}

	settings, err := store.Load()
	if err != nil {
		return err
	}

	cmd.Printf("data_dir:  %s\n", settings.DataDir)
	cmd.Printf("port:      %d\n", settings.Server.Port)
	cmd.Println()
	cmd.Printf("embedding: provider=%s model=%s dimensions=%d\n",
		settings.Embedding.Provider, settings.Embedding.Model, settings.Embedding.Dimensions)
	cmd.Printf("wiki:      provider=%s model=%s require=%t\n",
		settings.Wiki.Provider, settings.Wiki.Model, settings.Search.RequireWiki)
	cmd.Printf("ingest:    policy=%s window=%d overlap=%d max_file=%s\n",
		settings.Ingest.ReingestPolicy, settings.Ingest.WindowLines,
		settings.Ingest.OverlapLines, byteSize(settings.Ingest.MaxFileBytes))
	cmd.Printf("search:    top_k=%d\n", settings.Search.TopK)
	cmd.Printf("github:    token=%s\n", redact(settings.GitHubToken))
	return nil
}

func redact(s string) string {
	if s == "" {
		return "(unset)"
	}
	return "****"
}

func byteSize(n int64) string {
	const kb = 1024
	if n < kb {
		return fmt.Sprintf("%dB", n)
	}
	return fmt.Sprintf("%dKB", n/kb)
}
