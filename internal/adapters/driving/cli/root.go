// Package cli wires the cobra command tree to the application services.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codewiki/internal/adapters/driven/config/file"
	"github.com/custodia-labs/codewiki/internal/app"
	"github.com/custodia-labs/codewiki/internal/logger"
)

var (
	version = "dev"

	flagVerbose   bool
	flagConfigDir string

	// application is built lazily by ensureApp so that commands like
	// version and config path work without touching the data dir.
	application *app.App
	configStore *file.Store
)

var rootCmd = &cobra.Command{
	Use:   "codewiki",
	Short: "Index public GitHub repositories and search their code",
	Long: `codewiki ingests public GitHub repositories, chunks and embeds their
code, generates wiki summaries, and serves ranked hybrid code search
with file and line provenance.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default ~/.codewiki)")
}

// Execute runs the root command. The build injects the version string.
func Execute(v string) error {
	version = v

	err := rootCmd.Execute()

	if application != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if closeErr := application.Close(ctx); closeErr != nil {
			logger.Warn("closing application: %v", closeErr)
		}
	}

	return err
}

// ensureApp loads settings and assembles the services on first use.
func ensureApp(ctx context.Context) error {
	if application != nil {
		return nil
	}

	store, err := file.NewStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	configStore = store

	settings, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	application, err = app.New(ctx, settings)
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}
	return nil
}
