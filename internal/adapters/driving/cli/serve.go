package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codewiki/internal/adapters/driving/httpapi"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the HTTP server exposing the repository registry, ingestion
pipeline, wiki pages, and search endpoints. Ingestion status is also
streamed over Server-Sent Events.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ensureApp(ctx); err != nil {
		return err
	}

	port := servePort
	if port <= 0 {
		port = application.Settings.Server.Port
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Repos:  application.Repos,
		Ingest: application.Ingest,
		Wiki:   application.Wiki,
		Search: application.Search,
	})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", port)
	cmd.Printf("Listening on http://localhost%s\n", addr)
	return server.Run(ctx, addr)
}
