package cmd

import (
	"errors"
	"net/http"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgeleaf/jewelgen/internal/observability"
	"github.com/forgeleaf/jewelgen/internal/server"
	"github.com/forgeleaf/jewelgen/pkg/metadata"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored designs over HTTP",
	Long: `Run a read-only HTTP API over the metadata directory.

Endpoints:
  GET /health            service health and design count
  GET /version           build version
  GET /v1/designs        list designs (?match=<glob> filters by id)
  GET /v1/designs/{id}   one design's metadata document

The server shuts down gracefully on SIGINT/SIGTERM.

Example:
  jewelgen serve
  jewelgen serve --host 0.0.0.0 --port 9090`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Bind port (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	host := serveHost
	if host == "" {
		host = cfg.Server.Host
	}
	port := servePort
	if port == 0 {
		port = cfg.Server.Port
	}

	store := metadata.NewStore(cfg.Paths.MetadataDir)
	srv := server.New(host, port, store, versionInfo.Version, observability.CLILogger)

	observability.CLILogger.Info("Serving design API",
		zap.String("addr", srv.Addr()),
		zap.String("metadata_dir", store.Dir()))

	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
	}
	return nil
}
