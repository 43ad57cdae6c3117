package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/prosody-analyzer/internal/app"
	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/internal/metrics"
	"github.com/RyanBlaney/prosody-analyzer/internal/server"
	"github.com/RyanBlaney/prosody-analyzer/internal/store"
)

var (
	serveAddress   string
	serveStorePath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis HTTP API",
	Long: `Serve the analysis pipeline over HTTP.

Endpoints:
  GET  /health                            liveness and uptime
  POST /v1/analyses                       analyze an uploaded recording or a JSON sample buffer
  GET  /v1/analyses                       list stored analyses, newest first
  GET  /v1/analyses/{id}                  fetch a stored analysis
  GET  /v1/analyses/{id}/distribution     percentiles for ?feature=...
  GET  /v1/analyses/{id}/plot.png         distribution plot
  GET  /metrics                           Prometheus metrics

Examples:
  prosody-analyzer serve --address :9090
  prosody-analyzer serve --store /var/lib/prosody/analyses.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddress, "address", "",
		"listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveStorePath, "store", "",
		"SQLite database for analysis history (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	config, logger, err := loadAppConfig()
	if err != nil {
		return err
	}
	if serveAddress != "" {
		config.Server.Address = serveAddress
	}
	if serveStorePath != "" {
		config.Store.Path = serveStorePath
	}

	pipeline, err := app.BuildPipeline(config, nil, logger)
	if err != nil {
		return err
	}

	features, err := config.ReportFeatures()
	if err != nil {
		return err
	}

	sessions, err := store.Open(config.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer sessions.Close()

	srv := server.NewHTTPServer(server.Options{
		Address:        config.Server.Address,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxUploadBytes: config.Server.MaxUploadBytes,
		TempDir:        config.Audio.TempDir,
		SampleRate:     config.Audio.SampleRate,
		Features:       features,
		Render:         config.RenderOptions(),
	}, pipeline, sessions, metrics.NewMetrics(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting analysis service", logging.Fields{
		"address":         config.Server.Address,
		"store":           config.Store.Path,
		"pause_weighting": config.Scoring.PauseWeighting,
	})

	return srv.ListenAndServe(ctx, config.Server.ShutdownTimeout)
}
