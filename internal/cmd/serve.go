package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/strrl/polar-persona/internal/api"
	"github.com/strrl/polar-persona/internal/logging"
	"github.com/strrl/polar-persona/internal/parser"
	"github.com/strrl/polar-persona/internal/pipeline"
	"github.com/strrl/polar-persona/internal/store"
)

var (
	servePort     int
	serveAI       bool
	serveNoRecord bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat and blueprint HTTP API",
	Long: `Start an HTTP server exposing:

  GET  /health
  POST /api/reply              {"message": "...", "lang": "es", "history": [...]}
  POST /api/classify           {"text": "..."}
  GET  /api/blueprint?lang=es
  GET  /api/snapshots?lang=&limit=
  GET  /api/snapshots/latest?lang=
  GET  /api/snapshots/{id}`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from POLAR_PORT)")
	serveCmd.Flags().BoolVar(&serveAI, "ai", false, "Use the configured model for replies and translation")
	serveCmd.Flags().BoolVar(&serveNoRecord, "no-record", false, "Do not append turns to the transcript")
}

func runServe(cmd *cobra.Command, args []string) error {
	port := servePort
	if port == 0 {
		port = cfg.Port
	}

	c, err := buildComponents(serveAI)
	if err != nil {
		return err
	}
	localizer, err := c.localizer()
	if err != nil {
		return err
	}

	source, err := newHistorySource(cfg.HistoryPath, cfg.Session)
	if err != nil {
		return err
	}

	snapshots, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer snapshots.Close()

	p, err := pipeline.New(pipeline.Config{
		Source:    source,
		Extractor: c.extractor(),
		Localizer: localizer,
		Sinks:     []pipeline.Sink{snapshots},
		Logger:    logging.ForComponent(logger, "pipeline"),
	})
	if err != nil {
		return err
	}

	deps := api.Deps{
		Responder:  c.responder(),
		Normalizer: c.normalizer,
		Classifier: c.classifier,
		Pipeline:   p,
		Store:      snapshots,
		Language:   cfg.Language,
		Logger:     logging.ForComponent(logger, "api"),
	}
	if !serveNoRecord {
		deps.Recorder = parser.NewRecorder(cfg.TranscriptFile, cfg.Session)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.NewServer(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "ai", c.client != nil, "language", cfg.Language)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
