package main

import (
	"context"
	"dashxcel/internal/analysis"
	"dashxcel/internal/api"
	"dashxcel/internal/config"
	"dashxcel/internal/logging"
	"dashxcel/internal/service"
	"dashxcel/internal/state"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	Long: `Start the DashXcel HTTP API.

Press Ctrl+C to gracefully shutdown.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	serveCmd.Flags().Int("port", 8080, "HTTP server port")

	_ = v.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = v.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

// newRouter wires middleware, CORS and the API routes.
func newRouter(cfg *config.Config, handler *api.Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// CORS - Allow frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", api.SessionHeader},
		ExposedHeaders:   []string{"Link", "Content-Disposition", api.SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handler.RegisterRoutes(r)
	return r
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store := state.NewStore(cfg.Session.TTL, logger)
	if err := store.StartSweeper(cfg.Session.Sweep); err != nil {
		return err
	}
	defer store.Stop()

	handler := api.NewHandler(
		store,
		analysis.NewService(cfg.ClassifierOptions()),
		service.NewIngestService(service.IngestOptions{Sheet: cfg.Upload.Sheet}),
		logger,
	)
	handler.MaxUploadBytes = cfg.Upload.MaxBytes
	handler.DBLimit = cfg.DB.PreviewLimit
	handler.SessionTTL = cfg.Session.TTL

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(cfg, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting DashXcel server",
			zap.String("addr", srv.Addr),
			zap.Strings("cors_origins", cfg.Server.CORS.AllowedOrigins))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
