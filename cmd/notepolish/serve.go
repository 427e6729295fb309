package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/notepolish/internal/config"
	"github.com/jonathan/notepolish/internal/db"
	"github.com/jonathan/notepolish/internal/observability"
	"github.com/jonathan/notepolish/internal/server"
	"github.com/jonathan/notepolish/internal/server/middleware"
	"github.com/jonathan/notepolish/internal/server/ratelimit"
	"github.com/jonathan/notepolish/internal/usage"
)

var (
	servePort      int
	serveNoMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the transcription and enhancement endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveNoMetrics, "no-metrics", false, "Do not expose /metrics")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}

	log := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsHandler http.Handler
	if !serveNoMetrics {
		handler, shutdown, err := observability.InitPrometheus()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
		metricsHandler = handler
	}
	// Instruments bind to the global provider, so this follows InitPrometheus.
	metrics := observability.DefaultMetrics()

	var store usage.Store
	if cfg.Database.URL != "" {
		database, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		store = database
	} else {
		log.Warn("DATABASE_URL is not set; usage is kept in memory and resets on restart")
		store = usage.NewEnrollingMemoryStore(usage.TierFree)
	}

	a, err := newApp(ctx, cfg, log, metrics, store)
	if err != nil {
		return err
	}
	defer a.Close()

	var tokens middleware.TokenValidator
	jwtConfig, err := config.NewJWTConfig()
	switch {
	case err == nil:
		tokens = server.NewJWTService(jwtConfig).AsTokenValidator()
	case errors.Is(err, config.ErrJWTSecretMissing):
		log.Warn("JWT_SECRET is not set; all requests are served anonymously")
	default:
		return err
	}

	srv, err := server.New(server.Config{
		Port:           cfg.Server.Port,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimit:      ratelimit.NewConfig(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}, server.Deps{
		Enhancer:       a.enhancer,
		Tokens:         tokens,
		MetricsHandler: metricsHandler,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
