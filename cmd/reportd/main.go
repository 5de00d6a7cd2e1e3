package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reportd/internal/collection"
	"reportd/internal/export"
	"reportd/internal/fetch"
	"reportd/internal/observability"
	"reportd/internal/server"
	"reportd/internal/source"
	"reportd/internal/status"
)

// Config holds all application configuration, loaded from environment
// variables.
type Config struct {
	// HTTP/Metrics
	HTTPAddr    string
	MetricsAddr string

	// Report source: exactly one of the two must be set. A source URL wins
	// when both are.
	SourceURL   string
	PostgresDSN string

	// Source auth
	APIKey    string
	APISecret string

	// NATS, optional: empty disables status publishing over JetStream.
	NATSURL string

	CallTimeout   time.Duration
	MigrationsDir string
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr:      envOrDefault("REPORT_HTTP_ADDR", ":8080"),
		MetricsAddr:   envOrDefault("REPORT_METRICS_ADDR", ":9091"),
		SourceURL:     os.Getenv("REPORT_SOURCE_URL"),
		PostgresDSN:   os.Getenv("REPORT_POSTGRES_DSN"),
		APIKey:        os.Getenv("REPORT_API_KEY"),
		APISecret:     os.Getenv("REPORT_API_SECRET"),
		NATSURL:       os.Getenv("REPORT_NATS_URL"),
		CallTimeout:   envDurationOrDefault("REPORT_CALL_TIMEOUT", 30*time.Second),
		MigrationsDir: envOrDefault("REPORT_MIGRATIONS_DIR", "migrations"),
	}
}

func main() {
	log := observability.NewLogger("main")
	cfg := DefaultConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// --- Report source ---
	var src source.Source
	switch {
	case cfg.SourceURL != "":
		src = source.NewHTTPSource(cfg.SourceURL, cfg.CallTimeout)
		log.Info().Str("url", cfg.SourceURL).Msg("using remote report source")

	case cfg.PostgresDSN != "":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres open")
		}
		defer db.Close()

		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres ping")
		}

		migrator := source.NewMigrator(db, cfg.MigrationsDir, observability.NewLogger("migrate"))
		if err := migrator.Up(ctx); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}

		src = source.NewPostgresSource(db)
		log.Info().Msg("using postgres report source")

	default:
		log.Fatal().Msg("no report source configured: set REPORT_SOURCE_URL or REPORT_POSTGRES_DSN")
	}

	// --- Status sinks ---
	sinks := status.Fanout{status.NewLogSink(observability.NewLogger("status"))}
	if cfg.NATSURL != "" {
		nc, js, err := status.ConnectNATS(cfg.NATSURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("nats connect")
		}
		defer nc.Close()

		if err := status.EnsureStatusStream(ctx, js); err != nil {
			log.Fatal().Err(err).Msg("ensure status stream")
		}
		sinks = append(sinks, status.NewNATSSink(js, observability.NewLogger("nats")))
		log.Info().Str("url", cfg.NATSURL).Msg("status events published to jetstream")
	}

	// --- Observability ---
	metrics := observability.NewMetrics()
	healthChecker := observability.NewHealthChecker()

	// --- Session and services ---
	auth := source.Auth{APIKey: cfg.APIKey, APISecret: cfg.APISecret}
	session := collection.NewSession()
	fetcher := fetch.NewFetcher(src, session, auth, sinks, observability.NewLogger("fetch"), metrics)
	exporter := export.NewExporter(src, sinks, observability.NewLogger("export"), metrics)

	catalog := fetch.NewCatalog(src, auth, sinks, observability.NewLogger("catalog"), 0)
	defer catalog.Stop()
	catalog.Refresh(ctx)

	srv := server.NewServer(server.Deps{
		Session:  session,
		Fetcher:  fetcher,
		Exporter: exporter,
		Catalog:  catalog,
		Auth:     auth,
		Health:   healthChecker,
		Metrics:  metrics,
		Log:      observability.NewLogger("http"),
	})

	errChan := make(chan error, 2)

	// --- API server ---
	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("api server: %w", err)
		}
	}()

	// --- Prometheus metrics server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metricsMux,
	}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	healthChecker.SetReady(true)
	log.Info().
		Str("session", session.ID.String()).
		Str("http", cfg.HTTPAddr).
		Str("metrics", cfg.MetricsAddr).
		Msg("reportd ready")

	// --- Wait for shutdown signal ---
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errChan:
		log.Error().Err(err).Msg("server failed, shutting down")
	}

	healthChecker.SetReady(false)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api server shutdown")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown")
	}

	log.Info().Msg("reportd shutdown complete")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
