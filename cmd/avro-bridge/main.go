package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/withObsrvr/obsrvr-avro-bridge/internal/config"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/loader"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/logging"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/metrics"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/server"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/storage"
)

// Version information (set via ldflags)
var (
	Version = "v0.1.0"
	GitSHA  = "unknown"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to YAML config file")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("[main] Avro Bridge %s (%s)", Version, GitSHA)

	cfg := config.MustLoad(*configPath)

	logging.Setup(logging.Config{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init("avro_bridge")
	}

	store, err := storage.NewObjectStore(ctx, storage.Config{
		Backend:  cfg.Storage.Backend,
		LocalDir: cfg.Storage.LocalDir,
	})
	if err != nil {
		log.Fatalf("[main] failed to create object store: %v", err)
	}
	defer store.Close()

	bq, err := bigquery.NewClient(ctx, cfg.Load.ProjectID)
	if err != nil {
		log.Fatalf("[main] failed to create BigQuery client: %v", err)
	}
	defer bq.Close()

	orch := loader.New(cfg.Load, store, loader.NewBigQueryRunner(bq), m)
	srv := server.New(cfg, orch, m)

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown handler
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		slog.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		cancel()
	}()

	slog.Info("listening",
		"addr", cfg.Server.Addr,
		"bucket", cfg.Load.Bucket,
		"dataset", cfg.Load.Dataset,
	)

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[main] server failed: %v", err)
	}

	slog.Info("avro bridge stopped cleanly")
}
