// Package main runs the stablecoin dashboard API server: metric endpoints
// and the weekly chart series over the observation store, with an optional
// ClickHouse-backed precomputed aggregation path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stablecoin-dashboard/internal/api"
	"stablecoin-dashboard/internal/config"
	"stablecoin-dashboard/internal/dashboard"
	"stablecoin-dashboard/internal/storage"
	chstore "stablecoin-dashboard/internal/storage/clickhouse"
	"stablecoin-dashboard/internal/storage/memory"
	"stablecoin-dashboard/internal/storage/migrations"
	pgstore "stablecoin-dashboard/internal/storage/postgres"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Parse flags (config/env values as defaults)
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string for the precomputed aggregation path (optional)")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL")
	lookbackMonths := flag.Int("lookback-months", cfg.LookbackMonths, "Weekly series lookback in calendar months")

	flag.Parse()

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	observations, aggregates, cleanup, err := createStores(ctx, logger, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	svc := dashboard.NewService(observations, aggregates, *lookbackMonths, logger)
	handlers := api.NewHandlers(svc, cfg.StreamInterval, logger)
	router := api.NewRouter(handlers, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores wires the observation system of record and, when a
// ClickHouse DSN is configured and reachable, the precomputed aggregation
// path. The precomputed path is strictly optional: any boot failure there
// disables it with a warning instead of failing the server.
func createStores(ctx context.Context, logger *log.Logger, postgresDSN, clickhouseDSN string, useMemory bool) (storage.ObservationStore, storage.AggregateSource, func(), error) {
	if useMemory {
		return memory.NewObservationStore(), nil, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	var aggregates storage.AggregateSource
	cleanup := func() { pool.Close() }

	switch {
	case clickhouseDSN == "":
		logger.Println("No ClickHouse DSN configured; all metrics use manual computation")
	default:
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			logger.Printf("WARN: precomputed aggregation path disabled: %v", err)
			break
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			logger.Printf("WARN: precomputed aggregation path disabled: %v", err)
			conn.Close()
			break
		}
		aggregates = chstore.NewAggregateStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return pgstore.NewObservationStore(pool), aggregates, cleanup, nil
}
