// Package main loads observations from a JSON file into the stores.
// Intended for development and backfills; live ingestion is an external
// job and stays outside this repository.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"stablecoin-dashboard/internal/config"
	"stablecoin-dashboard/internal/domain"
	chstore "stablecoin-dashboard/internal/storage/clickhouse"
	"stablecoin-dashboard/internal/storage/migrations"
	pgstore "stablecoin-dashboard/internal/storage/postgres"
)

// seedRecord is one observation in the seed file.
type seedRecord struct {
	EntityID     string  `json:"entity_id"`
	EntityName   string  `json:"entity_name"`
	EntitySymbol string  `json:"entity_symbol"`
	ObservedAt   string  `json:"observed_at"` // RFC3339
	MarketCap    float64 `json:"market_cap"`
	Price        float64 `json:"price"`
	Volume24h    float64 `json:"volume_24h"`
	Granularity  string  `json:"granularity"`
}

func main() {
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	file := flag.String("file", "", "Path to JSON file with an array of observations")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string to mirror observations into (optional)")

	flag.Parse()

	if *file == "" {
		logger.Fatal("--file is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	observations, err := loadSeedFile(*file)
	if err != nil {
		logger.Fatalf("Failed to load seed file: %v", err)
	}
	logger.Printf("Loaded %d observations from %s", len(observations), *file)

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Failed to run postgres migrations: %v", err)
	}

	if err := pgstore.NewObservationStore(pool).InsertBulk(ctx, observations); err != nil {
		logger.Fatalf("Failed to insert observations: %v", err)
	}
	logger.Printf("Inserted %d observations into postgres", len(observations))

	if *clickhouseDSN == "" {
		return
	}

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to clickhouse: %v", err)
	}
	defer conn.Close()

	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		logger.Fatalf("Failed to run clickhouse migrations: %v", err)
	}

	if err := chstore.NewAggregateStore(conn).InsertBulk(ctx, observations); err != nil {
		logger.Fatalf("Failed to mirror observations into clickhouse: %v", err)
	}
	logger.Printf("Mirrored %d observations into clickhouse", len(observations))
}

// loadSeedFile reads and validates the seed file.
func loadSeedFile(path string) ([]*domain.Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	observations := make([]*domain.Observation, 0, len(records))
	for i, rec := range records {
		observedAt, err := time.Parse(time.RFC3339, rec.ObservedAt)
		if err != nil {
			return nil, fmt.Errorf("record %d: parse observed_at %q: %w", i, rec.ObservedAt, err)
		}
		if rec.EntityID == "" {
			return nil, fmt.Errorf("record %d: entity_id is required", i)
		}

		observations = append(observations, &domain.Observation{
			EntityID:     rec.EntityID,
			EntityName:   rec.EntityName,
			EntitySymbol: rec.EntitySymbol,
			ObservedAt:   observedAt.UTC(),
			MarketCap:    rec.MarketCap,
			Price:        rec.Price,
			Volume24h:    rec.Volume24h,
			Granularity:  rec.Granularity,
		})
	}

	return observations, nil
}
