package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"stablecoin-dashboard/internal/domain"
	"stablecoin-dashboard/internal/observability"
	"stablecoin-dashboard/internal/storage"
)

// ObservationStore implements storage.ObservationStore using PostgreSQL.
type ObservationStore struct {
	pool *Pool
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(pool *Pool) *ObservationStore {
	return &ObservationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

const observationColumns = `entity_id, entity_name, entity_symbol, observed_at, market_cap, price, volume_24h, granularity`

// Insert adds a new observation. Returns ErrDuplicateKey if
// (entity_id, observed_at, granularity) exists.
func (s *ObservationStore) Insert(ctx context.Context, o *domain.Observation) (err error) {
	defer observability.ObserveDBQuery("postgres", "insert_observation", time.Now(), &err)

	if o == nil || o.EntityID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO observations (
			entity_id, entity_name, entity_symbol, observed_at, market_cap, price, volume_24h, granularity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		o.EntityID,
		o.EntityName,
		o.EntitySymbol,
		o.ObservedAt.UTC(),
		o.MarketCap,
		o.Price,
		o.Volume24h,
		o.Granularity,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// InsertBulk adds multiple observations atomically. Fails entire batch on
// any duplicate.
func (s *ObservationStore) InsertBulk(ctx context.Context, observations []*domain.Observation) (err error) {
	defer observability.ObserveDBQuery("postgres", "insert_observations_bulk", time.Now(), &err)

	if len(observations) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO observations (
			entity_id, entity_name, entity_symbol, observed_at, market_cap, price, volume_24h, granularity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, o := range observations {
		if o == nil || o.EntityID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			o.EntityID,
			o.EntityName,
			o.EntitySymbol,
			o.ObservedAt.UTC(),
			o.MarketCap,
			o.Price,
			o.Volume24h,
			o.Granularity,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert observation in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves all observations ordered by (entity_id, observed_at).
func (s *ObservationStore) GetAll(ctx context.Context) (result []*domain.Observation, err error) {
	defer observability.ObserveDBQuery("postgres", "get_all_observations", time.Now(), &err)

	query := `
		SELECT ` + observationColumns + `
		FROM observations
		ORDER BY entity_id ASC, observed_at ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetByTimeRange retrieves observations with observed_at in [start, end),
// ordered by (entity_id, observed_at).
func (s *ObservationStore) GetByTimeRange(ctx context.Context, start, end time.Time) (result []*domain.Observation, err error) {
	defer observability.ObserveDBQuery("postgres", "get_observations_by_time_range", time.Now(), &err)

	query := `
		SELECT ` + observationColumns + `
		FROM observations
		WHERE observed_at >= $1 AND observed_at < $2
		ORDER BY entity_id ASC, observed_at ASC
	`

	rows, err := s.pool.Query(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("get observations by time range: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// LatestObservedAt returns the global maximum observed_at.
// Returns ErrNotFound when the table is empty.
func (s *ObservationStore) LatestObservedAt(ctx context.Context) (latest time.Time, err error) {
	defer observability.ObserveDBQuery("postgres", "latest_observed_at", time.Now(), &err)

	query := `SELECT max(observed_at) FROM observations`

	var ts *time.Time
	if err := s.pool.QueryRow(ctx, query).Scan(&ts); err != nil {
		if isNotFoundError(err) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("get latest observed_at: %w", err)
	}
	if ts == nil {
		return time.Time{}, storage.ErrNotFound
	}

	return ts.UTC(), nil
}

// scanObservations scans multiple rows into a slice of Observation.
func scanObservations(rows pgx.Rows) ([]*domain.Observation, error) {
	var observations []*domain.Observation

	for rows.Next() {
		var o domain.Observation

		err := rows.Scan(
			&o.EntityID,
			&o.EntityName,
			&o.EntitySymbol,
			&o.ObservedAt,
			&o.MarketCap,
			&o.Price,
			&o.Volume24h,
			&o.Granularity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}

		o.ObservedAt = o.ObservedAt.UTC()
		observations = append(observations, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}

	return observations, nil
}
