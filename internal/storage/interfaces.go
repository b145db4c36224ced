package storage

import (
	"context"
	"time"

	"stablecoin-dashboard/internal/domain"
)

// ObservationStore provides access to the observations system of record.
type ObservationStore interface {
	// Insert adds a new observation. Returns ErrDuplicateKey if
	// (entity_id, observed_at, granularity) exists.
	Insert(ctx context.Context, o *domain.Observation) error

	// InsertBulk adds multiple observations atomically. Fails entire batch
	// on any duplicate.
	InsertBulk(ctx context.Context, observations []*domain.Observation) error

	// GetAll retrieves all observations ordered by (entity_id, observed_at).
	GetAll(ctx context.Context) ([]*domain.Observation, error)

	// GetByTimeRange retrieves observations with observed_at in the
	// half-open interval [start, end), ordered by (entity_id, observed_at).
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.Observation, error)

	// LatestObservedAt returns the global maximum observed_at.
	// Returns ErrNotFound when the store is empty.
	LatestObservedAt(ctx context.Context) (time.Time, error)
}

// AggregateSource is the precomputed (server-side) aggregation path. It is
// optional: any error from these methods makes the caller fall back to the
// equivalent manual computation over ObservationStore rows, so
// implementations must preserve the reducer semantics exactly.
type AggregateSource interface {
	// ReducedTotal sums field over the earliest observation per entity
	// inside bucket. entities is the number of distinct entities that
	// contributed; it lets callers tell an empty bucket (0 entities)
	// apart from a bucket whose values genuinely sum to 0.
	ReducedTotal(ctx context.Context, bucket domain.TimeBucket, field domain.MetricField) (total float64, entities uint64, err error)

	// LatestTotal sums field across all observations sharing the global
	// maximum observed_at. Returns 0 when the table is empty.
	LatestTotal(ctx context.Context, field domain.MetricField) (float64, error)

	// MonthlyTotals returns per-calendar-month market cap sums (no
	// per-entity de-duplication), sorted ascending by month.
	MonthlyTotals(ctx context.Context) ([]domain.MonthTotal, error)

	// LatestPerEntityByWeek returns the latest observation per (entity,
	// Monday-aligned week) for observed_at in [from, before), sorted by
	// (week, entity_id).
	LatestPerEntityByWeek(ctx context.Context, from, before time.Time) ([]domain.WeeklyEntitySnapshot, error)
}
