package clickhouse

import (
	"context"
	"fmt"
	"time"

	"stablecoin-dashboard/internal/domain"
	"stablecoin-dashboard/internal/observability"
	"stablecoin-dashboard/internal/storage"
)

// AggregateStore is the precomputed aggregation path backed by ClickHouse.
// It mirrors the observations table and answers the reducer queries
// server-side: argMin picks the earliest observation per entity inside a
// bucket, argMax the latest per (entity, week). Semantics must stay
// equivalent to the manual path in internal/metrics.
type AggregateStore struct {
	conn *Conn
}

// NewAggregateStore creates a new AggregateStore.
func NewAggregateStore(conn *Conn) *AggregateStore {
	return &AggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AggregateSource = (*AggregateStore)(nil)

// ReducedTotal sums field over the earliest observation per entity inside
// bucket. entities reports how many distinct entities contributed, so an
// empty bucket (0 entities) is distinguishable from a zero-valued one.
func (s *AggregateStore) ReducedTotal(ctx context.Context, bucket domain.TimeBucket, field domain.MetricField) (total float64, entities uint64, err error) {
	defer observability.ObserveDBQuery("clickhouse", "reduced_total", time.Now(), &err)

	query := fmt.Sprintf(`
		SELECT sum(v), count() FROM (
			SELECT argMin(%s, observed_at) AS v
			FROM observations
			WHERE observed_at >= ? AND observed_at < ?
			GROUP BY entity_id
		)
	`, field.Column())

	err = s.conn.QueryRow(ctx, query, bucket.Start.UTC(), bucket.End.UTC()).Scan(&total, &entities)
	if err != nil {
		return 0, 0, fmt.Errorf("query reduced total: %w", err)
	}
	return total, entities, nil
}

// LatestTotal sums field across all observations sharing the global
// maximum observed_at. Returns 0 when the table is empty.
func (s *AggregateStore) LatestTotal(ctx context.Context, field domain.MetricField) (total float64, err error) {
	defer observability.ObserveDBQuery("clickhouse", "latest_total", time.Now(), &err)

	query := fmt.Sprintf(`
		SELECT sum(%s)
		FROM observations
		WHERE observed_at = (SELECT max(observed_at) FROM observations)
	`, field.Column())

	if err := s.conn.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("query latest total: %w", err)
	}
	return total, nil
}

// MonthlyTotals returns per-calendar-month market cap sums, no per-entity
// de-duplication, sorted ascending by month.
func (s *AggregateStore) MonthlyTotals(ctx context.Context) (totals []domain.MonthTotal, err error) {
	defer observability.ObserveDBQuery("clickhouse", "monthly_totals", time.Now(), &err)

	query := `
		SELECT formatDateTime(toStartOfMonth(observed_at), '%Y-%m') AS month,
		       sum(market_cap) AS total
		FROM observations
		GROUP BY month
		ORDER BY month ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query monthly totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.MonthTotal
		if err := rows.Scan(&t.Month, &t.Total); err != nil {
			return nil, fmt.Errorf("scan monthly total row: %w", err)
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly total rows: %w", err)
	}

	return totals, nil
}

// LatestPerEntityByWeek returns the latest observation per (entity,
// Monday-aligned week) for observed_at in [from, before), sorted by
// (week, entity_id).
func (s *AggregateStore) LatestPerEntityByWeek(ctx context.Context, from, before time.Time) (snapshots []domain.WeeklyEntitySnapshot, err error) {
	defer observability.ObserveDBQuery("clickhouse", "latest_per_entity_by_week", time.Now(), &err)

	query := `
		SELECT toDateTime(toMonday(observed_at), 'UTC') AS week_start,
		       entity_id,
		       argMax(entity_symbol, observed_at) AS entity_symbol,
		       argMax(market_cap, observed_at) AS market_cap
		FROM observations
		WHERE observed_at >= ? AND observed_at < ?
		GROUP BY week_start, entity_id
		ORDER BY week_start ASC, entity_id ASC
	`

	rows, err := s.conn.Query(ctx, query, from.UTC(), before.UTC())
	if err != nil {
		return nil, fmt.Errorf("query latest per entity by week: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var snap domain.WeeklyEntitySnapshot
		err := rows.Scan(&snap.WeekStart, &snap.EntityID, &snap.EntitySymbol, &snap.MarketCap)
		if err != nil {
			return nil, fmt.Errorf("scan weekly snapshot row: %w", err)
		}
		snap.WeekStart = snap.WeekStart.UTC()
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weekly snapshot rows: %w", err)
	}

	return snapshots, nil
}

// InsertBulk mirrors observations into the analytics table. The external
// ingestion job and cmd/seed use it to keep the precomputed path in sync
// with the system of record.
func (s *AggregateStore) InsertBulk(ctx context.Context, observations []*domain.Observation) (err error) {
	defer observability.ObserveDBQuery("clickhouse", "insert_observations_bulk", time.Now(), &err)

	if len(observations) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO observations (
			entity_id, entity_name, entity_symbol, observed_at, market_cap, price, volume_24h, granularity
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range observations {
		if o == nil || o.EntityID == "" {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			o.EntityID, o.EntityName, o.EntitySymbol, o.ObservedAt.UTC(),
			o.MarketCap, o.Price, o.Volume24h, o.Granularity,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}
