// Package dashboard selects the aggregation source for each metric:
// the precomputed (server-side) path when available, the equivalent manual
// computation over raw observations otherwise. Both paths share the reducer
// semantics of internal/metrics, so a fallback changes latency, never the
// result kind.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"stablecoin-dashboard/internal/domain"
	"stablecoin-dashboard/internal/metrics"
	"stablecoin-dashboard/internal/observability"
	"stablecoin-dashboard/internal/storage"
)

// Metric names used in logs and observability labels.
const (
	metricTotalMarketCap     = "total_market_cap"
	metricTotalVolume24h     = "total_volume_24h"
	metricMarketCapChangeMoM = "market_cap_change_mom"
	metricVolumeChangeMoM    = "volume_change_mom"
	metricMonthlyGrowthRate  = "monthly_growth_rate"
	metricMarketCapChangeYoY = "market_cap_change_yoy"
	metricWeeklySeries       = "weekly_series"
	metricWeeklyTotals       = "weekly_totals"
)

// Service computes dashboard metrics over the observation store.
// All temporal computations are anchored to the store's max observed_at,
// never to wall-clock time, so results are reproducible against static or
// batch-loaded data.
type Service struct {
	observations   storage.ObservationStore
	aggregates     storage.AggregateSource // nil disables the precomputed path
	lookbackMonths int
	logger         *log.Logger
}

// NewService creates a dashboard service. aggregates may be nil, in which
// case every metric uses the manual computation path.
func NewService(observations storage.ObservationStore, aggregates storage.AggregateSource, lookbackMonths int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		observations:   observations,
		aggregates:     aggregates,
		lookbackMonths: lookbackMonths,
		logger:         logger,
	}
}

// TotalMarketCap returns the current total market capitalization in USD.
func (s *Service) TotalMarketCap(ctx context.Context) (float64, error) {
	return s.timed(ctx, metricTotalMarketCap, func(ctx context.Context) (float64, error) {
		return s.levelTotal(ctx, domain.FieldMarketCap, metricTotalMarketCap)
	})
}

// TotalVolume24h returns the current total 24h volume in USD.
func (s *Service) TotalVolume24h(ctx context.Context) (float64, error) {
	return s.timed(ctx, metricTotalVolume24h, func(ctx context.Context) (float64, error) {
		return s.levelTotal(ctx, domain.FieldVolume24h, metricTotalVolume24h)
	})
}

// TotalMarketCapChangeMoM returns the month-over-month market cap change
// in percent.
func (s *Service) TotalMarketCapChangeMoM(ctx context.Context) (float64, error) {
	return s.timed(ctx, metricMarketCapChangeMoM, func(ctx context.Context) (float64, error) {
		return s.monthOverMonth(ctx, domain.FieldMarketCap, metricMarketCapChangeMoM)
	})
}

// TotalVolumeChangeMoM returns the month-over-month 24h volume change in
// percent.
func (s *Service) TotalVolumeChangeMoM(ctx context.Context) (float64, error) {
	return s.timed(ctx, metricVolumeChangeMoM, func(ctx context.Context) (float64, error) {
		return s.monthOverMonth(ctx, domain.FieldVolume24h, metricVolumeChangeMoM)
	})
}

// MarketCapChangeYoY returns the year-over-year market cap change in
// percent. The previous period is 51 weeks back, landing on the same day
// of week.
func (s *Service) MarketCapChangeYoY(ctx context.Context) (float64, error) {
	return s.timed(ctx, metricMarketCapChangeYoY, func(ctx context.Context) (float64, error) {
		anchor, ok, err := s.anchor(ctx)
		if err != nil || !ok {
			return 0, err
		}

		current := domain.DayBucket(anchor)
		previous := domain.DayBucket(anchor.AddDate(0, 0, -51*7))

		if s.aggregates != nil {
			change, err := s.precomputedChange(ctx, current, previous, domain.FieldMarketCap)
			if err == nil {
				return change, nil
			}
			s.fallback(metricMarketCapChangeYoY, err)
		}

		observations, err := s.loadBuckets(ctx, metricMarketCapChangeYoY, current, previous)
		if err != nil {
			return 0, err
		}
		return metrics.YearOverYear(observations, anchor), nil
	})
}

// MonthlyGrowthRate returns the percentage change between the two most
// recent distinct calendar months. 0 when fewer than two months exist.
func (s *Service) MonthlyGrowthRate(ctx context.Context) (float64, error) {
	return s.timed(ctx, metricMonthlyGrowthRate, func(ctx context.Context) (float64, error) {
		if s.aggregates != nil {
			totals, err := s.aggregates.MonthlyTotals(ctx)
			if err == nil {
				if len(totals) < 2 {
					return 0, nil
				}
				return metrics.PercentageChange(totals[len(totals)-1].Total, totals[len(totals)-2].Total), nil
			}
			s.fallback(metricMonthlyGrowthRate, err)
		}

		all, err := s.observations.GetAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("%s: load observations: %w", metricMonthlyGrowthRate, err)
		}
		return metrics.MonthlyGrowthRate(all), nil
	})
}

// WeeklySeries returns the chart series: one latest-in-week observation per
// entity, routed into fixed named stablecoin slots, values in billions.
func (s *Service) WeeklySeries(ctx context.Context) ([]domain.WeekPoint, error) {
	start := time.Now()
	points, err := s.weeklySeries(ctx)
	observability.RecordMetricCompute(metricWeeklySeries, time.Since(start).Seconds(), err)
	return points, err
}

func (s *Service) weeklySeries(ctx context.Context) ([]domain.WeekPoint, error) {
	anchor, ok, err := s.anchor(ctx)
	if err != nil || !ok {
		return []domain.WeekPoint{}, err
	}

	cutoff := domain.SubtractCalendarMonths(anchor, s.lookbackMonths)
	currentDay := domain.DayBucket(anchor)

	if s.aggregates != nil {
		snapshots, err := s.aggregates.LatestPerEntityByWeek(ctx, cutoff, currentDay.Start)
		if err == nil {
			points, unmapped := metrics.AssembleWeekPoints(snapshots)
			s.logUnmapped(unmapped)
			return points, nil
		}
		s.fallback(metricWeeklySeries, err)
	}

	observations, err := s.observations.GetByTimeRange(ctx, cutoff, currentDay.End)
	if err != nil {
		return nil, fmt.Errorf("%s: load observations: %w", metricWeeklySeries, err)
	}

	points, unmapped := metrics.MarketPerEntityPerWeek(observations, anchor, s.lookbackMonths)
	s.logUnmapped(unmapped)
	return points, nil
}

// WeeklyTotals returns the simple weekly series: market cap summed across
// all observations per week, total includes every symbol. Always computed
// manually; there is no precomputed variant for this series.
func (s *Service) WeeklyTotals(ctx context.Context) ([]domain.WeekPoint, error) {
	start := time.Now()
	points, err := s.weeklyTotals(ctx)
	observability.RecordMetricCompute(metricWeeklyTotals, time.Since(start).Seconds(), err)
	return points, err
}

func (s *Service) weeklyTotals(ctx context.Context) ([]domain.WeekPoint, error) {
	anchor, ok, err := s.anchor(ctx)
	if err != nil || !ok {
		return []domain.WeekPoint{}, err
	}

	cutoff := domain.SubtractCalendarMonths(anchor, s.lookbackMonths)
	observations, err := s.observations.GetByTimeRange(ctx, cutoff, domain.DayBucket(anchor).End)
	if err != nil {
		return nil, fmt.Errorf("%s: load observations: %w", metricWeeklyTotals, err)
	}

	return metrics.BuildWeeklySeries(observations, anchor, s.lookbackMonths), nil
}

// Summary fetches all scalar metrics concurrently. Metrics are independent
// reads of an append-only store: one failure or slow source must not block
// or fail the siblings, so each lands either in its value field or in
// Errors.
func (s *Service) Summary(ctx context.Context) *domain.DashboardSummary {
	summary := &domain.DashboardSummary{}

	var mu sync.Mutex
	var wg sync.WaitGroup

	run := func(metric string, dst *float64, fetch func(context.Context) (float64, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := fetch(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if summary.Errors == nil {
					summary.Errors = make(map[string]string)
				}
				summary.Errors[metric] = err.Error()
				return
			}
			*dst = v
		}()
	}

	run(metricTotalMarketCap, &summary.TotalMarketCap, s.TotalMarketCap)
	run(metricTotalVolume24h, &summary.TotalVolume24h, s.TotalVolume24h)
	run(metricMarketCapChangeMoM, &summary.TotalMarketCapChangeMoM, s.TotalMarketCapChangeMoM)
	run(metricVolumeChangeMoM, &summary.TotalVolumeChangeMoM, s.TotalVolumeChangeMoM)
	run(metricMonthlyGrowthRate, &summary.MonthlyGrowthRate, s.MonthlyGrowthRate)
	run(metricMarketCapChangeYoY, &summary.MarketCapChangeYoY, s.MarketCapChangeYoY)

	wg.Wait()

	if len(summary.Errors) == 0 {
		observability.RecordSummarySuccess(float64(time.Now().Unix()))
	}
	return summary
}

// timed wraps a scalar metric computation with duration/error recording.
func (s *Service) timed(ctx context.Context, metric string, fn func(context.Context) (float64, error)) (float64, error) {
	start := time.Now()
	v, err := fn(ctx)
	observability.RecordMetricCompute(metric, time.Since(start).Seconds(), err)
	return v, err
}

// anchor resolves the reference day: the store's max observed_at. The
// second return is false when the store is empty, which is not an error —
// every metric is then 0 by definition.
func (s *Service) anchor(ctx context.Context) (time.Time, bool, error) {
	latest, err := s.observations.LatestObservedAt(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("resolve reference day: %w", err)
	}
	return latest, true, nil
}

// levelTotal computes a current-level metric (market cap or volume) for
// the reference day bucket, degrading to the latest available total when
// the bucket is empty.
func (s *Service) levelTotal(ctx context.Context, field domain.MetricField, metric string) (float64, error) {
	anchor, ok, err := s.anchor(ctx)
	if err != nil || !ok {
		return 0, err
	}
	bucket := domain.DayBucket(anchor)

	if s.aggregates != nil {
		total, err := s.precomputedLevel(ctx, bucket, field, metric)
		if err == nil {
			return total, nil
		}
		s.fallback(metric, err)
	}

	inBucket, err := s.observations.GetByTimeRange(ctx, bucket.Start, bucket.End)
	if err != nil {
		return 0, fmt.Errorf("%s: load bucket observations: %w", metric, err)
	}
	if len(inBucket) > 0 {
		return metrics.ReduceTotal(inBucket, bucket, field), nil
	}

	// Empty day bucket: degrade to the latest available total. A bucket
	// whose values genuinely sum to 0 reports 0 and never lands here.
	observability.RecordLatestTotalFallback(metric)
	all, err := s.observations.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: load observations: %w", metric, err)
	}
	return metrics.FindLatestTotal(all, field), nil
}

// precomputedLevel is the server-side version of levelTotal, including the
// empty-bucket degradation.
func (s *Service) precomputedLevel(ctx context.Context, bucket domain.TimeBucket, field domain.MetricField, metric string) (float64, error) {
	total, entities, err := s.aggregates.ReducedTotal(ctx, bucket, field)
	if err != nil {
		return 0, err
	}
	if entities > 0 {
		return total, nil
	}
	observability.RecordLatestTotalFallback(metric)
	return s.aggregates.LatestTotal(ctx, field)
}

// monthOverMonth computes the calendar-month comparative metric for field.
func (s *Service) monthOverMonth(ctx context.Context, field domain.MetricField, metric string) (float64, error) {
	anchor, ok, err := s.anchor(ctx)
	if err != nil || !ok {
		return 0, err
	}

	current := domain.DayBucket(anchor)
	previous := domain.DayBucket(domain.SubtractCalendarMonths(anchor, 1))

	if s.aggregates != nil {
		change, err := s.precomputedChange(ctx, current, previous, field)
		if err == nil {
			return change, nil
		}
		s.fallback(metric, err)
	}

	observations, err := s.loadBuckets(ctx, metric, current, previous)
	if err != nil {
		return 0, err
	}
	return metrics.MonthOverMonth(observations, anchor, field), nil
}

// precomputedChange resolves both day buckets server-side and combines
// them with the shared percentage-change rule.
func (s *Service) precomputedChange(ctx context.Context, current, previous domain.TimeBucket, field domain.MetricField) (float64, error) {
	cur, _, err := s.aggregates.ReducedTotal(ctx, current, field)
	if err != nil {
		return 0, err
	}
	prev, _, err := s.aggregates.ReducedTotal(ctx, previous, field)
	if err != nil {
		return 0, err
	}
	return metrics.PercentageChange(cur, prev), nil
}

// loadBuckets fetches the observations of two day buckets in one slice for
// the pure comparative functions to filter.
func (s *Service) loadBuckets(ctx context.Context, metric string, buckets ...domain.TimeBucket) ([]*domain.Observation, error) {
	var observations []*domain.Observation
	for _, b := range buckets {
		rows, err := s.observations.GetByTimeRange(ctx, b.Start, b.End)
		if err != nil {
			return nil, fmt.Errorf("%s: load bucket observations: %w", metric, err)
		}
		observations = append(observations, rows...)
	}
	return observations, nil
}

// fallback logs a precomputed-path failure and switches the metric to the
// manual computation path. Never surfaced to the caller.
func (s *Service) fallback(metric string, err error) {
	s.logger.Printf("WARN: precomputed path for %s unavailable, using manual computation: %v", metric, err)
	observability.RecordPrecomputedFallback(metric)
}

// logUnmapped reports weekly series observations whose symbol has no named
// slot. They are excluded from totals, not silently dropped.
func (s *Service) logUnmapped(unmapped map[string]int) {
	for symbol, count := range unmapped {
		s.logger.Printf("WARN: weekly series: %d observation(s) for unmapped symbol %q excluded from named totals", count, symbol)
		observability.RecordUnmappedSymbol(symbol, count)
	}
}
