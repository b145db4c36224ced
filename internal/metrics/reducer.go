package metrics

import (
	"sort"
	"time"

	"stablecoin-dashboard/internal/domain"
)

// ReduceTotal sums field over exactly one observation per entity inside
// bucket: the one with the earliest observed_at. Same-day duplicates come
// from repeated ingestion passes and the first sample is the authoritative
// one. An entity is never counted twice per bucket. Returns 0 for an empty
// bucket; whether that means "fall back to the latest available total" is
// the caller's policy.
//
// Ties on observed_at keep the first observation seen; input is expected
// store-ordered by (entity_id, observed_at), so the result is stable.
// Summation runs in sorted entity order for bit-identical repeat results.
func ReduceTotal(observations []*domain.Observation, bucket domain.TimeBucket, field domain.MetricField) float64 {
	earliest := make(map[string]*domain.Observation)
	for _, o := range observations {
		if !bucket.Contains(o.ObservedAt) {
			continue
		}
		cur, ok := earliest[o.EntityID]
		if !ok || o.ObservedAt.Before(cur.ObservedAt) {
			earliest[o.EntityID] = o
		}
	}

	entities := make([]string, 0, len(earliest))
	for id := range earliest {
		entities = append(entities, id)
	}
	sort.Strings(entities)

	total := 0.0
	for _, id := range entities {
		total += field.Value(earliest[id])
	}
	return total
}

// FindLatestTotal sums field across all observations sharing the single
// most recent observed_at in the whole set. Used when the current day
// bucket is empty. No per-entity de-duplication: the latest timestamp is
// already unique per entity in practice.
func FindLatestTotal(observations []*domain.Observation, field domain.MetricField) float64 {
	latest, ok := LatestObservedAt(observations)
	if !ok {
		return 0
	}

	total := 0.0
	for _, o := range observations {
		if o.ObservedAt.Equal(latest) {
			total += field.Value(o)
		}
	}
	return total
}

// LatestObservedAt returns the maximum observed_at in the set. The second
// return is false when the set is empty.
func LatestObservedAt(observations []*domain.Observation) (time.Time, bool) {
	var latest time.Time
	for _, o := range observations {
		if o.ObservedAt.After(latest) {
			latest = o.ObservedAt
		}
	}
	return latest, !latest.IsZero()
}
