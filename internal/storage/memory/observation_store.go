package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stablecoin-dashboard/internal/domain"
	"stablecoin-dashboard/internal/storage"
)

// ObservationStore is an in-memory implementation of
// storage.ObservationStore. Used by tests and --use-memory mode.
type ObservationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Observation // keyed by (entity_id, observed_at, granularity)
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{
		data: make(map[string]*domain.Observation),
	}
}

var _ storage.ObservationStore = (*ObservationStore)(nil)

// observationKey generates a unique key for an observation.
func observationKey(o *domain.Observation) string {
	return fmt.Sprintf("%s|%d|%s", o.EntityID, o.ObservedAt.UTC().UnixNano(), o.Granularity)
}

// Insert adds a new observation. Returns ErrDuplicateKey if
// (entity_id, observed_at, granularity) exists.
func (s *ObservationStore) Insert(_ context.Context, o *domain.Observation) error {
	if o == nil || o.EntityID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := observationKey(o)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	obsCopy := *o
	obsCopy.ObservedAt = obsCopy.ObservedAt.UTC()
	s.data[key] = &obsCopy
	return nil
}

// InsertBulk adds multiple observations atomically. Fails entire batch on
// any duplicate.
func (s *ObservationStore) InsertBulk(_ context.Context, observations []*domain.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(observations))
	for _, o := range observations {
		if o == nil || o.EntityID == "" {
			return storage.ErrInvalidInput
		}
		key := observationKey(o)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, o := range observations {
		obsCopy := *o
		obsCopy.ObservedAt = obsCopy.ObservedAt.UTC()
		s.data[observationKey(o)] = &obsCopy
	}

	return nil
}

// GetAll retrieves all observations ordered by (entity_id, observed_at).
func (s *ObservationStore) GetAll(_ context.Context) ([]*domain.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Observation
	for _, o := range s.data {
		obsCopy := *o
		result = append(result, &obsCopy)
	}

	sortObservations(result)
	return result, nil
}

// GetByTimeRange retrieves observations with observed_at in [start, end),
// ordered by (entity_id, observed_at).
func (s *ObservationStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Observation
	for _, o := range s.data {
		if !o.ObservedAt.Before(start) && o.ObservedAt.Before(end) {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}

	sortObservations(result)
	return result, nil
}

// LatestObservedAt returns the global maximum observed_at.
// Returns ErrNotFound when the store is empty.
func (s *ObservationStore) LatestObservedAt(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.data) == 0 {
		return time.Time{}, storage.ErrNotFound
	}

	var latest time.Time
	for _, o := range s.data {
		if o.ObservedAt.After(latest) {
			latest = o.ObservedAt
		}
	}

	return latest, nil
}

func sortObservations(observations []*domain.Observation) {
	sort.Slice(observations, func(i, j int) bool {
		if observations[i].EntityID != observations[j].EntityID {
			return observations[i].EntityID < observations[j].EntityID
		}
		return observations[i].ObservedAt.Before(observations[j].ObservedAt)
	})
}
