package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stablecoin-dashboard/internal/domain"
	"stablecoin-dashboard/internal/storage"
)

func testObservation(entityID string, at time.Time) *domain.Observation {
	return &domain.Observation{
		EntityID:     entityID,
		EntityName:   entityID,
		EntitySymbol: entityID,
		ObservedAt:   at,
		MarketCap:    100.5,
		Price:        1.0002,
		Volume24h:    42.25,
		Granularity:  "daily",
	}
}

func TestObservationStore_InsertAndGetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(pool)

	at := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	o := testObservation("tether", at)

	err := store.Insert(ctx, o)
	require.NoError(t, err)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)

	require.Len(t, all, 1)
	assert.Equal(t, o.EntityID, all[0].EntityID)
	assert.Equal(t, o.EntityName, all[0].EntityName)
	assert.Equal(t, o.EntitySymbol, all[0].EntitySymbol)
	assert.True(t, all[0].ObservedAt.Equal(at))
	assert.InDelta(t, o.MarketCap, all[0].MarketCap, 0.0001)
	assert.InDelta(t, o.Price, all[0].Price, 0.0001)
	assert.InDelta(t, o.Volume24h, all[0].Volume24h, 0.0001)
	assert.Equal(t, o.Granularity, all[0].Granularity)
}

func TestObservationStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(pool)

	o := testObservation("tether", time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC))

	require.NoError(t, store.Insert(ctx, o))

	err := store.Insert(ctx, o)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestObservationStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(pool)

	at := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, testObservation("tether", at)))

	// Batch with one duplicate must not apply at all.
	err := store.InsertBulk(ctx, []*domain.Observation{
		testObservation("usd-coin", at),
		testObservation("tether", at),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestObservationStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(pool)

	start := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Observation{
		testObservation("tether", start.Add(-time.Second)),
		testObservation("tether", start),
		testObservation("tether", end.Add(-time.Second)),
		testObservation("tether", end),
		testObservation("usd-coin", start.Add(6*time.Hour)),
	}))

	rows, err := store.GetByTimeRange(ctx, start, end)
	require.NoError(t, err)

	// Half-open [start, end): boundary start in, boundary end out.
	require.Len(t, rows, 3)

	// Ordered by (entity_id, observed_at).
	assert.Equal(t, "tether", rows[0].EntityID)
	assert.True(t, rows[0].ObservedAt.Equal(start))
	assert.Equal(t, "tether", rows[1].EntityID)
	assert.Equal(t, "usd-coin", rows[2].EntityID)
}

func TestObservationStore_LatestObservedAt(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(pool)

	_, err := store.LatestObservedAt(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	t1 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertBulk(ctx, []*domain.Observation{
		testObservation("tether", t2),
		testObservation("usd-coin", t1),
	}))

	latest, err := store.LatestObservedAt(ctx)
	require.NoError(t, err)
	assert.True(t, latest.Equal(t2), "latest = %v, want %v", latest, t2)
}

func TestObservationStore_InsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(pool)

	err := store.Insert(ctx, &domain.Observation{ObservedAt: time.Now()})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
