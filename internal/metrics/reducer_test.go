package metrics

import (
	"testing"
	"time"

	"stablecoin-dashboard/internal/domain"
)

func obs(entityID, symbol string, at time.Time, marketCap, volume float64) *domain.Observation {
	return &domain.Observation{
		EntityID:     entityID,
		EntityName:   entityID,
		EntitySymbol: symbol,
		ObservedAt:   at,
		MarketCap:    marketCap,
		Volume24h:    volume,
		Granularity:  "daily",
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}

func TestReduceTotal_EarliestPerEntity(t *testing.T) {
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	observations := []*domain.Observation{
		obs("tether", "usdt", day.Add(1*time.Hour), 100, 10),
		obs("tether", "usdt", day.Add(2*time.Hour), 200, 20),
		obs("usd-coin", "usdc", day.Add(1*time.Hour), 50, 5),
	}

	got := ReduceTotal(observations, domain.DayBucket(day), domain.FieldMarketCap)
	if got != 150 {
		t.Errorf("ReduceTotal = %v, want 150 (earliest per entity: 100 + 50)", got)
	}
}

func TestReduceTotal_OnePerEntity(t *testing.T) {
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	var observations []*domain.Observation
	for _, id := range []string{"tether", "usd-coin", "dai"} {
		for h := 1; h <= 4; h++ {
			observations = append(observations, obs(id, id, day.Add(time.Duration(h)*time.Hour), float64(h*100), 0))
		}
	}

	// Earliest sample per entity is 100 each.
	got := ReduceTotal(observations, domain.DayBucket(day), domain.FieldMarketCap)
	if got != 300 {
		t.Errorf("ReduceTotal = %v, want 300 (one sample per entity)", got)
	}
}

func TestReduceTotal_FiltersOutsideBucket(t *testing.T) {
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	observations := []*domain.Observation{
		obs("tether", "usdt", day.Add(-time.Hour), 999, 0),   // previous day
		obs("tether", "usdt", day.Add(6*time.Hour), 100, 0),  // inside
		obs("tether", "usdt", day.Add(24*time.Hour), 888, 0), // next day, boundary excluded
	}

	got := ReduceTotal(observations, domain.DayBucket(day), domain.FieldMarketCap)
	if got != 100 {
		t.Errorf("ReduceTotal = %v, want 100", got)
	}
}

func TestReduceTotal_EmptyBucket(t *testing.T) {
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	observations := []*domain.Observation{
		obs("tether", "usdt", day.AddDate(0, 0, -3), 100, 0),
	}

	if got := ReduceTotal(observations, domain.DayBucket(day), domain.FieldMarketCap); got != 0 {
		t.Errorf("ReduceTotal = %v, want 0 for an empty bucket", got)
	}
	if got := ReduceTotal(nil, domain.DayBucket(day), domain.FieldMarketCap); got != 0 {
		t.Errorf("ReduceTotal(nil) = %v, want 0", got)
	}
}

func TestReduceTotal_Deterministic(t *testing.T) {
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	var observations []*domain.Observation
	for i := 0; i < 50; i++ {
		id := string(rune('a' + i%26))
		observations = append(observations, obs(id, id, day.Add(time.Duration(i)*time.Minute), 0.1*float64(i+1), 0))
	}

	first := ReduceTotal(observations, domain.DayBucket(day), domain.FieldMarketCap)
	for i := 0; i < 10; i++ {
		if got := ReduceTotal(observations, domain.DayBucket(day), domain.FieldMarketCap); got != first {
			t.Fatalf("run %d: ReduceTotal = %v, want bit-identical %v", i, got, first)
		}
	}
}

func TestReduceTotal_VolumeField(t *testing.T) {
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	observations := []*domain.Observation{
		obs("tether", "usdt", day.Add(time.Hour), 100, 40),
		obs("usd-coin", "usdc", day.Add(time.Hour), 50, 30),
	}

	got := ReduceTotal(observations, domain.DayBucket(day), domain.FieldVolume24h)
	if got != 70 {
		t.Errorf("ReduceTotal(volume) = %v, want 70", got)
	}
}

func TestFindLatestTotal(t *testing.T) {
	t1 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	observations := []*domain.Observation{
		obs("tether", "usdt", t1, 90, 0),
		obs("tether", "usdt", t2, 100, 0),
		obs("usd-coin", "usdc", t2, 50, 0),
	}

	if got := FindLatestTotal(observations, domain.FieldMarketCap); got != 150 {
		t.Errorf("FindLatestTotal = %v, want 150 (sum at the newest timestamp)", got)
	}
	if got := FindLatestTotal(nil, domain.FieldMarketCap); got != 0 {
		t.Errorf("FindLatestTotal(nil) = %v, want 0", got)
	}
}

func TestLatestObservedAt(t *testing.T) {
	t1 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	observations := []*domain.Observation{
		obs("tether", "usdt", t2, 100, 0),
		obs("usd-coin", "usdc", t1, 50, 0),
	}

	got, ok := LatestObservedAt(observations)
	if !ok || !got.Equal(t2) {
		t.Errorf("LatestObservedAt = (%v, %v), want (%v, true)", got, ok, t2)
	}

	if _, ok := LatestObservedAt(nil); ok {
		t.Error("LatestObservedAt(nil) reported ok for an empty set")
	}
}
