package domain

import "time"

// Observation is a single market snapshot of one stablecoin.
// Corresponds to one row of the observations table. Observations are
// append-only and externally ingested; the core never mutates them.
type Observation struct {
	EntityID     string    // stable identifier of the coin (e.g. "tether")
	EntityName   string    // display name (e.g. "Tether")
	EntitySymbol string    // ticker symbol (e.g. "USDT")
	ObservedAt   time.Time // UTC instant of the snapshot
	MarketCap    float64   // market capitalization in USD
	Price        float64   // price in USD
	Volume24h    float64   // trailing 24h volume in USD
	Granularity  string    // caller-supplied sampling granularity, not validated
}

// MetricField selects which numeric field of an Observation is aggregated.
type MetricField int

const (
	FieldMarketCap MetricField = iota
	FieldVolume24h
)

// Column returns the storage column name for the field.
func (f MetricField) Column() string {
	if f == FieldVolume24h {
		return "volume_24h"
	}
	return "market_cap"
}

// Value extracts the selected field from an observation.
func (f MetricField) Value(o *Observation) float64 {
	if f == FieldVolume24h {
		return o.Volume24h
	}
	return o.MarketCap
}
