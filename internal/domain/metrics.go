package domain

import "time"

// Billion scales raw USD values for chart display.
const Billion = 1e9

// ComparativeMetric pairs two reduced totals with their percentage delta.
type ComparativeMetric struct {
	Current          float64 `json:"current"`
	Previous         float64 `json:"previous"`
	PercentageChange float64 `json:"percentageChange"`
}

// MonthTotal is the market cap summed over one calendar month.
// No per-entity de-duplication is applied at this grain.
type MonthTotal struct {
	Month string  // YYYY-MM
	Total float64 // summed market cap, USD
}

// WeeklyEntitySnapshot is the representative (latest-in-week) observation
// of one entity within one Monday-aligned week.
type WeeklyEntitySnapshot struct {
	WeekStart    time.Time
	EntityID     string
	EntitySymbol string
	MarketCap    float64
}

// WeekPoint is one point of the weekly chart series. Monetary values are
// expressed in billions of USD.
type WeekPoint struct {
	Week           string  `json:"week"` // ISO date of the Monday week start
	TotalMarketCap float64 `json:"totalMarketCap"`
	USDT           float64 `json:"usdt"`
	USDC           float64 `json:"usdc"`
	DAI            float64 `json:"dai"`
	BUSD           float64 `json:"busd"`
	TUSD           float64 `json:"tusd"`
	FRAX           float64 `json:"frax"`
	FormattedDate  string  `json:"formattedDate"` // human label, e.g. "Jan 2, 2006"
}

// DashboardSummary carries all scalar dashboard metrics fetched in one
// fan-out. Each metric succeeds or fails independently; Errors maps metric
// names to failure messages for metrics that could not be computed.
type DashboardSummary struct {
	TotalMarketCap          float64           `json:"totalMarketCap"`
	TotalVolume24h          float64           `json:"totalVolume24h"`
	TotalMarketCapChangeMoM float64           `json:"totalMarketCapChangeMoM"`
	TotalVolumeChangeMoM    float64           `json:"totalVolumeChangeMoM"`
	MonthlyGrowthRate       float64           `json:"monthlyGrowthRate"`
	MarketCapChangeYoY      float64           `json:"marketCapChangeYoY"`
	Errors                  map[string]string `json:"errors,omitempty"`
}
