package metrics

import (
	"sort"
	"time"

	"stablecoin-dashboard/internal/domain"
)

// PercentageChange returns (current-previous)/previous*100.
// Defined as 0 when previous is 0; division by zero is not an error here.
func PercentageChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// MonthOverMonth compares the reference day bucket against the same
// calendar day one month earlier. Month-end references clamp to the last
// valid day of the earlier month (March 31 compares against the last day
// of February), see domain.SubtractCalendarMonths.
func MonthOverMonth(observations []*domain.Observation, referenceDay time.Time, field domain.MetricField) float64 {
	current := domain.DayBucket(referenceDay)
	previous := domain.DayBucket(domain.SubtractCalendarMonths(referenceDay, 1))

	return PercentageChange(
		ReduceTotal(observations, current, field),
		ReduceTotal(observations, previous, field),
	)
}

// YearOverYear compares the reference day bucket against the day 51 weeks
// earlier. 51 weeks, not 52: the offset lands on the same ISO week-of-year
// and day-of-week, avoiding leap-year drift. Market cap only.
func YearOverYear(observations []*domain.Observation, referenceDay time.Time) float64 {
	current := domain.DayBucket(referenceDay)
	previous := domain.DayBucket(referenceDay.AddDate(0, 0, -51*7))

	return PercentageChange(
		ReduceTotal(observations, current, domain.FieldMarketCap),
		ReduceTotal(observations, previous, domain.FieldMarketCap),
	)
}

// MonthlyGrowthRate groups all observations by calendar month, summing
// market cap with no per-entity de-duplication (a deliberately coarser
// aggregation than the day-bucket reducer), and compares the two most
// recent distinct months. Returns 0 when fewer than two months exist.
func MonthlyGrowthRate(observations []*domain.Observation) float64 {
	totals := MonthlyTotals(observations)
	if len(totals) < 2 {
		return 0
	}
	return PercentageChange(totals[len(totals)-1].Total, totals[len(totals)-2].Total)
}

// MonthlyTotals returns per-month market cap sums sorted ascending by
// YYYY-MM month key.
func MonthlyTotals(observations []*domain.Observation) []domain.MonthTotal {
	byMonth := make(map[string]float64)
	for _, o := range observations {
		byMonth[o.ObservedAt.UTC().Format("2006-01")] += o.MarketCap
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	totals := make([]domain.MonthTotal, len(months))
	for i, m := range months {
		totals[i] = domain.MonthTotal{Month: m, Total: byMonth[m]}
	}
	return totals
}
