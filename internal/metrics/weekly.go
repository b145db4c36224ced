package metrics

import (
	"sort"
	"strings"
	"time"

	"stablecoin-dashboard/internal/domain"
)

// weekLabelFormat is the human-readable date label on chart points.
const weekLabelFormat = "Jan 2, 2006"

// weekSeriesSlots routes known stablecoin symbols (lower-cased) into the
// named series fields of a WeekPoint. Values are already scaled to billions
// when the setter runs.
var weekSeriesSlots = map[string]func(*domain.WeekPoint, float64){
	"usdt": func(p *domain.WeekPoint, v float64) { p.USDT += v },
	"usdc": func(p *domain.WeekPoint, v float64) { p.USDC += v },
	"dai":  func(p *domain.WeekPoint, v float64) { p.DAI += v },
	"busd": func(p *domain.WeekPoint, v float64) { p.BUSD += v },
	"tusd": func(p *domain.WeekPoint, v float64) { p.TUSD += v },
	"frax": func(p *domain.WeekPoint, v float64) { p.FRAX += v },
}

// BuildWeeklySeries buckets observations into Monday-aligned weeks and sums
// market cap per symbol across ALL observations in the week — multiple
// daily points of one entity accumulate into the week's summary. The grand
// total includes every symbol; only known symbols additionally land in a
// named slot. anchor is the store's max observed_at; lookbackMonths bounds
// the series. Points are sorted ascending by week start.
func BuildWeeklySeries(observations []*domain.Observation, anchor time.Time, lookbackMonths int) []domain.WeekPoint {
	cutoff := domain.SubtractCalendarMonths(anchor, lookbackMonths)

	points := make(map[time.Time]*domain.WeekPoint)
	for _, o := range observations {
		if o.ObservedAt.Before(cutoff) {
			continue
		}

		week := domain.WeekStart(o.ObservedAt)
		p, ok := points[week]
		if !ok {
			p = newWeekPoint(week)
			points[week] = p
		}

		v := o.MarketCap / domain.Billion
		p.TotalMarketCap += v
		if set, ok := weekSeriesSlots[strings.ToLower(o.EntitySymbol)]; ok {
			set(p, v)
		}
	}

	return sortWeekPoints(points)
}

// LatestPerEntityPerWeek selects for each (entity, week) the observation
// with the maximum observed_at inside that week — a latest-in-week
// snapshot. Observations inside the current (incomplete) day bucket of
// anchor are excluded before bucketing so the newest week is not skewed by
// a partial day. Snapshots are sorted by (week, entity_id).
func LatestPerEntityPerWeek(observations []*domain.Observation, anchor time.Time, lookbackMonths int) []domain.WeeklyEntitySnapshot {
	cutoff := domain.SubtractCalendarMonths(anchor, lookbackMonths)
	currentDay := domain.DayBucket(anchor)

	type weekEntity struct {
		week     time.Time
		entityID string
	}
	chosen := make(map[weekEntity]*domain.Observation)

	for _, o := range observations {
		if o.ObservedAt.Before(cutoff) || currentDay.Contains(o.ObservedAt) {
			continue
		}

		key := weekEntity{week: domain.WeekStart(o.ObservedAt), entityID: o.EntityID}
		cur, ok := chosen[key]
		if !ok || o.ObservedAt.After(cur.ObservedAt) {
			chosen[key] = o
		}
	}

	snapshots := make([]domain.WeeklyEntitySnapshot, 0, len(chosen))
	for key, o := range chosen {
		snapshots = append(snapshots, domain.WeeklyEntitySnapshot{
			WeekStart:    key.week,
			EntityID:     o.EntityID,
			EntitySymbol: o.EntitySymbol,
			MarketCap:    o.MarketCap,
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if !snapshots[i].WeekStart.Equal(snapshots[j].WeekStart) {
			return snapshots[i].WeekStart.Before(snapshots[j].WeekStart)
		}
		return snapshots[i].EntityID < snapshots[j].EntityID
	})

	return snapshots
}

// AssembleWeekPoints turns per-entity weekly snapshots into chart points,
// routing known symbols into named slots. Unmapped symbols are excluded
// from the slots AND from the grand total; they are returned as a count
// per symbol so callers can log the data-quality gap instead of silently
// dropping it. The same routine serves the precomputed and the manual
// aggregation paths, keeping their output identical by construction.
func AssembleWeekPoints(snapshots []domain.WeeklyEntitySnapshot) ([]domain.WeekPoint, map[string]int) {
	points := make(map[time.Time]*domain.WeekPoint)
	unmapped := make(map[string]int)

	for _, s := range snapshots {
		symbol := strings.ToLower(s.EntitySymbol)
		set, ok := weekSeriesSlots[symbol]
		if !ok {
			unmapped[symbol]++
			continue
		}

		p, exists := points[s.WeekStart]
		if !exists {
			p = newWeekPoint(s.WeekStart)
			points[s.WeekStart] = p
		}

		v := s.MarketCap / domain.Billion
		set(p, v)
		p.TotalMarketCap += v
	}

	return sortWeekPoints(points), unmapped
}

// MarketPerEntityPerWeek is the richer chart series: one latest-in-week
// observation per entity, routed into fixed named stablecoin slots.
func MarketPerEntityPerWeek(observations []*domain.Observation, anchor time.Time, lookbackMonths int) ([]domain.WeekPoint, map[string]int) {
	return AssembleWeekPoints(LatestPerEntityPerWeek(observations, anchor, lookbackMonths))
}

func newWeekPoint(week time.Time) *domain.WeekPoint {
	return &domain.WeekPoint{
		Week:          week.Format("2006-01-02"),
		FormattedDate: week.Format(weekLabelFormat),
	}
}

func sortWeekPoints(points map[time.Time]*domain.WeekPoint) []domain.WeekPoint {
	weeks := make([]time.Time, 0, len(points))
	for w := range points {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	result := make([]domain.WeekPoint, len(weeks))
	for i, w := range weeks {
		result[i] = *points[w]
	}
	return result
}
