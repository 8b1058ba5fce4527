package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hgpartners/ledger-analytics/internal/models"
)

// BuildSeries walks the window [from, to] one period at a time and emits a
// gap-free running series: periods with no bucket appear as zero-delta
// entries carrying the prior balance forward. The walk is strictly
// sequential because each balance depends on the previous one.
func BuildSeries(opening decimal.Decimal, buckets map[time.Time]*models.PeriodBucket, from, to time.Time, res models.Resolution) []models.SeriesPoint {
	start := res.Truncate(from)
	end := res.Truncate(to)
	if end.Before(start) {
		return nil
	}

	var points []models.SeriesPoint
	balance := opening
	for p := start; !p.After(end); p = res.Next(p) {
		var sums models.CategorySums
		if b, ok := buckets[p]; ok {
			sums = b.Sums
		}
		balance = balance.Add(sums.Net())
		points = append(points, models.SeriesPoint{
			Period:  p,
			Sums:    sums,
			Balance: balance,
		})
	}
	return points
}

// Summarize totals a series and reports its closing balance. An empty series
// closes at the opening balance.
func Summarize(opening decimal.Decimal, points []models.SeriesPoint) models.SeriesSummary {
	s := models.SeriesSummary{ClosingBalance: opening}
	for _, p := range points {
		s.TotalProduction = s.TotalProduction.Add(p.Sums.Production)
		s.TotalAdjustments = s.TotalAdjustments.Add(p.Sums.Adjustments)
		s.TotalDisbursements = s.TotalDisbursements.Add(p.Sums.Disbursements)
		s.TotalBilling = s.TotalBilling.Add(p.Sums.Billing)
		s.TotalProvisions = s.TotalProvisions.Add(p.Sums.Provisions)
	}
	if len(points) > 0 {
		s.ClosingBalance = points[len(points)-1].Balance
	}
	return s
}
