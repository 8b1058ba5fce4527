package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hgpartners/ledger-analytics/internal/models"
)

// TrailingSpan is the number of periods, inclusive of the current one, that
// a lockup ratio looks back over.
const TrailingSpan = 12

// lockupScale converts a balance/trailing ratio into days.
var lockupScale = decimal.NewFromInt(365)

// BaseMetric selects the denominator series for lockup ratios.
type BaseMetric int

const (
	// BaseNetRevenue uses production.
	BaseNetRevenue BaseMetric = iota
	// BaseNetBillings uses billed fees.
	BaseNetBillings
)

func (m BaseMetric) value(s models.CategorySums) decimal.Decimal {
	if m == BaseNetBillings {
		return s.Billing
	}
	return s.Production
}

// TrailingLockup computes lockup days for every period of monthly that falls
// on or after visibleFrom. monthly must be gap-free and chronologically
// ordered, and should start TrailingSpan-1 periods before visibleFrom;
// periods before that lookback simply see a shorter window, which truncates
// the earliest ratios. A zero trailing sum yields a lockup of zero by
// definition, never an error.
func TrailingLockup(monthly []models.SeriesPoint, visibleFrom time.Time, base BaseMetric) []models.LockupPoint {
	var out []models.LockupPoint
	for i, p := range monthly {
		if p.Period.Before(visibleFrom) {
			continue
		}
		trailing := decimal.Zero
		lo := i - TrailingSpan + 1
		if lo < 0 {
			lo = 0
		}
		for j := lo; j <= i; j++ {
			trailing = trailing.Add(base.value(monthly[j].Sums))
		}
		lockup := decimal.Zero
		if !trailing.IsZero() {
			lockup = p.Balance.Mul(lockupScale).Div(trailing)
		}
		out = append(out, models.LockupPoint{
			Period:      p.Period,
			Balance:     p.Balance,
			TrailingSum: trailing,
			LockupDays:  lockup,
		})
	}
	return out
}
