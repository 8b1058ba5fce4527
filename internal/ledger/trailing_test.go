package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgpartners/ledger-analytics/internal/models"
)

func monthlyPoint(year int, month time.Month, revenue, balance string) models.SeriesPoint {
	return models.SeriesPoint{
		Period:  time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		Sums:    models.CategorySums{Production: dec(revenue)},
		Balance: dec(balance),
	}
}

// From the worked example: balance 850 over a trailing sum of 700 gives
// 850 * 365 / 700 ≈ 443.2 lockup days.
func TestTrailingLockupWorkedExample(t *testing.T) {
	monthly := []models.SeriesPoint{
		{
			Period:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Sums:    models.CategorySums{Production: dec("500")},
			Balance: dec("1200"),
		},
		{
			Period:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			Sums:    models.CategorySums{Production: dec("200"), Adjustments: dec("50")},
			Balance: dec("850"),
		},
	}

	out := TrailingLockup(monthly, monthly[0].Period, BaseNetRevenue)
	require.Len(t, out, 2)

	assert.True(t, out[1].TrailingSum.Equal(dec("700")))
	want := dec("850").Mul(dec("365")).Div(dec("700"))
	assert.True(t, out[1].LockupDays.Equal(want), "got %s", out[1].LockupDays)
	assert.InDelta(t, 443.2, out[1].LockupDays.InexactFloat64(), 0.05)
}

// A zero trailing sum yields a lockup of zero by definition. No error, no
// NaN, no infinity.
func TestTrailingLockupZeroDenominator(t *testing.T) {
	monthly := []models.SeriesPoint{
		{Period: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Balance: dec("500")},
	}
	out := TrailingLockup(monthly, monthly[0].Period, BaseNetRevenue)
	require.Len(t, out, 1)
	assert.True(t, out[0].LockupDays.IsZero())
	assert.True(t, out[0].TrailingSum.IsZero())
}

// The window sums exactly TrailingSpan periods inclusive of the current one.
func TestTrailingLockupWindowSpan(t *testing.T) {
	var monthly []models.SeriesPoint
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24; i++ {
		monthly = append(monthly, monthlyPoint(start.Year(), start.Month(), "10", "100"))
		start = start.AddDate(0, 1, 0)
	}

	out := TrailingLockup(monthly, monthly[0].Period, BaseNetRevenue)
	require.Len(t, out, 24)

	// From month 12 onward the window is saturated at 12 * 10.
	for i := TrailingSpan - 1; i < len(out); i++ {
		assert.True(t, out[i].TrailingSum.Equal(dec("120")), "month %d: %s", i, out[i].TrailingSum)
	}
	// Before that the window is shorter.
	assert.True(t, out[0].TrailingSum.Equal(dec("10")))
	assert.True(t, out[5].TrailingSum.Equal(dec("60")))
}

// With the lookback months present but hidden, early visible ratios still see
// the full trailing window. Omitting the lookback fetch would silently
// truncate them.
func TestTrailingLockupLookbackFeedsEarlyRatios(t *testing.T) {
	var monthly []models.SeriesPoint
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 18; i++ {
		monthly = append(monthly, monthlyPoint(start.Year(), start.Month(), "10", "100"))
		start = start.AddDate(0, 1, 0)
	}
	visibleFrom := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) // month index 11

	out := TrailingLockup(monthly, visibleFrom, BaseNetRevenue)
	require.Len(t, out, 7)
	assert.Equal(t, visibleFrom, out[0].Period)
	// First visible month already has a full 12-month window behind it.
	assert.True(t, out[0].TrailingSum.Equal(dec("120")))

	// Without the lookback the same month sees a one-month window.
	truncated := TrailingLockup(monthly[11:], visibleFrom, BaseNetRevenue)
	require.NotEmpty(t, truncated)
	assert.True(t, truncated[0].TrailingSum.Equal(dec("10")))
}

func TestTrailingLockupBillingsBase(t *testing.T) {
	monthly := []models.SeriesPoint{
		{
			Period:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Sums:    models.CategorySums{Production: dec("500"), Billing: dec("400")},
			Balance: dec("800"),
		},
	}
	out := TrailingLockup(monthly, monthly[0].Period, BaseNetBillings)
	require.Len(t, out, 1)
	assert.True(t, out[0].TrailingSum.Equal(dec("400")))
	want := dec("800").Mul(decimal.NewFromInt(365)).Div(dec("400"))
	assert.True(t, out[0].LockupDays.Equal(want))
}
