package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Resolution selects how a date is truncated to a period key.
type Resolution int

const (
	ResolutionDay Resolution = iota
	ResolutionMonth
)

// Truncate collapses t to the canonical key for this resolution, in UTC.
func (r Resolution) Truncate(t time.Time) time.Time {
	t = t.UTC()
	if r == ResolutionMonth {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Next advances a period key by one step of this resolution.
func (r Resolution) Next(t time.Time) time.Time {
	if r == ResolutionMonth {
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// PeriodBucket holds the categorized sums for one (period, partition) pair.
// The overall series uses an empty partition key and is aggregated in its own
// pass, never by summing partitions.
type PeriodBucket struct {
	Period    time.Time    `json:"period"`
	Partition string       `json:"partition,omitempty"`
	Sums      CategorySums `json:"sums"`
}

// SeriesPoint is one entry of a gap-free running series.
type SeriesPoint struct {
	Period  time.Time       `json:"period"`
	Sums    CategorySums    `json:"sums"`
	Balance decimal.Decimal `json:"balance"`
}

// HasActivity reports whether the point carries any non-zero category sum.
// The downsampler keeps such points unconditionally.
func (p SeriesPoint) HasActivity() bool {
	return !p.Sums.IsZero()
}

// LockupPoint is one entry of the monthly lockup-days series.
type LockupPoint struct {
	Period      time.Time       `json:"period"`
	Balance     decimal.Decimal `json:"balance"`
	TrailingSum decimal.Decimal `json:"trailing_sum"`
	LockupDays  decimal.Decimal `json:"lockup_days"`
}

// SeriesSummary carries the headline totals for one series.
type SeriesSummary struct {
	TotalProduction    decimal.Decimal `json:"total_production"`
	TotalAdjustments   decimal.Decimal `json:"total_adjustments"`
	TotalDisbursements decimal.Decimal `json:"total_disbursements"`
	TotalBilling       decimal.Decimal `json:"total_billing"`
	TotalProvisions    decimal.Decimal `json:"total_provisions"`
	ClosingBalance     decimal.Decimal `json:"closing_balance"`
}

// SeriesResult bundles one partition's chart series, lockup series and
// summary.
type SeriesResult struct {
	Points  []SeriesPoint `json:"points"`
	Lockup  []LockupPoint `json:"lockup"`
	Summary SeriesSummary `json:"summary"`
}

// PartitionResult is a SeriesResult tagged with its partition metadata.
type PartitionResult struct {
	Code        string       `json:"code"`
	DisplayName string       `json:"display_name"`
	Result      SeriesResult `json:"result"`
}

// Window echoes the resolved reporting bounds back to the caller.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// AnalyticsResponse is the full payload of the WIP analytics query.
type AnalyticsResponse struct {
	Window     Window            `json:"window"`
	Overall    SeriesResult      `json:"overall"`
	Partitions []PartitionResult `json:"partitions"`
}
