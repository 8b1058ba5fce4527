package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hgpartners/ledger-analytics/internal/models"
)

// AggregateResult is the outcome of one bucketing pass.
type AggregateResult struct {
	// Buckets is keyed by period key; every bucket belongs to the same
	// partition (or to the overall series when partitioning is disabled).
	Buckets map[time.Time]*models.PeriodBucket
	// Uncategorized counts dropped type codes encountered during the pass.
	Uncategorized map[string]int
}

// Aggregate buckets transactions by truncated date for a single partition
// view. When partition is empty every transaction contributes (the overall
// series); otherwise only transactions resolving to that partition do.
// Transactions whose service line has no mapping resolve to
// models.UnknownPartition rather than being dropped; unmapped partitions
// and uncategorized type codes are different failure modes at different
// pipeline stages.
func Aggregate(txs []models.Transaction, res models.Resolution, partition string, mappings map[string]models.PartitionMapping) AggregateResult {
	out := AggregateResult{
		Buckets:       make(map[time.Time]*models.PeriodBucket),
		Uncategorized: make(map[string]int),
	}
	for _, tx := range txs {
		if partition != "" && ResolvePartition(tx.ServiceLine, mappings) != partition {
			continue
		}
		c, ok := CategorizeTransaction(tx)
		if !ok {
			out.Uncategorized[tx.TypeCode]++
			continue
		}
		key := res.Truncate(tx.Date)
		b, ok := out.Buckets[key]
		if !ok {
			b = &models.PeriodBucket{Period: key, Partition: partition}
			out.Buckets[key] = b
		}
		b.Sums.Add(c, tx.Amount)
	}
	return out
}

// NetBefore reduces every transaction dated strictly before cutoff to a net
// balance delta for one partition view (empty partition = overall). It is
// used to advance an opening balance from the lookback start to the visible
// window start.
func NetBefore(txs []models.Transaction, cutoff time.Time, partition string, mappings map[string]models.PartitionMapping) decimal.Decimal {
	var sums models.CategorySums
	for _, tx := range txs {
		if !tx.Date.Before(cutoff) {
			continue
		}
		if partition != "" && ResolvePartition(tx.ServiceLine, mappings) != partition {
			continue
		}
		if c, ok := CategorizeTransaction(tx); ok {
			sums.Add(c, tx.Amount)
		}
	}
	return sums.Net()
}

// ResolvePartition maps a raw service-line code to its master service line,
// falling back to the literal UNKNOWN partition when the mapping table has
// no row for it.
func ResolvePartition(serviceLine string, mappings map[string]models.PartitionMapping) string {
	if m, ok := mappings[serviceLine]; ok {
		return m.MasterCode
	}
	return models.UnknownPartition
}

// Partitions returns the sorted set of master service lines present in the
// transaction slice, including UNKNOWN when any transaction is unmapped.
func Partitions(txs []models.Transaction, mappings map[string]models.PartitionMapping) []string {
	seen := make(map[string]struct{})
	for _, tx := range txs {
		seen[ResolvePartition(tx.ServiceLine, mappings)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
