package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/hgpartners/ledger-analytics/internal/models"
)

// OpeningAccumulator folds pre-window transactions into the opening balances
// that seed running series. It is built for a single streaming pass: the
// repository feeds it one row at a time straight off the cursor, so the full
// history is never materialized.
//
// Sums are kept per raw service-line code, not per master partition, because
// the partition mapping table is fetched concurrently with the opening
// stream; PartitionOpening rolls lines up once the mappings are available.
type OpeningAccumulator struct {
	overall       models.CategorySums
	byLine        map[string]models.CategorySums
	uncategorized map[string]int
}

// NewOpeningAccumulator returns an empty accumulator.
func NewOpeningAccumulator() *OpeningAccumulator {
	return &OpeningAccumulator{
		byLine:        make(map[string]models.CategorySums),
		uncategorized: make(map[string]int),
	}
}

// Add folds one transaction. Unrecognized type codes are counted and
// otherwise ignored.
func (a *OpeningAccumulator) Add(tx models.Transaction) {
	c, ok := CategorizeTransaction(tx)
	if !ok {
		a.uncategorized[tx.TypeCode]++
		return
	}
	a.overall.Add(c, tx.Amount)
	line := a.byLine[tx.ServiceLine]
	line.Add(c, tx.Amount)
	a.byLine[tx.ServiceLine] = line
}

// Sums returns the per-category opening totals across all service lines.
func (a *OpeningAccumulator) Sums() models.CategorySums {
	return a.overall
}

// Net returns the net opening balance for the overall series.
func (a *OpeningAccumulator) Net() decimal.Decimal {
	return a.overall.Net()
}

// PartitionOpening returns the net opening balance for one master partition,
// rolling up every service line that maps to it.
func (a *OpeningAccumulator) PartitionOpening(partition string, mappings map[string]models.PartitionMapping) decimal.Decimal {
	var sums models.CategorySums
	for line, s := range a.byLine {
		if ResolvePartition(line, mappings) == partition {
			sums.Merge(s)
		}
	}
	return sums.Net()
}

// Uncategorized returns counts of dropped type codes, for telemetry.
func (a *OpeningAccumulator) Uncategorized() map[string]int {
	return a.uncategorized
}
