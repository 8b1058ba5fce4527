package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgpartners/ledger-analytics/internal/models"
)

func TestAggregateByMonth(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-05", "100", "TIME", "TAX-CORP"),
		tx("2025-01-20", "50", "TIME", "TAX-CORP"),
		tx("2025-02-03", "80", "FEE", "AUD-EXT"),
	}

	res := Aggregate(txs, models.ResolutionMonth, "", testMappings)
	require.Len(t, res.Buckets, 2)

	jan := res.Buckets[time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)]
	require.NotNil(t, jan)
	assert.True(t, jan.Sums.Production.Equal(dec("150")))

	feb := res.Buckets[time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)]
	require.NotNil(t, feb)
	assert.True(t, feb.Sums.Billing.Equal(dec("80")))
}

func TestAggregatePartitionView(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-05", "100", "TIME", "TAX-CORP"),
		tx("2025-01-06", "40", "TIME", "TAX-PERS"),
		tx("2025-01-07", "60", "TIME", "AUD-EXT"),
		tx("2025-01-08", "10", "TIME", "NOPE"),
	}

	taxed := Aggregate(txs, models.ResolutionMonth, "TAX", testMappings)
	require.Len(t, taxed.Buckets, 1)
	for _, b := range taxed.Buckets {
		assert.True(t, b.Sums.Production.Equal(dec("140")))
	}

	// A service line missing from the mapping table buckets as UNKNOWN; it is
	// never dropped the way uncategorized type codes are.
	unknown := Aggregate(txs, models.ResolutionMonth, models.UnknownPartition, testMappings)
	require.Len(t, unknown.Buckets, 1)
	for _, b := range unknown.Buckets {
		assert.True(t, b.Sums.Production.Equal(dec("10")))
	}
}

func TestAggregateUncategorizedCounted(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-05", "100", "TIME", "TAX-CORP"),
		tx("2025-01-06", "7", "GARBAGE", "TAX-CORP"),
	}
	res := Aggregate(txs, models.ResolutionDay, "", testMappings)
	assert.Equal(t, map[string]int{"GARBAGE": 1}, res.Uncategorized)
}

// Overall totals computed directly must equal the sum over every partition
// including UNKNOWN. This guards against double counting and dropped rows.
func TestOverallEqualsPartitionSum(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-05", "100", "TIME", "TAX-CORP"),
		tx("2025-01-06", "40", "TIME", "TAX-PERS"),
		tx("2025-01-07", "60", "FEE", "AUD-EXT"),
		tx("2025-01-08", "10", "DISB", "NOPE"),
		tx("2025-02-02", "-20", "ADJ", "TAX-CORP"),
		tx("2025-02-09", "15", "PROV", "AUD-EXT"),
	}

	overall := Aggregate(txs, models.ResolutionMonth, "", testMappings)
	var overallNet decimal.Decimal
	for _, b := range overall.Buckets {
		overallNet = overallNet.Add(b.Sums.Net())
	}

	var partitionNet decimal.Decimal
	for _, p := range Partitions(txs, testMappings) {
		res := Aggregate(txs, models.ResolutionMonth, p, testMappings)
		for _, b := range res.Buckets {
			partitionNet = partitionNet.Add(b.Sums.Net())
		}
	}

	assert.True(t, overallNet.Equal(partitionNet),
		"overall %s != partition sum %s", overallNet, partitionNet)
}

func TestPartitions(t *testing.T) {
	txs := []models.Transaction{
		tx("2025-01-05", "1", "TIME", "TAX-CORP"),
		tx("2025-01-06", "1", "TIME", "AUD-EXT"),
		tx("2025-01-07", "1", "TIME", "NOPE"),
	}
	assert.Equal(t, []string{"AUDIT", "TAX", models.UnknownPartition}, Partitions(txs, testMappings))
}

func TestNetBefore(t *testing.T) {
	cutoff := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		tx("2025-01-05", "100", "TIME", "TAX-CORP"),
		tx("2025-01-20", "30", "FEE", "TAX-CORP"),
		tx("2025-02-01", "999", "TIME", "TAX-CORP"), // on cutoff, excluded
	}
	assert.True(t, NetBefore(txs, cutoff, "", testMappings).Equal(dec("70")))
	assert.True(t, NetBefore(txs, cutoff, "AUDIT", testMappings).IsZero())
}
