// Package ledger implements the aggregation core: categorization, opening
// balances, period bucketing, running balances, trailing lockup ratios and
// chart downsampling. Everything here is pure computation over immutable
// transaction rows; all I/O lives in the repository and service layers.
package ledger

import (
	"strings"

	"github.com/hgpartners/ledger-analytics/internal/models"
)

// typeCodes maps a raw ledger type code to its category. Codes absent from
// this table are excluded from every bucket; the caller is expected to count
// them as a data-quality signal rather than fail the request.
var typeCodes = map[string]models.Category{
	"TIME": models.CategoryTime,
	"TCH":  models.CategoryTime,
	"ADJ":  models.CategoryAdjustment,
	"WOFF": models.CategoryAdjustment,
	"WON":  models.CategoryAdjustment,
	"DISB": models.CategoryDisbursement,
	"EXP":  models.CategoryDisbursement,
	"FEE":  models.CategoryFee,
	"INV":  models.CategoryFee,
	"CN":   models.CategoryFee,
	"PROV": models.CategoryProvision,
}

// journalSubCodes disambiguates the shared JNL journal code by its sub-type.
var journalSubCodes = map[string]models.Category{
	"WIP":  models.CategoryAdjustment,
	"BILL": models.CategoryFee,
	"PROV": models.CategoryProvision,
}

// Categorize maps a raw type code (plus optional sub-type) to a ledger
// category. The mapping is total and deterministic: the same input always
// yields the same result, so totals agree across every report variant built
// on top of it. The second return is false when the code is unrecognized.
func Categorize(typeCode, subTypeCode string) (models.Category, bool) {
	code := strings.ToUpper(strings.TrimSpace(typeCode))
	if code == "JNL" {
		c, ok := journalSubCodes[strings.ToUpper(strings.TrimSpace(subTypeCode))]
		return c, ok
	}
	c, ok := typeCodes[code]
	return c, ok
}

// CategorizeTransaction is a convenience wrapper over Categorize.
func CategorizeTransaction(tx models.Transaction) (models.Category, bool) {
	return Categorize(tx.TypeCode, tx.SubTypeCode)
}
