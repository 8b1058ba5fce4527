package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single read-only ledger row. Amounts carry the
// sign convention of the ledger: billing rows are positive and are subtracted
// from the running balance during aggregation, not negated at the source.
type Transaction struct {
	ID          int64           `json:"id"`
	EntityID    int64           `json:"entity_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	TypeCode    string          `json:"type_code"`
	SubTypeCode string          `json:"sub_type_code"`
	ServiceLine string          `json:"service_line"`
}

// Category is the exhaustive ledger category set. A transaction whose type
// code matches none of these is excluded from every bucket.
type Category int

const (
	CategoryTime Category = iota
	CategoryAdjustment
	CategoryDisbursement
	CategoryFee
	CategoryProvision
)

// String returns the category name used in logs and telemetry.
func (c Category) String() string {
	switch c {
	case CategoryTime:
		return "time"
	case CategoryAdjustment:
		return "adjustment"
	case CategoryDisbursement:
		return "disbursement"
	case CategoryFee:
		return "fee"
	case CategoryProvision:
		return "provision"
	}
	return "unknown"
}

// CategorySums holds one signed total per ledger category.
type CategorySums struct {
	Production    decimal.Decimal `json:"production"`
	Adjustments   decimal.Decimal `json:"adjustments"`
	Disbursements decimal.Decimal `json:"disbursements"`
	Billing       decimal.Decimal `json:"billing"`
	Provisions    decimal.Decimal `json:"provisions"`
}

// Add accumulates an amount into the bucket for the given category.
func (s *CategorySums) Add(c Category, amount decimal.Decimal) {
	switch c {
	case CategoryTime:
		s.Production = s.Production.Add(amount)
	case CategoryAdjustment:
		s.Adjustments = s.Adjustments.Add(amount)
	case CategoryDisbursement:
		s.Disbursements = s.Disbursements.Add(amount)
	case CategoryFee:
		s.Billing = s.Billing.Add(amount)
	case CategoryProvision:
		s.Provisions = s.Provisions.Add(amount)
	}
}

// Merge adds every bucket of other into s.
func (s *CategorySums) Merge(other CategorySums) {
	s.Production = s.Production.Add(other.Production)
	s.Adjustments = s.Adjustments.Add(other.Adjustments)
	s.Disbursements = s.Disbursements.Add(other.Disbursements)
	s.Billing = s.Billing.Add(other.Billing)
	s.Provisions = s.Provisions.Add(other.Provisions)
}

// Net returns the WIP movement for the period: everything that builds the
// balance minus what has been billed out.
func (s CategorySums) Net() decimal.Decimal {
	return s.Production.
		Add(s.Adjustments).
		Add(s.Disbursements).
		Add(s.Provisions).
		Sub(s.Billing)
}

// IsZero reports whether every bucket is zero.
func (s CategorySums) IsZero() bool {
	return s.Production.IsZero() &&
		s.Adjustments.IsZero() &&
		s.Disbursements.IsZero() &&
		s.Billing.IsZero() &&
		s.Provisions.IsZero()
}

// PartitionMapping maps a raw service-line code to its master service line.
// The mapping table lives outside this core and may be incomplete.
type PartitionMapping struct {
	ServiceLine string `json:"service_line"`
	MasterCode  string `json:"master_code"`
	DisplayName string `json:"display_name"`
}

// UnknownPartition is the literal partition that collects transactions whose
// service-line code has no mapping row. Contrast with uncategorized type
// codes, which are dropped entirely.
const UnknownPartition = "UNKNOWN"
