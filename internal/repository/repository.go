package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hgpartners/ledger-analytics/internal/models"
)

// ErrScopeNotFound indicates the principal has no active staff record and
// therefore no resolvable entity scope.
var ErrScopeNotFound = errors.New("no staff record for principal")

// Repository provides read-only database operations against the ledger store
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ping verifies database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ResolveScope looks up the acting principal's staff record and returns the
// filter scope derived from their role.
func (r *Repository) ResolveScope(ctx context.Context, staffID int64) (models.Scope, error) {
	var role string
	query := `
		SELECT role
		FROM ledger.staff
		WHERE id = $1 AND active`
	err := r.db.QueryRowContext(ctx, query, staffID).Scan(&role)
	if err == sql.ErrNoRows {
		return models.Scope{}, ErrScopeNotFound
	}
	if err != nil {
		return models.Scope{}, fmt.Errorf("failed to resolve scope: %w", err)
	}
	switch role {
	case string(models.RolePartner), string(models.RoleManager):
		return models.Scope{StaffID: staffID, Role: models.Role(role)}, nil
	default:
		return models.Scope{}, ErrScopeNotFound
	}
}

// scopeColumn maps a role to the transaction column it filters on. The
// column names are fixed, never caller input.
func scopeColumn(scope models.Scope) string {
	if scope.Role == models.RoleManager {
		return "manager_id"
	}
	return "partner_id"
}

// ListTransactions returns all transactions inside [from, to] visible to the
// scope, ordered by date.
func (r *Repository) ListTransactions(ctx context.Context, scope models.Scope, from, to time.Time) ([]models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT id, entity_id, tx_date, amount, type_code, COALESCE(sub_type_code, ''), COALESCE(service_line, '')
		FROM ledger.transactions
		WHERE %s = $1 AND tx_date >= $2 AND tx_date <= $3
		ORDER BY tx_date`, scopeColumn(scope))
	rows, err := r.db.QueryContext(ctx, query, scope.StaffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.EntityID, &tx.Date, &tx.Amount, &tx.TypeCode, &tx.SubTypeCode, &tx.ServiceLine); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return txs, nil
}

// StreamTransactionsBefore feeds every transaction dated strictly before the
// cutoff to fn, one row at a time off the cursor. Opening-balance history can
// be large, so it is folded in a single pass instead of materialized.
func (r *Repository) StreamTransactionsBefore(ctx context.Context, scope models.Scope, before time.Time, fn func(models.Transaction)) error {
	query := fmt.Sprintf(`
		SELECT id, entity_id, tx_date, amount, type_code, COALESCE(sub_type_code, ''), COALESCE(service_line, '')
		FROM ledger.transactions
		WHERE %s = $1 AND tx_date < $2`, scopeColumn(scope))
	rows, err := r.db.QueryContext(ctx, query, scope.StaffID, before)
	if err != nil {
		return fmt.Errorf("failed to query opening transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.EntityID, &tx.Date, &tx.Amount, &tx.TypeCode, &tx.SubTypeCode, &tx.ServiceLine); err != nil {
			return fmt.Errorf("failed to scan opening transaction: %w", err)
		}
		fn(tx)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read opening transactions: %w", err)
	}
	return nil
}

// ListPartitionMappings returns the service-line to master-service-line
// lookup keyed by raw service-line code. The table may be incomplete;
// unmapped codes surface as the UNKNOWN partition downstream.
func (r *Repository) ListPartitionMappings(ctx context.Context) (map[string]models.PartitionMapping, error) {
	query := `
		SELECT service_line, master_code, display_name
		FROM ledger.service_line_mappings`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list partition mappings: %w", err)
	}
	defer rows.Close()

	mappings := make(map[string]models.PartitionMapping)
	for rows.Next() {
		var m models.PartitionMapping
		if err := rows.Scan(&m.ServiceLine, &m.MasterCode, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan partition mapping: %w", err)
		}
		mappings[m.ServiceLine] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read partition mappings: %w", err)
	}
	return mappings, nil
}
