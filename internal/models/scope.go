package models

import "fmt"

// Role determines which ledger column an entity scope filters on.
type Role string

const (
	RolePartner Role = "partner"
	RoleManager Role = "manager"
)

// Scope is the resolved entity scope of the acting principal: partners see
// transactions they are the engagement partner on, managers those they
// manage. Resolution itself is an authorization concern outside this core;
// the scope is only carried into queries and cache keys.
type Scope struct {
	StaffID int64 `json:"staff_id"`
	Role    Role  `json:"role"`
}

// Key renders the scope for use inside cache keys.
func (s Scope) Key() string {
	return fmt.Sprintf("%s:%d", s.Role, s.StaffID)
}
