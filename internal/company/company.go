package company

import (
	"time"
)

// Company is the unit of data isolation: one customer organization.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Membership links a user to a company with a role. Memberships are
// tenant-scoped rows: each belongs to exactly one company.
type Membership struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	GrantedAt time.Time `json:"granted_at"`
	GrantedBy string    `json:"granted_by"`
}
