package invoice

import (
	"time"
)

// Invoice is a tenant-scoped resource: every row belongs to exactly one
// company, and the company is immutable after creation.
type Invoice struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"company_id"`
	Number       string     `json:"number"`
	CustomerName string     `json:"customer_name"`
	AmountCents  int64      `json:"amount_cents"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	IssuedAt     *time.Time `json:"issued_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Status constants
const (
	StatusDraft = "draft"
	StatusOpen  = "open"
	StatusPaid  = "paid"
	StatusVoid  = "void"
)

// ValidStatus reports whether s is a known invoice status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusOpen, StatusPaid, StatusVoid:
		return true
	}
	return false
}

// Update carries a partial update; nil fields are left unchanged. The
// company id is deliberately absent: it cannot be changed.
type Update struct {
	CustomerName *string
	AmountCents  *int64
	Status       *string
}

// Summary is the cached per-tenant dashboard aggregate.
type Summary struct {
	Count            int64 `json:"count"`
	OutstandingCents int64 `json:"outstanding_cents"`
}
