package company

import (
	"context"
	"errors"

	"github.com/ledgerline/ledgerline/internal/scope"
)

var (
	ErrCompanyNotFound    = errors.New("company not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipExists   = errors.New("membership already exists")
)

// Repository defines the interface for the company registry. Companies are
// the tenant registry itself, not a scoped resource; listing ids feeds
// per-tenant batch jobs.
type Repository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id string) (*Company, error)
	GetByName(ctx context.Context, name string) (*Company, error)
	List(ctx context.Context, limit, offset int) ([]*Company, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// MembershipRepository defines the interface for membership storage.
// Memberships are tenant-scoped and go through the scoping decision like
// any other scoped resource.
type MembershipRepository interface {
	Add(ctx context.Context, d scope.Decision, m *Membership) error
	Remove(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error)
	Find(ctx context.Context, d scope.Decision, f scope.Filter) ([]*Membership, error)
}
