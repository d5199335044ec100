package invoice

import (
	"context"
	"errors"

	"github.com/ledgerline/ledgerline/internal/scope"
)

var (
	// ErrInvoiceNotFound covers both a genuinely absent invoice and one
	// owned by another company. Callers must not be able to tell the two
	// apart.
	ErrInvoiceNotFound = errors.New("invoice not found")

	ErrDuplicateNumber = errors.New("invoice number already in use")
)

// Repository defines the interface for invoice storage. Every method takes
// the scoping decision produced by the interceptor; implementations pin the
// database session to it so row-level security re-enforces the same
// boundary independently.
type Repository interface {
	Insert(ctx context.Context, d scope.Decision, inv *Invoice) error
	FindOne(ctx context.Context, d scope.Decision, f scope.Filter) (*Invoice, error)
	FindAll(ctx context.Context, d scope.Decision, f scope.Filter, limit, offset int) ([]*Invoice, error)
	Count(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error)
	SumAmount(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error)
	Update(ctx context.Context, d scope.Decision, f scope.Filter, u Update) (int64, error)
	Delete(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error)
}
