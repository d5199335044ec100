// Copyright 2026 The Ledgerline Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/scope"
)

const (
	cacheNamespace  = "dashboard"
	summaryCacheKey = "financial"
	summaryCacheTTL = 5 * time.Minute
)

// Cache is the subset of the tenant-scoped cache the service needs.
type Cache interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
}

// Service provides invoice business logic. All storage access flows through
// the scoping interceptor, so no method can read or touch another company's
// rows without a verified, audited bypass.
type Service struct {
	repo        Repository
	interceptor *scope.Interceptor
	cache       Cache
}

// NewService creates a new invoice service. cache may be nil.
func NewService(repo Repository, interceptor *scope.Interceptor, c Cache) *Service {
	return &Service{
		repo:        repo,
		interceptor: interceptor,
		cache:       c,
	}
}

// CreateInput carries the client payload for invoice creation. CompanyID is
// normally empty; a non-empty value that differs from the bound tenant is a
// client error.
type CreateInput struct {
	CompanyID    string `json:"company_id"`
	Number       string `json:"number"`
	CustomerName string `json:"customer_name"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Create persists a new invoice under the bound company.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
	if in.Number == "" {
		return nil, fmt.Errorf("invoice number is required")
	}
	if in.CustomerName == "" {
		return nil, fmt.Errorf("customer name is required")
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if !ValidStatus(in.Status) {
		return nil, fmt.Errorf("invalid status: %s", in.Status)
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}

	decision, err := s.interceptor.ScopeCreate(ctx, "invoices", in.CompanyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inv := &Invoice{
		ID:           uuid.NewString(),
		CompanyID:    decision.TenantID,
		Number:       in.Number,
		CustomerName: in.CustomerName,
		AmountCents:  in.AmountCents,
		Currency:     in.Currency,
		Status:       in.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, decision, inv); err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx)
	return inv, nil
}

// Get retrieves one invoice. A cross-tenant id resolves to
// ErrInvoiceNotFound, indistinguishable from a nonexistent one.
func (s *Service) Get(ctx context.Context, id string) (*Invoice, error) {
	f, decision, err := s.interceptor.ScopeRead(ctx, "invoices", scope.Filter{"id": id})
	if err != nil {
		return nil, err
	}
	return s.repo.FindOne(ctx, decision, f)
}

// List returns the bound company's invoices, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Invoice, error) {
	caller := scope.Filter{}
	if status != "" {
		if !ValidStatus(status) {
			return nil, fmt.Errorf("invalid status: %s", status)
		}
		caller["status"] = status
	}

	f, decision, err := s.interceptor.ScopeRead(ctx, "invoices", caller)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.FindAll(ctx, decision, f, limit, offset)
}

// Count returns the number of the bound company's invoices.
func (s *Service) Count(ctx context.Context) (int64, error) {
	f, decision, err := s.interceptor.ScopeRead(ctx, "invoices", nil)
	if err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, decision, f)
}

// Update applies a partial update to one invoice of the bound company. A
// target owned by another company matches zero rows and surfaces as
// not-found.
func (s *Service) Update(ctx context.Context, id string, u Update) (*Invoice, error) {
	if u.Status != nil && !ValidStatus(*u.Status) {
		return nil, fmt.Errorf("invalid status: %s", *u.Status)
	}

	f, decision, err := s.interceptor.ScopeMutation(ctx, "invoices", "update", scope.Filter{"id": id})
	if err != nil {
		return nil, err
	}

	affected, err := s.repo.Update(ctx, decision, f, u)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvoiceNotFound
	}

	s.invalidateSummary(ctx)
	return s.Get(ctx, id)
}

// Delete removes one invoice of the bound company.
func (s *Service) Delete(ctx context.Context, id string) error {
	f, decision, err := s.interceptor.ScopeMutation(ctx, "invoices", "delete", scope.Filter{"id": id})
	if err != nil {
		return err
	}

	affected, err := s.repo.Delete(ctx, decision, f)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvoiceNotFound
	}

	s.invalidateSummary(ctx)
	return nil
}

// Summary returns the bound company's dashboard aggregate, cached under the
// tenant-scoped key tenant_<id>:dashboard:financial.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheNamespace, summaryCacheKey); err == nil {
			var sum Summary
			if err := json.Unmarshal(raw, &sum); err == nil {
				return &sum, nil
			}
		}
	}

	f, decision, err := s.interceptor.ScopeRead(ctx, "invoices", nil)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.Count(ctx, decision, f)
	if err != nil {
		return nil, err
	}

	outstandingFilter, decision, err := s.interceptor.ScopeRead(ctx, "invoices", scope.Filter{"status": StatusOpen})
	if err != nil {
		return nil, err
	}
	outstanding, err := s.repo.SumAmount(ctx, decision, outstandingFilter)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Count: count, OutstandingCents: outstanding}
	if s.cache != nil {
		if raw, err := json.Marshal(sum); err == nil {
			if err := s.cache.Set(ctx, cacheNamespace, summaryCacheKey, raw, summaryCacheTTL); err != nil {
				slog.WarnContext(ctx, "failed to cache invoice summary", slog.String("error", err.Error()))
			}
		}
	}
	return sum, nil
}

// ListAllTenants is the admin cross-tenant listing. It only widens scope if
// the bound context actually carries a verified bypass; for everyone else it
// behaves exactly like List.
func (s *Service) ListAllTenants(ctx context.Context, limit, offset int) ([]*Invoice, error) {
	f, decision, err := s.interceptor.ScopeRead(ctx, "invoices", nil)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.FindAll(ctx, decision, f, limit, offset)
}

// invalidateSummary drops the cached aggregate after a write. Cache misses
// repopulate on the next Summary call, so failures are logged, not fatal.
func (s *Service) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheNamespace, summaryCacheKey); err != nil {
		slog.WarnContext(ctx, "failed to invalidate invoice summary cache", slog.String("error", err.Error()))
	}
}
