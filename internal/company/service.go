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

package company

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/audit"
	"github.com/ledgerline/ledgerline/internal/identity"
	"github.com/ledgerline/ledgerline/internal/scope"
	"github.com/ledgerline/ledgerline/internal/tenantctx"
)

// Service provides company registry and membership business logic.
type Service struct {
	repo           Repository
	membershipRepo MembershipRepository
	interceptor    *scope.Interceptor
	auditLogger    audit.Logger
}

// NewService creates a new company service
func NewService(repo Repository, membershipRepo MembershipRepository, interceptor *scope.Interceptor, auditLogger audit.Logger) *Service {
	return &Service{
		repo:           repo,
		membershipRepo: membershipRepo,
		interceptor:    interceptor,
		auditLogger:    auditLogger,
	}
}

// CreateCompany registers a new company. This runs before any tenant scope
// exists for the company, so it operates on the registry, not on scoped
// rows.
func (s *Service) CreateCompany(ctx context.Context, name string) (*Company, error) {
	if name == "" {
		return nil, fmt.Errorf("company name is required")
	}

	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return nil, fmt.Errorf("company with name %s already exists", name)
	}

	now := time.Now()
	c := &Company{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	return c, nil
}

// GetCompany retrieves a company by ID
func (s *Service) GetCompany(ctx context.Context, id string) (*Company, error) {
	return s.repo.GetByID(ctx, id)
}

// ListCompanyIDs lists every registered company id, for per-tenant batch
// iteration.
func (s *Service) ListCompanyIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListIDs(ctx)
}

// AddMember grants a user a role in the bound company. The membership row
// is created under the bound tenant scope; the caller cannot attach a user
// to a foreign company.
func (s *Service) AddMember(ctx context.Context, userID string, role identity.Role) (*Membership, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	decision, err := s.interceptor.ScopeCreate(ctx, "memberships", "")
	if err != nil {
		return nil, err
	}

	tc, err := tenantctx.Current(ctx)
	if err != nil {
		return nil, err
	}

	m := &Membership{
		ID:        uuid.NewString(),
		CompanyID: decision.TenantID,
		UserID:    userID,
		Role:      string(role),
		GrantedAt: time.Now(),
		GrantedBy: tc.UserID(),
	}

	if err := s.membershipRepo.Add(ctx, decision, m); err != nil {
		return nil, err
	}

	if err := s.auditLogger.Log(ctx, audit.Event{
		Actor:    tc.UserID(),
		Action:   audit.ActionQuery,
		TenantID: decision.TenantID,
		Resource: "memberships",
		Detail:   map[string]any{"operation": "add_member", "user_id": userID, "role": string(role)},
	}); err != nil {
		return nil, fmt.Errorf("failed to audit membership grant: %w", err)
	}

	return m, nil
}

// RemoveMember revokes a user's membership in the bound company. A user who
// belongs to a different company matches zero rows and surfaces as
// not-found.
func (s *Service) RemoveMember(ctx context.Context, userID string) error {
	f, decision, err := s.interceptor.ScopeMutation(ctx, "memberships", "delete", scope.Filter{"user_id": userID})
	if err != nil {
		return err
	}

	affected, err := s.membershipRepo.Remove(ctx, decision, f)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMembershipNotFound
	}

	tc, _ := tenantctx.Current(ctx)
	_ = s.auditLogger.Log(ctx, audit.Event{
		Actor:    tc.UserID(),
		Action:   audit.ActionQuery,
		TenantID: decision.TenantID,
		Resource: "memberships",
		Detail:   map[string]any{"operation": "remove_member", "user_id": userID},
	})
	return nil
}

// ListMembers lists the bound company's memberships.
func (s *Service) ListMembers(ctx context.Context) ([]*Membership, error) {
	f, decision, err := s.interceptor.ScopeRead(ctx, "memberships", nil)
	if err != nil {
		return nil, err
	}
	return s.membershipRepo.Find(ctx, decision, f)
}
