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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/audit"
	"github.com/ledgerline/ledgerline/internal/identity"
	"github.com/ledgerline/ledgerline/internal/scope"
	"github.com/ledgerline/ledgerline/internal/tenantctx"
)

// mockRepo implements Repository for testing
type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, c *Company) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Company), args.Error(1)
}

func (m *mockRepo) GetByName(ctx context.Context, name string) (*Company, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Company), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]*Company, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Company), args.Error(1)
}

func (m *mockRepo) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// mockMembershipRepo implements MembershipRepository for testing
type mockMembershipRepo struct {
	mock.Mock
}

func (m *mockMembershipRepo) Add(ctx context.Context, d scope.Decision, mem *Membership) error {
	args := m.Called(ctx, d, mem)
	return args.Error(0)
}

func (m *mockMembershipRepo) Remove(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error) {
	args := m.Called(ctx, d, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMembershipRepo) Find(ctx context.Context, d scope.Decision, f scope.Filter) ([]*Membership, error) {
	args := m.Called(ctx, d, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Membership), args.Error(1)
}

// mockAudit implements audit.Logger for testing
type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func adminCtx(tenantID string) context.Context {
	return tenantctx.Bind(context.Background(), tenantctx.New(tenantID, "admin-1", identity.RoleAdmin))
}

// TestPurpose: Validates that a membership grant lands under the bound company and is audited.
// Scope: Unit Test
// Security: Memberships are scoped rows; grants always audited.
// Expected: Membership.CompanyID equals bound tenant; one audit event.
func TestCompany_AddMember_ScopedAndAudited(t *testing.T) {
	repo := new(mockRepo)
	memberRepo := new(mockMembershipRepo)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
		return e.TenantID == "acme-co" && e.Resource == "memberships"
	})).Return(nil).Once()

	memberRepo.On("Add", mock.Anything, mock.MatchedBy(func(d scope.Decision) bool {
		return d.TenantID == "acme-co"
	}), mock.MatchedBy(func(m *Membership) bool {
		return m.CompanyID == "acme-co" && m.UserID == "u-2" && m.Role == string(identity.RoleUser)
	})).Return(nil)

	service := NewService(repo, memberRepo, scope.NewInterceptor(auditLogger), auditLogger)
	m, err := service.AddMember(adminCtx("acme-co"), "u-2", identity.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "acme-co", m.CompanyID)
	assert.Equal(t, "admin-1", m.GrantedBy)
	memberRepo.AssertExpectations(t)
	auditLogger.AssertExpectations(t)
}

func TestCompany_AddMember_InvalidRoleRejected(t *testing.T) {
	service := NewService(new(mockRepo), new(mockMembershipRepo), scope.NewInterceptor(new(mockAudit)), new(mockAudit))

	_, err := service.AddMember(adminCtx("acme-co"), "u-2", identity.Role("super_admin"))
	assert.Error(t, err)
}

func TestCompany_AddMember_RequiresTenantContext(t *testing.T) {
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return(nil)
	service := NewService(new(mockRepo), new(mockMembershipRepo), scope.NewInterceptor(auditLogger), auditLogger)

	_, err := service.AddMember(context.Background(), "u-2", identity.RoleUser)
	assert.ErrorIs(t, err, tenantctx.ErrMissingTenantContext)
}

// TestPurpose: Validates that removing a user who belongs to another company affects zero rows and surfaces as not-found.
// Scope: Unit Test
// Security: Cross-tenant mutation is indistinguishable from absence.
// Expected: ErrMembershipNotFound.
func TestCompany_RemoveMember_CrossTenantIsNotFound(t *testing.T) {
	memberRepo := new(mockMembershipRepo)
	memberRepo.On("Remove", mock.Anything, mock.Anything, mock.MatchedBy(func(f scope.Filter) bool {
		return f[scope.TenantField] == "acme-co" && f["user_id"] == "foreign-user"
	})).Return(int64(0), nil)

	auditLogger := new(mockAudit)
	service := NewService(new(mockRepo), memberRepo, scope.NewInterceptor(auditLogger), auditLogger)

	err := service.RemoveMember(adminCtx("acme-co"), "foreign-user")
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestCompany_CreateCompany_RequiresName(t *testing.T) {
	service := NewService(new(mockRepo), new(mockMembershipRepo), scope.NewInterceptor(new(mockAudit)), new(mockAudit))

	_, err := service.CreateCompany(context.Background(), "")
	assert.Error(t, err)
}
