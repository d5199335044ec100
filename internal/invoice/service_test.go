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
	"testing"
	"time"

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

func (m *mockRepo) Insert(ctx context.Context, d scope.Decision, inv *Invoice) error {
	args := m.Called(ctx, d, inv)
	return args.Error(0)
}

func (m *mockRepo) FindOne(ctx context.Context, d scope.Decision, f scope.Filter) (*Invoice, error) {
	args := m.Called(ctx, d, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Invoice), args.Error(1)
}

func (m *mockRepo) FindAll(ctx context.Context, d scope.Decision, f scope.Filter, limit, offset int) ([]*Invoice, error) {
	args := m.Called(ctx, d, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Invoice), args.Error(1)
}

func (m *mockRepo) Count(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error) {
	args := m.Called(ctx, d, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) SumAmount(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error) {
	args := m.Called(ctx, d, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, d scope.Decision, f scope.Filter, u Update) (int64, error) {
	args := m.Called(ctx, d, f, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error) {
	args := m.Called(ctx, d, f)
	return args.Get(0).(int64), args.Error(1)
}

// fakeCache is an in-memory Cache for testing key hygiene without Redis.
type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]byte{}} }

func (c *fakeCache) key(ctx context.Context, ns, k string) (string, error) {
	tc, err := tenantctx.Current(ctx)
	if err != nil {
		return "", err
	}
	return "tenant_" + tc.TenantID() + ":" + ns + ":" + k, nil
}

func (c *fakeCache) Get(ctx context.Context, ns, k string) ([]byte, error) {
	key, err := c.key(ctx, ns, k)
	if err != nil {
		return nil, err
	}
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return nil, assert.AnError
}

func (c *fakeCache) Set(ctx context.Context, ns, k string, v []byte, _ time.Duration) error {
	key, err := c.key(ctx, ns, k)
	if err != nil {
		return err
	}
	c.entries[key] = v
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, ns, k string) error {
	key, err := c.key(ctx, ns, k)
	if err != nil {
		return err
	}
	delete(c.entries, key)
	return nil
}

func newService(repo Repository, c Cache) *Service {
	return NewService(repo, scope.NewInterceptor(audit.NewSlogLogger()), c)
}

func boundCtx(tenantID string) context.Context {
	return tenantctx.Bind(context.Background(), tenantctx.New(tenantID, "u-1", identity.RoleUser))
}

// TestPurpose: Validates that a created invoice is always persisted under the bound company, with the tenant id injected when omitted.
// Scope: Unit Test
// Security: Multi-tenant boundary enforcement at create time.
// Expected: Persisted CompanyID equals the bound tenant.
func TestInvoice_Create_InjectsBoundCompany(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(d scope.Decision) bool {
		return d.TenantID == "acme-co" && !d.Bypass
	}), mock.MatchedBy(func(inv *Invoice) bool {
		return inv.CompanyID == "acme-co" && inv.Number == "INV-001"
	})).Return(nil)

	svc := newService(repo, nil)
	inv, err := svc.Create(boundCtx("acme-co"), CreateInput{
		Number:       "INV-001",
		CustomerName: "Initech",
		AmountCents:  125_00,
	})
	require.NoError(t, err)
	assert.Equal(t, "acme-co", inv.CompanyID)
	assert.Equal(t, StatusDraft, inv.Status)
	repo.AssertExpectations(t)
}

// TestPurpose: Validates the create-time client contract: a payload naming a different company is rejected and nothing is persisted.
// Scope: Unit Test
// Security: TenantIdInjectionAttempt handling.
// Expected: Error containing "Tenant ID cannot be provided"; Insert never called.
func TestInvoice_Create_ForeignCompanyRejected(t *testing.T) {
	repo := new(mockRepo)
	svc := newService(repo, nil)

	_, err := svc.Create(boundCtx("acme-co"), CreateInput{
		CompanyID:    "globex-inc",
		Number:       "INV-001",
		CustomerName: "Initech",
	})
	require.ErrorIs(t, err, scope.ErrTenantIDProvided)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoice_Create_RequiresTenantContext(t *testing.T) {
	repo := new(mockRepo)
	svc := newService(repo, nil)

	_, err := svc.Create(context.Background(), CreateInput{Number: "INV-001", CustomerName: "Initech"})
	assert.ErrorIs(t, err, tenantctx.ErrMissingTenantContext)
}

func TestInvoice_List_FilterIsScoped(t *testing.T) {
	repo := new(mockRepo)
	repo.On("FindAll", mock.Anything, mock.Anything, mock.MatchedBy(func(f scope.Filter) bool {
		return f[scope.TenantField] == "acme-co" && f["status"] == StatusOpen
	}), 50, 0).Return([]*Invoice{}, nil)

	svc := newService(repo, nil)
	_, err := svc.List(boundCtx("acme-co"), StatusOpen, 0, 0)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// TestPurpose: Validates that a zero-row mutation surfaces as not-found, hiding whether the target exists under another tenant.
// Scope: Unit Test
// Security: CrossTenantAccessDenied is indistinguishable from absence.
// Expected: ErrInvoiceNotFound on zero affected rows.
func TestInvoice_Update_ZeroRowsIsNotFound(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	svc := newService(repo, nil)
	status := StatusPaid
	_, err := svc.Update(boundCtx("acme-co"), "someone-elses-invoice", Update{Status: &status})
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestInvoice_Delete_ZeroRowsIsNotFound(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	svc := newService(repo, nil)
	err := svc.Delete(boundCtx("acme-co"), "someone-elses-invoice")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

// TestPurpose: Validates the summary cache flow: computed once, cached under the tenant prefix, invalidated on write.
// Scope: Unit Test
// Security: Cached aggregates live under tenant_<id>: keys only.
// Expected: Second Summary call served from cache; Create drops the entry.
func TestInvoice_Summary_CachedPerTenant(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Count", mock.Anything, mock.Anything, mock.Anything).Return(int64(10), nil).Once()
	repo.On("SumAmount", mock.Anything, mock.Anything, mock.Anything).Return(int64(4200), nil).Once()

	c := newFakeCache()
	svc := newService(repo, c)
	ctx := boundCtx("acme-co")

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, sum.Count)
	assert.EqualValues(t, 4200, sum.OutstandingCents)
	assert.Contains(t, c.entries, "tenant_acme-co:dashboard:financial")

	// Served from cache: the mock would panic on a second Count call.
	sum2, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, sum, sum2)

	// A write invalidates the cached aggregate.
	repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	_, err = svc.Create(ctx, CreateInput{Number: "INV-002", CustomerName: "Initech"})
	require.NoError(t, err)
	assert.NotContains(t, c.entries, "tenant_acme-co:dashboard:financial")
}

func TestInvoice_Summary_TenantsDoNotShareCache(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Count", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	repo.On("SumAmount", mock.Anything, mock.Anything, mock.Anything).Return(int64(100), nil)

	c := newFakeCache()
	svc := newService(repo, c)

	_, err := svc.Summary(boundCtx("tenant-a"))
	require.NoError(t, err)
	_, err = svc.Summary(boundCtx("tenant-b"))
	require.NoError(t, err)

	assert.Contains(t, c.entries, "tenant_tenant-a:dashboard:financial")
	assert.Contains(t, c.entries, "tenant_tenant-b:dashboard:financial")
}

// TestPurpose: Validates that the cross-tenant listing only widens scope under a verified bypass and stays scoped otherwise.
// Scope: Unit Test
// Security: Bypass is the only unscoped path.
// Expected: Bypass context yields an unscoped filter; plain context keeps the tenant condition.
func TestInvoice_ListAllTenants_ScopeDependsOnBypass(t *testing.T) {
	t.Run("without bypass stays scoped", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("FindAll", mock.Anything, mock.MatchedBy(func(d scope.Decision) bool {
			return !d.Bypass
		}), mock.MatchedBy(func(f scope.Filter) bool {
			return f[scope.TenantField] == "acme-co"
		}), 100, 0).Return([]*Invoice{}, nil)

		svc := newService(repo, nil)
		_, err := svc.ListAllTenants(boundCtx("acme-co"), 0, 0)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("with bypass is unscoped", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("FindAll", mock.Anything, mock.MatchedBy(func(d scope.Decision) bool {
			return d.Bypass
		}), mock.MatchedBy(func(f scope.Filter) bool {
			_, scoped := f[scope.TenantField]
			return !scoped
		}), 100, 0).Return([]*Invoice{}, nil)

		svc := newService(repo, nil)
		tc := tenantctx.RequestBypass(tenantctx.New("acme-co", "admin-1", identity.RoleAdmin))
		ctx := tenantctx.Bind(context.Background(), tc)
		_, err := svc.ListAllTenants(ctx, 0, 0)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
