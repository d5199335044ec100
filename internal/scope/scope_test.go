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

package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/ledgerline/ledgerline/internal/audit"
	"github.com/ledgerline/ledgerline/internal/identity"
	"github.com/ledgerline/ledgerline/internal/tenantctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockAudit implements audit.Logger for testing
type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func userCtx(tenantID string) context.Context {
	return tenantctx.Bind(context.Background(), tenantctx.New(tenantID, "u-1", identity.RoleUser))
}

func bypassCtx(tenantID string) context.Context {
	tc := tenantctx.RequestBypass(tenantctx.New(tenantID, "admin-1", identity.RoleAdmin))
	return tenantctx.Bind(context.Background(), tc)
}

// TestPurpose: Validates that reads issued under a bound tenant always carry the authoritative tenant condition.
// Scope: Unit Test
// Security: Multi-tenant boundary enforcement
// Expected: The merged filter contains company_id = bound tenant; caller conditions are preserved.
func TestScope_Read_InjectsTenantFilter(t *testing.T) {
	auditLogger := new(mockAudit)
	i := NewInterceptor(auditLogger)

	f, decision, err := i.ScopeRead(userCtx("acme-co"), "invoices", Filter{"status": "open"})
	require.NoError(t, err)
	assert.Equal(t, "acme-co", f[TenantField])
	assert.Equal(t, "open", f["status"])
	assert.Equal(t, "acme-co", decision.TenantID)
	assert.False(t, decision.Bypass)
}

func TestScope_Read_NilFilterStillScoped(t *testing.T) {
	i := NewInterceptor(new(mockAudit))

	f, _, err := i.ScopeRead(userCtx("acme-co"), "invoices", nil)
	require.NoError(t, err)
	assert.Equal(t, "acme-co", f[TenantField])
}

// TestPurpose: Validates that a caller-supplied tenant condition is rejected, under any spelling, and the denial is audited.
// Scope: Unit Test
// Security: Prevents a careless or compromised call site from opting itself out of scoping.
// Expected: ErrTenantFieldForbidden and one DENY audit event per attempt.
func TestScope_Read_CallerTenantFieldRejected(t *testing.T) {
	for _, field := range []string{"company_id", "companyId", "tenant_id", "tenantId"} {
		t.Run(field, func(t *testing.T) {
			auditLogger := new(mockAudit)
			auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
				return e.Action == audit.ActionDeny
			})).Return(nil).Once()
			i := NewInterceptor(auditLogger)

			_, _, err := i.ScopeRead(userCtx("acme-co"), "invoices", Filter{field: "other-co"})
			assert.ErrorIs(t, err, ErrTenantFieldForbidden)
			auditLogger.AssertExpectations(t)
		})
	}
}

func TestScope_Read_MissingContextFailsFast(t *testing.T) {
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return(nil)
	i := NewInterceptor(auditLogger)

	_, _, err := i.ScopeRead(context.Background(), "invoices", nil)
	assert.ErrorIs(t, err, tenantctx.ErrMissingTenantContext)
}

// TestPurpose: Validates that a granted admin bypass omits the tenant filter and records a BYPASS event before returning.
// Scope: Unit Test
// Security: Cross-tenant visibility is only ever granted audited.
// Expected: Unscoped filter, Decision.Bypass true, exactly one BYPASS audit event.
func TestScope_Read_AdminBypass_AuditedAndUnscoped(t *testing.T) {
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
		return e.Action == audit.ActionBypass && e.Actor == "admin-1" && e.TenantID == "acme-co"
	})).Return(nil).Once()
	i := NewInterceptor(auditLogger)

	f, decision, err := i.ScopeRead(bypassCtx("acme-co"), "invoices", Filter{"status": "open"})
	require.NoError(t, err)
	_, scoped := f[TenantField]
	assert.False(t, scoped, "bypass must omit the tenant filter")
	assert.True(t, decision.Bypass)
	auditLogger.AssertExpectations(t)
}

// TestPurpose: Validates that a failed audit write aborts the bypassed operation rather than proceeding unrecorded.
// Scope: Unit Test
// Security: BypassAuditFailure is fatal.
// Expected: ErrBypassAuditFailed; no filter returned.
func TestScope_Read_BypassAuditFailure_Aborts(t *testing.T) {
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return(errors.New("audit store down"))
	i := NewInterceptor(auditLogger)

	f, _, err := i.ScopeRead(bypassCtx("acme-co"), "invoices", nil)
	assert.ErrorIs(t, err, ErrBypassAuditFailed)
	assert.Nil(t, f)
}

func TestScope_Mutation_InjectsTenantFilter(t *testing.T) {
	i := NewInterceptor(new(mockAudit))

	f, _, err := i.ScopeMutation(userCtx("acme-co"), "invoices", "delete", Filter{"id": "inv-1"})
	require.NoError(t, err)
	assert.Equal(t, "acme-co", f[TenantField])
	assert.Equal(t, "inv-1", f["id"])
}

// TestPurpose: Validates create-time tenant resolution: omitted ids are injected, mismatched ids are rejected with the client-contract message.
// Scope: Unit Test
// Security: Persisted rows always belong to the bound tenant.
// Expected: Omitted id resolves to bound tenant; mismatch yields ErrTenantIDProvided and a DENY event; matching id passes.
func TestScope_Create_TenantResolution(t *testing.T) {
	t.Run("omitted id is injected", func(t *testing.T) {
		i := NewInterceptor(new(mockAudit))
		decision, err := i.ScopeCreate(userCtx("acme-co"), "invoices", "")
		require.NoError(t, err)
		assert.Equal(t, "acme-co", decision.TenantID)
	})

	t.Run("mismatched id rejected", func(t *testing.T) {
		auditLogger := new(mockAudit)
		auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
			return e.Action == audit.ActionDeny
		})).Return(nil).Once()
		i := NewInterceptor(auditLogger)

		_, err := i.ScopeCreate(userCtx("acme-co"), "invoices", "globex-inc")
		assert.ErrorIs(t, err, ErrTenantIDProvided)
		assert.Contains(t, err.Error(), "Tenant ID cannot be provided")
		auditLogger.AssertExpectations(t)
	})

	t.Run("matching id accepted", func(t *testing.T) {
		i := NewInterceptor(new(mockAudit))
		decision, err := i.ScopeCreate(userCtx("acme-co"), "invoices", "acme-co")
		require.NoError(t, err)
		assert.Equal(t, "acme-co", decision.TenantID)
	})
}

func TestScope_Create_MissingContextFailsFast(t *testing.T) {
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return(nil)
	i := NewInterceptor(auditLogger)

	_, err := i.ScopeCreate(context.Background(), "invoices", "")
	assert.ErrorIs(t, err, tenantctx.ErrMissingTenantContext)
}

func TestScope_Read_DoesNotMutateCallerFilter(t *testing.T) {
	i := NewInterceptor(new(mockAudit))
	caller := Filter{"status": "open"}

	_, _, err := i.ScopeRead(userCtx("acme-co"), "invoices", caller)
	require.NoError(t, err)
	_, present := caller[TenantField]
	assert.False(t, present, "caller's filter must not be mutated")
}
