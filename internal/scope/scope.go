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

// Package scope intercepts every data-access call on a tenant-scoped
// resource and injects the authoritative tenant filter from the bound
// tenantctx before the call reaches storage. Callers can never widen their
// own scope: a caller-supplied tenant field is rejected outright, and the
// only unscoped path is a verified, audited admin bypass.
package scope

import (
	"context"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/audit"
	"github.com/ledgerline/ledgerline/internal/identity"
	"github.com/ledgerline/ledgerline/internal/tenantctx"
)

// TenantField is the column every scoped resource carries.
const TenantField = "company_id"

// tenantAliases are the spellings a caller-supplied filter or payload could
// use to smuggle in a tenant override. All of them are forbidden as input.
var tenantAliases = []string{"company_id", "companyId", "tenant_id", "tenantId"}

// Filter is a caller-supplied set of field conditions, merged with the
// authoritative tenant condition by the interceptor.
type Filter map[string]any

func (f Filter) clone() Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	return out
}

// tenantField returns the first forbidden tenant spelling present in f.
func (f Filter) tenantField() (string, bool) {
	for _, alias := range tenantAliases {
		if _, ok := f[alias]; ok {
			return alias, true
		}
	}
	return "", false
}

// Decision is the outcome of scoping one operation. Storage helpers use
// TenantID to pin the database session variable; Bypass widens visibility
// only when produced through the audited admin path.
type Decision struct {
	TenantID string
	Actor    string
	Bypass   bool
}

// Interceptor validates and rewrites data-access calls against the bound
// tenant context. One instance is shared by all repositories.
type Interceptor struct {
	auditLogger audit.Logger
}

// NewInterceptor creates a new scoping interceptor.
func NewInterceptor(auditLogger audit.Logger) *Interceptor {
	return &Interceptor{auditLogger: auditLogger}
}

// ScopeRead prepares a read, count, or aggregate over a scoped resource.
// The returned filter carries the authoritative tenant condition unless a
// verified bypass was granted, in which case it is returned untouched and a
// bypass event has already been durably recorded.
func (i *Interceptor) ScopeRead(ctx context.Context, resource string, f Filter) (Filter, Decision, error) {
	return i.scoped(ctx, resource, "read", f)
}

// ScopeMutation prepares an update or delete. The tenant condition is merged
// into the target filter, so a row owned by another tenant simply matches
// zero rows; repositories surface that as their not-found error, never as
// a 403.
func (i *Interceptor) ScopeMutation(ctx context.Context, resource, op string, f Filter) (Filter, Decision, error) {
	return i.scoped(ctx, resource, op, f)
}

func (i *Interceptor) scoped(ctx context.Context, resource, op string, f Filter) (Filter, Decision, error) {
	tc, err := tenantctx.Current(ctx)
	if err != nil {
		i.deny(ctx, audit.Event{
			Action:   audit.ActionDeny,
			Resource: resource,
			Detail:   map[string]any{"operation": op, "reason": "missing tenant context"},
		})
		return nil, Decision{}, err
	}

	if field, found := f.tenantField(); found {
		i.deny(ctx, audit.Event{
			Actor:    tc.UserID(),
			Action:   audit.ActionDeny,
			TenantID: tc.TenantID(),
			Resource: resource,
			Detail:   map[string]any{"operation": op, "reason": "tenant field in caller filter", "field": field},
		})
		return nil, Decision{}, ErrTenantFieldForbidden
	}

	decision := Decision{TenantID: tc.TenantID(), Actor: tc.UserID()}

	if tc.BypassGranted() && tc.Role() == identity.RoleAdmin {
		// The bypass event must be durably recorded before the unscoped
		// query may run. An audit failure aborts the operation.
		event := audit.Event{
			Actor:    tc.UserID(),
			Action:   audit.ActionBypass,
			TenantID: tc.TenantID(),
			Resource: resource,
			Detail:   map[string]any{"operation": op},
		}
		if err := i.auditLogger.Log(ctx, event); err != nil {
			return nil, Decision{}, fmt.Errorf("%w: %w", ErrBypassAuditFailed, err)
		}
		decision.Bypass = true
		return f.clone(), decision, nil
	}

	merged := f.clone()
	merged[TenantField] = tc.TenantID()
	return merged, decision, nil
}

// ScopeCreate resolves the tenant id a new scoped row must be persisted
// under. A caller-supplied tenant id that differs from the bound scope is a
// client error; an omitted one is filled in from the bound scope.
func (i *Interceptor) ScopeCreate(ctx context.Context, resource, suppliedTenantID string) (Decision, error) {
	tc, err := tenantctx.Current(ctx)
	if err != nil {
		i.deny(ctx, audit.Event{
			Action:   audit.ActionDeny,
			Resource: resource,
			Detail:   map[string]any{"operation": "create", "reason": "missing tenant context"},
		})
		return Decision{}, err
	}

	if suppliedTenantID != "" && suppliedTenantID != tc.TenantID() {
		i.deny(ctx, audit.Event{
			Actor:    tc.UserID(),
			Action:   audit.ActionDeny,
			TenantID: tc.TenantID(),
			Resource: resource,
			Detail:   map[string]any{"operation": "create", "reason": "tenant id in payload", "supplied": suppliedTenantID},
		})
		return Decision{}, ErrTenantIDProvided
	}

	return Decision{TenantID: tc.TenantID(), Actor: tc.UserID()}, nil
}

// deny records a denial. Denies are logged reliably but are not themselves
// fatal to the triggering request: the request already fails with the
// scoping error.
func (i *Interceptor) deny(ctx context.Context, event audit.Event) {
	_ = i.auditLogger.Log(ctx, event)
}
