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

// Package tenantctx binds the current tenant scope to a request's execution
// flow. The binding rides on context.Context, so it follows goroutine
// hand-offs and asynchronous continuations, shadows correctly on nested
// Bind calls, and is unwound automatically when the request completes.
// There is deliberately no package-level mutable slot: two requests bound
// to different companies can never observe each other's scope.
package tenantctx

import (
	"context"
	"errors"

	"github.com/ledgerline/ledgerline/internal/identity"
)

// ErrMissingTenantContext is returned by Current when the calling code is
// outside any Bind scope. Code that requires a tenant must fail fast on it
// rather than proceed unscoped.
var ErrMissingTenantContext = errors.New("no tenant context bound to this request")

// Context is the immutable tenant scope for one request. All fields are
// unexported; a Context can only be created through New (single-tenant
// scope) or RequestBypass (admin cross-tenant scope).
type Context struct {
	tenantID string
	userID   string
	role     identity.Role
	bypass   bool
}

// New constructs a single-tenant scope from verified identity claims.
// The bypass flag is always false here; see RequestBypass.
func New(tenantID, userID string, role identity.Role) Context {
	return Context{
		tenantID: tenantID,
		userID:   userID,
		role:     role,
	}
}

// TenantID returns the company whose data this request may touch.
func (c Context) TenantID() string { return c.tenantID }

// UserID returns the acting user.
func (c Context) UserID() string { return c.userID }

// Role returns the acting user's role within the tenant.
func (c Context) Role() identity.Role { return c.role }

// BypassGranted reports whether this context was produced by RequestBypass
// for an admin. Only the scoping interceptor consults it.
func (c Context) BypassGranted() bool { return c.bypass }

type ctxKey struct{}

// Bind returns a derived context carrying tc. Nested calls shadow the outer
// binding for the lifetime of the derived context and restore it implicitly
// when the inner context goes out of scope.
func Bind(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// Current returns the innermost bound tenant scope, or
// ErrMissingTenantContext when called outside any Bind.
func Current(ctx context.Context) (Context, error) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	if !ok {
		return Context{}, ErrMissingTenantContext
	}
	return tc, nil
}

// EachTenant runs fn once per tenant id, rebinding the scope for each
// iteration. Batch jobs that sweep all tenants must use this rather than
// binding once: no two tenants' scopes are ever live in the same flow, and
// an error aborts the sweep at the offending tenant.
func EachTenant(ctx context.Context, tenantIDs []string, actor string, fn func(ctx context.Context, tenantID string) error) error {
	for _, id := range tenantIDs {
		scoped := Bind(ctx, New(id, actor, identity.RoleAdmin))
		if err := fn(scoped, id); err != nil {
			return err
		}
	}
	return nil
}
