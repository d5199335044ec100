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

import "errors"

var (
	// ErrTenantFieldForbidden is returned when a caller-supplied filter
	// references the tenant column. The filter is rejected rather than
	// stripped so a compromised call site cannot probe for the behavior.
	ErrTenantFieldForbidden = errors.New("tenant filter cannot be supplied by the caller")

	// ErrTenantIDProvided is returned when a create payload carries a tenant
	// id that differs from the bound scope. The message is part of the client
	// contract for the 400 response.
	ErrTenantIDProvided = errors.New("Tenant ID cannot be provided")

	// ErrBypassAuditFailed aborts a bypass whose audit event could not be
	// durably recorded.
	ErrBypassAuditFailed = errors.New("bypass audit write failed")
)
