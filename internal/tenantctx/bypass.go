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

package tenantctx

import "github.com/ledgerline/ledgerline/internal/identity"

// RequestBypass is the only constructor of a bypass-enabled Context.
//
// For an admin it returns a copy with the bypass flag set; the scoping
// interceptor will then omit the tenant filter and audit the access. For any
// other role the context is returned unchanged: a non-privileged caller
// requesting bypass is a no-op, not an error, so nothing is reported back
// that could be probed.
func RequestBypass(tc Context) Context {
	if tc.role != identity.RoleAdmin {
		return tc
	}
	tc.bypass = true
	return tc
}
