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

package postgres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledgerline/ledgerline/internal/scope"
)

// buildWhere renders a scoped filter into a WHERE clause. Filter keys map
// through a per-table column whitelist, so a filter can never name a column
// the repository did not expose; values are always bound parameters. Keys
// are sorted for deterministic SQL.
//
// An empty filter yields an empty clause. That only happens on the audited
// bypass path; every normal filter carries the tenant condition merged in
// by the scoping interceptor.
func buildWhere(f scope.Filter, columns map[string]string) (string, []any, error) {
	return buildWhereOffset(f, columns, 0)
}

// buildWhereOffset is buildWhere with placeholder numbering starting after
// argOffset existing parameters, for statements that bind SET values first.
func buildWhereOffset(f scope.Filter, columns map[string]string, argOffset int) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		col, ok := columns[k]
		if !ok {
			return "", nil, fmt.Errorf("filter field %q is not queryable", k)
		}
		args = append(args, f[k])
		conds = append(conds, fmt.Sprintf("%s = $%d", col, argOffset+len(args)))
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}
