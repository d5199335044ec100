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
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/ledgerline/internal/company"
	"github.com/ledgerline/ledgerline/internal/scope"
)

// membershipColumns is the whitelist of filterable fields for memberships.
var membershipColumns = map[string]string{
	"id":              "id",
	scope.TenantField: "company_id",
	"user_id":         "user_id",
	"role":            "role",
}

// MembershipRepository implements company.MembershipRepository under the
// same dual enforcement as invoices: scoped filters plus row-level
// policies.
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Add grants a membership under the decision's tenant.
func (r *MembershipRepository) Add(ctx context.Context, d scope.Decision, m *company.Membership) error {
	return r.db.WithTenantTx(ctx, d, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO memberships (id, company_id, user_id, role, granted_by, granted_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, m.ID, m.CompanyID, m.UserID, m.Role, m.GrantedBy, m.GrantedAt)
		if err != nil {
			if strings.Contains(err.Error(), "memberships_company_id_user_id_key") {
				return company.ErrMembershipExists
			}
			return fmt.Errorf("failed to insert membership: %w", err)
		}
		return nil
	})
}

// Remove deletes memberships matching the scoped filter and reports
// affected rows.
func (r *MembershipRepository) Remove(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error) {
	where, args, err := buildWhere(f, membershipColumns)
	if err != nil {
		return 0, err
	}

	var affected int64
	err = r.db.WithTenantTx(ctx, d, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM memberships`+where, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete membership: %w", err)
	}
	return affected, nil
}

// Find retrieves memberships matching the scoped filter.
func (r *MembershipRepository) Find(ctx context.Context, d scope.Decision, f scope.Filter) ([]*company.Membership, error) {
	where, args, err := buildWhere(f, membershipColumns)
	if err != nil {
		return nil, err
	}

	var out []*company.Membership
	err = r.db.WithTenantTx(ctx, d, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, company_id, user_id, role, granted_by, granted_at
			FROM memberships`+where+` ORDER BY granted_at, id`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m company.Membership
			if err := rows.Scan(&m.ID, &m.CompanyID, &m.UserID, &m.Role, &m.GrantedBy, &m.GrantedAt); err != nil {
				return err
			}
			out = append(out, &m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return out, nil
}
