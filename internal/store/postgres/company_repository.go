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

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/ledgerline/internal/company"
)

// CompanyRepository implements company.Repository. The company registry is
// not itself under row-level security: it is the table the policies key on.
type CompanyRepository struct {
	db *DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create registers a new company
func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO companies (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}
	return nil
}

// GetByID retrieves a company by ID
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*company.Company, error) {
	var c company.Company
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM companies WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, company.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// GetByName retrieves a company by name
func (r *CompanyRepository) GetByName(ctx context.Context, name string) (*company.Company, error) {
	var c company.Company
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM companies WHERE name = $1
	`, name).Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, company.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// List retrieves companies with pagination
func (r *CompanyRepository) List(ctx context.Context, limit, offset int) ([]*company.Company, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM companies ORDER BY created_at, id LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var out []*company.Company
	for rows.Next() {
		var c company.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ListIDs retrieves every active company id
func (r *CompanyRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT id FROM companies WHERE status = $1 ORDER BY id`, company.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list company ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
