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

	"github.com/ledgerline/ledgerline/internal/invoice"
	"github.com/ledgerline/ledgerline/internal/scope"
)

// invoiceColumns is the whitelist of filterable fields for invoices.
var invoiceColumns = map[string]string{
	"id":              "id",
	scope.TenantField: "company_id",
	"number":          "number",
	"status":          "status",
	"customer_name":   "customer_name",
}

// InvoiceRepository implements invoice.Repository. Every statement runs in
// a transaction whose session variables are pinned to the scoping decision,
// so the row-level policies re-check the same boundary the interceptor
// already enforced.
type InvoiceRepository struct {
	db *DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Insert persists a new invoice under the decision's tenant.
func (r *InvoiceRepository) Insert(ctx context.Context, d scope.Decision, inv *invoice.Invoice) error {
	return r.db.WithTenantTx(ctx, d, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoices (
				id, company_id, number, customer_name,
				amount_cents, currency, status, issued_at,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			inv.ID, inv.CompanyID, inv.Number, inv.CustomerName,
			inv.AmountCents, inv.Currency, inv.Status, inv.IssuedAt,
			inv.CreatedAt, inv.UpdatedAt,
		)
		if err != nil {
			if strings.Contains(err.Error(), "invoices_company_id_number_key") {
				return invoice.ErrDuplicateNumber
			}
			return fmt.Errorf("failed to insert invoice: %w", err)
		}
		return nil
	})
}

// FindOne retrieves a single invoice matching the scoped filter.
func (r *InvoiceRepository) FindOne(ctx context.Context, d scope.Decision, f scope.Filter) (*invoice.Invoice, error) {
	where, args, err := buildWhere(f, invoiceColumns)
	if err != nil {
		return nil, err
	}

	var inv invoice.Invoice
	err = r.db.WithTenantTx(ctx, d, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, company_id, number, customer_name,
				amount_cents, currency, status, issued_at,
				created_at, updated_at
			FROM invoices`+where, args...)
		return scanInvoice(row, &inv)
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &inv, nil
}

// FindAll retrieves invoices matching the scoped filter with pagination.
func (r *InvoiceRepository) FindAll(ctx context.Context, d scope.Decision, f scope.Filter, limit, offset int) ([]*invoice.Invoice, error) {
	where, args, err := buildWhere(f, invoiceColumns)
	if err != nil {
		return nil, err
	}
	args = append(args, limit, offset)

	var out []*invoice.Invoice
	err = r.db.WithTenantTx(ctx, d, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, fmt.Sprintf(`
			SELECT id, company_id, number, customer_name,
				amount_cents, currency, status, issued_at,
				created_at, updated_at
			FROM invoices%s
			ORDER BY created_at DESC, id
			LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)), args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var inv invoice.Invoice
			if err := scanInvoice(rows, &inv); err != nil {
				return err
			}
			out = append(out, &inv)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return out, nil
}

// Count returns the number of invoices matching the scoped filter.
func (r *InvoiceRepository) Count(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error) {
	where, args, err := buildWhere(f, invoiceColumns)
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.db.WithTenantTx(ctx, d, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT count(*) FROM invoices`+where, args...).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

// SumAmount returns the total amount of invoices matching the scoped filter.
func (r *InvoiceRepository) SumAmount(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error) {
	where, args, err := buildWhere(f, invoiceColumns)
	if err != nil {
		return 0, err
	}

	var sum int64
	err = r.db.WithTenantTx(ctx, d, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT COALESCE(sum(amount_cents), 0) FROM invoices`+where, args...).Scan(&sum)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sum invoices: %w", err)
	}
	return sum, nil
}

// Update applies a partial update to invoices matching the scoped filter
// and reports affected rows. A cross-tenant target matches zero rows.
func (r *InvoiceRepository) Update(ctx context.Context, d scope.Decision, f scope.Filter, u invoice.Update) (int64, error) {
	sets := []string{"updated_at = now()"}
	var args []any
	if u.CustomerName != nil {
		args = append(args, *u.CustomerName)
		sets = append(sets, fmt.Sprintf("customer_name = $%d", len(args)))
	}
	if u.AmountCents != nil {
		args = append(args, *u.AmountCents)
		sets = append(sets, fmt.Sprintf("amount_cents = $%d", len(args)))
	}
	if u.Status != nil {
		args = append(args, *u.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}

	where, whereArgs, err := buildWhereOffset(f, invoiceColumns, len(args))
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)

	var affected int64
	err = r.db.WithTenantTx(ctx, d, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE invoices SET `+strings.Join(sets, ", ")+where, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update invoice: %w", err)
	}
	return affected, nil
}

// Delete removes invoices matching the scoped filter and reports affected
// rows.
func (r *InvoiceRepository) Delete(ctx context.Context, d scope.Decision, f scope.Filter) (int64, error) {
	where, args, err := buildWhere(f, invoiceColumns)
	if err != nil {
		return 0, err
	}

	var affected int64
	err = r.db.WithTenantTx(ctx, d, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM invoices`+where, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete invoice: %w", err)
	}
	return affected, nil
}

func scanInvoice(row pgx.Row, inv *invoice.Invoice) error {
	return row.Scan(
		&inv.ID, &inv.CompanyID, &inv.Number, &inv.CustomerName,
		&inv.AmountCents, &inv.Currency, &inv.Status, &inv.IssuedAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
}
