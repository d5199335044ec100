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
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/audit"
)

// AuditRepository implements audit.Logger with a durable, append-only
// insert. Bypass-guarded operations depend on this write succeeding: a
// failed insert propagates and aborts the bypass.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Log durably records an audit event.
func (r *AuditRepository) Log(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	var detail []byte
	if len(event.Detail) > 0 {
		var err error
		detail, err = json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("failed to encode audit detail: %w", err)
		}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO audit_events (id, actor_id, action, company_id, resource, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), event.Actor, event.Action, event.TenantID, event.Resource, detail, event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// CountByAction returns the number of recorded events for one action and
// tenant. Used by integration tests and operational checks.
func (r *AuditRepository) CountByAction(ctx context.Context, tenantID, action string) (int64, error) {
	var count int64
	err := r.db.pool.QueryRow(ctx, `
		SELECT count(*) FROM audit_events WHERE company_id = $1 AND action = $2
	`, tenantID, action).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}
