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

package audit

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder decorates a Logger with per-action counters. Counting
// happens after the wrapped write so the metrics only reflect events that
// were actually recorded.
type MetricsRecorder struct {
	next     Logger
	denies   metric.Int64Counter
	bypasses metric.Int64Counter
	queries  metric.Int64Counter
}

// NewMetricsRecorder wraps next with isolation counters on the given meter.
func NewMetricsRecorder(next Logger, meter metric.Meter) (*MetricsRecorder, error) {
	denies, err := meter.Int64Counter("audit_denials_total",
		metric.WithDescription("Denied tenant-scoped operations"))
	if err != nil {
		return nil, err
	}
	bypasses, err := meter.Int64Counter("audit_bypass_grants_total",
		metric.WithDescription("Granted cross-tenant bypasses"))
	if err != nil {
		return nil, err
	}
	queries, err := meter.Int64Counter("audit_queries_total",
		metric.WithDescription("Audited tenant-scoped queries"))
	if err != nil {
		return nil, err
	}
	return &MetricsRecorder{next: next, denies: denies, bypasses: bypasses, queries: queries}, nil
}

// Log records the event through the wrapped logger, then counts it.
func (r *MetricsRecorder) Log(ctx context.Context, event Event) error {
	if err := r.next.Log(ctx, event); err != nil {
		return err
	}

	tenant := attribute.String("tenant_id", event.TenantID)
	switch event.Action {
	case ActionDeny:
		r.denies.Add(ctx, 1, metric.WithAttributes(tenant))
	case ActionBypass:
		r.bypasses.Add(ctx, 1, metric.WithAttributes(tenant))
	case ActionQuery:
		r.queries.Add(ctx, 1, metric.WithAttributes(tenant))
	}
	return nil
}
