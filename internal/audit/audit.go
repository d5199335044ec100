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
	"log/slog"
	"strings"
	"time"
)

// Actions recorded by the isolation layer.
const (
	ActionQuery  = "query"
	ActionBypass = "bypass"
	ActionDeny   = "deny"
)

// Event represents an authorization-relevant action. Events are append-only:
// nothing in this package updates or deletes a recorded event.
type Event struct {
	Actor     string
	Action    string
	TenantID  string
	Resource  string
	Detail    map[string]any
	Timestamp time.Time
}

// Logger records audit events. Log must return a non-nil error when the
// event could not be durably recorded; callers guarding a bypass treat that
// as fatal and abort the bypassed operation.
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger over the process logger. It is used directly
// in tests and as the mirror half of a Tee in production.
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_action", event.Action),
		slog.String("tenant_id", event.TenantID),
		slog.String("actor_id", event.Actor),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	// Flatten detail
	if len(event.Detail) > 0 {
		group := []any{}
		for k, v := range event.Detail {
			// Redact secrets
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("detail", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
	return nil
}

// Tee writes to a durable logger and mirrors to a secondary one. The durable
// write decides success; the mirror is best-effort.
type Tee struct {
	Durable Logger
	Mirror  Logger
}

// Log records the event durably, then mirrors it.
func (t *Tee) Log(ctx context.Context, event Event) error {
	if err := t.Durable.Log(ctx, event); err != nil {
		return err
	}
	_ = t.Mirror.Log(ctx, event)
	return nil
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	k := strings.ToLower(key)
	secrets := []string{"password", "secret", "token", "key", "hash", "credential", "authorization"}
	for _, s := range secrets {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
