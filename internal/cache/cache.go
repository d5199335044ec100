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

// Package cache namespaces every cache entry by tenant. Keys always have the
// form tenant_<tenantID>:<namespace>:<key>, with the tenant id taken from the
// bound tenantctx, never from caller input. A key outside that shape is a
// policy violation surfaced by AuditKeys.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerline/ledgerline/internal/tenantctx"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// keyPattern is the shape every key in the store must match.
var keyPattern = regexp.MustCompile(`^tenant_[^:]+:[^:]+:.+$`)

// Scoper is the tenant-scoped cache facade over Redis.
type Scoper struct {
	client *redis.Client
}

// Config holds cache configuration
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Scoper, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Scoper{client: client}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client) *Scoper {
	return &Scoper{client: client}
}

// Close releases the underlying client.
func (s *Scoper) Close() error {
	return s.client.Close()
}

// scopedKey builds the mandatory key shape from the bound tenant scope.
func scopedKey(ctx context.Context, namespace, key string) (string, error) {
	tc, err := tenantctx.Current(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("tenant_%s:%s:%s", tc.TenantID(), namespace, key), nil
}

// Get retrieves a value under the bound tenant's prefix.
func (s *Scoper) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	k, err := scopedKey(ctx, namespace, key)
	if err != nil {
		return nil, err
	}
	val, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache key: %w", err)
	}
	return val, nil
}

// Set stores a value under the bound tenant's prefix with the given TTL.
func (s *Scoper) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	k, err := scopedKey(ctx, namespace, key)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, k, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key: %w", err)
	}
	return nil
}

// Delete removes a single entry under the bound tenant's prefix.
func (s *Scoper) Delete(ctx context.Context, namespace, key string) error {
	k, err := scopedKey(ctx, namespace, key)
	if err != nil {
		return err
	}
	return s.client.Del(ctx, k).Err()
}

// ClearTenant deletes every entry under exactly one tenant's prefix. The
// tenant id is explicit here (not taken from the bound scope) because the
// caller is invalidation machinery acting on a known tenant, typically after
// a write or on tenant offboarding.
func (s *Scoper) ClearTenant(ctx context.Context, tenantID string) (int64, error) {
	var removed int64
	prefix := fmt.Sprintf("tenant_%s:*", tenantID)

	iter := s.client.Scan(ctx, 0, prefix, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("failed to delete cache key: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan tenant keys: %w", err)
	}

	slog.InfoContext(ctx, "cleared tenant cache",
		slog.String("tenant_id", tenantID),
		slog.Int64("removed", removed),
	)
	return removed, nil
}

// AuditKeys enumerates the whole keyspace and returns every key that does
// not match the mandatory tenant-prefixed shape. Steady state is an empty
// result; findings are internal defects to alert on, never surfaced to
// request callers.
func (s *Scoper) AuditKeys(ctx context.Context) ([]string, error) {
	var violations []string

	iter := s.client.Scan(ctx, 0, "*", 100).Iterator()
	for iter.Next(ctx) {
		if !keyPattern.MatchString(iter.Val()) {
			violations = append(violations, iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keyspace: %w", err)
	}

	if len(violations) > 0 {
		slog.WarnContext(ctx, "cache scope violations found",
			slog.Int("count", len(violations)),
			slog.String("component", "cache_audit"),
		)
	}
	return violations, nil
}
