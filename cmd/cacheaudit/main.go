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

// Command cacheaudit sweeps the cache for keys that escape the per-tenant
// namespace and optionally flushes tenant caches. It is the operational
// answer to "is anything in redis shared across companies right now?".
//
//	cacheaudit                  report malformed keys and exit non-zero if any
//	cacheaudit -flush           also drop every active company's cached entries
//	cacheaudit -flush-tenant X  drop one company's cached entries
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ledgerline/ledgerline/internal/cache"
	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/identity"
	"github.com/ledgerline/ledgerline/internal/store/postgres"
	"github.com/ledgerline/ledgerline/internal/tenantctx"
)

func main() {
	flush := flag.Bool("flush", false, "flush every active company's cache entries")
	flushTenant := flag.String("flush-tenant", "", "flush a single company's cache entries")
	flag.Parse()

	if err := run(context.Background(), *flush, *flushTenant); err != nil {
		fmt.Fprintf(os.Stderr, "cacheaudit: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, flush bool, flushTenant string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	tenantCache, err := cache.New(ctx, cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("unable to connect to redis: %w", err)
	}
	defer tenantCache.Close()

	violations, err := tenantCache.AuditKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range violations {
		fmt.Printf("VIOLATION: key outside tenant namespace: %s\n", key)
	}
	if len(violations) == 0 {
		fmt.Println("✓ All cache keys are tenant-scoped")
	}

	if flushTenant != "" {
		ctx = tenantctx.Bind(ctx, tenantctx.New(flushTenant, "cacheaudit", identity.RoleAdmin))
		dropped, err := tenantCache.ClearTenant(ctx, flushTenant)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Dropped %d cached entries for %s\n", dropped, flushTenant)
	}

	if flush {
		db, err := postgres.New(ctx, postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			Database:     cfg.Database.Database,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return fmt.Errorf("unable to connect to database: %w", err)
		}
		defer db.Close()

		ids, err := postgres.NewCompanyRepository(db).ListIDs(ctx)
		if err != nil {
			return err
		}

		// Maintenance runs tenant by tenant: each iteration rebinds to one
		// company, so even tooling never holds an unscoped cache handle.
		err = tenantctx.EachTenant(ctx, ids, "cacheaudit", func(ctx context.Context, tenantID string) error {
			dropped, err := tenantCache.ClearTenant(ctx, tenantID)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Dropped %d cached entries for %s\n", dropped, tenantID)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if len(violations) > 0 {
		return fmt.Errorf("%d cache keys outside tenant namespace", len(violations))
	}
	return nil
}
