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

package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerline/ledgerline/internal/identity"
	"github.com/ledgerline/ledgerline/internal/observability/logger"
	"github.com/ledgerline/ledgerline/internal/tenantctx"
)

// Tenant Context Resolution Principles:
// 1. Tenant scope is derived EXCLUSIVELY from the verified token claims
// 2. The X-Tenant-ID header (or any client-supplied tenant value) is FORBIDDEN
// 3. A request without a company claim never reaches a handler: 403, not an
//    unscoped passthrough

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Log request start
			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware verifies the bearer token and binds the tenant scope for
// the rest of the request. It runs after identity verification in the sense
// that the token was issued upstream; here only the claims are consumed.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		claims, err := h.verifier.Parse(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		// Security hardening: a client-supplied tenant header on an
		// authenticated request is a spoofing attempt. Tenant scope comes
		// from the verified claims, nowhere else.
		if r.Header.Get("X-Tenant-ID") != "" {
			slog.WarnContext(r.Context(), "tenant header spoofing attempt detected on authenticated route",
				logger.UserID(claims.UserID),
			)
			respondError(w, http.StatusBadRequest, "X-Tenant-ID header is not allowed; tenant is derived from the token")
			return
		}

		if claims.CompanyID == "" {
			respondError(w, http.StatusForbidden, "No tenant context")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = tenantctx.Bind(ctx, tenantctx.New(claims.CompanyID, claims.UserID, claims.Role))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates admin-plane routes on the role claim. It does not by
// itself widen tenant scope; handlers that need cross-tenant visibility
// must still go through the bypass gate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, err := tenantctx.Current(r.Context())
		if err != nil || tc.Role() != identity.RoleAdmin {
			// Admin-only routes simply don't exist for everyone else.
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}
