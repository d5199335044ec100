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
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ledgerline/ledgerline/internal/audit"
	"github.com/ledgerline/ledgerline/internal/company"
	"github.com/ledgerline/ledgerline/internal/identity"
	"github.com/ledgerline/ledgerline/internal/invoice"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	invoiceService *invoice.Service
	companyService *company.Service
	auditLogger    audit.Logger
	verifier       *identity.Verifier
}

// NewHandler creates a new HTTP handler
func NewHandler(
	invoiceService *invoice.Service,
	companyService *company.Service,
	auditLogger audit.Logger,
	verifier *identity.Verifier,
) *Handler {
	return &Handler{
		invoiceService: invoiceService,
		companyService: companyService,
		auditLogger:    auditLogger,
		verifier:       verifier,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Company registration is the only pre-tenant operation: it creates
		// the tenant everything else will be scoped to.
		r.Post("/companies", h.CreateCompany)

		// Tenant-scoped endpoints (FAIL-CLOSED). AuthMiddleware binds the
		// tenant scope from verified claims; nothing below runs without it.
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", h.ListInvoices)
				r.Post("/", h.CreateInvoice)
				r.Get("/summary", h.InvoiceSummary)
				r.Get("/{invoiceID}", h.GetInvoice)
				r.Patch("/{invoiceID}", h.UpdateInvoice)
				r.Delete("/{invoiceID}", h.DeleteInvoice)
			})

			r.Route("/members", func(r chi.Router) {
				r.Get("/", h.ListMembers)
				r.Post("/", h.AddMember)
				r.Delete("/{userID}", h.RemoveMember)
			})

			// Admin plane: cross-tenant visibility through the audited
			// bypass gate only.
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/invoices", h.AdminListInvoices)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "ledgerline",
	})
}

// CreateCompanyRequest represents company registration data
type CreateCompanyRequest struct {
	Name string `json:"name"`
}

// CreateCompany handles company registration
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.companyService.CreateCompany(r.Context(), req.Name)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, c)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
