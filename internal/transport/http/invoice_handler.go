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
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/audit"
	"github.com/ledgerline/ledgerline/internal/invoice"
	"github.com/ledgerline/ledgerline/internal/scope"
	"github.com/ledgerline/ledgerline/internal/tenantctx"
)

// CreateInvoice handles invoice creation.
//
// The request body must not carry a company_id; the bound tenant is
// authoritative. A mismatched company_id is a 400 per the client contract.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var in invoice.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.invoiceService.Create(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, scope.ErrTenantIDProvided):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, invoice.ErrDuplicateNumber):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, tenantctx.ErrMissingTenantContext):
			respondError(w, http.StatusForbidden, "No tenant context")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, inv)
}

// GetInvoice retrieves one invoice. An id that exists under a different
// company responds 404, identical to a nonexistent id.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoiceService.Get(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		h.respondInvoiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

// ListInvoices lists the bound company's invoices.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	invoices, err := h.invoiceService.List(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		h.respondInvoiceError(w, err)
		return
	}
	if invoices == nil {
		invoices = []*invoice.Invoice{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// InvoiceSummary returns the cached per-tenant dashboard aggregate.
func (h *Handler) InvoiceSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.invoiceService.Summary(r.Context())
	if err != nil {
		h.respondInvoiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

// UpdateInvoiceRequest represents a partial invoice update
type UpdateInvoiceRequest struct {
	CustomerName *string `json:"customer_name"`
	AmountCents  *int64  `json:"amount_cents"`
	Status       *string `json:"status"`
}

// UpdateInvoice applies a partial update. Cross-tenant targets respond 404.
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var req UpdateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.invoiceService.Update(r.Context(), chi.URLParam(r, "invoiceID"), invoice.Update{
		CustomerName: req.CustomerName,
		AmountCents:  req.AmountCents,
		Status:       req.Status,
	})
	if err != nil {
		h.respondInvoiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

// DeleteInvoice removes one invoice. Cross-tenant targets respond 404.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.invoiceService.Delete(r.Context(), chi.URLParam(r, "invoiceID")); err != nil {
		h.respondInvoiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AdminListInvoices lists invoices across all companies. The cross-tenant
// widening happens only through the bypass gate, which grants it to admins
// and ignores it for everyone else; the scoping interceptor audits the
// grant before any row is read.
func (h *Handler) AdminListInvoices(w http.ResponseWriter, r *http.Request) {
	tc, err := tenantctx.Current(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, "No tenant context")
		return
	}

	ctx := r.Context()
	if r.URL.Query().Get("all_tenants") == "true" {
		ctx = tenantctx.Bind(ctx, tenantctx.RequestBypass(tc))
		_ = h.auditLogger.Log(ctx, audit.Event{
			Actor:    tc.UserID(),
			Action:   audit.ActionQuery,
			TenantID: tc.TenantID(),
			Resource: "invoices",
			Detail:   map[string]any{"operation": "admin_list", "ip_address": getIPAddress(r)},
		})
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	invoices, err := h.invoiceService.ListAllTenants(ctx, limit, offset)
	if err != nil {
		h.respondInvoiceError(w, err)
		return
	}
	if invoices == nil {
		invoices = []*invoice.Invoice{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// respondInvoiceError maps service errors onto the response contract.
// Authorization failures deliberately collapse into ordinary-looking
// responses: cross-tenant access is a 404, never a 403 that would confirm
// the resource exists.
func (h *Handler) respondInvoiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invoice.ErrInvoiceNotFound):
		respondError(w, http.StatusNotFound, "invoice not found")
	case errors.Is(err, tenantctx.ErrMissingTenantContext):
		respondError(w, http.StatusForbidden, "No tenant context")
	case errors.Is(err, scope.ErrTenantFieldForbidden):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scope.ErrBypassAuditFailed):
		respondError(w, http.StatusInternalServerError, "operation aborted")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
