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

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/company"
	"github.com/ledgerline/ledgerline/internal/identity"
)

// AddMemberRequest represents a membership grant
type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// AddMember grants a user a role in the bound company.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Role == "" {
		req.Role = string(identity.RoleUser)
	}

	m, err := h.companyService.AddMember(r.Context(), req.UserID, identity.Role(req.Role))
	if err != nil {
		if errors.Is(err, company.ErrMembershipExists) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, m)
}

// RemoveMember revokes a membership in the bound company. A user belonging
// to another company responds 404.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.companyService.RemoveMember(r.Context(), chi.URLParam(r, "userID")); err != nil {
		if errors.Is(err, company.ErrMembershipNotFound) {
			respondError(w, http.StatusNotFound, "membership not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListMembers lists the bound company's memberships.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.companyService.ListMembers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if members == nil {
		members = []*company.Membership{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"members": members,
		"count":   len(members),
	})
}
