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

package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the caller's role within their company.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the defined constants.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNoCompany    = errors.New("token carries no company id")
)

// Claims is the verified identity consumed by the isolation layer.
// Authentication (issuing and signing these tokens) happens upstream; this
// package only extracts the fields tenant scoping depends on.
type Claims struct {
	UserID    string
	CompanyID string
	Role      Role
}

type tokenClaims struct {
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier parses and validates bearer tokens into Claims.
type Verifier struct {
	key []byte
}

// NewVerifier creates a verifier over the shared signing key.
func NewVerifier(key []byte) *Verifier {
	return &Verifier{key: key}
}

// Parse validates the token signature and expiry and extracts identity claims.
// The company id may legitimately be absent (e.g. a user who has not joined a
// company yet); callers that require tenant scope must treat that as a denial.
func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	var tc tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &tc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	role := Role(tc.Role)
	if !role.Valid() {
		role = RoleUser
	}

	return &Claims{
		UserID:    tc.Subject,
		CompanyID: tc.CompanyID,
		Role:      role,
	}, nil
}
