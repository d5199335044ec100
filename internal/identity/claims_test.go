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
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("claims-test-key")

func mint(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

// TestPurpose: A well-formed token yields the identity and tenant claims.
//
// Scope: Verifier.Parse.
//
// Expected: Subject, company and role come through unchanged.
func TestVerifier_ParseValidToken(t *testing.T) {
	v := NewVerifier(testKey)

	token := mint(t, testKey, jwt.MapClaims{
		"sub":        "alice",
		"company_id": "acme-co",
		"role":       "admin",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, "acme-co", claims.CompanyID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

// TestPurpose: Tokens that fail verification never yield claims.
//
// Scope: Verifier.Parse.
//
// Security: Signature and expiry checks are the trust boundary; a token
// signed with the wrong key or already expired must be rejected outright.
//
// Expected: ErrInvalidToken for garbage, wrong-key and expired tokens.
func TestVerifier_ParseRejectsInvalidTokens(t *testing.T) {
	v := NewVerifier(testKey)

	_, err := v.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongKey := mint(t, []byte("other-key"), jwt.MapClaims{
		"sub":        "mallory",
		"company_id": "acme-co",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	_, err = v.Parse(wrongKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := mint(t, testKey, jwt.MapClaims{
		"sub":        "alice",
		"company_id": "acme-co",
		"exp":        time.Now().Add(-time.Hour).Unix(),
	})
	_, err = v.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestPurpose: An unrecognized role claim degrades to the least-privileged
// role instead of failing open.
//
// Scope: Verifier.Parse role normalization.
//
// Expected: "superuser" becomes RoleUser; an absent company claim is kept
// empty for callers to deny on.
func TestVerifier_ParseNormalizesClaims(t *testing.T) {
	v := NewVerifier(testKey)

	token := mint(t, testKey, jwt.MapClaims{
		"sub":  "drifter",
		"role": "superuser",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, claims.Role)
	assert.Empty(t, claims.CompanyID)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}
