// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{
		"email":     "alice@example.com",
		"username":  "alice",
		"full_name": "Alice Doe",
		"password":  "secret1",
	}
	rec := env.do(http.MethodPost, "/api/v1/auth/register", "", body)
	expectStatus(t, rec, http.StatusCreated)

	var user models.User
	decodeEnvelope(t, rec, &user)
	if user.ID == 0 || user.Username != "alice" {
		t.Errorf("unexpected user %+v", user)
	}
	if user.Role != models.RoleUser {
		t.Errorf("role = %q, want %q", user.Role, models.RoleUser)
	}
	if !user.IsActive {
		t.Error("new user should be active")
	}
	if strings.Contains(rec.Body.String(), "secret1") || strings.Contains(rec.Body.String(), "hashed_password") {
		t.Error("response leaks password material")
	}

	t.Run("duplicate username", func(t *testing.T) {
		dup := map[string]string{"email": "other@example.com", "username": "alice", "password": "secret1"}
		expectErrorCode(t, env.do(http.MethodPost, "/api/v1/auth/register", "", dup), http.StatusConflict, CodeConflict)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := map[string]string{"email": "alice@example.com", "username": "alice2", "password": "secret1"}
		expectErrorCode(t, env.do(http.MethodPost, "/api/v1/auth/register", "", dup), http.StatusConflict, CodeConflict)
	})
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"malformed json", "{not json"},
		{"empty body", ""},
		{"bad email", map[string]string{"email": "nope", "username": "bob", "password": "secret1"}},
		{"short password", map[string]string{"email": "b@example.com", "username": "bob", "password": "123"}},
		{"short username", map[string]string{"email": "b@example.com", "username": "bo", "password": "secret1"}},
		{"non alphanumeric username", map[string]string{"email": "b@example.com", "username": "bob smith", "password": "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectErrorCode(t, env.do(http.MethodPost, "/api/v1/auth/register", "", tt.body), http.StatusBadRequest, CodeValidation)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("carol", models.RoleUser)

	rec := env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "carol",
		"password": "password123",
	})
	expectStatus(t, rec, http.StatusOK)

	var resp models.LoginResponse
	decodeEnvelope(t, rec, &resp)
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Fatalf("unexpected login response %+v", resp)
	}
	if resp.User == nil || resp.User.Username != "carol" {
		t.Errorf("login response user = %+v", resp.User)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.TokenCookieName {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.Value != resp.AccessToken {
		t.Errorf("token cookie = %+v", cookie)
	}

	// The issued token authenticates.
	expectStatus(t, env.do(http.MethodGet, "/api/v1/users/me/profile", resp.AccessToken, nil), http.StatusOK)
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	u, _ := env.createUser("dave", models.RoleUser)

	expectErrorCode(t, env.do(http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "dave", "password": "wrong-password"}),
		http.StatusUnauthorized, CodeAuthentication)

	expectErrorCode(t, env.do(http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "nobody", "password": "password123"}),
		http.StatusUnauthorized, CodeAuthentication)

	if _, err := env.db.SetUserActive(context.Background(), u.ID, false); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	expectErrorCode(t, env.do(http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "dave", "password": "password123"}),
		http.StatusForbidden, CodeAuthorization)
}

func TestLogin_RateLimited(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.LoginRateLimit = 2
	env := newTestEnvWithConfig(t, cfg)
	env.createUser("erin", models.RoleUser)

	creds := map[string]string{"username": "erin", "password": "wrong-password"}
	for i := 0; i < 2; i++ {
		expectStatus(t, env.do(http.MethodPost, "/api/v1/auth/login", "", creds), http.StatusUnauthorized)
	}
	expectErrorCode(t, env.do(http.MethodPost, "/api/v1/auth/login", "", creds),
		http.StatusTooManyRequests, CodeRateLimit)
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("frank", models.RoleUser)

	expectStatus(t, env.do(http.MethodGet, "/api/v1/users/me/profile", token, nil), http.StatusOK)

	rec := env.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	expectStatus(t, rec, http.StatusOK)
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.TokenCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout should expire the token cookie")
	}

	expectErrorCode(t, env.do(http.MethodGet, "/api/v1/users/me/profile", token, nil),
		http.StatusUnauthorized, CodeAuthentication)
}

func TestLogout_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	expectErrorCode(t, env.do(http.MethodPost, "/api/v1/auth/logout", "", nil),
		http.StatusUnauthorized, CodeAuthentication)
}
