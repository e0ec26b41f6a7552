// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/segmentus/internal/models"
)

// claimsEcho writes the authenticated username and role.
var claimsEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	c := GetClaims(r.Context())
	if c == nil {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(c.Username + ":" + c.Role))
})

func TestMiddleware_Authenticate(t *testing.T) {
	jm := newTestJWTManager(t, time.Hour)
	revocations := NewMemoryRevocationStore()
	users := fakeUsers{
		1: {ID: 1, Username: "alice", Role: models.RoleUser, IsActive: true},
		2: {ID: 2, Username: "bob", Role: models.RoleUser, IsActive: false},
	}
	mw := NewMiddleware(jm, revocations, users, AuthModeJWT)
	handler := mw.Authenticate(claimsEcho)

	aliceToken, _, err := jm.GenerateToken(users[1])
	if err != nil {
		t.Fatal(err)
	}
	bobToken, _, err := jm.GenerateToken(users[2])
	if err != nil {
		t.Fatal(err)
	}
	ghostToken, _, err := jm.GenerateToken(&models.User{ID: 99, Username: "ghost", Role: models.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	revokedToken, revokedClaims, err := jm.GenerateToken(users[1])
	if err != nil {
		t.Fatal(err)
	}
	if err := revocations.Revoke(context.Background(), &RevokedToken{JTI: revokedClaims.JTI()}, time.Hour); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+aliceToken) }, http.StatusOK, "alice:user"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: aliceToken}) }, http.StatusOK, "alice:user"},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized, ""},
		{"basic scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized, ""},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
		{"revoked", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+revokedToken) }, http.StatusUnauthorized, ""},
		{"inactive user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+bobToken) }, http.StatusForbidden, ""},
		{"deleted user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+ghostToken) }, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body: expected %q, got %q", tt.wantBody, rec.Body.String())
			}
			if rec.Code == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("401 responses should carry a Bearer challenge")
			}
		})
	}
}

func TestMiddleware_RoleRefreshedFromStore(t *testing.T) {
	jm := newTestJWTManager(t, time.Hour)
	users := fakeUsers{1: {ID: 1, Username: "alice", Role: models.RoleUser, IsActive: true}}
	token, _, err := jm.GenerateToken(users[1])
	if err != nil {
		t.Fatal(err)
	}

	users[1].Role = models.RoleAdmin
	handler := NewMiddleware(jm, nil, users, AuthModeJWT).Authenticate(claimsEcho)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Body.String() != "alice:admin" {
		t.Errorf("expected promoted role, got %q", rec.Body.String())
	}
}

func TestMiddleware_AuthModeNone(t *testing.T) {
	handler := NewMiddleware(nil, nil, nil, AuthModeNone).Authenticate(claimsEcho)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous:admin" {
		t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should only be set over HTTPS")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	if got := ClientIP(req); got != "192.0.2.10" {
		t.Errorf("expected 192.0.2.10, got %q", got)
	}
	req.RemoteAddr = "[2001:db8::1]:443"
	if got := ClientIP(req); got != "2001:db8::1" {
		t.Errorf("expected 2001:db8::1, got %q", got)
	}
}
