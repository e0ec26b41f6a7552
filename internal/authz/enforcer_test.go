// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package authz

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/models"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEnforcer_RoleHierarchy(t *testing.T) {
	e := newTestEnforcer(t)

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{models.RoleUser, ObjModel, ActPredict, true},
		{models.RoleUser, ObjModel, ActRead, true},
		{models.RoleUser, ObjModel, ActTrain, false},
		{models.RoleUser, ObjProfiles, ActDelete, true},
		{models.RoleUser, ObjUsers, ActRead, false},
		{models.RoleAnalyst, ObjModel, ActTrain, true},
		{models.RoleAnalyst, ObjModel, ActPredict, true},
		{models.RoleAnalyst, ObjUsers, ActRead, false},
		{models.RoleAdmin, ObjModel, ActTrain, true},
		{models.RoleAdmin, ObjUsers, ActDelete, true},
		{models.RoleAdmin, ObjStats, ActRead, true},
		{"stranger", ObjModel, ActRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.object+"/"+tt.action, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			// Second call is served from the cache and must agree.
			again, _ := e.Enforce(tt.role, tt.object, tt.action)
			if again != got {
				t.Error("cached decision differs")
			}
		})
	}
	if e.cache.size() == 0 {
		t.Error("expected cached decisions")
	}
}

func TestEnforcer_HasRole(t *testing.T) {
	e := newTestEnforcer(t)
	if !e.HasRole(models.RoleAdmin, models.RoleUser) {
		t.Error("admin should inherit user")
	}
	if !e.HasRole(models.RoleAnalyst, models.RoleAnalyst) {
		t.Error("a role has itself")
	}
	if e.HasRole(models.RoleUser, models.RoleAdmin) {
		t.Error("user must not inherit admin")
	}
}

func TestEnforcer_PolicyFromFile(t *testing.T) {
	dir := t.TempDir()
	policy := filepath.Join(dir, "policy.csv")
	if err := os.WriteFile(policy, []byte("p, user, model, train\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: policy})
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	defer e.Close()

	allowed, err := e.Enforce(models.RoleUser, ObjModel, ActTrain)
	if err != nil || !allowed {
		t.Errorf("file policy not applied: allowed=%v err=%v", allowed, err)
	}
}

func TestLoadEmbeddedPolicy_Malformed(t *testing.T) {
	e := newTestEnforcer(t)
	if err := loadEmbeddedPolicy(e.enforcer, "p, user, model\n"); err == nil {
		t.Error("expected error for short policy line")
	}
	if err := loadEmbeddedPolicy(e.enforcer, "x, a, b\n"); err == nil {
		t.Error("expected error for unknown policy type")
	}
}

func TestMiddleware_Authorize(t *testing.T) {
	mw := NewMiddleware(newTestEnforcer(t))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := mw.Authorize(ObjModel, ActTrain)(ok)

	tests := []struct {
		name   string
		claims *auth.Claims
		want   int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"user", &auth.Claims{UserID: 1, Role: models.RoleUser}, http.StatusForbidden},
		{"analyst", &auth.Claims{UserID: 2, Role: models.RoleAnalyst}, http.StatusNoContent},
		{"admin", &auth.Claims{UserID: 3, Role: models.RoleAdmin}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/model/train", nil)
			if tt.claims != nil {
				req = req.WithContext(auth.WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestEnforcementCache_Expiry(t *testing.T) {
	c := newEnforcementCache(time.Hour)
	defer c.stop()

	c.set("user", "model", "read", true)
	if allowed, ok := c.get("user", "model", "read"); !ok || !allowed {
		t.Error("expected cached allow")
	}

	c.mu.Lock()
	item := c.items[cacheKey("user", "model", "read")]
	item.expiresAt = time.Now().Add(-time.Second)
	c.items[cacheKey("user", "model", "read")] = item
	c.mu.Unlock()

	if _, ok := c.get("user", "model", "read"); ok {
		t.Error("expired item should miss")
	}
	c.stop()
}
