// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/tomtom215/segmentus/internal/models"
)

func TestAdmin_RequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser("regular", models.RoleUser)
	_, analystToken := env.createUser("analyst", models.RoleAnalyst)

	for _, token := range []string{userToken, analystToken} {
		expectErrorCode(t, env.do(http.MethodGet, "/api/v1/admin/users", token, nil), http.StatusForbidden, CodeAuthorization)
		expectErrorCode(t, env.do(http.MethodGet, "/api/v1/admin/stats", token, nil), http.StatusForbidden, CodeAuthorization)
	}
}

func TestAdmin_ListAndGetUsers(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser("root", models.RoleAdmin)
	target, _ := env.createUser("target", models.RoleUser)

	var list models.UserList
	decodeEnvelope(t, env.do(http.MethodGet, "/api/v1/admin/users", adminToken, nil), &list)
	if list.Total != 2 || len(list.Users) != 2 {
		t.Errorf("list = %+v", list)
	}

	var profile models.UserProfile
	decodeEnvelope(t, env.do(http.MethodGet, fmt.Sprintf("/api/v1/admin/users/%d", target.ID), adminToken, nil), &profile)
	if profile.Username != "target" {
		t.Errorf("get user = %+v", profile)
	}
	expectErrorCode(t, env.do(http.MethodGet, "/api/v1/admin/users/9999", adminToken, nil), http.StatusNotFound, CodeNotFound)
}

func TestAdmin_RoleChange(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.createUser("boss", models.RoleAdmin)
	target, targetToken := env.createUser("promoted", models.RoleUser)

	expectErrorCode(t, env.do(http.MethodPost, "/api/v1/model/train", targetToken, map[string]int{"n_clusters": 2}),
		http.StatusForbidden, CodeAuthorization)

	rec := env.do(http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/role", target.ID), adminToken, map[string]string{"role": "analyst"})
	expectStatus(t, rec, http.StatusOK)
	var updated models.User
	decodeEnvelope(t, rec, &updated)
	if updated.Role != models.RoleAnalyst {
		t.Errorf("role = %q", updated.Role)
	}

	// The role is re-read per request, so the old token gains the permission.
	expectStatus(t, env.do(http.MethodPost, "/api/v1/model/train", targetToken, map[string]int{"n_clusters": 2}), http.StatusOK)

	expectErrorCode(t, env.do(http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/role", target.ID), adminToken, map[string]string{"role": "superuser"}),
		http.StatusBadRequest, CodeValidation)
	expectErrorCode(t, env.do(http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/role", admin.ID), adminToken, map[string]string{"role": "user"}),
		http.StatusBadRequest, CodeValidation)
}

func TestAdmin_ToggleActive(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.createUser("boss", models.RoleAdmin)
	target, targetToken := env.createUser("toggled", models.RoleUser)

	path := fmt.Sprintf("/api/v1/admin/users/%d/toggle-active", target.ID)
	var updated models.User
	decodeEnvelope(t, env.do(http.MethodPut, path, adminToken, nil), &updated)
	if updated.IsActive {
		t.Fatal("user should be inactive after first toggle")
	}
	expectErrorCode(t, env.do(http.MethodGet, "/api/v1/users/me/profile", targetToken, nil), http.StatusForbidden, CodeAuthorization)

	decodeEnvelope(t, env.do(http.MethodPut, path, adminToken, nil), &updated)
	if !updated.IsActive {
		t.Fatal("user should be active after second toggle")
	}
	expectStatus(t, env.do(http.MethodGet, "/api/v1/users/me/profile", targetToken, nil), http.StatusOK)

	expectErrorCode(t, env.do(http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/toggle-active", admin.ID), adminToken, nil),
		http.StatusBadRequest, CodeValidation)
}

func TestAdmin_DeleteUser(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.createUser("boss", models.RoleAdmin)
	target, _ := env.createUser("doomed", models.RoleUser)

	expectErrorCode(t, env.do(http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", admin.ID), adminToken, nil),
		http.StatusBadRequest, CodeValidation)

	expectStatus(t, env.do(http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", target.ID), adminToken, nil), http.StatusOK)
	expectErrorCode(t, env.do(http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", target.ID), adminToken, nil),
		http.StatusNotFound, CodeNotFound)
}

func TestAdmin_Stats(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser("boss", models.RoleAdmin)
	env.createUser("analyst", models.RoleAnalyst)
	_, userToken := env.createUser("someone", models.RoleUser)
	env.do(http.MethodPost, "/api/v1/profiles", userToken, profileBody("P"))

	var stats models.UserStats
	decodeEnvelope(t, env.do(http.MethodGet, "/api/v1/admin/stats", adminToken, nil), &stats)
	if stats.TotalUsers != 3 || stats.ActiveUsers != 3 || stats.TotalProfiles != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.UsersByRole[models.RoleAdmin] != 1 || stats.UsersByRole[models.RoleAnalyst] != 1 || stats.UsersByRole[models.RoleUser] != 1 {
		t.Errorf("users_by_role = %v", stats.UsersByRole)
	}
}
