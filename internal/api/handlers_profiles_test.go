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

func profileBody(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":               name,
		"sex":                "Male",
		"age":                42,
		"annual_income":      55000.0,
		"spending_score":     30,
		"purchase_frequency": 6,
		"notes":              "met at trade show",
	}
}

func TestProfiles_CRUD(t *testing.T) {
	env := newTestEnv(t)
	u, token := env.createUser("owner", models.RoleUser)

	rec := env.do(http.MethodPost, "/api/v1/profiles", token, profileBody("  Big Spender  "))
	expectStatus(t, rec, http.StatusCreated)
	var created models.CustomerProfile
	decodeEnvelope(t, rec, &created)
	if created.ID == 0 || created.UserID != u.ID || created.Name != "Big Spender" {
		t.Fatalf("created = %+v", created)
	}
	path := fmt.Sprintf("/api/v1/profiles/%d", created.ID)

	var got models.CustomerProfile
	decodeEnvelope(t, env.do(http.MethodGet, path, token, nil), &got)
	if got.ID != created.ID || got.Age != 42 || got.Notes != "met at trade show" {
		t.Errorf("get = %+v", got)
	}

	rec = env.do(http.MethodPut, path, token, map[string]interface{}{"age": 43, "notes": "updated"})
	expectStatus(t, rec, http.StatusOK)
	var updated models.CustomerProfile
	decodeEnvelope(t, rec, &updated)
	if updated.Age != 43 || updated.Notes != "updated" || updated.Name != "Big Spender" {
		t.Errorf("partial update = %+v", updated)
	}

	env.do(http.MethodPost, "/api/v1/profiles", token, profileBody("Second"))
	var list profileList
	decodeEnvelope(t, env.do(http.MethodGet, "/api/v1/profiles?limit=1", token, nil), &list)
	if list.Total != 2 || len(list.Profiles) != 1 {
		t.Errorf("list = total %d len %d, want 2 and 1", list.Total, len(list.Profiles))
	}

	expectStatus(t, env.do(http.MethodDelete, path, token, nil), http.StatusOK)
	expectErrorCode(t, env.do(http.MethodGet, path, token, nil), http.StatusNotFound, CodeNotFound)
}

func TestProfiles_OwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.createUser("alice", models.RoleUser)
	_, otherToken := env.createUser("mallory", models.RoleAdmin)

	var created models.CustomerProfile
	decodeEnvelope(t, env.do(http.MethodPost, "/api/v1/profiles", ownerToken, profileBody("Private")), &created)
	path := fmt.Sprintf("/api/v1/profiles/%d", created.ID)

	// Even an admin sees another user's profile as missing.
	expectErrorCode(t, env.do(http.MethodGet, path, otherToken, nil), http.StatusNotFound, CodeNotFound)
	expectErrorCode(t, env.do(http.MethodPut, path, otherToken, map[string]int{"age": 50}), http.StatusNotFound, CodeNotFound)
	expectErrorCode(t, env.do(http.MethodDelete, path, otherToken, nil), http.StatusNotFound, CodeNotFound)

	var list profileList
	decodeEnvelope(t, env.do(http.MethodGet, "/api/v1/profiles", otherToken, nil), &list)
	if list.Total != 0 || len(list.Profiles) != 0 {
		t.Errorf("other user lists %+v", list)
	}

	// The owner's profile survives the attempts.
	expectStatus(t, env.do(http.MethodGet, path, ownerToken, nil), http.StatusOK)
}

func TestProfiles_Validation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("val", models.RoleUser)

	blank := profileBody("   ")
	expectErrorCode(t, env.do(http.MethodPost, "/api/v1/profiles", token, blank), http.StatusBadRequest, CodeValidation)

	bad := profileBody("Ok")
	bad["spending_score"] = 0
	expectErrorCode(t, env.do(http.MethodPost, "/api/v1/profiles", token, bad), http.StatusBadRequest, CodeValidation)

	expectErrorCode(t, env.do(http.MethodGet, "/api/v1/profiles/abc", token, nil), http.StatusBadRequest, CodeValidation)

	var created models.CustomerProfile
	decodeEnvelope(t, env.do(http.MethodPost, "/api/v1/profiles", token, profileBody("Ok")), &created)
	path := fmt.Sprintf("/api/v1/profiles/%d", created.ID)
	expectErrorCode(t, env.do(http.MethodPut, path, token, map[string]string{"name": "  "}), http.StatusBadRequest, CodeValidation)
	expectErrorCode(t, env.do(http.MethodPut, path, token, map[string]string{"sex": "x"}), http.StatusBadRequest, CodeValidation)
}
