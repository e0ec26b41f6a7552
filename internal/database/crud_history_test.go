// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
)

func TestPredictionHistory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	for i := 0; i < 3; i++ {
		data := map[string]any{"age": 20 + i, "sex": "Male"}
		h, err := db.InsertPrediction(ctx, alice.ID, data, i, fmt.Sprintf("Segment %d", i), 0.5)
		checkNoError(t, err)
		if h.ID <= 0 {
			t.Fatalf("expected assigned id, got %d", h.ID)
		}
	}
	_, err := db.InsertPrediction(ctx, bob.ID, map[string]any{"age": 50}, 0, "Budget Conscious", 0.9)
	checkNoError(t, err)

	page, err := db.ListPredictionHistory(ctx, alice.ID, 0, 0)
	checkNoError(t, err)
	checkInt64Equal(t, "total", page.Total, 3)
	if len(page.History) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(page.History))
	}
	if page.History[0].Cluster != 2 {
		t.Errorf("expected newest first (cluster 2), got cluster %d", page.History[0].Cluster)
	}

	var decoded map[string]any
	checkNoError(t, json.Unmarshal(page.History[0].CustomerData, &decoded))
	if decoded["sex"] != "Male" {
		t.Errorf("customer_data not preserved: %s", page.History[0].CustomerData)
	}

	page, err = db.ListPredictionHistory(ctx, alice.ID, 2, 10)
	checkNoError(t, err)
	if len(page.History) != 1 || page.History[0].Cluster != 0 {
		t.Errorf("unexpected second page: %+v", page.History)
	}
	checkInt64Equal(t, "total on later page", page.Total, 3)
}

func TestGetUserProfile_Counters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	checkNoError(t, db.CreateProfile(ctx, newTestProfile(alice.ID, "x")))
	_, err := db.InsertPrediction(ctx, alice.ID, map[string]int{"age": 30}, 1, "High Value", 0.7)
	checkNoError(t, err)
	_, err = db.InsertPrediction(ctx, alice.ID, map[string]int{"age": 31}, 1, "High Value", 0.7)
	checkNoError(t, err)

	profile, err := db.GetUserProfile(ctx, alice.ID)
	checkNoError(t, err)
	checkStringEqual(t, "username", profile.Username, "alice")
	checkInt64Equal(t, "total_predictions", profile.TotalPredictions, 2)
	checkInt64Equal(t, "total_saved_profiles", profile.TotalSavedProfiles, 1)

	_, err = db.GetUserProfile(ctx, 999)
	checkErrorIs(t, err, ErrUserNotFound)
}
