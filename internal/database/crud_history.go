// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/segmentus/internal/models"
)

// History page bounds for ListPredictionHistory.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// InsertPrediction stores one prediction. customerData is marshaled to JSON.
func (db *DB) InsertPrediction(ctx context.Context, userID int64, customerData any, cluster int, clusterName string, confidence float64) (h *models.PredictionHistory, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "prediction_history", time.Now(), &err)

	data, err := json.Marshal(customerData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode customer data: %w", err)
	}

	h = &models.PredictionHistory{
		UserID:       userID,
		CustomerData: data,
		Cluster:      cluster,
		ClusterName:  clusterName,
		Confidence:   confidence,
		CreatedAt:    time.Now().UTC(),
	}
	err = db.conn.QueryRowContext(ctx, `INSERT INTO prediction_history
			(user_id, customer_data, cluster, cluster_name, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		h.UserID, string(data), h.Cluster, h.ClusterName, h.Confidence, h.CreatedAt,
	).Scan(&h.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert prediction history: %w", err)
	}
	return h, nil
}

// ListPredictionHistory returns a page of userID's predictions, newest
// first, together with the user's total count.
func (db *DB) ListPredictionHistory(ctx context.Context, userID int64, skip, limit int) (page *models.HistoryPage, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "prediction_history", time.Now(), &err)

	skip, limit = normalizePage(skip, limit, DefaultHistoryLimit, MaxHistoryLimit)

	page = &models.HistoryPage{History: make([]models.PredictionHistory, 0)}
	if err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM prediction_history WHERE user_id = ?`, userID).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("failed to count prediction history: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT id, user_id, customer_data, cluster, cluster_name, confidence, created_at
		FROM prediction_history WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, userID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list prediction history: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var h models.PredictionHistory
		var data string
		if err = rows.Scan(&h.ID, &h.UserID, &data, &h.Cluster, &h.ClusterName, &h.Confidence, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction history: %w", err)
		}
		h.CustomerData = json.RawMessage(data)
		page.History = append(page.History, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prediction history: %w", err)
	}
	return page, nil
}

// CountPredictions returns how many predictions userID has made.
func (db *DB) CountPredictions(ctx context.Context, userID int64) (n int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "prediction_history", time.Now(), &err)

	err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM prediction_history WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return n, nil
}

// GetUserProfile returns the user together with their usage counters.
func (db *DB) GetUserProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	user, err := db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	predictions, err := db.CountPredictions(ctx, userID)
	if err != nil {
		return nil, err
	}
	profiles, err := db.CountProfiles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{User: *user, TotalPredictions: predictions, TotalSavedProfiles: profiles}, nil
}
