// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// PredictionHistory is one stored prediction. CustomerData holds the request
// body as JSON so the row stays readable if the feature set changes.
type PredictionHistory struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	CustomerData json.RawMessage `json:"customer_data"`
	Cluster      int             `json:"cluster"`
	ClusterName  string          `json:"cluster_name"`
	Confidence   float64         `json:"confidence"`
	CreatedAt    time.Time       `json:"created_at"`
}

// HistoryPage is the /history response.
type HistoryPage struct {
	History []PredictionHistory `json:"history"`
	Total   int64               `json:"total"`
}
