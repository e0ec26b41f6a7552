// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package models

import "time"

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status            string     `json:"status"`
	Version           string     `json:"version"`
	DatabaseConnected bool       `json:"database_connected"`
	ModelState        string     `json:"model_state"`
	ModelReady        bool       `json:"model_ready"`
	Generation        string     `json:"generation,omitempty"`
	TrainedAt         *time.Time `json:"trained_at,omitempty"`
	WebSocketClients  int        `json:"websocket_clients"`
	Uptime            float64    `json:"uptime"`
}

// ModelInfo is the payload of GET /model/info.
type ModelInfo struct {
	State      string      `json:"state"`
	Ready      bool        `json:"ready"`
	Generation string      `json:"generation,omitempty"`
	TrainedAt  *time.Time  `json:"trained_at,omitempty"`
	NClusters  int         `json:"n_clusters,omitempty"`
	Artifact   interface{} `json:"artifact,omitempty"`
}
