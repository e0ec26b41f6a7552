// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/segmentus/internal/models"
)

// Health reports database connectivity and model state. The service is
// "degraded" while the database is unreachable; an untrained model is a
// normal state, not a fault.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:            status,
		Version:           h.version,
		DatabaseConnected: dbConnected,
		ModelState:        h.manager.State().String(),
		ModelReady:        h.manager.Ready(),
		Generation:        h.manager.Generation(),
		TrainedAt:         optionalTime(h.manager.TrainedAt()),
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.wsHub != nil {
		health.WebSocketClients = h.wsHub.GetClientCount()
	}

	respondSuccess(w, http.StatusOK, health, models.Metadata{})
}

// HealthLive always succeeds while the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, models.Metadata{})
}

// HealthReady returns 503 until the database answers and a model is in memory.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil
	modelReady := h.manager.Ready()
	ready := dbConnected && modelReady

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"model_ready":        modelReady,
			"ready_to_serve":     ready,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	})
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
