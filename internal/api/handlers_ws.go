// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"net/http"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/logging"
	ws "github.com/tomtom215/segmentus/internal/websocket"
)

// WebSocket upgrades the connection and subscribes it to model events.
//
// Method: GET
// Path: /api/v1/ws
//
// Browsers cannot set an Authorization header on the upgrade request, so
// the session cookie set at login is the usual credential here.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, CodeInternal, "WebSocket notifications are disabled", nil)
		return
	}
	claims := auth.GetClaims(r.Context())
	if err := ws.Serve(h.wsHub, &h.upgrader, w, r, claims.UserID); err != nil {
		// The upgrader has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
	}
}
