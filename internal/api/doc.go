// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

/*
Package api provides the HTTP surface of Segmentus.

Every endpoint lives under /api/v1 and answers with the standard envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "...", "query_time_ms": 3, "cached": true, "generation": "..."}
	}

Errors use the same envelope with status "error" and an error object carrying
a stable code (VALIDATION_ERROR, MODEL_NOT_READY, TRAINING_IN_PROGRESS, ...).

Route groups:

  - /health                       public liveness and model state
  - /auth/{register,login,logout} account lifecycle, login is rate limited per IP
  - /model/...                    training, prediction, statistics, elbow data
  - /history                      the caller's prediction history
  - /charts/...                   go-echarts documents as data URIs or raw HTML
  - /users/me...                  the caller's own account
  - /profiles/...                 saved customer profiles owned by the caller
  - /admin/...                    user management, admin role only
  - /ws                           model lifecycle notifications over WebSocket

Authentication is handled by internal/auth (JWT bearer or cookie) and every
protected route is additionally gated by the Casbin policy in internal/authz.
Prometheus metrics are exposed at /metrics outside the versioned prefix.
*/
package api
