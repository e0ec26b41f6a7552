// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

/*
Package models defines the data structures shared by the database, API and
auth layers of Segmentus.

Model Categories:

1. Database Models:
  - User: Account with bcrypt password hash and role
  - CustomerProfile: Saved customer feature record owned by a user
  - PredictionHistory: One stored prediction per predict call

2. API Request/Response Models:
  - APIResponse: Standard response wrapper
  - APIError: Structured error with machine-readable code
  - LoginRequest / LoginResponse: Authentication payloads

3. Role Constants:
  - RoleUser, RoleAnalyst, RoleAdmin with IsValidRole

Clustering types (Record, Prediction, ClusterStats) live in internal/segment;
models only carries what is persisted or sent over HTTP around them.
*/
package models
