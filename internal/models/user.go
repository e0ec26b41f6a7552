// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package models

import "time"

// User is an account row. HashedPassword never leaves the server.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name,omitempty"`
	HashedPassword string    `json:"-"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserUpdate carries a partial update. Nil fields are left unchanged.
type UserUpdate struct {
	Email          *string
	Username       *string
	FullName       *string
	HashedPassword *string
}

// UserProfile is the /users/me/profile response: the user plus usage counters.
type UserProfile struct {
	User
	TotalPredictions   int64 `json:"total_predictions"`
	TotalSavedProfiles int64 `json:"total_saved_profiles"`
}

// UserStats is the admin dashboard aggregate.
type UserStats struct {
	TotalUsers       int64            `json:"total_users"`
	ActiveUsers      int64            `json:"active_users"`
	InactiveUsers    int64            `json:"inactive_users"`
	TotalPredictions int64            `json:"total_predictions"`
	TotalProfiles    int64            `json:"total_profiles"`
	UsersByRole      map[string]int64 `json:"users_by_role"`
}
