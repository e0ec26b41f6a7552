// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/config"
	"github.com/tomtom215/segmentus/internal/database"
	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/models"
)

// EnsureAdmin creates the configured bootstrap admin when no account with
// that username exists. An existing account is left untouched, including
// its password and role. Returns whether a user was created.
func EnsureAdmin(ctx context.Context, db *database.DB, sec *config.SecurityConfig) (bool, error) {
	if sec.AdminUsername == "" || sec.AdminPassword == "" {
		return false, nil
	}

	existing, err := db.GetUserByUsername(ctx, sec.AdminUsername)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		return false, fmt.Errorf("look up admin user: %w", err)
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			logging.Warn().Str("username", existing.Username).Str("role", existing.Role).
				Msg("Bootstrap admin username exists without the admin role")
		}
		return false, nil
	}

	hash, err := auth.HashPassword(sec.AdminPassword)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	email := sec.AdminEmail
	if email == "" {
		email = sec.AdminUsername + "@segmentus.local"
	}

	user := &models.User{
		Email:          email,
		Username:       sec.AdminUsername,
		FullName:       "Administrator",
		HashedPassword: hash,
		Role:           models.RoleAdmin,
		IsActive:       true,
	}
	if err := db.CreateUser(ctx, user); err != nil {
		return false, fmt.Errorf("create admin user: %w", err)
	}
	logging.Info().Str("username", user.Username).Int64("user_id", user.ID).Msg("Bootstrap admin created")
	return true, nil
}
