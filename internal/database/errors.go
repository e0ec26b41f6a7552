// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package database

import (
	"errors"
	"io"
	"strings"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("customer profile not found")
	ErrUsernameTaken   = errors.New("username already in use")
	ErrEmailTaken      = errors.New("email already in use")
)

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isUniqueConstraintError reports whether err is a DuckDB unique violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// DuckDB unique constraint error messages contain "UNIQUE constraint" or "Duplicate key"
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key")
}

// uniqueViolation maps a users-table unique violation to the matching
// sentinel. DuckDB names the column in the message: Duplicate key "email: x".
func uniqueViolation(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), `key "email:`) {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}
