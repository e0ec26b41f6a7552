// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the work factor for new hashes.
var bcryptCost = 12

// ErrInvalidCredentials is returned for a wrong username or password. The
// two cases are deliberately indistinguishable to callers.
var ErrInvalidCredentials = errors.New("incorrect username or password")

// SetBcryptCostForTesting lowers the work factor so tests that hash many
// passwords stay fast. Returns the previous cost.
func SetBcryptCostForTesting(cost int) int {
	prev := bcryptCost
	bcryptCost = cost
	return prev
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	// bcrypt silently ignores bytes past 72; reject instead of truncating
	if len(password) > 72 {
		return "", fmt.Errorf("password exceeds 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with a stored bcrypt hash in constant time.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
