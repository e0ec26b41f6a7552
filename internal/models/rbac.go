// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

/*
rbac.go - Role Constants

Role Hierarchy:
  - user: Default role, can predict and manage own profiles
  - analyst: Can also retrain the model (inherits user)
  - admin: Full access including user management (inherits analyst)

The hierarchy itself is enforced by the Casbin model in internal/authz.
*/

package models

// Role constants define the standard roles in the system.
// These align with the Casbin policy definitions in internal/authz/policy.csv.
const (
	// RoleUser is the default role assigned at registration.
	RoleUser = "user"

	// RoleAnalyst can trigger model training.
	RoleAnalyst = "analyst"

	// RoleAdmin has full access including user management.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleUser, RoleAnalyst, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
