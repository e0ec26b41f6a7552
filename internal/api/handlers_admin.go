// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/models"
)

const (
	usersDefaultLimit = 100
	usersMaxLimit     = 1000
)

// ListUsers returns a page of accounts plus global usage totals.
//
// Method: GET
// Path: /api/v1/admin/users?skip=0&limit=100
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, apiErr := parsePagination(r, usersDefaultLimit, usersMaxLimit)
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	start := time.Now()
	users, total, err := h.db.ListUsers(r.Context(), page.Skip, page.Limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	stats, err := h.db.GetUserStats(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	respondSuccess(w, http.StatusOK, models.UserList{
		Users:            users,
		Total:            total,
		TotalPredictions: stats.TotalPredictions,
		TotalProfiles:    stats.TotalProfiles,
	}, models.Metadata{QueryTimeMS: elapsedMS(start)})
}

// GetUser returns one account with its usage counters.
//
// Method: GET
// Path: /api/v1/admin/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid user id", nil)
		return
	}
	profile, err := h.db.GetUserProfile(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, profile, models.Metadata{})
}

// UpdateUserRole changes an account's role. Admins cannot demote
// themselves, which would leave the deployment without a way back in.
//
// Method: PUT
// Path: /api/v1/admin/users/{id}/role
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid user id", nil)
		return
	}

	var req models.RoleUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if id == claims.UserID && req.Role != models.RoleAdmin {
		respondError(w, http.StatusBadRequest, CodeValidation, "Cannot remove your own admin role", nil)
		return
	}

	user, err := h.db.SetUserRole(r.Context(), id, req.Role)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.security.Log(&logging.SecurityEvent{
		Event:    logging.EventRoleChanged,
		Success:  true,
		UserID:   strconv.FormatInt(user.ID, 10),
		Username: user.Username,
		ActorID:  claims.SubjectID(),
		IP:       auth.ClientIP(r),
		Details:  map[string]string{"role": user.Role},
	})
	respondSuccess(w, http.StatusOK, user, models.Metadata{})
}

// DeleteUser removes an account and everything it owns.
//
// Method: DELETE
// Path: /api/v1/admin/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid user id", nil)
		return
	}
	if id == claims.UserID {
		respondError(w, http.StatusBadRequest, CodeValidation, "Cannot delete your own account from the admin API", nil)
		return
	}

	if err := h.db.DeleteUser(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	h.security.Log(&logging.SecurityEvent{
		Event:   logging.EventUserDeleted,
		Success: true,
		UserID:  strconv.FormatInt(id, 10),
		ActorID: claims.SubjectID(),
		IP:      auth.ClientIP(r),
	})
	respondSuccess(w, http.StatusOK, message{Message: "User deleted"}, models.Metadata{})
}

// ToggleUserActive flips an account between active and inactive. Inactive
// accounts cannot log in and their existing tokens stop working on the
// next request.
//
// Method: PUT
// Path: /api/v1/admin/users/{id}/toggle-active
func (h *Handler) ToggleUserActive(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid user id", nil)
		return
	}
	if id == claims.UserID {
		respondError(w, http.StatusBadRequest, CodeValidation, "Cannot deactivate your own account", nil)
		return
	}

	current, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	user, err := h.db.SetUserActive(r.Context(), id, !current.IsActive)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.security.Log(&logging.SecurityEvent{
		Event:    logging.EventUserToggled,
		Success:  true,
		UserID:   strconv.FormatInt(user.ID, 10),
		Username: user.Username,
		ActorID:  claims.SubjectID(),
		IP:       auth.ClientIP(r),
		Details:  map[string]string{"is_active": strconv.FormatBool(user.IsActive)},
	})
	respondSuccess(w, http.StatusOK, user, models.Metadata{})
}

// GetStats returns account and usage totals.
//
// Method: GET
// Path: /api/v1/admin/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.db.GetUserStats(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, stats, models.Metadata{QueryTimeMS: elapsedMS(start)})
}
