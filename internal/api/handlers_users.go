// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/database"
	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/models"
)

// GetMyProfile returns the caller's account with usage counters.
//
// Method: GET
// Path: /api/v1/users/me/profile
func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	profile, err := h.db.GetUserProfile(r.Context(), claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, profile, models.Metadata{})
}

// UpdateMe applies a partial update to the caller's account. A new
// password is hashed before storage. Taking a username or email that
// belongs to someone else is a 400, not a conflict: the caller's own
// account exists, the requested value is simply unavailable.
//
// Method: PUT
// Path: /api/v1/users/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())

	var req models.UpdateMeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	upd := models.UserUpdate{
		Email:    trimmed(req.Email),
		Username: req.Username,
		FullName: trimmed(req.FullName),
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to update account", err)
			return
		}
		upd.HashedPassword = &hash
	}

	user, err := h.db.UpdateUser(r.Context(), claims.UserID, upd)
	switch {
	case errors.Is(err, database.ErrUsernameTaken):
		respondError(w, http.StatusBadRequest, CodeValidation, "Username already in use", nil)
		return
	case errors.Is(err, database.ErrEmailTaken):
		respondError(w, http.StatusBadRequest, CodeValidation, "Email already in use", nil)
		return
	case err != nil:
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, user, models.Metadata{})
}

// DeleteMe removes the caller's account together with their profiles and
// history, then revokes the token used for the request.
//
// Method: DELETE
// Path: /api/v1/users/me
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if err := h.db.DeleteUser(r.Context(), claims.UserID); err != nil {
		respondDomainError(w, err)
		return
	}
	if err := h.revokeToken(r, claims); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to revoke token of deleted account")
	}
	auth.ClearTokenCookie(w)

	h.security.Log(&logging.SecurityEvent{
		Event:    logging.EventUserDeleted,
		Success:  true,
		UserID:   claims.SubjectID(),
		Username: claims.Username,
		ActorID:  claims.SubjectID(),
		IP:       auth.ClientIP(r),
	})
	respondSuccess(w, http.StatusOK, message{Message: "Account deleted"}, models.Metadata{})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
