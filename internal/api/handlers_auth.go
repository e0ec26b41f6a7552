// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/database"
	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/metrics"
	"github.com/tomtom215/segmentus/internal/models"
)

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeLoginTiming burns one bcrypt comparison so unknown usernames
// take as long to reject as wrong passwords.
func equalizeLoginTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("segmentus-timing-equalizer")
	})
	if dummyHash != "" {
		_ = auth.CheckPassword(dummyHash, password)
	}
}

// Register creates a new account with the default user role.
//
// Method: POST
// Path: /api/v1/auth/register
//
// Responses: 201 with the user, 400 on validation failure, 409 when the
// username or email is already registered.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to create account", err)
		return
	}

	user := &models.User{
		Email:          strings.TrimSpace(req.Email),
		Username:       req.Username,
		FullName:       strings.TrimSpace(req.FullName),
		HashedPassword: hash,
		Role:           models.RoleUser,
		IsActive:       true,
	}
	if err := h.db.CreateUser(r.Context(), user); err != nil {
		respondDomainError(w, err)
		return
	}

	h.security.Log(&logging.SecurityEvent{
		Event:    logging.EventRegister,
		Success:  true,
		UserID:   strconv.FormatInt(user.ID, 10),
		Username: user.Username,
		IP:       auth.ClientIP(r),
	})
	respondSuccess(w, http.StatusCreated, user, models.Metadata{})
}

// Login authenticates a user and issues a JWT.
//
// Method: POST
// Path: /api/v1/auth/login
//
// The token is returned in the body and also set as an HTTP-only cookie.
// Attempts are limited per client IP; inactive accounts get 403.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ip := auth.ClientIP(r)
	if !h.loginLimiter.Allow(ip) {
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		metrics.APIRateLimitHits.WithLabelValues("/api/v1/auth/login").Inc()
		h.security.Log(&logging.SecurityEvent{
			Event:  logging.EventLoginFailure,
			IP:     ip,
			Reason: "rate_limited",
		})
		auth.WriteAuthError(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
		return
	}

	var req models.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Login failed", err)
		return
	}
	if user == nil {
		equalizeLoginTiming(req.Password)
		h.rejectLogin(w, req.Username, ip, "unknown_user")
		return
	}
	if err := auth.CheckPassword(user.HashedPassword, req.Password); err != nil {
		h.rejectLogin(w, req.Username, ip, "bad_password")
		return
	}
	if !user.IsActive {
		metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		h.security.Log(&logging.SecurityEvent{
			Event:    logging.EventLoginFailure,
			UserID:   strconv.FormatInt(user.ID, 10),
			Username: user.Username,
			IP:       ip,
			Reason:   "inactive",
		})
		auth.WriteAuthError(w, http.StatusForbidden, "Inactive user")
		return
	}

	token, claims, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to issue token", err)
		return
	}

	auth.SetTokenCookie(w, r, token, h.jwtManager.Timeout())
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.security.Log(&logging.SecurityEvent{
		Event:    logging.EventLoginSuccess,
		Success:  true,
		UserID:   claims.SubjectID(),
		Username: user.Username,
		IP:       ip,
	})

	respondSuccess(w, http.StatusOK, models.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user,
	}, models.Metadata{})
}

func (h *Handler) rejectLogin(w http.ResponseWriter, username, ip, reason string) {
	metrics.LoginAttempts.WithLabelValues("invalid").Inc()
	h.security.Log(&logging.SecurityEvent{
		Event:    logging.EventLoginFailure,
		Username: username,
		IP:       ip,
		Reason:   reason,
	})
	auth.WriteAuthError(w, http.StatusUnauthorized, "Incorrect username or password")
}

// Logout revokes the caller's token and clears the session cookie.
//
// Method: POST
// Path: /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims != nil {
		if err := h.revokeToken(r, claims); err != nil {
			respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to revoke token", err)
			return
		}
		h.security.Log(&logging.SecurityEvent{
			Event:    logging.EventLogout,
			Success:  true,
			UserID:   claims.SubjectID(),
			Username: claims.Username,
			IP:       auth.ClientIP(r),
		})
	}

	auth.ClearTokenCookie(w)
	respondSuccess(w, http.StatusOK, message{Message: "Logged out"}, models.Metadata{})
}

// revokeToken blocks the caller's JTI until the token would have expired.
// Anonymous claims carry no JTI and are skipped.
func (h *Handler) revokeToken(r *http.Request, claims *auth.Claims) error {
	if h.revocations == nil || claims.JTI() == "" {
		return nil
	}
	entry := &auth.RevokedToken{
		JTI:       claims.JTI(),
		UserID:    claims.UserID,
		RevokedAt: time.Now().UTC(),
	}
	if claims.ExpiresAt != nil {
		entry.ExpiresAt = claims.ExpiresAt.Time
	}
	return h.revocations.Revoke(r.Context(), entry, claims.RemainingTTL())
}
