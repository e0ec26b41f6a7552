// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package authz

import (
	"net/http"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/logging"
)

// Middleware enforces policy on routes. It must run after auth.Authenticate.
type Middleware struct {
	enforcer *Enforcer
	security *logging.SecurityLogger
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer, security: logging.NewSecurityLogger()}
}

// Authorize returns chi-compatible middleware that requires the caller's
// role to allow action on object.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetClaims(r.Context())
			if claims == nil {
				auth.WriteAuthError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			allowed, err := m.enforcer.Enforce(claims.Role, object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if !allowed {
				m.security.Log(&logging.SecurityEvent{
					Event:    logging.EventAccessDenied,
					UserID:   claims.SubjectID(),
					Username: claims.Username,
					IP:       auth.ClientIP(r),
					Reason:   "role " + claims.Role + " lacks " + object + ":" + action,
				})
				auth.WriteAuthError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
