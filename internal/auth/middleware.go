// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/models"
)

// Auth modes.
const (
	AuthModeJWT  = "jwt"
	AuthModeNone = "none"
)

// TokenCookieName is the HTTP-only cookie set at login.
const TokenCookieName = "token"

// UserLookup loads the current account behind a token.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Middleware provides authentication middleware
type Middleware struct {
	jwtManager  *JWTManager
	revocations RevocationStore
	users       UserLookup
	authMode    string
	security    *logging.SecurityLogger
}

// NewMiddleware creates a new authentication middleware. users may be nil,
// in which case token claims are trusted without a database round trip.
func NewMiddleware(jwtManager *JWTManager, revocations RevocationStore, users UserLookup, authMode string) *Middleware {
	if authMode == "" {
		authMode = AuthModeJWT
	}
	return &Middleware{
		jwtManager:  jwtManager,
		revocations: revocations,
		users:       users,
		authMode:    authMode,
		security:    logging.NewSecurityLogger(),
	}
}

// AuthMode returns the configured mode.
func (m *Middleware) AuthMode() string {
	return m.authMode
}

// anonymousClaims are used when auth is disabled.
func anonymousClaims() *Claims {
	return &Claims{UserID: 0, Username: "anonymous", Role: models.RoleAdmin}
}

// Authenticate resolves the request's token into Claims and stores them in
// the request context. Requests without a valid token get 401; tokens of
// deactivated users get 403.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == AuthModeNone {
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), anonymousClaims())))
			return
		}

		claims, status, err := m.authenticate(r)
		if err != nil {
			m.security.Log(&logging.SecurityEvent{
				Event:  logging.EventTokenRejected,
				IP:     ClientIP(r),
				Reason: err.Error(),
			})
			if status == http.StatusUnauthorized {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			WriteAuthError(w, status, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

var (
	errMissingToken  = errors.New("not authenticated")
	errInvalidHeader = errors.New("invalid authorization header")
	errInvalidToken  = errors.New("could not validate credentials")
	errRevokedToken  = errors.New("token has been revoked")
	errInactiveUser  = errors.New("inactive user")
)

// authenticate returns the claims for r or an HTTP status and error.
func (m *Middleware) authenticate(r *http.Request) (*Claims, int, error) {
	token, err := ExtractToken(r)
	if err != nil {
		return nil, http.StatusUnauthorized, err
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
		return nil, http.StatusUnauthorized, errInvalidToken
	}

	if m.revocations != nil {
		revoked, err := m.revocations.IsRevoked(r.Context(), claims.JTI())
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Revocation lookup failed")
			return nil, http.StatusUnauthorized, errInvalidToken
		}
		if revoked {
			return nil, http.StatusUnauthorized, errRevokedToken
		}
	}

	if m.users != nil {
		user, err := m.users.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			return nil, http.StatusUnauthorized, errInvalidToken
		}
		if !user.IsActive {
			return nil, http.StatusForbidden, errInactiveUser
		}
		// Role and username changes apply to tokens issued before them.
		claims.Role = user.Role
		claims.Username = user.Username
	}

	return claims, 0, nil
}

// ExtractToken reads the bearer token from the Authorization header, falling
// back to the token cookie.
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie(TokenCookieName)
		if err != nil || cookie.Value == "" {
			return "", errMissingToken
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errInvalidHeader
	}
	return parts[1], nil
}

// SetTokenCookie writes the HTTP-only session cookie.
func SetTokenCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie expires the session cookie.
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClientIP returns the host part of RemoteAddr. Proxy headers are resolved
// upstream by chi's RealIP middleware.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SubjectID formats the claims' user id for logs and audit records.
func (c *Claims) SubjectID() string {
	return strconv.FormatInt(c.UserID, 10)
}

// WriteAuthError writes an APIResponse error for 401/403/429 responses.
func WriteAuthError(w http.ResponseWriter, status int, message string) {
	code := "AUTHENTICATION_ERROR"
	switch status {
	case http.StatusForbidden:
		code = "AUTHORIZATION_ERROR"
	case http.StatusTooManyRequests:
		code = "RATE_LIMIT_EXCEEDED"
	}
	resp := models.APIResponse{
		Status:   "error",
		Error:    &models.APIError{Code: code, Message: message},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Warn().Err(err).Msg("Failed to encode auth error response")
	}
}

// SecurityHeaders adds security headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		csp := "default-src 'self'; " +
			"img-src 'self' data:; " +
			"connect-src 'self' wss: ws:; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
		w.Header().Set("Content-Security-Policy", csp)

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// HSTS (only if using HTTPS - check X-Forwarded-Proto)
		if r.Header.Get("X-Forwarded-Proto") == "https" || r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next.ServeHTTP(w, r)
	})
}
