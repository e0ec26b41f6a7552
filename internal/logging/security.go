// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// Security event names.
const (
	EventLoginSuccess  = "login_success"
	EventLoginFailure  = "login_failure"
	EventLogout        = "logout"
	EventRegister      = "register"
	EventRoleChanged   = "role_changed"
	EventUserDeleted   = "user_deleted"
	EventUserToggled   = "user_active_toggled"
	EventAccessDenied  = "access_denied"
	EventTokenRejected = "token_rejected"
)

// SecurityEvent is an authentication or authorization audit record.
type SecurityEvent struct {
	Event    string
	Success  bool
	UserID   string
	Username string
	ActorID  string
	IP       string
	Reason   string
	Details  map[string]string
}

// SecurityLogger writes SecurityEvents with identifiers masked.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger returns a logger tagged component=security.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("security")}
}

// NewSecurityLoggerWithLogger wraps an explicit logger.
//
//nolint:gocritic // zerolog.Logger is passed by value by design of the library
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger}
}

// Log writes ev. Failures log at warn, everything else at info.
func (l *SecurityLogger) Log(ev *SecurityEvent) {
	e := l.logger.Info()
	status := "success"
	if !ev.Success {
		e = l.logger.Warn()
		status = "failed"
	}
	e = e.Str("event", ev.Event).Str("status", status)

	if ev.UserID != "" {
		e = e.Str("user_id", SanitizeID(ev.UserID))
	}
	if ev.Username != "" {
		e = e.Str("username", SanitizeUsername(ev.Username))
	}
	if ev.ActorID != "" {
		e = e.Str("actor_id", SanitizeID(ev.ActorID))
	}
	if ev.IP != "" {
		e = e.Str("ip", ev.IP)
	}
	if ev.Reason != "" {
		e = e.Str("reason", ev.Reason)
	}
	for k, v := range ev.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}
	e.Msg("security event")
}

// SanitizeToken keeps the first and last four characters of a token.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeID masks a user or token ID.
func SanitizeID(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:4] + "..." + id[len(id)-4:]
}

// SanitizeUsername keeps the first two characters.
func SanitizeUsername(username string) string {
	if len(username) <= 2 {
		if username == "" {
			return ""
		}
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeEmail masks the local part of an address.
func SanitizeEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	return SanitizeUsername(email[:at]) + email[at:]
}

var sensitiveKeys = []string{"password", "secret", "token", "authorization", "cookie"}

// SanitizeValue redacts values whose key names a credential.
func SanitizeValue(key, value string) string {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return "[REDACTED]"
		}
	}
	if strings.Contains(k, "email") {
		return SanitizeEmail(value)
	}
	return value
}
