// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/segmentus/internal/database"
	"github.com/tomtom215/segmentus/internal/segment"
)

// Error codes carried in APIError.Code.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeModelNotReady      = "MODEL_NOT_READY"
	CodeTrainingInProgress = "TRAINING_IN_PROGRESS"
	CodeAuthentication     = "AUTHENTICATION_ERROR"
	CodeAuthorization      = "AUTHORIZATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	CodeTimeout            = "TIMEOUT"
	CodeInternal           = "INTERNAL_ERROR"
)

// apiFailure is a classified error ready for respondError.
type apiFailure struct {
	status  int
	code    string
	message string
}

// classifyError maps domain and storage errors onto HTTP semantics.
// Unknown errors become a 500 with a generic message; the cause is logged
// but never sent to the client.
func classifyError(err error) apiFailure {
	switch {
	case errors.Is(err, segment.ErrTrainingInProgress):
		return apiFailure{http.StatusConflict, CodeTrainingInProgress, "Training already in progress"}
	case errors.Is(err, segment.ErrModelNotReady):
		return apiFailure{http.StatusBadRequest, CodeModelNotReady, "Model not trained"}
	case errors.Is(err, segment.ErrInsufficientData):
		return apiFailure{http.StatusUnprocessableEntity, CodeInsufficientData, err.Error()}
	case errors.Is(err, segment.ErrInvalidInput):
		return apiFailure{http.StatusBadRequest, CodeValidation, err.Error()}
	case errors.Is(err, database.ErrUserNotFound):
		return apiFailure{http.StatusNotFound, CodeNotFound, "User not found"}
	case errors.Is(err, database.ErrProfileNotFound):
		return apiFailure{http.StatusNotFound, CodeNotFound, "Profile not found"}
	case errors.Is(err, database.ErrUsernameTaken):
		return apiFailure{http.StatusConflict, CodeConflict, "Username already registered"}
	case errors.Is(err, database.ErrEmailTaken):
		return apiFailure{http.StatusConflict, CodeConflict, "Email already registered"}
	case errors.Is(err, context.DeadlineExceeded):
		return apiFailure{http.StatusGatewayTimeout, CodeTimeout, "Operation timed out"}
	default:
		return apiFailure{http.StatusInternalServerError, CodeInternal, "Internal server error"}
	}
}

// respondDomainError classifies err and writes it. Only 5xx failures carry
// the underlying error into the log; client errors are expected traffic.
func respondDomainError(w http.ResponseWriter, err error) {
	f := classifyError(err)
	var logErr error
	if f.status >= http.StatusInternalServerError {
		logErr = err
	}
	respondError(w, f.status, f.code, f.message, logErr)
}
