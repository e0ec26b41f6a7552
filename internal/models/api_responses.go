// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses, with metadata
// for observability and caching information.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"cluster": 2, "cluster_name": "Average Spender", "confidence": 0.81},
//	  "metadata": {
//	    "timestamp": "2026-03-01T12:00:00Z",
//	    "query_time_ms": 3
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "MODEL_NOT_READY",
//	    "message": "Model not trained"
//	  },
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance tracking.
//
// Fields:
//   - Timestamp: Server time when response was generated (RFC3339 format)
//   - QueryTimeMS: Handler execution time in milliseconds (0 if cached)
//   - Cached: Whether response was served from cache (omitted if false)
//   - Generation: Model generation the data was computed from (model endpoints only)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Generation  string    `json:"generation,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - INSUFFICIENT_DATA: Too few samples for the requested cluster count
//   - MODEL_NOT_READY: No trained or loaded model
//   - TRAINING_IN_PROGRESS: Another training run holds the lock
//   - AUTHENTICATION_ERROR: Invalid/missing credentials
//   - AUTHORIZATION_ERROR: Insufficient permissions
//   - NOT_FOUND: Resource doesn't exist
//   - CONFLICT: Username or email already registered
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - INTERNAL_ERROR: Anything else
//
// Example:
//
//	{
//	  "code": "VALIDATION_ERROR",
//	  "message": "Invalid request body",
//	  "details": {"age": "must be at least 18"}
//	}
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	FullName string `json:"full_name" validate:"max=100"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest represents user login credentials.
//
// Security:
//   - Password is transmitted in plaintext (HTTPS required)
//   - Password is compared against a bcrypt hash
//   - Rate limited per client IP
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login response with JWT token.
//
// Example:
//
//	{
//	  "access_token": "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...",
//	  "token_type": "bearer",
//	  "expires_at": "2026-03-02T12:00:00Z",
//	  "user": {"id": 1, "username": "admin", "role": "admin", ...}
//	}
//
// Token usage:
//   - Set as HTTP-only cookie by server
//   - OR sent as Authorization: Bearer <token> header
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// UpdateMeRequest is the body of PUT /users/me.
type UpdateMeRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Username *string `json:"username" validate:"omitempty,min=3,max=50,alphanum"`
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Password *string `json:"password" validate:"omitempty,min=6,max=128"`
}

// RoleUpdateRequest is the body of PUT /admin/users/{id}/role.
type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=user analyst admin"`
}

// CustomerRequest is the body of POST /model/predict.
type CustomerRequest struct {
	Sex               string  `json:"sex" validate:"required,oneof=Male Female"`
	Age               int     `json:"age" validate:"min=18,max=100"`
	AnnualIncome      float64 `json:"annual_income" validate:"min=0"`
	SpendingScore     int     `json:"spending_score" validate:"min=1,max=100"`
	PurchaseFrequency int     `json:"purchase_frequency" validate:"min=0"`
}

// ProfileRequest is the body of POST /profiles.
type ProfileRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
	CustomerRequest
	Notes string `json:"notes" validate:"max=1000"`
}

// TrainRequest is the optional body of POST /model/train.
type TrainRequest struct {
	NClusters *int `json:"n_clusters" validate:"omitempty,min=2,max=20"`
}

// UserList is the admin user listing.
type UserList struct {
	Users            []User `json:"users"`
	Total            int64  `json:"total"`
	TotalPredictions int64  `json:"total_predictions"`
	TotalProfiles    int64  `json:"total_profiles"`
}
