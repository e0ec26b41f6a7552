// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/segmentus/internal/database"
	"github.com/tomtom215/segmentus/internal/models"
	"github.com/tomtom215/segmentus/internal/segment"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{segment.ErrTrainingInProgress, http.StatusConflict, CodeTrainingInProgress},
		{fmt.Errorf("%w: no artifacts", segment.ErrModelNotReady), http.StatusBadRequest, CodeModelNotReady},
		{fmt.Errorf("%w: 3 samples for k=5", segment.ErrInsufficientData), http.StatusUnprocessableEntity, CodeInsufficientData},
		{fmt.Errorf("%w: k must be >= 2", segment.ErrInvalidInput), http.StatusBadRequest, CodeValidation},
		{database.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
		{database.ErrProfileNotFound, http.StatusNotFound, CodeNotFound},
		{database.ErrUsernameTaken, http.StatusConflict, CodeConflict},
		{database.ErrEmailTaken, http.StatusConflict, CodeConflict},
		{fmt.Errorf("train: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, CodeTimeout},
		{errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
		{segment.ErrNotFitted, http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := classifyError(tt.err)
			if f.status != tt.status || f.code != tt.code {
				t.Errorf("classifyError(%v) = %d %s, want %d %s", tt.err, f.status, f.code, tt.status, tt.code)
			}
		})
	}
}

func TestClassifyError_HidesInternalDetail(t *testing.T) {
	f := classifyError(errors.New("pq: password authentication failed for user secret"))
	if f.message != "Internal server error" {
		t.Errorf("message leaks cause: %q", f.message)
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query     string
		wantSkip  int
		wantLimit int
		wantErr   bool
	}{
		{"", 0, 50, false},
		{"skip=10&limit=20", 10, 20, false},
		{"limit=10000", 0, 500, false},
		{"skip=-1", 0, 0, true},
		{"limit=0", 0, 0, true},
		{"skip=abc", 0, 0, true},
		{"limit=1.5", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			p, apiErr := parsePagination(r, 50, 500)
			if tt.wantErr {
				if apiErr == nil {
					t.Fatalf("expected error, got %+v", p)
				}
				if apiErr.Code != CodeValidation {
					t.Errorf("code = %q", apiErr.Code)
				}
				return
			}
			if apiErr != nil {
				t.Fatalf("unexpected error %+v", apiErr)
			}
			if p.Skip != tt.wantSkip || p.Limit != tt.wantLimit {
				t.Errorf("got skip=%d limit=%d, want %d %d", p.Skip, p.Limit, tt.wantSkip, tt.wantLimit)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	got := sanitizeLogValue("user\nINFO forged entry\r\x7f")
	want := `user\x0aINFO forged entry\x0d\x7f`
	if got != want {
		t.Errorf("sanitizeLogValue = %q, want %q", got, want)
	}
}

func TestRespondSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	respondSuccess(rec, http.StatusCreated, message{Message: "ok"}, models.Metadata{Generation: "g1"})

	expectStatus(t, rec, http.StatusCreated)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	var msg message
	env := decodeEnvelope(t, rec, &msg)
	if env.Status != "success" || msg.Message != "ok" || env.Metadata.Generation != "g1" || env.Metadata.Timestamp.IsZero() {
		t.Errorf("envelope = %+v data = %+v", env, msg)
	}
}
