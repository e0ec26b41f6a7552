// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package artifact

import (
	"context"
	"errors"
	"fmt"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/segmentus/internal/metrics"
)

func TestNewS3Backend_RequiresBucket(t *testing.T) {
	if _, err := NewS3Backend(context.Background(), S3Config{}); err == nil {
		t.Error("NewS3Backend() without bucket succeeded, want error")
	}
}

func TestS3Backend_ObjectKey(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", ScalerKey, "models/scaler.gob.sz"},
		{"segmentus", ModelKey, "segmentus/models/kmeans.gob.sz"},
		{"segmentus/", ModelKey, "segmentus/models/kmeans.gob.sz"},
	}
	for _, tt := range tests {
		b := &S3Backend{cfg: S3Config{Prefix: tt.prefix}}
		got, err := b.objectKey(tt.key)
		if err != nil {
			t.Fatalf("objectKey(%q) error = %v", tt.key, err)
		}
		if got != tt.want {
			t.Errorf("objectKey(%q) with prefix %q = %q, want %q", tt.key, tt.prefix, got, tt.want)
		}
	}

	if _, err := (&S3Backend{}).objectKey("../x"); err == nil {
		t.Error("objectKey(../x) succeeded, want error")
	}
}

func TestS3Backend_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	name := "artifact-s3-test-open"
	b := &S3Backend{cb: newBreaker(name), name: name}
	boom := errors.New("connection refused")

	for i := 0; i < 5; i++ {
		if _, err := b.execute("get", func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
			t.Fatalf("attempt %d error = %v, want boom", i, err)
		}
	}

	called := false
	_, err := b.execute("get", func() ([]byte, error) {
		called = true
		return nil, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error after trip = %v, want ErrOpenState", err)
	}
	if called {
		t.Error("open breaker still invoked the backend")
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues(name)); got != 2 {
		t.Errorf("circuit_breaker_state = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected")); got != 1 {
		t.Errorf("rejected requests = %v, want 1", got)
	}
}

func TestS3Backend_NotFoundDoesNotTrip(t *testing.T) {
	name := "artifact-s3-test-notfound"
	b := &S3Backend{cb: newBreaker(name), name: name}

	for i := 0; i < 10; i++ {
		_, err := b.execute("get", func() ([]byte, error) {
			return nil, fmt.Errorf("%w: models/kmeans.gob.sz", ErrNotFound)
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("attempt %d error = %v, want ErrNotFound", i, err)
		}
	}
	if b.cb.State() != gobreaker.StateClosed {
		t.Errorf("breaker state = %s, want closed", breakerStateName(b.cb.State()))
	}
}

func TestIsS3NotFound(t *testing.T) {
	if !isS3NotFound(&s3types.NoSuchKey{}) {
		t.Error("NoSuchKey not recognised")
	}
	if !isS3NotFound(fmt.Errorf("wrapped: %w", &s3types.NotFound{})) {
		t.Error("wrapped NotFound not recognised")
	}
	if isS3NotFound(errors.New("access denied")) {
		t.Error("access denied treated as not found")
	}
}

func TestBreakerStateHelpers(t *testing.T) {
	states := map[gobreaker.State]struct {
		name  string
		value float64
	}{
		gobreaker.StateClosed:   {"closed", 0},
		gobreaker.StateHalfOpen: {"half-open", 1},
		gobreaker.StateOpen:     {"open", 2},
	}
	for s, want := range states {
		if got := breakerStateName(s); got != want.name {
			t.Errorf("breakerStateName(%v) = %q, want %q", s, got, want.name)
		}
		if got := breakerStateValue(s); got != want.value {
			t.Errorf("breakerStateValue(%v) = %v, want %v", s, got, want.value)
		}
	}
}
