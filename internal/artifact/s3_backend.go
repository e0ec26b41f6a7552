// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/metrics"
)

var _ Backend = (*S3Backend)(nil)

// S3Config configures the S3 backend.
type S3Config struct {
	Bucket string
	Region string
	Prefix string

	// Endpoint targets an S3-compatible service such as MinIO.
	Endpoint     string
	UsePathStyle bool

	// Static credentials. When empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// S3Backend stores blobs in an S3 bucket. Every call passes through a
// circuit breaker so an unreachable bucket fails fast instead of stalling
// training and startup.
type S3Backend struct {
	client *s3.Client
	cfg    S3Config
	cb     *gobreaker.CircuitBreaker[[]byte]
	name   string
}

// NewS3Backend builds the client. No network call is made until first use.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	b := &S3Backend{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		cfg:    cfg,
		name:   "artifact-s3",
	}
	b.cb = newBreaker(b.name)
	return b, nil
}

// newBreaker opens after 5 consecutive failures and probes again after 30s.
// A missing key is a valid answer, not a failure.
func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= 5
			if trip {
				logging.Warn().Str("breaker", name).Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening artifact storage circuit")
			}
			return trip
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", breakerStateName(from)).Str("to", breakerStateName(to)).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, breakerStateName(from), breakerStateName(to)).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})
}

func breakerStateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Name implements Backend.
func (b *S3Backend) Name() string { return "s3" }

func (b *S3Backend) objectKey(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if b.cfg.Prefix == "" {
		return cleaned, nil
	}
	return strings.TrimSuffix(b.cfg.Prefix, "/") + "/" + cleaned, nil
}

// execute runs fn through the breaker and records the outcome.
func (b *S3Backend) execute(op string, fn func() ([]byte, error)) ([]byte, error) {
	data, err := b.cb.Execute(fn)
	metrics.RecordArtifactOperation(b.Name(), op, err)

	switch {
	case err == nil, errors.Is(err, ErrNotFound):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		logging.Warn().Err(err).Str("operation", op).Msg("[CIRCUIT BREAKER] Artifact request rejected")
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
	}
	return data, err
}

// Put implements Backend.
func (b *S3Backend) Put(ctx context.Context, key string, data []byte) error {
	objectKey, err := b.objectKey(key)
	if err != nil {
		return err
	}
	_, err = b.execute("put", func() ([]byte, error) {
		_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(b.cfg.Bucket),
			Key:           aws.String(objectKey),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String("application/octet-stream"),
		})
		if err != nil {
			return nil, fmt.Errorf("s3 put object %s: %w", objectKey, err)
		}
		return nil, nil
	})
	return err
}

// Get implements Backend.
func (b *S3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	objectKey, err := b.objectKey(key)
	if err != nil {
		return nil, err
	}
	return b.execute("get", func() ([]byte, error) {
		resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(b.cfg.Bucket),
			Key:    aws.String(objectKey),
		})
		if err != nil {
			if isS3NotFound(err) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
			}
			return nil, fmt.Errorf("s3 get object %s: %w", objectKey, err)
		}
		defer func() { _ = resp.Body.Close() }() //nolint:errcheck // body fully read below

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("s3 read body %s: %w", objectKey, err)
		}
		return data, nil
	})
}

// Delete implements Backend.
func (b *S3Backend) Delete(ctx context.Context, key string) error {
	objectKey, err := b.objectKey(key)
	if err != nil {
		return err
	}
	_, err = b.execute("delete", func() ([]byte, error) {
		_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.cfg.Bucket),
			Key:    aws.String(objectKey),
		})
		if err != nil {
			return nil, fmt.Errorf("s3 delete object %s: %w", objectKey, err)
		}
		return nil, nil
	})
	return err
}

// EnsureBucket creates the bucket when it does not exist yet.
func (b *S3Backend) EnsureBucket(ctx context.Context) error {
	_, err := b.execute("head_bucket", func() ([]byte, error) {
		_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.cfg.Bucket)})
		if err == nil {
			return nil, nil
		}
		_, err = b.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(b.cfg.Bucket)})
		var owned *s3types.BucketAlreadyOwnedByYou
		if err != nil && !errors.As(err, &owned) {
			return nil, fmt.Errorf("create bucket %s: %w", b.cfg.Bucket, err)
		}
		return nil, nil
	})
	return err
}

func isS3NotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "StatusCode: 404")
}
