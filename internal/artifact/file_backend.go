// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tomtom215/segmentus/internal/metrics"
)

var _ Backend = (*FileBackend)(nil)

// FileBackend stores blobs as files under a root directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the root directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Name implements Backend.
func (b *FileBackend) Name() string { return "file" }

// Dir returns the root directory.
func (b *FileBackend) Dir() string { return b.dir }

func (b *FileBackend) path(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.dir, filepath.FromSlash(cleaned)), nil
}

// Put writes data through a temp file and rename so readers never observe
// a partial artifact.
func (b *FileBackend) Put(ctx context.Context, key string, data []byte) (err error) {
	defer func() { metrics.RecordArtifactOperation(b.Name(), "put", err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := b.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup of a failed write
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync error takes precedence
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// Get implements Backend.
func (b *FileBackend) Get(ctx context.Context, key string) (data []byte, err error) {
	defer func() { metrics.RecordArtifactOperation(b.Name(), "get", err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err = os.ReadFile(target) //nolint:gosec // path is confined to the artifact root by cleanKey
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// Delete implements Backend. Deleting a missing key is not an error.
func (b *FileBackend) Delete(ctx context.Context, key string) (err error) {
	defer func() { metrics.RecordArtifactOperation(b.Name(), "delete", err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}
