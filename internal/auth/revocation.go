// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/metrics"
)

// ErrRevocationStoreClosed indicates the store has been closed.
var ErrRevocationStoreClosed = errors.New("revocation store is closed")

// RevokedToken is the record kept for a logged-out token.
type RevokedToken struct {
	JTI       string    `json:"jti"`
	UserID    int64     `json:"user_id"`
	RevokedAt time.Time `json:"revoked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RevocationStore remembers revoked token ids until the tokens would have
// expired anyway.
type RevocationStore interface {
	// Revoke marks a JTI revoked for ttl. A non-positive ttl is a no-op
	// because the token is already unusable.
	Revoke(ctx context.Context, entry *RevokedToken, ttl time.Duration) error

	// IsRevoked reports whether jti is currently revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// Close releases resources.
	Close() error
}

// MemoryRevocationStore is an in-memory store for tests and single-node
// development. Entries are lost on restart.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]*RevokedToken
	closed  bool
}

// NewMemoryRevocationStore creates an empty in-memory store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]*RevokedToken)}
}

// Revoke stores entry until now+ttl and drops expired entries.
func (s *MemoryRevocationStore) Revoke(_ context.Context, entry *RevokedToken, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrRevocationStoreClosed
	}

	now := time.Now()
	for jti, e := range s.entries {
		if now.After(e.ExpiresAt) {
			delete(s.entries, jti)
		}
	}

	entry.RevokedAt = now
	entry.ExpiresAt = now.Add(ttl)
	s.entries[entry.JTI] = entry
	metrics.TokenRevocations.Inc()
	return nil
}

// IsRevoked checks for an unexpired entry.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrRevocationStoreClosed
	}
	e, ok := s.entries[jti]
	return ok && time.Now().Before(e.ExpiresAt), nil
}

// Close closes the store.
func (s *MemoryRevocationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

const revokedKeyPrefix = "revoked:"

// BadgerRevocationStore keeps revocations in BadgerDB. Expiry is handled by
// Badger's per-entry TTL so no cleanup loop is needed.
type BadgerRevocationStore struct {
	db     *badger.DB
	ownsDB bool
	mu     sync.RWMutex
	closed bool
}

// OpenBadgerRevocationStore opens (or creates) a BadgerDB at path.
func OpenBadgerRevocationStore(path string) (*BadgerRevocationStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB internal logs
	opts.ValueLogFileSize = 16 << 20
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for token revocation: %w", err)
	}
	logging.Info().Str("path", path).Msg("Token revocation store opened")
	return &BadgerRevocationStore{db: db, ownsDB: true}, nil
}

// NewBadgerRevocationStoreFromDB wraps an existing BadgerDB. Close does not
// close db.
func NewBadgerRevocationStoreFromDB(db *badger.DB) *BadgerRevocationStore {
	return &BadgerRevocationStore{db: db}
}

func revokedKey(jti string) []byte {
	return []byte(revokedKeyPrefix + jti)
}

// Revoke writes entry with a Badger TTL of ttl.
func (s *BadgerRevocationStore) Revoke(_ context.Context, entry *RevokedToken, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrRevocationStoreClosed
	}

	now := time.Now()
	entry.RevokedAt = now
	entry.ExpiresAt = now.Add(ttl)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal revoked token: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(revokedKey(entry.JTI), data).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("store revoked token: %w", err)
	}
	metrics.TokenRevocations.Inc()
	return nil
}

// IsRevoked looks the JTI up; expired entries are invisible to Badger reads.
func (s *BadgerRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrRevocationStoreClosed
	}

	var revoked bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(revokedKey(jti))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		revoked = true
		return nil
	})
	return revoked, err
}

// Close closes the store and, when it opened the database, the database.
func (s *BadgerRevocationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
