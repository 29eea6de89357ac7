package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage keys. Each key holds one JSON-encoded collection.
const (
	goalsKey        = "web3_savings_goals"
	transactionsKey = "web3_savings_transactions"
	challengesKey   = "web3_savings_challenges"
	remindersKey    = "web3_savings_reminders"
	eventsKey       = "web3_savings_events"
)

// errKeyNotFound means the key has never been written. Callers treat it
// as an empty collection.
var errKeyNotFound = errors.New("key not found")

// Store is the persistence port: named JSON collections behind get/set.
// Implementations must be safe for concurrent use. Atomicity across two
// Set calls is not part of the contract; the Ledger serializes its
// read-modify-write sequences on top of this.
type Store interface {
	Get(ctx context.Context, key string, v interface{}) error
	Set(ctx context.Context, key string, v interface{}) error
}

// memoryStore keeps collections in process memory. Used by tests and as
// a throwaway backend for local development.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, key string, v interface{}) error {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return errKeyNotFound
	}
	return json.Unmarshal(raw, v)
}

func (s *memoryStore) Set(_ context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

// fileStore persists each collection as one JSON file in a data
// directory, the server-side equivalent of the browser's local storage.
type fileStore struct {
	dir string
	mu  sync.Mutex
}

func newFileStore(dir string) (*fileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &fileStore{dir: dir}, nil
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *fileStore) Get(_ context.Context, key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return errKeyNotFound
		}
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	return json.Unmarshal(raw, v)
}

func (s *fileStore) Set(_ context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write-then-rename so a crash mid-write never truncates a collection
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}
