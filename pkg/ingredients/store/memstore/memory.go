package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cognicore/ingredients/pkg/ingredients/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu     sync.RWMutex
	parses map[string]store.Record
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{parses: make(map[string]store.Record)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// GetParse returns a copy of the record stored under key.
func (s *Store) GetParse(ctx context.Context, key string) (store.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.parses[key]
	if !ok {
		return store.Record{}, false, nil
	}
	return copyRecord(r), true, nil
}

// PutParse stores a copy of r, keyed by r.Key.
func (s *Store) PutParse(ctx context.Context, r store.Record) error {
	if r.Key == "" {
		return fmt.Errorf("put parse: empty key")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.parses[r.Key] = copyRecord(r)
	return nil
}

// CountParses returns the number of stored records.
func (s *Store) CountParses(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.parses)), nil
}

func copyRecord(r store.Record) store.Record {
	r.Payload = append([]byte(nil), r.Payload...)
	return r
}
