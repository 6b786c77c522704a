package store

import (
	"context"
	"time"
)

// Store persists parse results keyed by a content hash of the raw line and
// the tagger that produced them.
type Store interface {
	Close() error

	// GetParse returns the record stored under key. found is false on a miss.
	GetParse(ctx context.Context, key string) (Record, bool, error)
	// PutParse inserts r, replacing any record with the same key.
	PutParse(ctx context.Context, r Record) error
	CountParses(ctx context.Context) (int64, error)
}

// Record is one cached parse.
type Record struct {
	ID          string // ULID
	Key         string
	Line        string
	Fingerprint string
	Payload     []byte // JSON-encoded result
	CreatedAt   time.Time
}
