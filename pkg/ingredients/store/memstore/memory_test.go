package memstore

import (
	"context"
	"testing"

	"github.com/cognicore/ingredients/pkg/ingredients/store"
)

var _ store.Store = (*Store)(nil)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	payload := []byte(`{"name":"salt"}`)
	if err := s.PutParse(ctx, store.Record{ID: "1", Key: "k", Line: "salt", Payload: payload}); err != nil {
		t.Fatalf("PutParse: %v", err)
	}
	payload[2] = 'X'

	got, found, err := s.GetParse(ctx, "k")
	if err != nil || !found {
		t.Fatalf("GetParse: found=%v err=%v", found, err)
	}
	if string(got.Payload) != `{"name":"salt"}` {
		t.Fatalf("stored payload aliased caller slice: %s", got.Payload)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	if _, found, _ := s.GetParse(ctx, "other"); found {
		t.Fatal("expected miss")
	}
	if n, _ := s.CountParses(ctx); n != 1 {
		t.Fatalf("expected 1 record, got %d", n)
	}
}

func TestPutRejectsEmptyKey(t *testing.T) {
	if err := New().PutParse(context.Background(), store.Record{}); err == nil {
		t.Fatal("expected error for empty key")
	}
}
