package storage

import (
	"errors"
	"slices"
	"testing"

	"github.com/aleksaelezovic/rotrigo/pkg/store"
)

func TestTransactionBasics(t *testing.T) {
	storage, err := OpenBadger(Options{InMemory: true})
	if err != nil {
		t.Fatalf("failed to open in-memory storage: %v", err)
	}
	defer storage.Close()

	txn, err := storage.Begin(true)
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	for _, key := range []string{"b", "a2", "a1", "c"} {
		if err := txn.Set(store.TableSPOG, []byte(key), []byte("v"+key)); err != nil {
			t.Fatalf("failed to set %s: %v", key, err)
		}
	}
	if err := txn.Set(store.TableGraphs, []byte("a3"), nil); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	ro, err := storage.Begin(false)
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	defer ro.Rollback()

	if err := ro.Set(store.TableSPOG, []byte("x"), nil); !errors.Is(err, store.ErrTransactionRO) {
		t.Errorf("expected ErrTransactionRO, got %v", err)
	}
	if _, err := ro.Get(store.TableSPOG, []byte("missing")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	value, err := ro.Get(store.TableSPOG, []byte("c"))
	if err != nil || string(value) != "vc" {
		t.Errorf("expected vc, got %q (%v)", value, err)
	}

	scan := func(prefix []byte) []string {
		it, err := ro.Scan(store.TableSPOG, prefix)
		if err != nil {
			t.Fatalf("failed to scan: %v", err)
		}
		defer it.Close()
		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
		}
		return keys
	}

	if keys := scan(nil); !slices.Equal(keys, []string{"a1", "a2", "b", "c"}) {
		t.Errorf("unexpected full scan %v", keys)
	}
	// the a3 key lives in another table
	if keys := scan([]byte("a")); !slices.Equal(keys, []string{"a1", "a2"}) {
		t.Errorf("unexpected prefix scan %v", keys)
	}
}
