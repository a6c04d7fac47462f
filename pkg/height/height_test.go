// Copyright 2025 Certen Protocol

package height

import (
	"testing"

	"github.com/touba73/aleo-lambda-blockchain/pkg/kvstore"
)

func TestReadOrCreateDefaultsToZero(t *testing.T) {
	f := Open(kvstore.NewMemory())
	if h := f.ReadOrCreate(); h != 0 {
		t.Fatalf("expected initial height 0, got %d", h)
	}
}

func TestIncrementPersistsAcrossReopen(t *testing.T) {
	kv := kvstore.NewMemory()
	f := Open(kv)
	if h := f.Increment(); h != 1 {
		t.Fatalf("expected height 1, got %d", h)
	}
	if h := f.Increment(); h != 2 {
		t.Fatalf("expected height 2, got %d", h)
	}

	reopened := Open(kv)
	if h := reopened.ReadOrCreate(); h != 2 {
		t.Fatalf("expected reopened height 2, got %d", h)
	}
}

func TestCorruptHeightPanics(t *testing.T) {
	kv := kvstore.NewMemory()
	if err := kv.Set([]byte("height"), []byte("bad")); err != nil {
		t.Fatalf("set: %v", err)
	}
	f := Open(kv)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected corrupt height record to panic")
		}
	}()
	f.ReadOrCreate()
}
