// Copyright 2025 Certen Protocol

package kvstore

import (
	"bytes"
	"testing"
)

func TestMemoryGetSetDelete(t *testing.T) {
	kv := NewMemory()

	if v, err := kv.Get([]byte("missing")); err != nil || v != nil {
		t.Fatalf("expected (nil, nil) for missing key, got (%v, %v)", v, err)
	}

	if err := kv.Set([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := kv.Get([]byte("a"))
	if err != nil || !bytes.Equal(v, []byte("1")) {
		t.Fatalf("expected (1, nil), got (%v, %v)", v, err)
	}

	if err := kv.Delete([]byte("a")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if v, _ := kv.Get([]byte("a")); v != nil {
		t.Fatalf("expected nil after delete, got %v", v)
	}
}

func TestMemoryIteratorOrderAndPrefix(t *testing.T) {
	kv := NewMemory()
	for _, k := range []string{"sn:b", "sn:a", "sn:c", "prog:x"} {
		if err := kv.Set([]byte(k), []byte(k)); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	start, end := PrefixRange([]byte("sn:"))
	it, err := kv.Iterator(start, end)
	if err != nil {
		t.Fatalf("iterator: %v", err)
	}
	defer it.Close()

	var got []string
	for ; it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	want := []string{"sn:a", "sn:b", "sn:c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestPrefixRangeAllFF(t *testing.T) {
	start, end := PrefixRange([]byte{0xff, 0xff})
	if !bytes.Equal(start, []byte{0xff, 0xff}) {
		t.Fatalf("unexpected start: %v", start)
	}
	if end != nil {
		t.Fatalf("expected nil end for all-0xff prefix, got %v", end)
	}
}
