// Copyright 2025 Certen Protocol
//
// Exercises auxindex against a real Postgres instance when one is
// configured via VALIDATORD_TEST_DB; skipped otherwise since this
// package has no in-memory substitute for database/sql.

package auxindex

import (
	"context"
	"os"
	"testing"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	dsn := os.Getenv("VALIDATORD_TEST_DB")
	if dsn == "" {
		t.Skip("VALIDATORD_TEST_DB not set, skipping auxindex integration test")
	}
	idx, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestRecordThenQueryByHeight(t *testing.T) {
	idx := testIndex(t)

	idx.Record([]Entry{
		{TxID: "tx-aux-1", Height: 1000, Kind: "execution", Accepted: true, Log: "ok", Fees: 5},
		{TxID: "tx-aux-2", Height: 1000, Kind: "deployment", Accepted: false, Log: "already deployed", Fees: 0},
	})

	entries, err := idx.ByHeight(context.Background(), 1000)
	if err != nil {
		t.Fatalf("by height: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries at height 1000, got %d", len(entries))
	}
	if entries[0].TxID != "tx-aux-1" || !entries[0].Accepted {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
}

func TestRecordUpsertsOnConflict(t *testing.T) {
	idx := testIndex(t)

	idx.Record([]Entry{{TxID: "tx-aux-upsert", Height: 2000, Kind: "execution", Accepted: false, Log: "rejected", Fees: 0}})
	idx.Record([]Entry{{TxID: "tx-aux-upsert", Height: 2000, Kind: "execution", Accepted: true, Log: "ok", Fees: 3}})

	entries, err := idx.ByHeight(context.Background(), 2000)
	if err != nil {
		t.Fatalf("by height: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry after upsert, got %d", len(entries))
	}
	if !entries[0].Accepted || entries[0].Fees != 3 {
		t.Fatalf("expected upsert to overwrite entry, got %+v", entries[0])
	}
}
