// Copyright 2025 Certen Protocol

package recordstore

import (
	"testing"

	"github.com/touba73/aleo-lambda-blockchain/pkg/kvstore"
	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
)

func fe(b byte) ucstate.FieldElement {
	var f ucstate.FieldElement
	f[0] = b
	return f
}

func TestMintThenConsume(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	commitment, sn := fe(1), fe(2)
	record := ucstate.Record{Commitment: commitment, SerialNumber: sn, Ciphertext: []byte("payload")}

	s.Add(record)
	if err := s.Commit(); err != nil {
		t.Fatalf("commit mint: %v", err)
	}

	if !s.IsUnspent(sn) {
		t.Fatal("expected minted record to be unspent")
	}

	if err := s.Spend(sn); err != nil {
		t.Fatalf("spend: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit spend: %v", err)
	}

	if s.IsUnspent(sn) {
		t.Fatal("expected spent record to no longer be unspent")
	}

	cursor, err := s.Scan(nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	defer cursor.Close()
	got, ok, err := cursor.Next()
	if err != nil || !ok {
		t.Fatalf("expected one record from scan, ok=%v err=%v", ok, err)
	}
	if got.Commitment != commitment {
		t.Fatalf("expected commitment %s, got %s", commitment, got.Commitment)
	}

	spentCursor, err := s.ScanSpent(nil)
	if err != nil {
		t.Fatalf("scan spent: %v", err)
	}
	defer spentCursor.Close()
	gotSN, ok, err := spentCursor.NextSerialNumber()
	if err != nil || !ok || gotSN != sn {
		t.Fatalf("expected spent serial number %s, got %s ok=%v err=%v", sn, gotSN, ok, err)
	}
}

func TestDoubleSpendInOneTxRejected(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	sn := fe(9)
	s.Add(ucstate.Record{Commitment: fe(10), SerialNumber: sn})
	if err := s.Commit(); err != nil {
		t.Fatalf("commit mint: %v", err)
	}

	if err := s.Spend(sn); err != nil {
		t.Fatalf("first spend should succeed: %v", err)
	}
	if err := s.Spend(sn); err == nil {
		t.Fatal("expected second spend of the same serial number in the same block to fail")
	}
}

func TestSpendUnknownSerialNumberRejected(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Spend(fe(42)); err == nil {
		t.Fatal("expected spend of unknown serial number to fail")
	}
}

func TestHasDetectsStagedAndCommittedRecords(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	commitment := fe(5)

	if has, _ := s.Has(commitment); has {
		t.Fatal("expected unknown commitment to be absent")
	}

	s.Add(ucstate.Record{Commitment: commitment, SerialNumber: fe(6)})
	if has, _ := s.Has(commitment); !has {
		t.Fatal("expected staged commitment to be visible to Has before commit")
	}

	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if has, _ := s.Has(commitment); !has {
		t.Fatal("expected committed commitment to remain visible to Has")
	}
}

func TestReopenRebuildsIndexes(t *testing.T) {
	kv := kvstore.NewMemory()
	s, err := Open(kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sn := fe(7)
	s.Add(ucstate.Record{Commitment: fe(8), SerialNumber: sn})
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := s.Spend(sn); err != nil {
		t.Fatalf("spend: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit spend: %v", err)
	}

	reopened, err := Open(kv)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.IsUnspent(sn) {
		t.Fatal("expected reopened store to see the serial number as spent")
	}
}
