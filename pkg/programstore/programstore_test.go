// Copyright 2025 Certen Protocol

package programstore

import (
	"testing"

	"github.com/touba73/aleo-lambda-blockchain/pkg/kvstore"
	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
)

func TestDeployThenGet(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	prog := ucstate.Program{ID: "token.aleo", Source: "program token.aleo;", VerifyingKeys: map[string]ucstate.VerifyingKey{
		"mint": ucstate.VerifyingKey("vk-bytes"),
	}}

	if s.Exists(prog.ID) {
		t.Fatal("expected undeployed program to not exist")
	}

	s.Add(prog)
	if !s.Exists(prog.ID) {
		t.Fatal("expected staged program to exist before commit")
	}

	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, ok, err := s.Get(prog.ID)
	if err != nil || !ok {
		t.Fatalf("expected program to be retrievable, ok=%v err=%v", ok, err)
	}
	if got.Source != prog.Source {
		t.Fatalf("expected source %q, got %q", prog.Source, got.Source)
	}
}

func TestDuplicateDeploymentDetectable(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	prog := ucstate.Program{ID: "dup.aleo"}
	s.Add(prog)
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !s.Exists(prog.ID) {
		t.Fatal("expected program to exist after commit, so a second deployment can be rejected upstream")
	}
}

func TestReopenRebuildsProgramIndex(t *testing.T) {
	kv := kvstore.NewMemory()
	s, err := Open(kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Add(ucstate.Program{ID: "persisted.aleo"})
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reopened, err := Open(kv)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.Exists("persisted.aleo") {
		t.Fatal("expected reopened store to know about the persisted program")
	}
}
