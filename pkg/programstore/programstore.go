// Copyright 2025 Certen Protocol
//
// Package programstore holds deployed programs and their verifying keys,
// keyed by program id. See SPEC_FULL.md section 3.

package programstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/touba73/aleo-lambda-blockchain/pkg/kvstore"
	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
)

const programKeyPrefix = "prog:"

func programKey(id string) []byte {
	return append([]byte(programKeyPrefix), []byte(id)...)
}

// Store holds every deployed program. Like recordstore.Store, writes are
// staged by Add and only persisted by Commit; Get and Exists already see
// staged programs before Commit.
type Store struct {
	mu sync.Mutex

	kv kvstore.KV

	// ids mirrors which program ids exist, persisted or staged, so Exists
	// doesn't need a KV round trip on the hot deliver_tx path.
	ids     map[string]struct{}
	pending map[string]ucstate.Program
}

// Open rebuilds a Store's program id index from kv's persisted state.
func Open(kv kvstore.KV) (*Store, error) {
	s := &Store{
		kv:      kv,
		ids:     make(map[string]struct{}),
		pending: make(map[string]ucstate.Program),
	}

	start, end := kvstore.PrefixRange([]byte(programKeyPrefix))
	it, err := kv.Iterator(start, end)
	if err != nil {
		return nil, fmt.Errorf("programstore: rebuild index: %w", err)
	}
	for ; it.Valid(); it.Next() {
		s.ids[string(it.Key()[len(programKeyPrefix):])] = struct{}{}
	}
	if err := it.Close(); err != nil {
		return nil, err
	}
	return s, nil
}

// Exists reports whether id has already been deployed, counting programs
// staged in the current block.
func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; ok {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// Add stages a program deployment. The write is persisted only by Commit,
// but Get and Exists see it immediately.
// Callers must check Exists first; Add does not itself reject duplicates,
// since check_tx and deliver_tx both need to distinguish "already deployed"
// from "invalid deployment" with different error handling.
func (s *Store) Add(program ucstate.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[program.ID] = program
}

// Get returns the named program, or ok=false if it is not deployed (in
// either committed or currently-staged state).
func (s *Store) Get(id string) (ucstate.Program, bool, error) {
	s.mu.Lock()
	if p, ok := s.pending[id]; ok {
		s.mu.Unlock()
		return p, true, nil
	}
	s.mu.Unlock()

	v, err := s.kv.Get(programKey(id))
	if err != nil {
		return ucstate.Program{}, false, err
	}
	if v == nil {
		return ucstate.Program{}, false, nil
	}
	p, err := decodeProgram(v)
	if err != nil {
		return ucstate.Program{}, false, err
	}
	return p, true, nil
}

// Commit durably persists every program staged since the last Commit and
// clears the staging buffer.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.pending {
		buf, err := encodeProgram(p)
		if err != nil {
			return fmt.Errorf("programstore: commit: encode program %s: %w", id, err)
		}
		if err := s.kv.Set(programKey(id), buf); err != nil {
			return fmt.Errorf("programstore: commit: persist program %s: %w", id, err)
		}
		s.ids[id] = struct{}{}
	}
	s.pending = make(map[string]ucstate.Program)
	return nil
}

func encodeProgram(p ucstate.Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeProgram(b []byte) (ucstate.Program, error) {
	var p ucstate.Program
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&p); err != nil {
		return ucstate.Program{}, err
	}
	return p, nil
}
