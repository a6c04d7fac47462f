// Copyright 2025 Certen Protocol
//
// Package recordstore holds the UTXO-style record set: commitments are
// persistent identifiers, serial numbers are revealed only when a record is
// spent. See SPEC_FULL.md section 3 and section 9's "lazy restartable
// cursor" redesign note, which replaces the original implementation's
// fully-materialized query responses with the Cursor type below.

package recordstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/touba73/aleo-lambda-blockchain/pkg/kvstore"
	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
)

const (
	recordKeyPrefix = "rec:"
	serialKeyPrefix = "sn:"
	spentKeyPrefix  = "spent:"
)

func recordKey(commitment ucstate.FieldElement) []byte {
	return append([]byte(recordKeyPrefix), commitment[:]...)
}

func serialKey(sn ucstate.FieldElement) []byte {
	return append([]byte(serialKeyPrefix), sn[:]...)
}

func spentKey(sn ucstate.FieldElement) []byte {
	return append([]byte(spentKeyPrefix), sn[:]...)
}

// Store holds every record the node has ever seen and tracks which serial
// numbers have been revealed by a spend. Writes are staged in memory by Add
// and Spend and only become visible to Scan/ScanSpent after Commit, matching
// the begin_block/deliver_tx*/commit lifecycle of a single consensus height;
// Has and IsUnspent already count staged writes.
type Store struct {
	mu sync.Mutex

	kv kvstore.KV

	// snIndex maps a record's serial number to its commitment, for records
	// currently held (rebuilt from kv at startup).
	snIndex map[ucstate.FieldElement]ucstate.FieldElement
	spent   map[ucstate.FieldElement]struct{}

	pendingAdd   []ucstate.Record
	pendingSpend []ucstate.FieldElement
}

// Open rebuilds a Store's in-memory indexes from kv's persisted state.
func Open(kv kvstore.KV) (*Store, error) {
	s := &Store{
		kv:      kv,
		snIndex: make(map[ucstate.FieldElement]ucstate.FieldElement),
		spent:   make(map[ucstate.FieldElement]struct{}),
	}

	start, end := kvstore.PrefixRange([]byte(serialKeyPrefix))
	it, err := kv.Iterator(start, end)
	if err != nil {
		return nil, fmt.Errorf("recordstore: rebuild serial index: %w", err)
	}
	for ; it.Valid(); it.Next() {
		var sn, commitment ucstate.FieldElement
		copy(sn[:], it.Key()[len(serialKeyPrefix):])
		copy(commitment[:], it.Value())
		s.snIndex[sn] = commitment
	}
	if err := it.Close(); err != nil {
		return nil, err
	}

	start, end = kvstore.PrefixRange([]byte(spentKeyPrefix))
	it, err = kv.Iterator(start, end)
	if err != nil {
		return nil, fmt.Errorf("recordstore: rebuild spent index: %w", err)
	}
	for ; it.Valid(); it.Next() {
		var sn ucstate.FieldElement
		copy(sn[:], it.Key()[len(spentKeyPrefix):])
		s.spent[sn] = struct{}{}
	}
	if err := it.Close(); err != nil {
		return nil, err
	}

	return s, nil
}

// Has reports whether a commitment is already known to the store, counting
// both committed and staged-but-uncommitted records. Used by check_tx and
// deliver_tx's duplicate-record rejection.
func (s *Store) Has(commitment ucstate.FieldElement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.pendingAdd {
		if r.Commitment == commitment {
			return true, nil
		}
	}
	v, err := s.kv.Get(recordKey(commitment))
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// IsUnspent reports whether sn identifies a record the store currently
// holds that has not been spent, counting staged spends and additions from
// the in-flight block.
func (s *Store) IsUnspent(sn ucstate.FieldElement) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isUnspentLocked(sn)
}

func (s *Store) isUnspentLocked(sn ucstate.FieldElement) bool {
	for _, pending := range s.pendingSpend {
		if pending == sn {
			return false
		}
	}
	if _, spent := s.spent[sn]; spent {
		return false
	}
	if _, known := s.snIndex[sn]; known {
		return true
	}
	for _, r := range s.pendingAdd {
		if r.SerialNumber == sn {
			return true
		}
	}
	return false
}

// Add stages a record for addition. The write is only visible to Scan after
// Commit; Has and IsUnspent see it immediately.
func (s *Store) Add(record ucstate.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingAdd = append(s.pendingAdd, record.Clone())
}

// Spend stages sn as revealed. Returns an error if sn does not currently
// identify an unspent record; callers are expected to have already checked
// IsUnspent before calling Spend, so this is a defensive double-check.
func (s *Store) Spend(sn ucstate.FieldElement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isUnspentLocked(sn) {
		return fmt.Errorf("recordstore: serial number %s is not a spendable record", sn)
	}
	s.pendingSpend = append(s.pendingSpend, sn)
	return nil
}

// Commit durably persists every record added and serial number spent since
// the last Commit, then clears the staging buffers. A failure here is a
// tier-3 fatal error: the record store is the ledger of record and must not
// silently diverge from what deliver_tx already told the network it did.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.pendingAdd {
		buf, err := encodeRecord(r)
		if err != nil {
			return fmt.Errorf("recordstore: commit: encode record %s: %w", r.Commitment, err)
		}
		if err := s.kv.Set(recordKey(r.Commitment), buf); err != nil {
			return fmt.Errorf("recordstore: commit: persist record %s: %w", r.Commitment, err)
		}
		if err := s.kv.Set(serialKey(r.SerialNumber), r.Commitment[:]); err != nil {
			return fmt.Errorf("recordstore: commit: persist serial index %s: %w", r.SerialNumber, err)
		}
		s.snIndex[r.SerialNumber] = r.Commitment
	}

	for _, sn := range s.pendingSpend {
		if err := s.kv.Set(spentKey(sn), []byte{1}); err != nil {
			return fmt.Errorf("recordstore: commit: persist spent marker %s: %w", sn, err)
		}
		s.spent[sn] = struct{}{}
	}

	s.pendingAdd = nil
	s.pendingSpend = nil
	return nil
}

func encodeRecord(r ucstate.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(b []byte) (ucstate.Record, error) {
	var r ucstate.Record
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&r); err != nil {
		return ucstate.Record{}, err
	}
	return r, nil
}

// Cursor lazily walks committed records or spent serial numbers in
// commitment/serial-number order. Unlike materializing a full query
// response, a Cursor holds only one underlying KV iterator open at a time
// and can be resumed from any previously-seen key via the after argument of
// Scan/ScanSpent, so a client
// that disconnects mid-scan does not force the node to re-walk or re-buffer
// the whole store.
type Cursor struct {
	it     kvstore.Iterator
	prefix string
}

// scanFrom opens a cursor over keys with the given prefix, positioned to
// resume immediately past after (a commitment or serial number previously
// returned by the cursor); a nil after starts from the first key.
func (s *Store) scanFrom(prefix string, after []byte) (*Cursor, error) {
	start, end := kvstore.PrefixRange([]byte(prefix))
	if after != nil {
		candidate := append([]byte(prefix), after...)
		candidate = append(candidate, 0)
		if bytes.Compare(candidate, start) > 0 {
			start = candidate
		}
	}
	it, err := s.kv.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return &Cursor{it: it, prefix: prefix}, nil
}

// Scan returns a cursor over every record the store holds, in commitment
// order. Pass the commitment of the last record seen in `after` to resume a
// previous scan; pass nil to start from the beginning.
func (s *Store) Scan(after *ucstate.FieldElement) (*Cursor, error) {
	var afterBytes []byte
	if after != nil {
		afterBytes = after[:]
	}
	return s.scanFrom(recordKeyPrefix, afterBytes)
}

// ScanSpent returns a cursor over every spent serial number, in serial
// number order. Pass the last serial number seen in `after` to resume.
func (s *Store) ScanSpent(after *ucstate.FieldElement) (*Cursor, error) {
	var afterBytes []byte
	if after != nil {
		afterBytes = after[:]
	}
	return s.scanFrom(spentKeyPrefix, afterBytes)
}

// Next advances the cursor and returns the next record. ok is false once
// the cursor is exhausted. Only valid for cursors returned by Scan.
func (c *Cursor) Next() (record ucstate.Record, ok bool, err error) {
	if !c.it.Valid() {
		return ucstate.Record{}, false, nil
	}
	r, err := decodeRecord(c.it.Value())
	if err != nil {
		return ucstate.Record{}, false, err
	}
	c.it.Next()
	return r, true, nil
}

// NextSerialNumber advances the cursor and returns the next spent serial
// number. Only valid for cursors returned by ScanSpent.
func (c *Cursor) NextSerialNumber() (sn ucstate.FieldElement, ok bool, err error) {
	if !c.it.Valid() {
		return ucstate.FieldElement{}, false, nil
	}
	copy(sn[:], c.it.Key()[len(c.prefix):])
	c.it.Next()
	return sn, true, nil
}

// Close releases the cursor's underlying iterator. Safe to call more than
// once.
func (c *Cursor) Close() error {
	return c.it.Close()
}
