// Copyright 2025 Certen Protocol
//
// Package kvstore is the generalized persistence layer underneath the
// record store, program store, validator set and height file: a single
// narrow KV interface that every domain store depends on, backed in
// production by CometBFT's dbm.DB (see dbm.go) and in tests by an
// in-memory map (see memory.go).

package kvstore

// KV is the minimal key-value contract every domain store is built on.
// Get returns (nil, nil) for a missing key, never an error, mirroring
// dbm.DB's own convention.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error

	// Iterator ranges over keys in [start, end) in ascending order. A nil
	// end means "no upper bound". Used to rebuild in-memory indexes (e.g.
	// the record store's serial-number index) at startup and to implement
	// prefix scans.
	Iterator(start, end []byte) (Iterator, error)
}

// Iterator walks a KV's keys in order. Callers must call Close when done.
type Iterator interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Close() error
}

// PrefixRange returns the [start, end) bounds that cover every key with
// the given prefix, suitable for passing to KV.Iterator.
func PrefixRange(prefix []byte) (start, end []byte) {
	start = append([]byte(nil), prefix...)
	end = make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return start, end[:i+1]
		}
	}
	// prefix was all 0xff bytes; no upper bound needed.
	return start, nil
}
