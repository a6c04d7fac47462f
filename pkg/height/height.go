// Copyright 2025 Certen Protocol
//
// Package height tracks the last committed block height, the one piece of
// state Info needs before any store is otherwise consulted. Corruption
// here is a fatal, tier-3 error: the node cannot safely tell CometBFT what
// height it's at, so it must stop rather than guess.

package height

import (
	"encoding/binary"
	"fmt"

	"github.com/touba73/aleo-lambda-blockchain/pkg/kvstore"
)

const heightKey = "height"

// File persists the last committed block height.
type File struct {
	kv kvstore.KV
}

// Open returns a height File backed by kv. It does not read the current
// value; call ReadOrCreate for that.
func Open(kv kvstore.KV) *File {
	return &File{kv: kv}
}

// ReadOrCreate returns the persisted height, initializing it to 0 if no
// value has ever been written. A malformed stored value panics: it means
// the database was corrupted or written by an incompatible version, and
// continuing would risk silently replaying or skipping blocks.
func (f *File) ReadOrCreate() uint64 {
	raw, err := f.kv.Get([]byte(heightKey))
	if err != nil {
		panic(fmt.Sprintf("height: read height: %v", err))
	}
	if raw == nil {
		if err := f.kv.Set([]byte(heightKey), encode(0)); err != nil {
			panic(fmt.Sprintf("height: initialize height: %v", err))
		}
		return 0
	}
	if len(raw) != 8 {
		panic(fmt.Sprintf("height: corrupt height record: expected 8 bytes, got %d", len(raw)))
	}
	return binary.BigEndian.Uint64(raw)
}

// Increment persists height+1 and returns it. Called once per Commit,
// after the record store has durably committed the block's effects and
// before the program store and validator set are committed.
func (f *File) Increment() uint64 {
	next := f.ReadOrCreate() + 1
	if err := f.kv.Set([]byte(heightKey), encode(next)); err != nil {
		panic(fmt.Sprintf("height: persist height %d: %v", next, err))
	}
	return next
}

func encode(h uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, h)
	return buf
}
