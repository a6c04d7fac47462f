// Copyright 2025 Certen Protocol
//
// Field element type shared by record commitments and serial numbers.

package ucstate

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FieldElement is an opaque 32-byte field element, used both as a record
// commitment and as a record serial number. The proving system treats its
// internal structure as opaque; this type only needs equality, hashing as a
// map key, and a stable textual form for logs and wire encoding.
type FieldElement [32]byte

// String renders the field element as a 0x-prefixed hex string.
func (f FieldElement) String() string {
	return "0x" + hex.EncodeToString(f[:])
}

// IsZero reports whether f is the zero element (used to detect unset fields).
func (f FieldElement) IsZero() bool {
	return f == FieldElement{}
}

// HexToFieldElement parses a 0x-prefixed (or bare) hex string into a
// FieldElement. The input must decode to exactly 32 bytes.
func HexToFieldElement(s string) (FieldElement, error) {
	var f FieldElement
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return f, fmt.Errorf("decode field element %q: %w", s, err)
	}
	if len(b) != len(f) {
		return f, fmt.Errorf("field element %q: expected %d bytes, got %d", s, len(f), len(b))
	}
	copy(f[:], b)
	return f, nil
}

// ParseAmount parses a stake or power amount given as either a plain
// decimal string or a 0x-prefixed hex string, the latter being how
// genesis files and client tooling commonly encode large credit amounts.
func ParseAmount(s string) (int64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := hexutil.DecodeUint64(s)
		if err != nil {
			return 0, fmt.Errorf("parse hex amount %q: %w", s, err)
		}
		return int64(v), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse decimal amount %q: %w", s, err)
	}
	return v, nil
}

// MarshalText implements encoding.TextMarshaler so FieldElement round-trips
// through JSON as a hex string.
func (f FieldElement) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FieldElement) UnmarshalText(text []byte) error {
	parsed, err := HexToFieldElement(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
