// Copyright 2025 Certen Protocol
//
// Package wire defines the ABCI query and genesis payloads exchanged over
// the network, independent of the internal store types in pkg/ucstate and
// pkg/validatorset. Query is a tagged union encoded with encoding/gob: see
// DESIGN.md for why gob, a standard-library codec, was chosen here over a
// third-party binary format.

package wire

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
)

// QueryKind discriminates the Query tagged union, mirroring the
// Kind-discriminated-struct pattern used by ucstate.Transaction.
type QueryKind int

const (
	QueryGetRecords QueryKind = iota
	QueryGetSpentSerialNumbers
	QueryGetProgram
)

// Query is the payload of an ABCI Query request's Data field, dispatched
// by Kind; the request's Path is not consulted. Only the field relevant to
// Kind is populated.
type Query struct {
	Kind QueryKind

	// After resumes a GetRecords/GetSpentSerialNumbers scan from the given
	// cursor position; nil starts from the beginning.
	After *ucstate.FieldElement
	Limit int

	// ProgramID is set for QueryGetProgram.
	ProgramID string
}

// EncodeQuery serializes a query for transport in an ABCI RequestQuery.Data
// field.
func EncodeQuery(q Query) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("wire: encode query: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeQuery deserializes a query from an ABCI RequestQuery.Data field.
func DecodeQuery(data []byte) (Query, error) {
	var q Query
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&q); err != nil {
		return Query{}, fmt.Errorf("wire: decode query: %w", err)
	}
	return q, nil
}

// RecordEntry is one record in a GetRecords response.
type RecordEntry struct {
	Commitment ucstate.FieldElement
	Ciphertext []byte
}

// RecordsResponse is the payload of a QueryGetRecords response.
type RecordsResponse struct {
	Records []RecordEntry
	// Next is the cursor to pass as Query.After to continue the scan, and
	// is nil once the scan is exhausted.
	Next *ucstate.FieldElement
}

// SpentSerialNumbersResponse is the payload of a QueryGetSpentSerialNumbers
// response.
type SpentSerialNumbersResponse struct {
	SerialNumbers []ucstate.FieldElement
	Next          *ucstate.FieldElement
}

// ProgramResponse is the payload of a QueryGetProgram response.
type ProgramResponse struct {
	Found   bool
	Program ucstate.Program
}

func EncodeRecordsResponse(r RecordsResponse) ([]byte, error) {
	return encodeGob(r)
}

func DecodeRecordsResponse(data []byte) (RecordsResponse, error) {
	var r RecordsResponse
	err := decodeGob(data, &r)
	return r, err
}

func EncodeSpentSerialNumbersResponse(r SpentSerialNumbersResponse) ([]byte, error) {
	return encodeGob(r)
}

func DecodeSpentSerialNumbersResponse(data []byte) (SpentSerialNumbersResponse, error) {
	var r SpentSerialNumbersResponse
	err := decodeGob(data, &r)
	return r, err
}

func EncodeProgramResponse(r ProgramResponse) ([]byte, error) {
	return encodeGob(r)
}

func DecodeProgramResponse(data []byte) (ProgramResponse, error) {
	var r ProgramResponse
	err := decodeGob(data, &r)
	return r, err
}

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("wire: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("wire: decode: %w", err)
	}
	return nil
}
