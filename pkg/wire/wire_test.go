// Copyright 2025 Certen Protocol

package wire

import (
	"testing"

	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
)

const testFieldElementHex = "0x1122334455667788990011223344556677889900112233445566778899aabbcc"

func TestQueryRoundTrip(t *testing.T) {
	after, err := ucstate.HexToFieldElement(testFieldElementHex)
	if err != nil {
		t.Fatalf("field element: %v", err)
	}
	q := Query{Kind: QueryGetRecords, After: &after, Limit: 50}

	data, err := EncodeQuery(q)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeQuery(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Kind != QueryGetRecords || decoded.Limit != 50 {
		t.Fatalf("unexpected decoded query: %+v", decoded)
	}
	if decoded.After == nil || *decoded.After != after {
		t.Fatalf("expected After to round trip, got %+v", decoded.After)
	}
}

func TestGetProgramQueryRoundTrip(t *testing.T) {
	q := Query{Kind: QueryGetProgram, ProgramID: "credits"}
	data, err := EncodeQuery(q)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeQuery(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ProgramID != "credits" {
		t.Fatalf("expected program id to round trip, got %q", decoded.ProgramID)
	}
}

func TestProgramResponseRoundTrip(t *testing.T) {
	resp := ProgramResponse{Found: true, Program: ucstate.Program{ID: "credits", Source: "program credits;"}}
	data, err := EncodeProgramResponse(resp)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeProgramResponse(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Found || decoded.Program.ID != "credits" {
		t.Fatalf("unexpected decoded response: %+v", decoded)
	}
}

func TestDecodeGenesisState(t *testing.T) {
	raw := []byte(`{
		"records": [{"commitment":"` + testFieldElementHex + `", "serial_number":"` + testFieldElementHex + `", "ciphertext":"deadbeef"}],
		"validators": [
			{"address":"validator-1","pub_key":"aabbcc","power":"10"},
			{"address":"validator-2","pub_key":"ccbbaa","power":"0x14"}
		]
	}`)

	g, err := DecodeGenesisState(raw)
	if err != nil {
		t.Fatalf("decode genesis state: %v", err)
	}
	records, err := g.ToRecords()
	if err != nil {
		t.Fatalf("to records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	validators, err := g.ToValidators()
	if err != nil {
		t.Fatalf("to validators: %v", err)
	}
	if len(validators) != 2 || validators[0].Address != "validator-1" || validators[0].Power != 10 {
		t.Fatalf("unexpected validators: %+v", validators)
	}
	if validators[1].Power != 20 {
		t.Fatalf("expected hex power 0x14 to parse as 20, got %d", validators[1].Power)
	}
}
