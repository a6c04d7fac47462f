// Copyright 2025 Certen Protocol

package orchestrator

import (
	"context"
	"fmt"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
	"github.com/touba73/aleo-lambda-blockchain/pkg/wire"
)

const defaultScanLimit = 100

// Query answers the three read paths a client needs: which records the
// node holds, which serial numbers have been spent, and a deployed
// program's source and verifying keys. Dispatch is by the decoded
// wire.Query's Kind, not by ABCI's Path field, since every query shares a
// single opaque binary payload format.
func (app *App) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	q, err := wire.DecodeQuery(req.Data)
	if err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: "decode query: " + err.Error()}, nil
	}

	switch q.Kind {
	case wire.QueryGetRecords:
		return app.queryGetRecords(q)
	case wire.QueryGetSpentSerialNumbers:
		return app.queryGetSpentSerialNumbers(q)
	case wire.QueryGetProgram:
		return app.queryGetProgram(q)
	default:
		return &abcitypes.ResponseQuery{Code: 1, Log: fmt.Sprintf("unknown query kind %d", q.Kind)}, nil
	}
}

func (app *App) queryGetRecords(q wire.Query) (*abcitypes.ResponseQuery, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultScanLimit
	}

	cursor, err := app.records.Scan(q.After)
	if err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: "scan records: " + err.Error()}, nil
	}
	defer cursor.Close()

	var entries []wire.RecordEntry
	var next *ucstate.FieldElement
	for len(entries) < limit {
		record, ok, err := cursor.Next()
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: "scan records: " + err.Error()}, nil
		}
		if !ok {
			break
		}
		entries = append(entries, wire.RecordEntry{Commitment: record.Commitment, Ciphertext: record.Ciphertext})
		commitment := record.Commitment
		next = &commitment
	}
	// Peek to see if another record follows; if not, the scan is exhausted
	// and the client shouldn't be handed a cursor to resume from.
	if _, ok, err := cursor.Next(); err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: "scan records: " + err.Error()}, nil
	} else if !ok {
		next = nil
	}

	data, err := wire.EncodeRecordsResponse(wire.RecordsResponse{Records: entries, Next: next})
	if err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: "encode response: " + err.Error()}, nil
	}
	return &abcitypes.ResponseQuery{Code: 0, Value: data}, nil
}

func (app *App) queryGetSpentSerialNumbers(q wire.Query) (*abcitypes.ResponseQuery, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultScanLimit
	}

	cursor, err := app.records.ScanSpent(q.After)
	if err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: "scan spent: " + err.Error()}, nil
	}
	defer cursor.Close()

	var serials []ucstate.FieldElement
	var next *ucstate.FieldElement
	for len(serials) < limit {
		sn, ok, err := cursor.NextSerialNumber()
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: "scan spent: " + err.Error()}, nil
		}
		if !ok {
			break
		}
		serials = append(serials, sn)
		next = &sn
	}
	if _, ok, err := cursor.NextSerialNumber(); err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: "scan spent: " + err.Error()}, nil
	} else if !ok {
		next = nil
	}

	data, err := wire.EncodeSpentSerialNumbersResponse(wire.SpentSerialNumbersResponse{SerialNumbers: serials, Next: next})
	if err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: "encode response: " + err.Error()}, nil
	}
	return &abcitypes.ResponseQuery{Code: 0, Value: data}, nil
}

func (app *App) queryGetProgram(q wire.Query) (*abcitypes.ResponseQuery, error) {
	program, ok, err := app.programs.Get(q.ProgramID)
	if err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: "get program: " + err.Error()}, nil
	}
	data, err := wire.EncodeProgramResponse(wire.ProgramResponse{Found: ok, Program: program})
	if err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: "encode response: " + err.Error()}, nil
	}
	return &abcitypes.ResponseQuery{Code: 0, Value: data}, nil
}
