// Copyright 2025 Certen Protocol

package wire

import (
	"encoding/json"
	"fmt"

	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
)

// EncodeTransaction serializes a transaction for inclusion in an ABCI
// transaction byte slice. JSON is used here, not gob: transactions
// originate outside the validator process (wallets, other client
// languages), so the wire format needs a codec that doesn't require a
// matching Go type on the other end.
func EncodeTransaction(tx ucstate.Transaction) ([]byte, error) {
	b, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("wire: encode transaction: %w", err)
	}
	return b, nil
}

// DecodeTransaction parses a transaction from an ABCI transaction byte
// slice.
func DecodeTransaction(data []byte) (ucstate.Transaction, error) {
	var tx ucstate.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return ucstate.Transaction{}, fmt.Errorf("wire: decode transaction: %w", err)
	}
	return tx, nil
}
