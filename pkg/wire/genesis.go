// Copyright 2025 Certen Protocol

package wire

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
	"github.com/touba73/aleo-lambda-blockchain/pkg/validatorset"
)

// GenesisRecord is one record seeded at genesis, JSON-encoded in the
// CometBFT genesis file's app_state field.
type GenesisRecord struct {
	Commitment   string `json:"commitment"`
	SerialNumber string `json:"serial_number"`
	Ciphertext   string `json:"ciphertext"` // hex
}

// GenesisValidator is one validator seeded at genesis. Power is accepted
// as either a decimal or 0x-prefixed hex string (see ucstate.ParseAmount),
// since genesis files are hand-assembled and both are common. OwnerAddress
// is optional; when empty, the validator's own Address is used as its
// reward-owning address.
type GenesisValidator struct {
	Address      string `json:"address"`
	OwnerAddress string `json:"owner_address"`
	PubKey       string `json:"pub_key"` // hex
	Power        string `json:"power"`
}

// GenesisState is the application's portion of the genesis file, decoded
// from RequestInitChain.AppStateBytes.
type GenesisState struct {
	Records    []GenesisRecord    `json:"records"`
	Validators []GenesisValidator `json:"validators"`
}

// DecodeGenesisState parses InitChain's AppStateBytes.
func DecodeGenesisState(appStateBytes []byte) (GenesisState, error) {
	var g GenesisState
	if err := json.Unmarshal(appStateBytes, &g); err != nil {
		return GenesisState{}, fmt.Errorf("wire: decode genesis state: %w", err)
	}
	return g, nil
}

// ToRecords converts the genesis JSON records into ucstate.Record values.
func (g GenesisState) ToRecords() ([]ucstate.Record, error) {
	records := make([]ucstate.Record, 0, len(g.Records))
	for _, r := range g.Records {
		commitment, err := ucstate.HexToFieldElement(r.Commitment)
		if err != nil {
			return nil, fmt.Errorf("wire: genesis record: %w", err)
		}
		sn, err := ucstate.HexToFieldElement(r.SerialNumber)
		if err != nil {
			return nil, fmt.Errorf("wire: genesis record: %w", err)
		}
		ciphertext, err := hexOrEmpty(r.Ciphertext)
		if err != nil {
			return nil, fmt.Errorf("wire: genesis record: %w", err)
		}
		records = append(records, ucstate.Record{Commitment: commitment, SerialNumber: sn, Ciphertext: ciphertext})
	}
	return records, nil
}

// ToValidators converts the genesis JSON validators into validatorset.Validator values.
func (g GenesisState) ToValidators() ([]validatorset.Validator, error) {
	validators := make([]validatorset.Validator, 0, len(g.Validators))
	for _, v := range g.Validators {
		pubKey, err := hexOrEmpty(v.PubKey)
		if err != nil {
			return nil, fmt.Errorf("wire: genesis validator %s: %w", v.Address, err)
		}
		power, err := ucstate.ParseAmount(v.Power)
		if err != nil {
			return nil, fmt.Errorf("wire: genesis validator %s: %w", v.Address, err)
		}
		owner := v.OwnerAddress
		if owner == "" {
			owner = v.Address
		}
		validators = append(validators, validatorset.Validator{Address: v.Address, OwnerAddress: owner, PubKey: pubKey, Power: power})
	}
	return validators, nil
}

func hexOrEmpty(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex %q: %w", s, err)
	}
	return out, nil
}
