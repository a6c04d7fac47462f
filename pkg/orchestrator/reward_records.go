// Copyright 2025 Certen Protocol

package orchestrator

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
	"github.com/touba73/aleo-lambda-blockchain/pkg/validatorset"
)

// rewardPayload is the opaque ciphertext a minted reward record carries.
// Like every other output record, the application never inspects it once
// written; only the owner address it names is ever read back out, and only
// by client tooling, not by this node.
type rewardPayload struct {
	OwnerAddress string
	Amount       int64
	Height       int64
}

// newRewardRecord mints a fresh credit record for one slice of a block's
// reward distribution, addressed to the recipient's owner address. Height
// and index (the reward's position within BlockRewards' returned slice)
// seed the commitment and serial number so that two slices paid to the
// same address in the same block — the proposer's base share and its
// rounding leftover, say — never collide.
func newRewardRecord(height int64, index int, reward validatorset.Reward) (ucstate.Record, error) {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(rewardPayload{
		OwnerAddress: reward.Address,
		Amount:       reward.Amount,
		Height:       height,
	}); err != nil {
		return ucstate.Record{}, fmt.Errorf("orchestrator: encode reward record payload: %w", err)
	}

	return ucstate.Record{
		Commitment:   rewardFieldElement("commitment", height, index, reward.Address),
		SerialNumber: rewardFieldElement("serial", height, index, reward.Address),
		Ciphertext:   payload.Bytes(),
	}, nil
}

// rewardFieldElement derives a deterministic field element for a reward
// record's commitment or serial number (selected by domain) from the
// block height, the reward's index within the block, and the recipient
// address, so that every validator computes the identical commitment for
// the identical reward without any randomness or coordination.
func rewardFieldElement(domain string, height int64, index int, address string) ucstate.FieldElement {
	var buf bytes.Buffer
	buf.WriteString("reward-")
	buf.WriteString(domain)
	buf.WriteByte(':')

	var h [8]byte
	binary.BigEndian.PutUint64(h[:], uint64(height))
	buf.Write(h[:])

	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(index))
	buf.Write(idx[:])

	buf.WriteByte(':')
	buf.WriteString(address)

	return ucstate.FieldElement(sha256.Sum256(buf.Bytes()))
}
