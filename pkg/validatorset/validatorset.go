// Copyright 2025 Certen Protocol
//
// Package validatorset tracks consensus validator voting power, the
// current block's fee pot, and reward distribution. See SPEC_FULL.md
// section 3 and section 9's resolution of the "mutate the validator set
// last" open question: deliver_tx only queues a transaction's effect on
// the set via Collect/QueueStakeUpdate, and the set is actually mutated in
// Apply, called once per block after every other store has accepted the
// block's transactions.

package validatorset

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"

	"github.com/touba73/aleo-lambda-blockchain/pkg/kvstore"
)

const validatorSetKey = "vs:snapshot"

// Validator is one consensus participant: its address (CometBFT operator
// address), its public key bytes, its current voting power, and the
// Aleo-style owner address its block rewards are minted to. OwnerAddress
// defaults to Address when a validator is never told otherwise (genesis
// validators with no separate owner, or a validator created by its first
// stake transaction before any reward has been minted for it).
type Validator struct {
	Address      string
	OwnerAddress string
	PubKey       []byte
	Power        int64
}

// Vote is one entry of the previous block's commit info, as surfaced by
// ABCI's LastCommitInfo: an address that was part of the active validator
// set when the previous block was signed, whether it actually signed, and
// its voting power at that time.
type Vote struct {
	Address string
	Power   int64
	Signed  bool
}

// Set is the live consensus validator set plus the bookkeeping needed to
// compute each block's reward distribution: a single mutex guards the
// whole structure, mirroring the single-lock discipline of the application
// orchestrator it's embedded in.
type Set struct {
	mu sync.Mutex

	kv kvstore.KV

	validators map[string]*Validator

	// feePot accumulates the fees of every transaction delivered so far in
	// the current block.
	feePot int64

	// proposer and previousVoters are set by BeginBlock from the current
	// header and are consumed by BlockRewards at Commit.
	proposer       string
	previousVoters []Vote

	// pendingPower holds additive power deltas queued by QueueStakeUpdate
	// during deliver_tx, applied (and cleared) by Apply.
	pendingPower map[string]int64

	// pendingOwner holds the owner address carried by the most recent
	// queued stake update for a validator address, applied to Validator.
	// OwnerAddress by Apply. Only set when the staking transition actually
	// names an owner.
	pendingOwner map[string]string

	// updatedSinceLastEndBlock is the set of addresses whose power changed
	// since the last PendingUpdates call, surfaced to CometBFT as
	// ValidatorUpdates in FinalizeBlock's response.
	updatedSinceLastEndBlock map[string]struct{}
}

// persistedState is Set's on-disk representation.
type persistedState struct {
	Validators []Validator
}

// Open loads a persisted validator set snapshot from kv, or returns an
// empty set if none exists yet (the genesis case, where InitChain will
// call Replace).
func Open(kv kvstore.KV) (*Set, error) {
	s := &Set{
		kv:                       kv,
		validators:               make(map[string]*Validator),
		pendingPower:             make(map[string]int64),
		pendingOwner:             make(map[string]string),
		updatedSinceLastEndBlock: make(map[string]struct{}),
	}

	raw, err := kv.Get([]byte(validatorSetKey))
	if err != nil {
		return nil, fmt.Errorf("validatorset: load snapshot: %w", err)
	}
	if raw == nil {
		return s, nil
	}
	var snapshot persistedState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("validatorset: decode snapshot: %w", err)
	}
	for i := range snapshot.Validators {
		v := snapshot.Validators[i]
		s.validators[v.Address] = &v
	}
	return s, nil
}

// Replace sets the validator set wholesale, used at InitChain to install
// the genesis validators. It is an error to call Replace once the set is
// non-empty; use QueueStakeUpdate/Apply to change it afterward.
func (s *Set) Replace(validators []Validator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.validators) != 0 {
		return fmt.Errorf("validatorset: cannot replace a non-empty validator set")
	}
	for _, v := range validators {
		if v.Address == "" {
			return fmt.Errorf("validatorset: genesis validator has empty address")
		}
		if v.Power <= 0 {
			return fmt.Errorf("validatorset: genesis validator %s has non-positive power %d", v.Address, v.Power)
		}
		copied := v
		if copied.OwnerAddress == "" {
			copied.OwnerAddress = copied.Address
		}
		s.validators[v.Address] = &copied
	}
	return nil
}

// Validators returns a snapshot of the current validator set, sorted by
// address, suitable for InitChain's response or diagnostics.
func (s *Set) Validators() []Validator {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Validator, 0, len(s.validators))
	for _, v := range s.validators {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Power returns a validator's current voting power, or 0 if it is not in
// the set.
func (s *Set) Power(address string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.validators[address]; ok {
		return v.Power
	}
	return 0
}

// BeginBlock records the current block's proposer and the previous block's
// voters, which together determine this block's reward recipients at
// Commit. height is accepted for logging/diagnostics symmetry with the
// ABCI header it's derived from but isn't otherwise consulted.
func (s *Set) BeginBlock(proposer string, votes []Vote, height int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposer = proposer

	signed := make([]Vote, 0, len(votes))
	for _, v := range votes {
		if v.Signed && v.Power > 0 {
			signed = append(signed, v)
		}
	}
	s.previousVoters = signed
}

// Collect adds a delivered transaction's fee to the current block's fee
// pot. Negative fees (a transaction that mints more than it burns) reduce
// the pot. Neither Collect nor the orchestrator stops the pot from going
// negative; BlockRewards mints nothing when the pot plus CoinbaseAmount is
// not positive.
func (s *Set) Collect(fee int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feePot += fee
}

// Validate checks whether a stake or unstake delta is admissible against a
// validator's current power plus whatever deltas are already queued for it
// this block. It rejects two things: an unstake that would drive the
// validator's projected power below zero, and an unstake naming a
// validator address this set has neither seen nor has a pending stake for.
// It does not mutate any state, so it is safe to call from CheckTx and
// ProcessProposal as well as from QueueStakeUpdate during deliver_tx.
func (s *Set) Validate(update Stake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked(update)
}

func (s *Set) validateLocked(update Stake) error {
	v, known := s.validators[update.ValidatorAddress]
	pending, hasPending := s.pendingPower[update.ValidatorAddress]

	if update.Amount < 0 && !known && !hasPending {
		return fmt.Errorf("validatorset: unstake from unknown validator %s", update.ValidatorAddress)
	}

	var current int64
	if known {
		current = v.Power
	}
	if projected := current + pending + update.Amount; projected < 0 {
		return fmt.Errorf("validatorset: unstake of %d from validator %s would drive power below zero (current %d, pending %d)",
			-update.Amount, update.ValidatorAddress, current, pending)
	}
	return nil
}

// QueueStakeUpdate validates, then stages, a validator power delta
// extracted from a staking transaction. It does not mutate the live set;
// Apply does, once per block.
func (s *Set) QueueStakeUpdate(stake Stake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateLocked(stake); err != nil {
		return err
	}
	s.pendingPower[stake.ValidatorAddress] += stake.Amount
	if stake.OwnerAddress != "" {
		s.pendingOwner[stake.ValidatorAddress] = stake.OwnerAddress
	}
	return nil
}

// Apply mutates the live validator set with every power delta queued since
// the last Apply, clamping power at zero, applies any owner address
// carried by those stakes, and records which addresses changed so
// PendingUpdates can report them. Called once per block, after every other
// store has accepted the block's transactions, per the "mutate the
// validator set last" resolution. Validate having already rejected any
// unstake that would drive power negative or that named a validator this
// set has never heard of, the clamp here only ever guards against a
// same-block race between two queued updates for the same validator.
func (s *Set) Apply() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for address, delta := range s.pendingPower {
		v, ok := s.validators[address]
		if !ok {
			v = &Validator{Address: address, OwnerAddress: address}
			s.validators[address] = v
		}
		if owner := s.pendingOwner[address]; owner != "" {
			v.OwnerAddress = owner
		}
		v.Power += delta
		if v.Power < 0 {
			v.Power = 0
		}
		s.updatedSinceLastEndBlock[address] = struct{}{}
	}
	s.pendingPower = make(map[string]int64)
	s.pendingOwner = make(map[string]string)
}

// PendingUpdates returns every validator whose power has changed since the
// last call, for CometBFT's FinalizeBlock response, and clears the change
// set. A validator driven to zero power is still included, signaling
// removal to the consensus engine.
func (s *Set) PendingUpdates() []Validator {
	s.mu.Lock()
	defer s.mu.Unlock()

	updates := make([]Validator, 0, len(s.updatedSinceLastEndBlock))
	for address := range s.updatedSinceLastEndBlock {
		if v, ok := s.validators[address]; ok {
			updates = append(updates, *v)
		}
	}
	s.updatedSinceLastEndBlock = make(map[string]struct{})
	return updates
}

// Commit persists the validator set to kv and resets the fee pot for the
// next block. BlockRewards must be called before Commit to read the fee
// pot's value, since Commit clears it.
func (s *Set) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := persistedState{
		Validators: make([]Validator, 0, len(s.validators)),
	}
	for _, v := range s.validators {
		snapshot.Validators = append(snapshot.Validators, *v)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshot); err != nil {
		return fmt.Errorf("validatorset: encode snapshot: %w", err)
	}
	if err := s.kv.Set([]byte(validatorSetKey), buf.Bytes()); err != nil {
		return fmt.Errorf("validatorset: persist snapshot: %w", err)
	}

	s.feePot = 0
	return nil
}
