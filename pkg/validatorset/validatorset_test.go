// Copyright 2025 Certen Protocol

package validatorset

import (
	"testing"

	"github.com/touba73/aleo-lambda-blockchain/pkg/kvstore"
)

func TestReplaceRejectsNonPositivePower(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	err = s.Replace([]Validator{{Address: "v1", Power: 0}})
	if err == nil {
		t.Fatal("expected non-positive genesis power to be rejected")
	}
}

func TestReplaceThenPersistAcrossReopen(t *testing.T) {
	kv := kvstore.NewMemory()
	s, err := Open(kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Replace([]Validator{{Address: "v1", Power: 10}, {Address: "v2", Power: 5}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reopened, err := Open(kv)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if p := reopened.Power("v1"); p != 10 {
		t.Fatalf("expected v1 power 10, got %d", p)
	}
	if p := reopened.Power("v2"); p != 5 {
		t.Fatalf("expected v2 power 5, got %d", p)
	}
}

func TestStakeUpdateAppliedOncePerBlock(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Replace([]Validator{{Address: "v1", Power: 10}}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := s.QueueStakeUpdate(Stake{ValidatorAddress: "v1", Amount: 5}); err != nil {
		t.Fatalf("queue: %v", err)
	}
	if err := s.QueueStakeUpdate(Stake{ValidatorAddress: "v1", Amount: -3}); err != nil {
		t.Fatalf("queue: %v", err)
	}
	// Before Apply, the live power is unchanged.
	if p := s.Power("v1"); p != 10 {
		t.Fatalf("expected power to be unchanged before Apply, got %d", p)
	}

	s.Apply()
	if p := s.Power("v1"); p != 12 {
		t.Fatalf("expected power 12 after apply, got %d", p)
	}

	updates := s.PendingUpdates()
	if len(updates) != 1 || updates[0].Address != "v1" || updates[0].Power != 12 {
		t.Fatalf("unexpected pending updates: %+v", updates)
	}
	// A second call with nothing new queued should report no updates.
	if updates := s.PendingUpdates(); len(updates) != 0 {
		t.Fatalf("expected no pending updates on second call, got %+v", updates)
	}
}

func TestValidateRejectsUnstakeBelowZero(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Replace([]Validator{{Address: "v1", Power: 5}}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := s.Validate(Stake{ValidatorAddress: "v1", Amount: -100}); err == nil {
		t.Fatal("expected an unstake driving power below zero to be rejected")
	}
	if err := s.QueueStakeUpdate(Stake{ValidatorAddress: "v1", Amount: -100}); err == nil {
		t.Fatal("expected QueueStakeUpdate to reject the same unstake")
	}
	// Rejected, so nothing should have been queued.
	s.Apply()
	if p := s.Power("v1"); p != 5 {
		t.Fatalf("expected power unchanged after a rejected unstake, got %d", p)
	}
}

func TestValidateAllowsUnstakeDownToZero(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Replace([]Validator{{Address: "v1", Power: 5}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.QueueStakeUpdate(Stake{ValidatorAddress: "v1", Amount: -5}); err != nil {
		t.Fatalf("queue: %v", err)
	}
	s.Apply()
	if p := s.Power("v1"); p != 0 {
		t.Fatalf("expected power exactly zero, got %d", p)
	}
}

func TestValidateRejectsUnstakeOfUnknownValidator(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Validate(Stake{ValidatorAddress: "ghost", Amount: -1}); err == nil {
		t.Fatal("expected an unstake naming an unknown validator to be rejected")
	}
}

func TestValidateAllowsStakeOfUnknownValidator(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// A positive stake may introduce a brand-new validator.
	if err := s.Validate(Stake{ValidatorAddress: "new-validator", Amount: 10}); err != nil {
		t.Fatalf("expected a stake naming an unknown validator to be accepted, got %v", err)
	}
}

func TestValidateAccountsForPendingDeltasThisBlock(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Replace([]Validator{{Address: "v1", Power: 5}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	// Stake first, then an unstake larger than the original power but
	// covered by the pending stake, should be admissible.
	if err := s.QueueStakeUpdate(Stake{ValidatorAddress: "v1", Amount: 10}); err != nil {
		t.Fatalf("queue stake: %v", err)
	}
	if err := s.Validate(Stake{ValidatorAddress: "v1", Amount: -12}); err != nil {
		t.Fatalf("expected unstake covered by pending stake to be admissible, got %v", err)
	}
	if err := s.Validate(Stake{ValidatorAddress: "v1", Amount: -16}); err == nil {
		t.Fatal("expected an unstake exceeding current plus pending power to be rejected")
	}
}

func TestBlockRewardsSplitBetweenProposerAndVoters(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Replace([]Validator{{Address: "proposer", Power: 10}, {Address: "voter", Power: 10}}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	s.BeginBlock("proposer", []Vote{{Address: "voter", Power: 10, Signed: true}}, 2)
	s.Collect(100)

	rewards := s.BlockRewards()
	var proposerAmount, voterAmount int64
	for _, r := range rewards {
		switch r.Address {
		case "proposer":
			proposerAmount += r.Amount
		case "voter":
			voterAmount += r.Amount
		}
	}
	pool := int64(100) + CoinbaseAmount
	if proposerAmount != pool/2 {
		t.Fatalf("expected proposer reward %d, got %d", pool/2, proposerAmount)
	}
	if voterAmount != pool-pool/2 {
		t.Fatalf("expected voter reward %d, got %d", pool-pool/2, voterAmount)
	}
	if p := s.Power("proposer"); p != 10 {
		t.Fatalf("expected computing rewards to leave voting power unchanged, got %d", p)
	}

	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	// Fee pot resets, but the fixed coinbase is still minted every block.
	rewards = s.BlockRewards()
	var total int64
	for _, r := range rewards {
		total += r.Amount
	}
	if total != CoinbaseAmount {
		t.Fatalf("expected coinbase-only reward pool %d after commit reset the fee pot, got %d (%+v)", CoinbaseAmount, total, rewards)
	}
}

func TestBlockRewardsAddressedToOwnerAddress(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Replace([]Validator{{Address: "proposer", OwnerAddress: "owner-of-proposer", Power: 10}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	s.BeginBlock("proposer", nil, 2)
	s.Collect(0)

	rewards := s.BlockRewards()
	var total int64
	for _, r := range rewards {
		if r.Address != "owner-of-proposer" {
			t.Fatalf("expected every reward slice addressed to the proposer's owner address, got %+v", rewards)
		}
		total += r.Amount
	}
	if total != CoinbaseAmount {
		t.Fatalf("expected total reward %d, got %d (%+v)", CoinbaseAmount, total, rewards)
	}
}

func TestBlockRewardsIgnoresUnsignedVotes(t *testing.T) {
	s, err := Open(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Replace([]Validator{{Address: "proposer", Power: 10}, {Address: "absent", Power: 10}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	s.BeginBlock("proposer", []Vote{{Address: "absent", Power: 10, Signed: false}}, 2)
	s.Collect(100)

	rewards := s.BlockRewards()
	for _, r := range rewards {
		if r.Address == "absent" {
			t.Fatalf("expected unsigned voter to receive no reward, got %+v", rewards)
		}
	}
}
