// Copyright 2025 Certen Protocol

package validatorset

// Reward credits a single owner address with a share of a block's reward
// pool. Address is always a validator's OwnerAddress (falling back to its
// consensus Address when no separate owner was ever recorded), since
// rewards are minted as credit records addressed to the account that can
// actually spend them, not to the consensus identity that earned them.
type Reward struct {
	Address string
	Amount  int64
}

// Proposer reward split: the block proposer receives half the reward pool
// outright; the remainder is split pro rata among the previous block's
// signing voters by voting power.
const (
	ProposerRewardNumerator   = 1
	ProposerRewardDenominator = 2
)

// CoinbaseAmount is the fixed per-block subsidy minted in addition to the
// collected fee pot, so that a block with no fee-paying transactions still
// mints a reward for its proposer and previous voters. See DESIGN.md for
// how this value was chosen.
const CoinbaseAmount int64 = 10

// BlockRewards computes how this block's reward pool — the collected fee
// pot plus the fixed CoinbaseAmount — should be distributed:
// ProposerRewardNumerator/ProposerRewardDenominator of it to the current
// block's proposer, and the rest split pro rata among the previous block's
// signing voters by voting power. It does not mutate the fee pot or the
// validator set; the caller is expected to mint the returned rewards as
// credit records and add them to the record store, then call Commit.
func (s *Set) BlockRewards() []Reward {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.feePot + CoinbaseAmount
	if pool <= 0 {
		return nil
	}

	proposerShare := pool * ProposerRewardNumerator / ProposerRewardDenominator
	remainder := pool - proposerShare

	var totalVoterPower int64
	for _, v := range s.previousVoters {
		totalVoterPower += v.Power
	}

	rewards := make([]Reward, 0, len(s.previousVoters)+1)
	if proposerShare > 0 && s.proposer != "" {
		rewards = append(rewards, Reward{Address: s.ownerOfLocked(s.proposer), Amount: proposerShare})
	}

	if totalVoterPower > 0 {
		var distributed int64
		for _, v := range s.previousVoters {
			share := remainder * v.Power / totalVoterPower
			if share == 0 {
				continue
			}
			rewards = append(rewards, Reward{Address: s.ownerOfLocked(v.Address), Amount: share})
			distributed += share
		}
		// Any remainder left by integer-division rounding goes to the
		// proposer rather than being burned.
		if leftover := remainder - distributed; leftover > 0 && s.proposer != "" {
			rewards = append(rewards, Reward{Address: s.ownerOfLocked(s.proposer), Amount: leftover})
		}
	} else if remainder > 0 && s.proposer != "" {
		rewards = append(rewards, Reward{Address: s.ownerOfLocked(s.proposer), Amount: remainder})
	}

	return rewards
}

// ownerOfLocked resolves a consensus validator address to the owner
// address its rewards should be minted to, falling back to the consensus
// address itself for a validator this set has no record of (defensive:
// BeginBlock's proposer/previousVoters are fed by the ABCI header, which
// names addresses by consensus identity even for a validator this node
// has not yet seen a stake transaction for). Callers must hold s.mu.
func (s *Set) ownerOfLocked(consensusAddress string) string {
	if v, ok := s.validators[consensusAddress]; ok && v.OwnerAddress != "" {
		return v.OwnerAddress
	}
	return consensusAddress
}
