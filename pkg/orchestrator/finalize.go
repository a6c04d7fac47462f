// Copyright 2025 Certen Protocol

package orchestrator

import (
	"context"
	"fmt"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/touba73/aleo-lambda-blockchain/pkg/auxindex"
	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
	"github.com/touba73/aleo-lambda-blockchain/pkg/validatorset"
	"github.com/touba73/aleo-lambda-blockchain/pkg/wire"
)

const (
	txEventType      = "app"
	txEventAttribute = "tx_id"
)

// FinalizeBlock delivers every transaction in the proposed block in order,
// then mutates the validator set exactly once, after every transaction has
// been accepted. Per SPEC_FULL.md section 9's resolution of the "when does
// the validator set actually change" open question, a transaction's stake
// update is only queued during deliverTx; Apply, which is what a reader
// could observe as a changed validator set, runs once at the very end of
// the block so that no later transaction's rejection can partially revert
// an earlier one's effect on voting power.
func (app *App) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.currentHeight = req.Height
	app.currentProposer = fmt.Sprintf("%X", req.ProposerAddress)

	votes := make([]validatorset.Vote, 0, len(req.DecidedLastCommit.Votes))
	for _, v := range req.DecidedLastCommit.Votes {
		votes = append(votes, validatorset.Vote{
			Address: fmt.Sprintf("%X", v.Validator.Address),
			Power:   v.Validator.Power,
			Signed:  v.SignedLastBlock,
		})
	}
	app.vs.BeginBlock(app.currentProposer, votes, req.Height)

	app.pendingAux = app.pendingAux[:0]
	results := make([]*abcitypes.ExecTxResult, len(req.Txs))
	var collectedFees int64
	for i, txBytes := range req.Txs {
		tx, decodeErr := wire.DecodeTransaction(txBytes)
		results[i] = app.deliverTx(txBytes)
		if decodeErr == nil {
			if results[i].Code == 0 {
				collectedFees += tx.Fees()
			}
			app.pendingAux = append(app.pendingAux, auxindex.Entry{
				TxID:     tx.ID,
				Height:   req.Height,
				Kind:     tx.Kind.String(),
				Accepted: results[i].Code == 0,
				Log:      results[i].Log,
				Fees:     tx.Fees(),
			})
		}
	}
	if app.metrics != nil {
		app.metrics.FeePot.Set(float64(collectedFees))
	}

	app.vs.Apply()
	updates := app.vs.PendingUpdates()
	abciUpdates := make([]abcitypes.ValidatorUpdate, 0, len(updates))
	for _, v := range updates {
		abciUpdates = append(abciUpdates, abcitypes.UpdateValidator(v.PubKey, v.Power, "ed25519"))
	}

	return &abcitypes.ResponseFinalizeBlock{
		TxResults:        results,
		ValidatorUpdates: abciUpdates,
		AppHash:          appHash(),
	}, nil
}

// deliverTx re-validates a transaction (CheckTx's pass is advisory only)
// and, if it's valid, stages its effects in the exact order the original
// implementation used: collect its fee and queue any stake update, spend
// its input records, add its output records, and store any deployed
// program. Staging, not committing: every store's Commit is called once,
// together, from Commit below.
func (app *App) deliverTx(txBytes []byte) *abcitypes.ExecTxResult {
	result := app.deliverTxInner(txBytes)
	if app.metrics != nil {
		app.metrics.ObserveTx(result.Code == 0)
	}
	return result
}

func (app *App) deliverTxInner(txBytes []byte) *abcitypes.ExecTxResult {
	tx, err := wire.DecodeTransaction(txBytes)
	if err != nil {
		return &abcitypes.ExecTxResult{Code: 1, Log: "decode transaction: " + err.Error()}
	}

	if err := app.validateTransaction(&tx); err != nil {
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
	}

	app.vs.Collect(tx.Fees())

	if tx.Kind == ucstate.KindExecution {
		stakes, err := tx.StakeUpdates()
		if err != nil {
			return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
		}
		for _, stake := range stakes {
			if err := app.vs.QueueStakeUpdate(stake); err != nil {
				return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
			}
		}
	}

	for _, sn := range tx.SerialNumbers() {
		if err := app.records.Spend(sn); err != nil {
			return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
		}
	}
	for _, r := range tx.OutputRecords() {
		app.records.Add(r)
	}

	if tx.Kind == ucstate.KindDeployment && tx.Program != nil {
		app.programs.Add(*tx.Program)
	}

	return &abcitypes.ExecTxResult{
		Code: 0,
		Log:  "ok",
		Events: []abcitypes.Event{
			{
				Type: txEventType,
				Attributes: []abcitypes.EventAttribute{
					{Key: txEventAttribute, Value: tx.ID, Index: true},
				},
			},
		},
	}
}

// Commit durably persists every store's staged effects from the block just
// finalized, in order: this block's reward records are minted and staged
// into the record store alongside its transactions' own staged effects,
// all of which flush together in one records.Commit; then height; then
// programs; then the validator set itself. A failure of the record store,
// height or program store is a fatal, tier-3 error (a validator set commit
// failure is only logged): the network has already been told (via
// FinalizeBlock's results) what happened to this block, so the
// application cannot roll back and must stop instead of risking a state
// that disagrees with what it already announced.
func (app *App) Commit(ctx context.Context, req *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	rewards := app.vs.BlockRewards()
	for i, reward := range rewards {
		record, err := newRewardRecord(app.currentHeight, i, reward)
		if err != nil {
			panic(fmt.Sprintf("orchestrator: commit: mint reward record: %v", err))
		}
		app.records.Add(record)
	}

	if err := app.records.Commit(); err != nil {
		panic(fmt.Sprintf("orchestrator: commit: record store: %v", err))
	}

	newHeight := app.heightF.Increment()

	if err := app.programs.Commit(); err != nil {
		panic(fmt.Sprintf("orchestrator: commit: program store: %v", err))
	}
	if err := app.vs.Commit(); err != nil {
		app.logger.Printf("validator set commit failed at height %d: %v", newHeight, err)
	}

	if app.metrics != nil {
		app.metrics.Height.Set(float64(newHeight))
		app.metrics.Validators.Set(float64(len(app.vs.Validators())))
		app.metrics.FeePot.Set(0)
	}

	if app.auxIndex != nil {
		app.auxIndex.Record(app.pendingAux)
	}

	app.logger.Printf("committed height %d", newHeight)

	return &abcitypes.ResponseCommit{}, nil
}
