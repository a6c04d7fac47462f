// Copyright 2025 Certen Protocol
//
// Package orchestrator wires the record store, program store, validator set
// and proof engine together into a CometBFT ABCI application. It owns the
// exact ordering of a block's lifecycle: CheckTx validates without
// mutating state, FinalizeBlock validates and stages each transaction's
// effects transaction-by-transaction then mutates the validator set once at
// the end, and Commit durably persists every store and advances height.
// See SPEC_FULL.md sections 4 and 9.

package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/touba73/aleo-lambda-blockchain/pkg/auxindex"
	"github.com/touba73/aleo-lambda-blockchain/pkg/height"
	"github.com/touba73/aleo-lambda-blockchain/pkg/metrics"
	"github.com/touba73/aleo-lambda-blockchain/pkg/programstore"
	"github.com/touba73/aleo-lambda-blockchain/pkg/proofengine"
	"github.com/touba73/aleo-lambda-blockchain/pkg/recordstore"
	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
	"github.com/touba73/aleo-lambda-blockchain/pkg/validatorset"
	"github.com/touba73/aleo-lambda-blockchain/pkg/wire"
)

// appName and appVersion are reported by Info.
const (
	appName    = "aleo-lambda-blockchain"
	appVersion = 1
)

// App implements abcitypes.Application against the record store, program
// store, validator set and proof engine.
type App struct {
	logger *log.Logger
	mu     sync.Mutex

	chainID string

	records  *recordstore.Store
	programs *programstore.Store
	vs       *validatorset.Set
	heightF  *height.File
	engine   proofengine.Engine
	metrics  *metrics.Registry
	auxIndex *auxindex.Index

	currentHeight   int64
	currentProposer string
	pendingAux      []auxindex.Entry
}

// SetMetrics attaches a metrics registry for FinalizeBlock and Commit to
// report into. Optional: a nil registry (the default) means metrics are
// simply not recorded, which keeps orchestrator tests free of a Prometheus
// dependency.
func (app *App) SetMetrics(reg *metrics.Registry) {
	app.metrics = reg
}

// SetAuxIndex attaches an optional Postgres transaction mirror. Optional:
// a nil index (the default) means Commit simply skips the mirroring step.
func (app *App) SetAuxIndex(idx *auxindex.Index) {
	app.auxIndex = idx
}

// New constructs an App over already-open stores. Callers are responsible
// for opening the stores (see cmd/validatord) so that tests can substitute
// in-memory backends without touching disk.
func New(records *recordstore.Store, programs *programstore.Store, vs *validatorset.Set, heightF *height.File, engine proofengine.Engine) *App {
	return &App{
		logger:   log.New(log.Writer(), "[orchestrator] ", log.LstdFlags),
		records:  records,
		programs: programs,
		vs:       vs,
		heightF:  heightF,
		engine:   engine,
	}
}

// Info reports the application's current height so CometBFT can decide
// whether the application needs to replay blocks after a restart. The
// application hash is deliberately fixed and empty: see appHash for why
// this application does not derive a Merkle state root.
func (app *App) Info(ctx context.Context, req *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	h := app.heightF.ReadOrCreate()
	app.currentHeight = int64(h)

	return &abcitypes.ResponseInfo{
		Data:             appName,
		Version:          "0.1.0",
		AppVersion:       appVersion,
		LastBlockHeight:  int64(h),
		LastBlockAppHash: appHash(),
	}, nil
}

// InitChain decodes the genesis app state, seeds the record store with any
// genesis records, and installs the genesis validator set.
func (app *App) InitChain(ctx context.Context, req *abcitypes.RequestInitChain) (*abcitypes.ResponseInitChain, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.chainID = req.ChainId
	app.logger.Printf("initializing chain %s", req.ChainId)

	genesis, err := wire.DecodeGenesisState(req.AppStateBytes)
	if err != nil {
		panic(fmt.Sprintf("orchestrator: init_chain: decode genesis state: %v", err))
	}

	records, err := genesis.ToRecords()
	if err != nil {
		panic(fmt.Sprintf("orchestrator: init_chain: %v", err))
	}
	for _, r := range records {
		app.records.Add(r)
	}
	if err := app.records.Commit(); err != nil {
		panic(fmt.Sprintf("orchestrator: init_chain: commit genesis records: %v", err))
	}

	validators, err := genesis.ToValidators()
	if err != nil {
		panic(fmt.Sprintf("orchestrator: init_chain: %v", err))
	}
	if err := app.vs.Replace(validators); err != nil {
		panic(fmt.Sprintf("orchestrator: init_chain: install genesis validators: %v", err))
	}
	if err := app.vs.Commit(); err != nil {
		panic(fmt.Sprintf("orchestrator: init_chain: persist genesis validators: %v", err))
	}

	abciValidators := make([]abcitypes.ValidatorUpdate, 0, len(validators))
	for _, v := range validators {
		abciValidators = append(abciValidators, abcitypes.UpdateValidator(v.PubKey, v.Power, "ed25519"))
	}

	return &abcitypes.ResponseInitChain{
		Validators: abciValidators,
	}, nil
}

// CheckTx validates a transaction without mutating any store, for mempool
// admission. It runs the same structural and proof checks deliver_tx does,
// but never stages records, fees or stake updates.
func (app *App) CheckTx(ctx context.Context, req *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	tx, err := wire.DecodeTransaction(req.Tx)
	if err != nil {
		return &abcitypes.ResponseCheckTx{Code: 1, Log: "decode transaction: " + err.Error()}, nil
	}

	if err := app.validateTransaction(&tx); err != nil {
		return &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}, nil
	}

	return &abcitypes.ResponseCheckTx{
		Code:     0,
		Priority: tx.Fees(),
		Log:      "ok",
	}, nil
}

// validateTransaction runs every check a transaction must pass before its
// effects may be staged: no duplicate records, no double-spent inputs, and
// a valid proof for every transition against its program's verifying key.
// Shared by CheckTx and deliverTx so mempool admission and block execution
// can never disagree about what's valid.
func (app *App) validateTransaction(tx *ucstate.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	if err := app.checkNoDuplicateRecords(tx); err != nil {
		return err
	}
	if err := app.checkInputsAreUnspent(tx); err != nil {
		return err
	}

	switch tx.Kind {
	case ucstate.KindDeployment:
		if tx.Program == nil {
			return fmt.Errorf("deployment %s has no program", tx.ID)
		}
		if app.programs.Exists(tx.Program.ID) {
			return fmt.Errorf("program %s is already deployed", tx.Program.ID)
		}
		if tx.FeeTransition != nil {
			if err := app.verifyTransition(*tx.FeeTransition); err != nil {
				return fmt.Errorf("deployment %s: %w", tx.ID, err)
			}
		}
	case ucstate.KindExecution:
		for _, tr := range tx.Transitions {
			if err := app.verifyTransition(tr); err != nil {
				return fmt.Errorf("execution %s: %w", tx.ID, err)
			}
		}
		stakes, err := tx.StakeUpdates()
		if err != nil {
			return err
		}
		for _, stake := range stakes {
			if err := app.vs.Validate(stake); err != nil {
				return fmt.Errorf("execution %s: %w", tx.ID, err)
			}
		}
	}
	return nil
}

// checkNoDuplicateRecords rejects a transaction whose output commitments
// collide with a commitment already known to the record store.
func (app *App) checkNoDuplicateRecords(tx *ucstate.Transaction) error {
	for _, r := range tx.OutputRecords() {
		has, err := app.records.Has(r.Commitment)
		if err != nil {
			return fmt.Errorf("check duplicate record %s: %w", r.Commitment, err)
		}
		if has {
			return fmt.Errorf("record %s already exists", r.Commitment)
		}
	}
	return nil
}

// checkInputsAreUnspent rejects a transaction that spends a serial number
// the record store does not recognize as an unspent record.
func (app *App) checkInputsAreUnspent(tx *ucstate.Transaction) error {
	for _, sn := range tx.SerialNumbers() {
		if !app.records.IsUnspent(sn) {
			return fmt.Errorf("serial number %s is not an unspent record", sn)
		}
	}
	return nil
}

// verifyTransition looks up the called program function's verifying key
// and asks the proof engine to check the transition's proof against it.
// Every program, the built-in credits program included, must be present in
// the program store; the credits program is not special-cased here.
func (app *App) verifyTransition(tr ucstate.Transition) error {
	program, ok, err := app.programs.Get(tr.ProgramID)
	if err != nil {
		return fmt.Errorf("look up program %s: %w", tr.ProgramID, err)
	}
	if !ok {
		return fmt.Errorf("program %s is not deployed", tr.ProgramID)
	}
	vk, ok := program.VerifyingKeys[tr.FunctionName]
	if !ok {
		return fmt.Errorf("program %s has no function %s", tr.ProgramID, tr.FunctionName)
	}
	return app.engine.Verify(vk, tr)
}

// PrepareProposal passes transactions through unmodified: every
// transaction that reaches the mempool has already passed CheckTx.
func (app *App) PrepareProposal(ctx context.Context, req *abcitypes.RequestPrepareProposal) (*abcitypes.ResponsePrepareProposal, error) {
	return &abcitypes.ResponsePrepareProposal{Txs: req.Txs}, nil
}

// ProcessProposal rejects a proposed block outright if any of its
// transactions fail to decode or validate, without staging any effects.
func (app *App) ProcessProposal(ctx context.Context, req *abcitypes.RequestProcessProposal) (*abcitypes.ResponseProcessProposal, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	for _, txBytes := range req.Txs {
		tx, err := wire.DecodeTransaction(txBytes)
		if err != nil {
			return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}, nil
		}
		if err := app.validateTransaction(&tx); err != nil {
			return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}, nil
		}
	}
	return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_ACCEPT}, nil
}
