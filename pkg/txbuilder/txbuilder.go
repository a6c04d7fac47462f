// Copyright 2025 Certen Protocol
//
// Package txbuilder assembles transactions for submission to a validator
// node, assigning each a fresh id the way client tooling is expected to:
// the application itself never generates transaction ids.

package txbuilder

import "github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"

// Deployment builds a Deployment transaction for the given program,
// optionally paying a fee transition.
func Deployment(program ucstate.Program, feeTransition *ucstate.Transition) ucstate.Transaction {
	return ucstate.Transaction{
		ID:            ucstate.NewTransactionID(),
		Kind:          ucstate.KindDeployment,
		Program:       &program,
		FeeTransition: feeTransition,
	}
}

// Execution builds an Execution transaction from one or more transitions,
// each of which must already carry a valid proof.
func Execution(transitions ...ucstate.Transition) ucstate.Transaction {
	return ucstate.Transaction{
		ID:          ucstate.NewTransactionID(),
		Kind:        ucstate.KindExecution,
		Transitions: transitions,
	}
}

// StakingExecution builds an Execution transaction that also carries the
// validator address its stake/unstake transition applies to.
func StakingExecution(validatorAddress string, transition ucstate.Transition) ucstate.Transaction {
	tx := Execution(transition)
	tx.ValidatorAddress = validatorAddress
	return tx
}
