// Copyright 2025 Certen Protocol

package proofengine

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"

	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
)

// GnarkEngine verifies Groth16 proofs over the BN254 curve using gnark's
// native proof and verifying-key serialization. It never compiles or knows
// about the circuit that produced a proof; it only deserializes the
// opaque proof and verifying-key bytes carried on ucstate.Program and
// ucstate.Transition and asks gnark's verifier whether they're consistent
// with the transition's public witness.
type GnarkEngine struct{}

// NewGnarkEngine returns the production proof engine.
func NewGnarkEngine() *GnarkEngine {
	return &GnarkEngine{}
}

func (e *GnarkEngine) Verify(vkBytes ucstate.VerifyingKey, transition ucstate.Transition) error {
	if len(transition.Proof) == 0 {
		return fmt.Errorf("transition %s.%s: empty proof", transition.ProgramID, transition.FunctionName)
	}
	if len(vkBytes) == 0 {
		return fmt.Errorf("transition %s.%s: empty verifying key", transition.ProgramID, transition.FunctionName)
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(transition.Proof)); err != nil {
		return fmt.Errorf("transition %s.%s: decode proof: %w", transition.ProgramID, transition.FunctionName, err)
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		return fmt.Errorf("transition %s.%s: decode verifying key: %w", transition.ProgramID, transition.FunctionName, err)
	}

	publicWitness, err := buildPublicWitness(transition)
	if err != nil {
		return fmt.Errorf("transition %s.%s: build public witness: %w", transition.ProgramID, transition.FunctionName, err)
	}

	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		return fmt.Errorf("transition %s.%s: proof rejected: %w", transition.ProgramID, transition.FunctionName, err)
	}
	return nil
}

// buildPublicWitness folds a transition's program id, function name, serial
// numbers, output commitments and fee into a single BN254 scalar field
// element, and wraps it as a one-variable public witness. Every circuit
// compiled for this application is expected to expose exactly this digest
// as its sole public input, so that the application never needs to know a
// program's circuit shape to verify its proofs.
func buildPublicWitness(transition ucstate.Transition) (witness.Witness, error) {
	digest := sha256.Sum256(PublicWitness(transition))

	field := ecc.BN254.ScalarField()
	element := new(big.Int).SetBytes(digest[:])
	element.Mod(element, field)

	w, err := witness.New(field)
	if err != nil {
		return nil, err
	}
	values := make(chan any, 1)
	values <- element
	close(values)
	if err := w.Fill(1, 0, values); err != nil {
		return nil, err
	}
	return w.Public()
}
