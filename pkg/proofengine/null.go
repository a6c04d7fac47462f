// Copyright 2025 Certen Protocol

package proofengine

import (
	"bytes"
	"fmt"

	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
)

// NullEngine is a test double that accepts any non-empty proof whose bytes
// equal the transition's public witness bytes, as computed by PublicWitness.
// It lets orchestrator and store tests exercise the full deliver_tx path
// without generating real Groth16 proofs.
type NullEngine struct{}

// NewNullEngine returns a proof engine suitable only for tests.
func NewNullEngine() *NullEngine {
	return &NullEngine{}
}

func (e *NullEngine) Verify(vk ucstate.VerifyingKey, transition ucstate.Transition) error {
	if len(vk) == 0 {
		return fmt.Errorf("transition %s.%s: empty verifying key", transition.ProgramID, transition.FunctionName)
	}
	if len(transition.Proof) == 0 {
		return fmt.Errorf("transition %s.%s: empty proof", transition.ProgramID, transition.FunctionName)
	}
	want := PublicWitness(transition)
	if !bytes.Equal([]byte(transition.Proof), want) {
		return fmt.Errorf("transition %s.%s: proof does not attest to the expected public witness", transition.ProgramID, transition.FunctionName)
	}
	return nil
}

// SignTransition stamps a transition's Proof field with the bytes NullEngine
// will accept. Test helper only.
func SignTransition(t *ucstate.Transition) {
	t.Proof = ucstate.Proof(PublicWitness(*t))
}
