// Copyright 2025 Certen Protocol
//
// Package proofengine verifies the Groth16 proofs attached to transitions.
// Per SPEC_FULL.md section 11, the wire format of the proving-system
// primitives themselves (proof, verifying key, public witness encoding) is
// treated as opaque: this package's job is to deserialize those opaque
// byte blobs with gnark and call its verifier, not to implement any
// circuit logic itself.

package proofengine

import (
	"github.com/touba73/aleo-lambda-blockchain/pkg/ucstate"
)

// Engine verifies that a transition's proof attests to a correct execution
// of the named program function against the given public inputs.
type Engine interface {
	// Verify checks a single transition's proof against its program's
	// verifying key for the called function.
	Verify(vk ucstate.VerifyingKey, transition ucstate.Transition) error
}

// PublicWitness derives the deterministic public input bytes a transition's
// proof must attest to: the program and function identifiers, every
// consumed serial number, every produced commitment, and the fee. Both
// GnarkEngine and NullEngine agree on this derivation so that swapping
// engines in tests doesn't change what's being verified.
func PublicWitness(transition ucstate.Transition) []byte {
	var buf []byte
	buf = append(buf, transition.ProgramID...)
	buf = append(buf, 0)
	buf = append(buf, transition.FunctionName...)
	buf = append(buf, 0)
	for _, sn := range transition.SerialNumbers {
		buf = append(buf, sn[:]...)
	}
	for _, out := range transition.Outputs {
		if out.Kind == ucstate.OutputRecord {
			buf = append(buf, out.Record.Commitment[:]...)
		} else {
			buf = append(buf, out.Public...)
		}
	}
	buf = append(buf, byte(transition.Fee), byte(transition.Fee>>8), byte(transition.Fee>>16), byte(transition.Fee>>24),
		byte(transition.Fee>>32), byte(transition.Fee>>40), byte(transition.Fee>>48), byte(transition.Fee>>56))
	return buf
}
