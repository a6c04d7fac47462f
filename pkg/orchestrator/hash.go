// Copyright 2025 Certen Protocol

package orchestrator

// appHash returns this application's state root: a fixed, empty value.
// The application deliberately does not
// maintain a Merkle commitment to its record/program/validator state; a
// light-client or state-sync design that needs one is out of scope, so the
// hash is a constant rather than a stand-in that looks like it commits to
// something it doesn't.
func appHash() []byte {
	return []byte{}
}
