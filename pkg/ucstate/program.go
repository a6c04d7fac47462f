// Copyright 2025 Certen Protocol

package ucstate

// VerifyingKey is the opaque Groth16 verifying key for one program function,
// serialized in gnark's native binary form (see pkg/proofengine).
type VerifyingKey []byte

// Program is a deployed zero-knowledge program: its source and the
// verifying keys for each of its functions, keyed by function identifier.
type Program struct {
	ID            string
	Source        string
	VerifyingKeys map[string]VerifyingKey
}

// FunctionNames returns the program's function identifiers, in no
// particular order.
func (p *Program) FunctionNames() []string {
	names := make([]string, 0, len(p.VerifyingKeys))
	for name := range p.VerifyingKeys {
		names = append(names, name)
	}
	return names
}
