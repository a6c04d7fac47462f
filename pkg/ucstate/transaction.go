// Copyright 2025 Certen Protocol
//
// Transaction is a tagged union of Deployment and Execution, expressed as a
// discriminated struct rather than an interface hierarchy: see the
// "tagged transaction union" redesign note in SPEC_FULL.md section 9.

package ucstate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/touba73/aleo-lambda-blockchain/pkg/validatorset"
)

// NewTransactionID generates a fresh transaction id. Transaction ids are
// UUIDs; uniqueness is assumed externally, as spec.md requires, rather
// than enforced by the application.
func NewTransactionID() string {
	return uuid.NewString()
}

// Kind discriminates the two transaction variants.
type Kind int

const (
	KindDeployment Kind = iota
	KindExecution
)

func (k Kind) String() string {
	switch k {
	case KindDeployment:
		return "Deployment"
	case KindExecution:
		return "Execution"
	default:
		return "Unknown"
	}
}

// creditsProgramID is the built-in program whose stake/unstake functions
// adjust consensus validator voting power.
const creditsProgramID = "credits"

// Transaction is either a Deployment or an Execution. Only the fields for
// the active Kind are populated; callers should not read the other
// variant's fields directly but use the accessor methods below.
type Transaction struct {
	ID   string
	Kind Kind

	// Deployment fields.
	Program       *Program
	VerifyingKeys map[string]VerifyingKey
	FeeTransition *Transition // optional

	// Execution fields.
	Transitions []Transition

	// ValidatorAddress names the consensus validator a staking execution
	// credits/debits. Only set for Executions against the credits program's
	// stake/unstake functions.
	ValidatorAddress string
}

// transitions returns the transitions that make up this transaction's
// effects on the record store and fee pot: the single fee transition for a
// Deployment (if present), or all transitions for an Execution.
func (t *Transaction) transitions() []Transition {
	switch t.Kind {
	case KindDeployment:
		if t.FeeTransition != nil {
			return []Transition{*t.FeeTransition}
		}
		return nil
	case KindExecution:
		return t.Transitions
	default:
		return nil
	}
}

// SerialNumbers returns every input serial number referenced by this
// transaction, across all of its transitions.
func (t *Transaction) SerialNumbers() []FieldElement {
	var sns []FieldElement
	for _, tr := range t.transitions() {
		sns = append(sns, tr.SerialNumbers...)
	}
	return sns
}

// DuplicateSerialNumber returns the first serial number that appears more
// than once across this transaction's transitions, and true if one exists.
func (t *Transaction) DuplicateSerialNumber() (FieldElement, bool) {
	seen := make(map[FieldElement]struct{})
	for _, sn := range t.SerialNumbers() {
		if _, ok := seen[sn]; ok {
			return sn, true
		}
		seen[sn] = struct{}{}
	}
	return FieldElement{}, false
}

// OutputRecords returns every record this transaction would add to the
// record store, across all of its transitions.
func (t *Transaction) OutputRecords() []Record {
	var records []Record
	for _, tr := range t.transitions() {
		records = append(records, tr.OutputRecords()...)
	}
	return records
}

// Fees returns the total fee this transaction pays. For a Deployment it's
// the fee of the fee transition, if any; for an Execution it's the sum
// across all transitions.
func (t *Transaction) Fees() int64 {
	var total int64
	for _, tr := range t.transitions() {
		total += tr.Fee
	}
	return total
}

// StakeUpdates extracts the validator power adjustments implied by this
// transaction: non-empty only for Executions carrying a ValidatorAddress
// whose transitions call the credits program's stake or unstake functions.
// The staked/unstaked amount is read from output slot 2 and the owner
// address from output slot 3, mirroring the credits program's stake/unstake
// function signatures.
func (t *Transaction) StakeUpdates() ([]validatorset.Stake, error) {
	if t.Kind != KindExecution || t.ValidatorAddress == "" {
		return nil, nil
	}

	var updates []validatorset.Stake
	for _, tr := range t.Transitions {
		if tr.ProgramID != creditsProgramID {
			continue
		}

		var sign int64
		switch tr.FunctionName {
		case "stake":
			sign = 1
		case "unstake":
			sign = -1
		default:
			continue
		}

		if len(tr.Outputs) < 4 {
			return nil, fmt.Errorf("staking transition %s.%s: expected at least 4 outputs, got %d",
				tr.ProgramID, tr.FunctionName, len(tr.Outputs))
		}
		amount, ok := tr.Outputs[2].PublicUint64()
		if !ok {
			return nil, fmt.Errorf("staking transition %s.%s: output 2 is not a public amount", tr.ProgramID, tr.FunctionName)
		}
		owner, ok := tr.Outputs[3].PublicString()
		if !ok {
			return nil, fmt.Errorf("staking transition %s.%s: output 3 is not a public address", tr.ProgramID, tr.FunctionName)
		}

		stake, err := validatorset.NewStake(t.ValidatorAddress, owner, sign*int64(amount))
		if err != nil {
			return nil, err
		}
		updates = append(updates, stake)
	}
	return updates, nil
}

// String renders a short, log-friendly description of the transaction,
// mirroring the original implementation's Display impl.
func (t *Transaction) String() string {
	switch t.Kind {
	case KindDeployment:
		id := ""
		if t.Program != nil {
			id = t.Program.ID
		}
		return fmt.Sprintf("Deployment(%s,%s)", t.ID, id)
	case KindExecution:
		if t.ValidatorAddress != "" {
			return fmt.Sprintf("StakingExecution(%s,%s)", t.ID, t.ValidatorAddress)
		}
		programID := ""
		if len(t.Transitions) > 0 {
			programID = t.Transitions[0].ProgramID
		}
		return fmt.Sprintf("Execution(%s,%s)", programID, t.ID)
	default:
		return fmt.Sprintf("Transaction(%s,unknown)", t.ID)
	}
}

// Validate checks the structural invariants every transaction must satisfy
// regardless of proof verification: a unique serial number per input across
// the whole transaction, and a non-empty transitions list for executions.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction id must not be empty")
	}
	if sn, dup := t.DuplicateSerialNumber(); dup {
		return fmt.Errorf("duplicate input serial number %s in transaction %s", sn, t.ID)
	}
	if t.Kind == KindExecution && len(t.Transitions) == 0 {
		return fmt.Errorf("execution %s has no transitions", t.ID)
	}
	return nil
}
