package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a transaction.
type Status string

const (
	StatusPending    Status = "pending"
	StatusMatched    Status = "matched"
	StatusUnmatched  Status = "unmatched"
	StatusFlagged    Status = "flagged"
	StatusReconciled Status = "reconciled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusMatched, StatusUnmatched, StatusFlagged, StatusReconciled:
		return true
	}

	return false
}

// Step names recorded in the audit trail.
const (
	StepUploaded       = "Uploaded"
	StepExtraction     = "Extraction"
	StepMatching       = "Matching"
	StepCategorization = "Categorization"
	StepDiscrepancy    = "Discrepancy"
	StepManualFlag     = "Manual Flag"
	StepApproval       = "Approval"
)

var (
	ErrNotFound          = errors.New("transaction not found")
	ErrValidation        = errors.New("missing required fields")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// AgentStep is one audit-trail entry recording a pipeline stage's action on a
// transaction. Each step carries its own ID so concurrent saves can merge the
// trail by step identity instead of overwriting it.
type AgentStep struct {
	ID          string
	Step        string
	Timestamp   time.Time
	Observation string
}

// Transaction represents one bank-feed line item under reconciliation.
type Transaction struct {
	ID               string
	Date             time.Time
	Amount           decimal.Decimal
	Currency         string
	Party            string
	Reference        string
	Category         string
	Status           Status
	MatchedInvoiceID string
	Flags            []string
	Justification    string
	Reconciled       bool
	AgentSteps       []AgentStep
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasFlag reports whether the flag is already present on the transaction.
func (t *Transaction) HasFlag(flag string) bool {
	for _, f := range t.Flags {
		if f == flag {
			return true
		}
	}

	return false
}

// addFlag appends the flag if absent. Flags are a set; duplicates are dropped.
func (t *Transaction) addFlag(flag string) {
	if !t.HasFlag(flag) {
		t.Flags = append(t.Flags, flag)
	}
}
