package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lifecycle validates and applies status transitions. Every transition appends
// its audit entry before mutating status or derived fields, so a transaction
// handed to the repository always carries the step that explains its state.
//
// Allowed transitions:
//
//	pending   -> matched | unmatched
//	unmatched -> matched | unmatched (re-match) | flagged
//	matched   -> flagged | reconciled
//	flagged   -> flagged (more flags) | reconciled
//	reconciled is terminal; manual re-approval and manual flags are recorded
//	without moving status backward.
type Lifecycle struct {
	now func() time.Time
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{now: time.Now}
}

// NewLifecycleWithClock uses the given clock for audit timestamps.
func NewLifecycleWithClock(now func() time.Time) *Lifecycle {
	return &Lifecycle{now: now}
}

// appendStep records an audit entry. Timestamps are clamped to the previous
// entry so the trail stays monotonically non-decreasing even if the wall
// clock steps backward.
func (l *Lifecycle) appendStep(tx *Transaction, step, observation string) {
	ts := l.now().UTC()
	if n := len(tx.AgentSteps); n > 0 && ts.Before(tx.AgentSteps[n-1].Timestamp) {
		ts = tx.AgentSteps[n-1].Timestamp
	}

	tx.AgentSteps = append(tx.AgentSteps, AgentStep{
		ID:          uuid.NewString(),
		Step:        step,
		Timestamp:   ts,
		Observation: observation,
	})
	tx.UpdatedAt = ts
}

// RecordUpload appends the initial audit entry. Every transaction gets one at
// ingestion, so the trail is never empty.
func (l *Lifecycle) RecordUpload(tx *Transaction, observation string) {
	l.appendStep(tx, StepUploaded, observation)
}

// RecordExtraction notes that the extraction stage saw this transaction.
// Extraction does not change status.
func (l *Lifecycle) RecordExtraction(tx *Transaction, observation string) {
	l.appendStep(tx, StepExtraction, observation)
}

// ApplyMatch applies a matching-stage result. An empty invoiceID means the
// stage found no invoice and the transaction moves to unmatched. Re-matching
// an unmatched transaction is allowed.
func (l *Lifecycle) ApplyMatch(tx *Transaction, invoiceID, justification string) error {
	if tx.Status != StatusPending && tx.Status != StatusUnmatched {
		return fmt.Errorf("%w: match from %s", ErrInvalidTransition, tx.Status)
	}

	if invoiceID == "" {
		l.appendStep(tx, StepMatching, noMatchObservation(justification))
		tx.Status = StatusUnmatched

		return nil
	}

	observation := justification
	if observation == "" {
		observation = fmt.Sprintf("Matched with invoice %s", invoiceID)
	}

	l.appendStep(tx, StepMatching, observation)
	tx.Status = StatusMatched
	tx.MatchedInvoiceID = invoiceID
	tx.Justification = justification

	return nil
}

// ApplyCategory records a categorization result. Status is unchanged;
// reconciled transactions no longer accept automated updates.
func (l *Lifecycle) ApplyCategory(tx *Transaction, category string) error {
	if tx.Status == StatusReconciled {
		return fmt.Errorf("%w: categorize from %s", ErrInvalidTransition, tx.Status)
	}

	l.appendStep(tx, StepCategorization, fmt.Sprintf("Categorized as %s", category))
	tx.Category = category

	return nil
}

// ApplyDiscrepancies merges stage-reported flags into the flag set and moves
// the transaction to flagged. The flag set dedupes; the audit trail does not.
func (l *Lifecycle) ApplyDiscrepancies(tx *Transaction, flags []string, observation string) error {
	switch tx.Status {
	case StatusMatched, StatusUnmatched, StatusFlagged:
	default:
		return fmt.Errorf("%w: flag from %s", ErrInvalidTransition, tx.Status)
	}

	l.appendStep(tx, StepDiscrepancy, observation)
	tx.Status = StatusFlagged

	for _, f := range flags {
		tx.addFlag(f)
	}

	return nil
}

// ManualFlag records an operator-raised discrepancy. A reconciled transaction
// keeps its status: the flag and audit entry are recorded but the transition
// backward is deliberately not applied. Flagging a pending transaction is
// rejected; it has not been through matching yet.
func (l *Lifecycle) ManualFlag(tx *Transaction, flag, reason string) error {
	switch tx.Status {
	case StatusMatched, StatusUnmatched, StatusFlagged, StatusReconciled:
	default:
		return fmt.Errorf("%w: manual flag from %s", ErrInvalidTransition, tx.Status)
	}

	l.appendStep(tx, StepManualFlag, fmt.Sprintf("%s: %s", flag, reason))
	tx.addFlag(flag)

	if tx.Status != StatusReconciled {
		tx.Status = StatusFlagged
	}

	return nil
}

// ApplyApproval finalizes a transaction. Approving an already-reconciled
// transaction is idempotent: the audit entry is appended, nothing else moves.
func (l *Lifecycle) ApplyApproval(tx *Transaction, justification, observation string) error {
	switch tx.Status {
	case StatusMatched, StatusFlagged, StatusReconciled:
	default:
		return fmt.Errorf("%w: approve from %s", ErrInvalidTransition, tx.Status)
	}

	l.appendStep(tx, StepApproval, observation)

	if tx.Status == StatusReconciled {
		return nil
	}

	tx.Status = StatusReconciled
	tx.Reconciled = true

	if justification != "" {
		tx.Justification = justification
	}

	return nil
}

func noMatchObservation(justification string) string {
	if justification != "" {
		return justification
	}

	return "No matching invoice found"
}
