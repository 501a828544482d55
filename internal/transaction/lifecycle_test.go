package transaction_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

func newTx(status transaction.Status) *transaction.Transaction {
	return &transaction.Transaction{
		ID:     "tx-1",
		Party:  "Acme Corp",
		Status: status,
	}
}

func TestLifecycle_ApplyMatch(t *testing.T) {
	type testCase struct {
		name        string
		status      transaction.Status
		invoiceID   string
		wantStatus  transaction.Status
		wantInvoice string
		wantErr     bool
	}

	tests := []testCase{
		{
			name:        "PendingToMatched",
			status:      transaction.StatusPending,
			invoiceID:   "INV-001",
			wantStatus:  transaction.StatusMatched,
			wantInvoice: "INV-001",
		},
		{
			name:       "PendingToUnmatched",
			status:     transaction.StatusPending,
			invoiceID:  "",
			wantStatus: transaction.StatusUnmatched,
		},
		{
			name:        "UnmatchedRematch",
			status:      transaction.StatusUnmatched,
			invoiceID:   "INV-002",
			wantStatus:  transaction.StatusMatched,
			wantInvoice: "INV-002",
		},
		{
			name:      "MatchedRejected",
			status:    transaction.StatusMatched,
			invoiceID: "INV-003",
			wantErr:   true,
		},
		{
			name:      "ReconciledRejected",
			status:    transaction.StatusReconciled,
			invoiceID: "INV-004",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := transaction.NewLifecycle()
			tx := newTx(tt.status)

			err := lc.ApplyMatch(tx, tt.invoiceID, "")

			if tt.wantErr {
				require.ErrorIs(t, err, transaction.ErrInvalidTransition)
				assert.Equal(t, tt.status, tx.Status)
				assert.Empty(t, tx.AgentSteps)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, tx.Status)
			assert.Equal(t, tt.wantInvoice, tx.MatchedInvoiceID)

			require.Len(t, tx.AgentSteps, 1)
			assert.Equal(t, transaction.StepMatching, tx.AgentSteps[0].Step)
			assert.NotEmpty(t, tx.AgentSteps[0].ID)
			assert.NotEmpty(t, tx.AgentSteps[0].Observation)
		})
	}
}

func TestLifecycle_ApplyDiscrepancies(t *testing.T) {
	lc := transaction.NewLifecycle()

	tx := newTx(transaction.StatusMatched)
	tx.MatchedInvoiceID = "INV-001"

	err := lc.ApplyDiscrepancies(tx, []string{"AMOUNT_MISMATCH"}, "Discrepancies detected")
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusFlagged, tx.Status)
	assert.Equal(t, []string{"AMOUNT_MISMATCH"}, tx.Flags)

	// Flagging does not erase the earlier match result.
	assert.Equal(t, "INV-001", tx.MatchedInvoiceID)
}

func TestLifecycle_ApplyDiscrepancies_FromPending(t *testing.T) {
	lc := transaction.NewLifecycle()
	tx := newTx(transaction.StatusPending)

	err := lc.ApplyDiscrepancies(tx, []string{"X"}, "obs")
	require.ErrorIs(t, err, transaction.ErrInvalidTransition)
	assert.Empty(t, tx.Flags)
}

func TestLifecycle_ManualFlag(t *testing.T) {
	type testCase struct {
		name       string
		status     transaction.Status
		wantStatus transaction.Status
		wantErr    bool
	}

	tests := []testCase{
		{
			name:       "Matched",
			status:     transaction.StatusMatched,
			wantStatus: transaction.StatusFlagged,
		},
		{
			name:       "Unmatched",
			status:     transaction.StatusUnmatched,
			wantStatus: transaction.StatusFlagged,
		},
		{
			name:       "AlreadyFlagged",
			status:     transaction.StatusFlagged,
			wantStatus: transaction.StatusFlagged,
		},
		{
			name:       "ReconciledKeepsStatus",
			status:     transaction.StatusReconciled,
			wantStatus: transaction.StatusReconciled,
		},
		{
			name:    "PendingRejected",
			status:  transaction.StatusPending,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := transaction.NewLifecycle()
			tx := newTx(tt.status)

			err := lc.ManualFlag(tx, "SUSPICIOUS_AMOUNT", "amount looks off")

			if tt.wantErr {
				require.ErrorIs(t, err, transaction.ErrInvalidTransition)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, tx.Status)
			assert.True(t, tx.HasFlag("SUSPICIOUS_AMOUNT"))

			require.Len(t, tx.AgentSteps, 1)
			assert.Equal(t, transaction.StepManualFlag, tx.AgentSteps[0].Step)
			assert.Equal(t, "SUSPICIOUS_AMOUNT: amount looks off", tx.AgentSteps[0].Observation)
		})
	}
}

func TestLifecycle_ManualFlag_DuplicateFlagAppendsAudit(t *testing.T) {
	lc := transaction.NewLifecycle()
	tx := newTx(transaction.StatusMatched)

	require.NoError(t, lc.ManualFlag(tx, "LOW_CONFIDENCE", "first pass"))
	require.NoError(t, lc.ManualFlag(tx, "LOW_CONFIDENCE", "second pass"))

	// The flag set dedupes; the audit trail never does.
	assert.Equal(t, []string{"LOW_CONFIDENCE"}, tx.Flags)
	assert.Len(t, tx.AgentSteps, 2)
}

func TestLifecycle_ApplyApproval(t *testing.T) {
	type testCase struct {
		name    string
		status  transaction.Status
		wantErr bool
	}

	tests := []testCase{
		{name: "Matched", status: transaction.StatusMatched},
		{name: "Flagged", status: transaction.StatusFlagged},
		{name: "Reconciled", status: transaction.StatusReconciled},
		{name: "PendingRejected", status: transaction.StatusPending, wantErr: true},
		{name: "UnmatchedRejected", status: transaction.StatusUnmatched, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := transaction.NewLifecycle()
			tx := newTx(tt.status)

			err := lc.ApplyApproval(tx, "", "Manually approved by finance reviewer")

			if tt.wantErr {
				require.ErrorIs(t, err, transaction.ErrInvalidTransition)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, transaction.StatusReconciled, tx.Status)

			require.NotEmpty(t, tx.AgentSteps)
			assert.Equal(t, transaction.StepApproval, tx.AgentSteps[len(tx.AgentSteps)-1].Step)
		})
	}
}

func TestLifecycle_ApplyApproval_Idempotent(t *testing.T) {
	lc := transaction.NewLifecycle()
	tx := newTx(transaction.StatusMatched)

	require.NoError(t, lc.ApplyApproval(tx, "totals agree", "Approved"))
	assert.True(t, tx.Reconciled)
	assert.Equal(t, "totals agree", tx.Justification)

	// Re-approving only appends another audit entry.
	require.NoError(t, lc.ApplyApproval(tx, "changed my mind", "Approved again"))
	assert.Equal(t, transaction.StatusReconciled, tx.Status)
	assert.Equal(t, "totals agree", tx.Justification)
	assert.Len(t, tx.AgentSteps, 2)
}

func TestLifecycle_ApplyCategory(t *testing.T) {
	lc := transaction.NewLifecycle()
	tx := newTx(transaction.StatusMatched)

	require.NoError(t, lc.ApplyCategory(tx, "Office Supplies"))
	assert.Equal(t, "Office Supplies", tx.Category)
	assert.Equal(t, transaction.StatusMatched, tx.Status)

	tx.Status = transaction.StatusReconciled
	require.ErrorIs(t, lc.ApplyCategory(tx, "Travel"), transaction.ErrInvalidTransition)
}

func TestLifecycle_AuditTimestampsMonotonic(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 3, 1, 12, 0, 10, 0, time.UTC),
		time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC), // clock stepped backward
		time.Date(2024, 3, 1, 12, 0, 20, 0, time.UTC),
	}

	idx := 0
	lc := transaction.NewLifecycleWithClock(func() time.Time {
		ts := times[idx]
		idx++

		return ts
	})

	tx := newTx(transaction.StatusPending)
	lc.RecordUpload(tx, "Bank feed uploaded successfully")
	require.NoError(t, lc.ApplyMatch(tx, "INV-001", ""))
	require.NoError(t, lc.ApplyDiscrepancies(tx, []string{"X"}, "obs"))

	require.Len(t, tx.AgentSteps, 3)

	for i := 1; i < len(tx.AgentSteps); i++ {
		assert.False(t, tx.AgentSteps[i].Timestamp.Before(tx.AgentSteps[i-1].Timestamp),
			"step %d timestamp precedes step %d", i, i-1)
	}
}

func TestLifecycle_ReconciledImpliesApprovalStep(t *testing.T) {
	lc := transaction.NewLifecycle()

	tx := newTx(transaction.StatusPending)
	lc.RecordUpload(tx, "Bank feed uploaded successfully")
	require.NoError(t, lc.ApplyMatch(tx, "INV-001", ""))
	require.NoError(t, lc.ApplyApproval(tx, "", "Approved by reconciliation workflow"))

	require.True(t, tx.Reconciled)

	var hasApproval bool

	for _, s := range tx.AgentSteps {
		if s.Step == transaction.StepApproval {
			hasApproval = true
		}
	}

	assert.True(t, hasApproval)
}
