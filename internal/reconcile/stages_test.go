package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerpilot/ledgerpilot/internal/agent"
	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

func TestApplyDiscrepancyStage(t *testing.T) {
	lc := transaction.NewLifecycle()

	clean := &transaction.Transaction{ID: "tx-1", Status: transaction.StatusMatched, MatchedInvoiceID: "INV-001"}
	dirty := &transaction.Transaction{ID: "tx-2", Status: transaction.StatusMatched, MatchedInvoiceID: "INV-002"}

	updated, warnings := applyDiscrepancyStage(lc, []*transaction.Transaction{clean, dirty}, []agent.DiscrepancyResult{
		{TransactionID: "tx-1", Flags: nil},
		{TransactionID: "tx-2", Flags: []string{"AMOUNT_MISMATCH", "DATE_DRIFT"}},
	})

	// An empty flag list means a clean transaction, not a missing result.
	assert.Empty(t, warnings)
	require.Len(t, updated, 1)

	assert.Equal(t, transaction.StatusMatched, clean.Status)
	assert.Empty(t, clean.Flags)

	assert.Equal(t, transaction.StatusFlagged, dirty.Status)
	assert.Equal(t, []string{"AMOUNT_MISMATCH", "DATE_DRIFT"}, dirty.Flags)
	assert.Equal(t, "INV-002", dirty.MatchedInvoiceID)
}

func TestApplyCategoryStage_EmptyCategoryIgnored(t *testing.T) {
	lc := transaction.NewLifecycle()

	tx := &transaction.Transaction{ID: "tx-1", Status: transaction.StatusMatched}

	updated, warnings := applyCategoryStage(lc, []*transaction.Transaction{tx}, []agent.CategoryResult{
		{TransactionID: "tx-1", Category: ""},
	})

	assert.Empty(t, updated)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "empty category")
	assert.Empty(t, tx.Category)
}

func TestApplyApprovalStage_NotReconciledSkipped(t *testing.T) {
	lc := transaction.NewLifecycle()

	tx := &transaction.Transaction{ID: "tx-1", Status: transaction.StatusFlagged}

	updated, warnings := applyApprovalStage(lc, []*transaction.Transaction{tx}, []agent.ApprovalResult{
		{TransactionID: "tx-1", Reconciled: false},
	})

	assert.Empty(t, updated)
	assert.Empty(t, warnings)
	assert.Equal(t, transaction.StatusFlagged, tx.Status)
	assert.False(t, tx.Reconciled)
}

func TestApplyMatchStage_InvalidTransitionIsWarning(t *testing.T) {
	lc := transaction.NewLifecycle()

	tx := &transaction.Transaction{ID: "tx-1", Status: transaction.StatusReconciled}

	updated, warnings := applyMatchStage(lc, []*transaction.Transaction{tx}, []agent.MatchResult{
		{TransactionID: "tx-1", MatchedInvoiceID: "INV-001", Status: "matched"},
	})

	assert.Empty(t, updated)
	require.Len(t, warnings, 1)
	assert.Equal(t, transaction.StatusReconciled, tx.Status)
}
