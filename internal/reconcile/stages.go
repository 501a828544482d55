package reconcile

import (
	"fmt"

	"github.com/ledgerpilot/ledgerpilot/internal/agent"
	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

// Stage results are applied strictly by transaction id. The service may
// reorder, drop, or re-batch its results, so positional correlation against
// the request slice would silently corrupt unrelated transactions.
//
// Each apply function is a pure in-memory transform over (batch, results):
// it mutates only the transactions it can correlate and returns those, plus
// warnings for results it had to ignore. Persistence happens in the caller.

func applyMatchStage(lc *transaction.Lifecycle, txs []*transaction.Transaction, results []agent.MatchResult) (updated []*transaction.Transaction, warnings []string) {
	byID := make(map[string]agent.MatchResult, len(results))
	for _, r := range results {
		byID[r.TransactionID] = r
	}

	for _, tx := range txs {
		res, ok := byID[tx.ID]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("matching returned no result for transaction %s", tx.ID))
			continue
		}

		invoiceID := res.MatchedInvoiceID
		if res.Status == string(transaction.StatusUnmatched) {
			invoiceID = ""
		}

		if err := lc.ApplyMatch(tx, invoiceID, res.Justification); err != nil {
			warnings = append(warnings, fmt.Sprintf("transaction %s: %v", tx.ID, err))
			continue
		}

		updated = append(updated, tx)
	}

	return updated, warnings
}

func applyCategoryStage(lc *transaction.Lifecycle, txs []*transaction.Transaction, results []agent.CategoryResult) (updated []*transaction.Transaction, warnings []string) {
	byID := make(map[string]agent.CategoryResult, len(results))
	for _, r := range results {
		byID[r.TransactionID] = r
	}

	for _, tx := range txs {
		res, ok := byID[tx.ID]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("categorization returned no result for transaction %s", tx.ID))
			continue
		}

		if res.Category == "" {
			warnings = append(warnings, fmt.Sprintf("transaction %s: empty category ignored", tx.ID))
			continue
		}

		if err := lc.ApplyCategory(tx, res.Category); err != nil {
			warnings = append(warnings, fmt.Sprintf("transaction %s: %v", tx.ID, err))
			continue
		}

		updated = append(updated, tx)
	}

	return updated, warnings
}

func applyDiscrepancyStage(lc *transaction.Lifecycle, txs []*transaction.Transaction, results []agent.DiscrepancyResult) (updated []*transaction.Transaction, warnings []string) {
	byID := make(map[string]agent.DiscrepancyResult, len(results))
	for _, r := range results {
		byID[r.TransactionID] = r
	}

	for _, tx := range txs {
		res, ok := byID[tx.ID]
		if !ok || len(res.Flags) == 0 {
			// No discrepancies for this transaction; not a warning.
			continue
		}

		observation := fmt.Sprintf("Discrepancies detected: %v", res.Flags)

		if err := lc.ApplyDiscrepancies(tx, res.Flags, observation); err != nil {
			warnings = append(warnings, fmt.Sprintf("transaction %s: %v", tx.ID, err))
			continue
		}

		updated = append(updated, tx)
	}

	return updated, warnings
}

func applyApprovalStage(lc *transaction.Lifecycle, txs []*transaction.Transaction, results []agent.ApprovalResult) (updated []*transaction.Transaction, warnings []string) {
	byID := make(map[string]agent.ApprovalResult, len(results))
	for _, r := range results {
		byID[r.TransactionID] = r
	}

	for _, tx := range txs {
		res, ok := byID[tx.ID]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("approval returned no result for transaction %s", tx.ID))
			continue
		}

		if !res.Reconciled {
			continue
		}

		observation := res.Justification
		if observation == "" {
			observation = "Approved by reconciliation workflow"
		}

		if err := lc.ApplyApproval(tx, res.Justification, observation); err != nil {
			warnings = append(warnings, fmt.Sprintf("transaction %s: %v", tx.ID, err))
			continue
		}

		updated = append(updated, tx)
	}

	return updated, warnings
}
