// Package reconcile sequences the classification pipeline: ingestion, the
// remote capability stages, lifecycle transitions and persistence. One
// orchestration run covers one batch; batches are independent units of work
// and may run concurrently.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerpilot/ledgerpilot/internal/agent"
	"github.com/ledgerpilot/ledgerpilot/internal/ingest"
	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

// Orchestrator owns the batch pipeline and the manual operations. All
// dependencies are injected; it holds no mutable state of its own, so a
// single instance serves concurrent requests.
type Orchestrator struct {
	txs       *transaction.Service
	lifecycle *transaction.Lifecycle
	agent     agent.Client
	ingestor  *ingest.Ingestor
	now       func() time.Time
}

func NewOrchestrator(txs *transaction.Service, lc *transaction.Lifecycle, client agent.Client) *Orchestrator {
	return &Orchestrator{
		txs:       txs,
		lifecycle: lc,
		agent:     client,
		ingestor:  ingest.New(),
		now:       time.Now,
	}
}

// UploadBankFeed ingests a feed, persists every record as a pending
// transaction with its first audit entry, then runs the extraction stage and
// records an Extraction step on each transaction the stage returned a result
// for. An unavailable extraction stage leaves the batch pending and is
// reported, not fatal.
func (o *Orchestrator) UploadBankFeed(ctx context.Context, payload []byte, media ingest.MediaType, filename string) ([]*transaction.Transaction, *Report, error) {
	records, warnings, err := o.ingestor.Ingest(payload, media)
	if err != nil {
		return nil, nil, err
	}

	report := newReport()

	for _, w := range warnings {
		report.addWarning(w.String())
	}

	txs := make([]*transaction.Transaction, 0, len(records))

	for _, rec := range records {
		tx := &transaction.Transaction{
			ID:        uuid.NewString(),
			Date:      rec.Date,
			Amount:    rec.Amount,
			Currency:  rec.Currency,
			Party:     rec.Party,
			Reference: rec.Reference,
			Category:  rec.Category,
			Status:    transaction.StatusPending,
		}

		o.lifecycle.RecordUpload(tx, "Bank feed uploaded successfully")
		txs = append(txs, tx)
	}

	if err := o.txs.CreateBatch(ctx, txs); err != nil {
		return nil, nil, fmt.Errorf("persisting uploaded transactions: %w", err)
	}

	extracted, err := o.agent.Extract(ctx, agent.Upload{
		Filename:    filename,
		ContentType: contentTypeFor(media),
		Data:        payload,
	})
	if err != nil {
		slog.Error("extraction stage failed", "error", err, "batch_size", len(txs))
		report.addStageError(StageExtraction, err)
		report.tally(txs)

		return txs, report, nil
	}

	byID := make(map[string]agent.ExtractedTransaction, len(extracted))
	for _, e := range extracted {
		byID[e.TransactionID] = e
	}

	for _, tx := range txs {
		res, ok := byID[tx.ID]
		if !ok {
			report.addWarning(fmt.Sprintf("extraction returned no result for transaction %s", tx.ID))
			continue
		}

		observation := res.Observation
		if observation == "" {
			observation = "Transaction data extracted"
		}

		o.lifecycle.RecordExtraction(tx, observation)

		if err := o.txs.Save(ctx, tx); err != nil {
			return nil, nil, fmt.Errorf("saving transaction %s: %w", tx.ID, err)
		}
	}

	report.tally(txs)

	return txs, report, nil
}

// MatchTransactions runs only the matching stage for the named transactions.
func (o *Orchestrator) MatchTransactions(ctx context.Context, ids []string) ([]*transaction.Transaction, *Report, error) {
	txs, err := o.txs.GetBatch(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	report := newReport()

	if err := o.runStage(ctx, StageMatching, txs, report); err != nil {
		return nil, nil, err
	}

	report.tally(txs)

	return txs, report, nil
}

// pipelineStages is the automated stage order.
var pipelineStages = []Stage{StageMatching, StageCategorize, StageDiscrepancies, StageApproval}

// RunPipeline drives the full staged pipeline over the named transactions.
// A stage that fails wholesale is recorded in the report and skipped; later
// stages still run against the last successfully persisted state, and earlier
// transitions are never rolled back.
func (o *Orchestrator) RunPipeline(ctx context.Context, ids []string) ([]*transaction.Transaction, *Report, error) {
	txs, err := o.txs.GetBatch(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	report := newReport()

	for _, stage := range pipelineStages {
		if err := o.runStage(ctx, stage, txs, report); err != nil {
			return nil, nil, err
		}
	}

	report.tally(txs)

	return txs, report, nil
}

// runStage performs one batched remote call and applies its results. Stage
// failures land in the report; only persistence failures are returned.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, txs []*transaction.Transaction, report *Report) error {
	eligible := eligibleFor(stage, txs)
	if len(eligible) == 0 {
		return nil
	}

	payload := toPayloads(eligible)

	var (
		updated  []*transaction.Transaction
		warnings []string
		err      error
	)

	switch stage {
	case StageMatching:
		var results []agent.MatchResult
		if results, err = o.agent.Match(ctx, payload); err == nil {
			updated, warnings = applyMatchStage(o.lifecycle, eligible, results)
		}
	case StageCategorize:
		var results []agent.CategoryResult
		if results, err = o.agent.Categorize(ctx, payload); err == nil {
			updated, warnings = applyCategoryStage(o.lifecycle, eligible, results)
		}
	case StageDiscrepancies:
		var results []agent.DiscrepancyResult
		if results, err = o.agent.DetectDiscrepancies(ctx, payload); err == nil {
			updated, warnings = applyDiscrepancyStage(o.lifecycle, eligible, results)
		}
	case StageApproval:
		var results []agent.ApprovalResult
		if results, err = o.agent.Approve(ctx, payload); err == nil {
			updated, warnings = applyApprovalStage(o.lifecycle, eligible, results)
		}
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}

	if err != nil {
		slog.Error("stage failed for batch", "stage", stage, "error", err, "batch_size", len(eligible))
		report.addStageError(stage, err)

		return nil
	}

	for _, w := range warnings {
		report.addWarning(w)
	}

	for _, tx := range updated {
		if err := o.txs.Save(ctx, tx); err != nil {
			return fmt.Errorf("saving transaction %s: %w", tx.ID, err)
		}
	}

	return nil
}

// eligibleFor selects the transactions a stage can act on.
func eligibleFor(stage Stage, txs []*transaction.Transaction) []*transaction.Transaction {
	var out []*transaction.Transaction

	for _, tx := range txs {
		switch stage {
		case StageMatching:
			if tx.Status == transaction.StatusPending || tx.Status == transaction.StatusUnmatched {
				out = append(out, tx)
			}
		case StageCategorize:
			if tx.Status != transaction.StatusReconciled {
				out = append(out, tx)
			}
		case StageDiscrepancies:
			switch tx.Status {
			case transaction.StatusMatched, transaction.StatusUnmatched, transaction.StatusFlagged:
				out = append(out, tx)
			}
		case StageApproval:
			if tx.Status == transaction.StatusMatched || tx.Status == transaction.StatusFlagged {
				out = append(out, tx)
			}
		}
	}

	return out
}

func toPayloads(txs []*transaction.Transaction) []agent.TransactionPayload {
	payloads := make([]agent.TransactionPayload, 0, len(txs))

	for _, tx := range txs {
		payloads = append(payloads, agent.TransactionPayload{
			TransactionID:    tx.ID,
			Date:             tx.Date,
			Amount:           tx.Amount,
			Currency:         tx.Currency,
			Party:            tx.Party,
			Reference:        tx.Reference,
			Category:         tx.Category,
			Status:           string(tx.Status),
			MatchedInvoiceID: tx.MatchedInvoiceID,
			Flags:            tx.Flags,
		})
	}

	return payloads
}

// RunFullReconciliation validates the feed locally, then forwards the
// original payload to the remote full workflow, which returns finalized
// transactions plus a report. The returned transactions are persisted as new
// records.
func (o *Orchestrator) RunFullReconciliation(ctx context.Context, payload []byte, media ingest.MediaType, filename string) ([]*transaction.Transaction, *Report, error) {
	// Framing validation only; the workflow receives the original payload.
	_, warnings, err := o.ingestor.Ingest(payload, media)
	if err != nil {
		return nil, nil, err
	}

	result, err := o.agent.FullReconciliation(ctx, agent.Upload{
		Filename:    filename,
		ContentType: contentTypeFor(media),
		Data:        payload,
	})
	if err != nil {
		return nil, nil, err
	}

	txs := make([]*transaction.Transaction, 0, len(result.Transactions))

	for _, ft := range result.Transactions {
		tx, err := o.fromFinalized(ft)
		if err != nil {
			return nil, nil, err
		}

		txs = append(txs, tx)
	}

	if err := o.txs.CreateBatch(ctx, txs); err != nil {
		return nil, nil, fmt.Errorf("persisting reconciled transactions: %w", err)
	}

	report := newReport()

	for _, w := range warnings {
		report.addWarning(w.String())
	}

	report.tally(txs)

	return txs, report, nil
}

// fromFinalized validates and converts a workflow transaction. Malformed
// entries are protocol errors; a half-trusted record must not reach the store.
func (o *Orchestrator) fromFinalized(ft agent.FinalizedTransaction) (*transaction.Transaction, error) {
	status := transaction.Status(ft.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q for transaction %s", agent.ErrProtocol, ft.Status, ft.TransactionID)
	}

	if ft.Party == "" {
		return nil, fmt.Errorf("%w: transaction %s missing party", agent.ErrProtocol, ft.TransactionID)
	}

	reference := ft.Reference
	if reference == "" {
		reference = ft.TransactionID
	}

	tx := &transaction.Transaction{
		ID:               uuid.NewString(),
		Date:             ft.Date,
		Amount:           ft.Amount,
		Currency:         ft.Currency,
		Party:            ft.Party,
		Reference:        reference,
		Category:         ft.Category,
		Status:           status,
		MatchedInvoiceID: ft.MatchedInvoiceID,
		Justification:    ft.Justification,
		Reconciled:       ft.Reconciled,
	}

	for _, f := range ft.Flags {
		if !tx.HasFlag(f) {
			tx.Flags = append(tx.Flags, f)
		}
	}

	for _, step := range ft.AgentSteps {
		ts := step.Timestamp
		if ts.IsZero() {
			ts = o.now().UTC()
		}

		tx.AgentSteps = append(tx.AgentSteps, transaction.AgentStep{
			ID:          uuid.NewString(),
			Step:        step.Step,
			Timestamp:   ts,
			Observation: step.Observation,
		})
	}

	// The audit trail is never empty once a transaction exists.
	if len(tx.AgentSteps) == 0 {
		o.lifecycle.RecordUpload(tx, "Processed by full reconciliation workflow")
	}

	return tx, nil
}

// FlagDiscrepancy is the manual flag operation. The flag set dedupes;
// the audit trail records every call.
func (o *Orchestrator) FlagDiscrepancy(ctx context.Context, id, flag, reason string) (*transaction.Transaction, error) {
	if id == "" || flag == "" || reason == "" {
		return nil, fmt.Errorf("%w: transaction_id, flag and reason are required", transaction.ErrValidation)
	}

	tx, err := o.txs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := o.lifecycle.ManualFlag(tx, flag, reason); err != nil {
		return nil, err
	}

	if err := o.txs.Save(ctx, tx); err != nil {
		return nil, fmt.Errorf("saving transaction %s: %w", id, err)
	}

	return tx, nil
}

// ApproveTransaction is the manual approval operation. Idempotent on an
// already-reconciled transaction.
func (o *Orchestrator) ApproveTransaction(ctx context.Context, id string) (*transaction.Transaction, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: transaction_id is required", transaction.ErrValidation)
	}

	tx, err := o.txs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := o.lifecycle.ApplyApproval(tx, "", "Manually approved by finance reviewer"); err != nil {
		return nil, err
	}

	if err := o.txs.Save(ctx, tx); err != nil {
		return nil, fmt.Errorf("saving transaction %s: %w", id, err)
	}

	return tx, nil
}

// StatusSummary aggregates recent activity for the review dashboard.
type StatusSummary struct {
	Total      int `json:"total"`
	Matched    int `json:"matched"`
	Unmatched  int `json:"unmatched"`
	Flagged    int `json:"flagged"`
	Reconciled int `json:"reconciled"`
}

// Status returns a summary of transactions updated within the last N days,
// plus the transactions themselves.
func (o *Orchestrator) Status(ctx context.Context, days int) (*StatusSummary, []*transaction.Transaction, error) {
	if days <= 0 {
		days = 7
	}

	since := o.now().AddDate(0, 0, -days)

	txs, err := o.txs.List(ctx, transaction.ListFilter{UpdatedSince: &since})
	if err != nil {
		return nil, nil, err
	}

	summary := &StatusSummary{Total: len(txs)}

	for _, tx := range txs {
		switch tx.Status {
		case transaction.StatusMatched:
			summary.Matched++
		case transaction.StatusUnmatched:
			summary.Unmatched++
		case transaction.StatusFlagged:
			summary.Flagged++
		}

		if tx.Reconciled {
			summary.Reconciled++
		}
	}

	return summary, txs, nil
}

func contentTypeFor(media ingest.MediaType) string {
	if media == ingest.MediaCSV {
		return "text/csv"
	}

	return "application/json"
}
