// Package agent is the typed boundary to the external classification service.
// Each capability is a single round trip; results are always correlated back
// to transactions by transaction_id, never by position, because the service
// may reorder, drop, or re-batch its results.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnavailable covers network failures and timeouts. Retryable;
	// a failed stage is skipped for the batch, never corrupting state.
	ErrUnavailable = errors.New("classification service unavailable")

	// ErrProtocol covers malformed responses. Not retryable; the stage
	// fails for the whole batch.
	ErrProtocol = errors.New("classification service protocol error")
)

// Upload is a bank-feed file forwarded to a file-accepting capability.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TransactionPayload is the transaction shape sent to the service.
type TransactionPayload struct {
	TransactionID    string          `json:"transaction_id"`
	Date             time.Time       `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency,omitempty"`
	Party            string          `json:"party"`
	Reference        string          `json:"reference,omitempty"`
	Category         string          `json:"category,omitempty"`
	Status           string          `json:"status"`
	MatchedInvoiceID string          `json:"matched_invoice_id,omitempty"`
	Flags            []string        `json:"flags,omitempty"`
}

// ExtractedTransaction is one entry of an extraction result.
type ExtractedTransaction struct {
	TransactionID string `json:"transaction_id"`
	Observation   string `json:"observation,omitempty"`
}

type MatchResult struct {
	TransactionID    string `json:"transaction_id"`
	MatchedInvoiceID string `json:"matched_invoice_id,omitempty"`
	Status           string `json:"status"`
	Justification    string `json:"justification,omitempty"`
}

type CategoryResult struct {
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category"`
}

type DiscrepancyResult struct {
	TransactionID string   `json:"transaction_id"`
	Flags         []string `json:"flags"`
}

type ApprovalResult struct {
	TransactionID string `json:"transaction_id"`
	Reconciled    bool   `json:"reconciled"`
	Justification string `json:"justification,omitempty"`
}

// StepPayload is an audit entry produced by the remote full workflow.
type StepPayload struct {
	Step        string    `json:"step"`
	Timestamp   time.Time `json:"timestamp"`
	Observation string    `json:"observation"`
}

// FinalizedTransaction is a fully processed transaction returned by the
// full-reconciliation workflow.
type FinalizedTransaction struct {
	TransactionID    string          `json:"transaction_id"`
	Date             time.Time       `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency,omitempty"`
	Party            string          `json:"party"`
	Reference        string          `json:"reference,omitempty"`
	Category         string          `json:"category,omitempty"`
	Status           string          `json:"status"`
	MatchedInvoiceID string          `json:"matched_invoice_id,omitempty"`
	Flags            []string        `json:"flags,omitempty"`
	Justification    string          `json:"justification,omitempty"`
	Reconciled       bool            `json:"reconciled"`
	AgentSteps       []StepPayload   `json:"agent_steps,omitempty"`
}

// WorkflowReport is the batch summary produced by the full workflow.
type WorkflowReport struct {
	Total      int `json:"total"`
	Matched    int `json:"matched"`
	Unmatched  int `json:"unmatched"`
	Flagged    int `json:"flagged"`
	Reconciled int `json:"reconciled"`
}

type FullResult struct {
	Report       WorkflowReport         `json:"report"`
	Transactions []FinalizedTransaction `json:"transactions"`
}

// HealthStatus reports overall service health plus per-capability state
// ("available"/"unavailable").
type HealthStatus struct {
	Status string            `json:"status"`
	Agents map[string]string `json:"agents"`
}

//go:generate mockgen -source=client.go -destination=client_mock.go -package=agent
type Client interface {
	Extract(ctx context.Context, file Upload) ([]ExtractedTransaction, error)
	Match(ctx context.Context, txs []TransactionPayload) ([]MatchResult, error)
	Categorize(ctx context.Context, txs []TransactionPayload) ([]CategoryResult, error)
	DetectDiscrepancies(ctx context.Context, txs []TransactionPayload) ([]DiscrepancyResult, error)
	Approve(ctx context.Context, txs []TransactionPayload) ([]ApprovalResult, error)
	FullReconciliation(ctx context.Context, file Upload) (*FullResult, error)
	Health(ctx context.Context) (*HealthStatus, error)
}
