// Package api holds the JSON shapes shared by the HTTP handlers.
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerpilot/ledgerpilot/internal/reconcile"
	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

type AgentStep struct {
	Step        string    `json:"step"`
	Timestamp   time.Time `json:"timestamp"`
	Observation string    `json:"observation"`
}

type Transaction struct {
	ID               string          `json:"id"`
	Date             time.Time       `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency,omitempty"`
	Party            string          `json:"party"`
	Reference        string          `json:"reference,omitempty"`
	Category         string          `json:"category,omitempty"`
	Status           string          `json:"status"`
	MatchedInvoiceID string          `json:"matched_invoice_id,omitempty"`
	Flags            []string        `json:"flags"`
	Justification    string          `json:"justification,omitempty"`
	Reconciled       bool            `json:"reconciled"`
	AgentSteps       []AgentStep     `json:"agent_steps"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func FromTransaction(tx *transaction.Transaction) Transaction {
	steps := make([]AgentStep, 0, len(tx.AgentSteps))
	for _, s := range tx.AgentSteps {
		steps = append(steps, AgentStep{
			Step:        s.Step,
			Timestamp:   s.Timestamp,
			Observation: s.Observation,
		})
	}

	flags := tx.Flags
	if flags == nil {
		flags = []string{}
	}

	return Transaction{
		ID:               tx.ID,
		Date:             tx.Date,
		Amount:           tx.Amount,
		Currency:         tx.Currency,
		Party:            tx.Party,
		Reference:        tx.Reference,
		Category:         tx.Category,
		Status:           string(tx.Status),
		MatchedInvoiceID: tx.MatchedInvoiceID,
		Flags:            flags,
		Justification:    tx.Justification,
		Reconciled:       tx.Reconciled,
		AgentSteps:       steps,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
}

func FromTransactions(txs []*transaction.Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, FromTransaction(tx))
	}

	return out
}

// Report mirrors reconcile.Report for responses.
type Report = reconcile.Report
