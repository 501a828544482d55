package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTransaction reads a transaction row from the scanner.
// Expected column order: id, date, amount, currency, party, reference, category,
// status, matched_invoice_id, flags, justification, reconciled, created_at, updated_at
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var statusStr, flagsJSON string

	var reference, category, invoiceID, justification sql.NullString

	if err := s.Scan(
		&tx.ID, &tx.Date, &tx.Amount, &tx.Currency, &tx.Party, &reference, &category,
		&statusStr, &invoiceID, &flagsJSON, &justification, &tx.Reconciled,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Status = transaction.Status(statusStr)
	tx.Reference = reference.String
	tx.Category = category.String
	tx.MatchedInvoiceID = invoiceID.String
	tx.Justification = justification.String

	if flagsJSON != "" {
		if err := json.Unmarshal([]byte(flagsJSON), &tx.Flags); err != nil {
			return nil, fmt.Errorf("decoding flags: %w", err)
		}
	}

	return &tx, nil
}

const selectTransactionColumns = `
	t.id, t.date, t.amount, t.currency, t.party, t.reference, t.category,
	t.status, t.matched_invoice_id, t.flags, t.justification, t.reconciled,
	t.created_at, t.updated_at
`

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbtx.Rollback()

	if err := insertTransaction(ctx, dbtx, tx); err != nil {
		return err
	}

	if err := insertSteps(ctx, dbtx, tx); err != nil {
		return err
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbtx.Rollback()

	for _, tx := range txs {
		if err := insertTransaction(ctx, dbtx, tx); err != nil {
			return err
		}

		if err := insertSteps(ctx, dbtx, tx); err != nil {
			return err
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}

	return nil
}

func insertTransaction(ctx context.Context, dbtx *sql.Tx, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (id, date, amount, currency, party, reference, category,
			status, matched_invoice_id, flags, justification, reconciled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	flagsJSON, err := json.Marshal(flagsOrEmpty(tx.Flags))
	if err != nil {
		return fmt.Errorf("encoding flags: %w", err)
	}

	err = dbtx.QueryRowContext(ctx, query,
		tx.ID, tx.Date, tx.Amount, tx.Currency, tx.Party,
		nullable(tx.Reference), nullable(tx.Category),
		string(tx.Status), nullable(tx.MatchedInvoiceID), string(flagsJSON),
		nullable(tx.Justification), tx.Reconciled,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

// insertSteps appends any audit entries not yet persisted. Steps are keyed by
// their own id, so re-inserting an already-saved step is a no-op and entries
// written by a concurrent saver are never lost.
func insertSteps(ctx context.Context, dbtx *sql.Tx, tx *transaction.Transaction) error {
	query := `
		INSERT INTO agent_steps (id, transaction_id, seq, step, observed_at, observation)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	for i, step := range tx.AgentSteps {
		if _, err := dbtx.ExecContext(ctx, query,
			step.ID, tx.ID, i, step.Step, step.Timestamp, step.Observation,
		); err != nil {
			return fmt.Errorf("appending audit step: %w", err)
		}
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions t WHERE t.id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	if err := s.loadSteps(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions t WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argIdx)

		args = append(args, string(*filter.Status))
		argIdx++
	}

	if filter.Party != "" {
		query += fmt.Sprintf(" AND t.party ILIKE '%%' || $%d || '%%'", argIdx)

		args = append(args, filter.Party)
		argIdx++
	}

	if filter.DateFrom != nil {
		query += fmt.Sprintf(" AND t.date >= $%d", argIdx)

		args = append(args, *filter.DateFrom)
		argIdx++
	}

	if filter.DateTo != nil {
		query += fmt.Sprintf(" AND t.date <= $%d", argIdx)

		args = append(args, *filter.DateTo)
		argIdx++
	}

	if filter.UpdatedSince != nil {
		query += fmt.Sprintf(" AND t.updated_at >= $%d", argIdx)

		args = append(args, *filter.UpdatedSince)
		argIdx++
	}

	query += " ORDER BY t.updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	for _, tx := range txs {
		if err := s.loadSteps(ctx, tx); err != nil {
			return nil, err
		}
	}

	return txs, nil
}

// SaveTransaction is last-write-wins on the transaction row. Audit steps are
// append-only and merged via insertSteps, never rewritten.
func (s *Store) SaveTransaction(ctx context.Context, tx *transaction.Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbtx.Rollback()

	flagsJSON, err := json.Marshal(flagsOrEmpty(tx.Flags))
	if err != nil {
		return fmt.Errorf("encoding flags: %w", err)
	}

	query := `
		UPDATE transactions
		SET date = $2, amount = $3, currency = $4, party = $5, reference = $6,
			category = $7, status = $8, matched_invoice_id = $9, flags = $10,
			justification = $11, reconciled = $12, updated_at = NOW()
		WHERE id = $1
	`

	res, err := dbtx.ExecContext(ctx, query,
		tx.ID, tx.Date, tx.Amount, tx.Currency, tx.Party,
		nullable(tx.Reference), nullable(tx.Category),
		string(tx.Status), nullable(tx.MatchedInvoiceID), string(flagsJSON),
		nullable(tx.Justification), tx.Reconciled,
	)
	if err != nil {
		return fmt.Errorf("saving transaction: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return transaction.ErrNotFound
	}

	if err := insertSteps(ctx, dbtx, tx); err != nil {
		return err
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}

	return nil
}

func (s *Store) loadSteps(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		SELECT id, step, observed_at, observation
		FROM agent_steps
		WHERE transaction_id = $1
		ORDER BY observed_at ASC, seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, tx.ID)
	if err != nil {
		return fmt.Errorf("loading audit steps: %w", err)
	}
	defer rows.Close()

	var steps []transaction.AgentStep

	for rows.Next() {
		var step transaction.AgentStep

		var ts time.Time

		if err := rows.Scan(&step.ID, &step.Step, &ts, &step.Observation); err != nil {
			return fmt.Errorf("scanning audit step: %w", err)
		}

		step.Timestamp = ts.UTC()
		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating audit steps: %w", err)
	}

	tx.AgentSteps = steps

	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func flagsOrEmpty(flags []string) []string {
	if flags == nil {
		return []string{}
	}

	return flags
}
