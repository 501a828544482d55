package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ledgerpilot/ledgerpilot/internal/invoice"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectInvoiceColumns = `
	i.id, i.invoice_number, i.date, i.due_date, i.customer_name, i.reference,
	i.total, i.status, i.created_at, i.updated_at
`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice

	var reference sql.NullString

	var dueDate sql.NullTime

	if err := s.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.Date, &dueDate, &inv.CustomerName,
		&reference, &inv.Total, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}

	inv.Reference = reference.String

	if dueDate.Valid {
		t := dueDate.Time
		inv.DueDate = &t
	}

	return &inv, nil
}

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (id, invoice_number, date, due_date, customer_name, reference, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		inv.ID, inv.InvoiceNumber, inv.Date, inv.DueDate, inv.CustomerName,
		nullable(inv.Reference), inv.Total, inv.Status,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating invoice: %w", err)
	}

	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices i WHERE i.id = $1`

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, invoice.ErrNotFound
		}

		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices i WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.CustomerName != "" {
		query += fmt.Sprintf(" AND i.customer_name ILIKE '%%' || $%d || '%%'", argIdx)

		args = append(args, filter.CustomerName)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND i.status = $%d", argIdx)

		args = append(args, filter.Status)
		argIdx++
	}

	if filter.DateFrom != nil {
		query += fmt.Sprintf(" AND i.date >= $%d", argIdx)

		args = append(args, *filter.DateFrom)
		argIdx++
	}

	if filter.DateTo != nil {
		query += fmt.Sprintf(" AND i.date <= $%d", argIdx)

		args = append(args, *filter.DateTo)
		argIdx++
	}

	query += " ORDER BY i.date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		invoices = append(invoices, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}

	return invoices, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices
		SET invoice_number = $2, date = $3, due_date = $4, customer_name = $5,
			reference = $6, total = $7, status = $8, updated_at = NOW()
		WHERE id = $1
	`

	res, err := s.db.ExecContext(ctx, query,
		inv.ID, inv.InvoiceNumber, inv.Date, inv.DueDate, inv.CustomerName,
		nullable(inv.Reference), inv.Total, inv.Status,
	)
	if err != nil {
		return fmt.Errorf("updating invoice: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return invoice.ErrNotFound
	}

	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return invoice.ErrNotFound
	}

	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
