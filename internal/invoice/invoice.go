// Package invoice manages the billing records transactions are matched
// against. The reconciliation core only ever references invoices by id.
package invoice

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound   = errors.New("invoice not found")
	ErrValidation = errors.New("missing required fields")
)

// Invoice is an external billing record.
type Invoice struct {
	ID            string
	InvoiceNumber string
	Date          time.Time
	DueDate       *time.Time
	CustomerName  string
	Reference     string
	Total         decimal.Decimal
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the fields required to store an invoice.
func (i *Invoice) Validate() error {
	if i.InvoiceNumber == "" || i.CustomerName == "" || i.Date.IsZero() {
		return ErrValidation
	}

	return nil
}
