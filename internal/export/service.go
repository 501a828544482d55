package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

// Summary aggregates the exported transactions.
type Summary struct {
	Total      int `json:"total"`
	Matched    int `json:"matched"`
	Flagged    int `json:"flagged"`
	Reconciled int `json:"reconciled"`
}

// Row is one exported transaction line.
type Row struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Amount  string `json:"amount"`
	Party   string `json:"party"`
	Status  string `json:"status"`
	Invoice string `json:"invoice,omitempty"`
}

// Data is the report document returned alongside the written artifact.
type Data struct {
	Date         string  `json:"date"`
	Summary      Summary `json:"summary"`
	Transactions []Row   `json:"transactions"`
}

// Service builds reconciliation reports and writes them as CSV artifacts.
type Service struct {
	transactions *transaction.Service
	outputDir    string
	now          func() time.Time
}

func NewService(txService *transaction.Service, outputDir string) *Service {
	return &Service{
		transactions: txService,
		outputDir:    outputDir,
		now:          time.Now,
	}
}

// Export builds the report for the named transactions and writes a CSV file
// into the output directory. It returns a reference to the artifact plus the
// report data.
func (s *Service) Export(ctx context.Context, ids []string) (string, *Data, error) {
	txs, err := s.transactions.GetBatch(ctx, ids)
	if err != nil {
		return "", nil, err
	}

	now := s.now().UTC()

	data := &Data{
		Date:         now.Format(time.DateOnly),
		Summary:      Summary{Total: len(txs)},
		Transactions: make([]Row, 0, len(txs)),
	}

	for _, tx := range txs {
		switch tx.Status {
		case transaction.StatusMatched:
			data.Summary.Matched++
		case transaction.StatusFlagged:
			data.Summary.Flagged++
		}

		if tx.Reconciled {
			data.Summary.Reconciled++
		}

		data.Transactions = append(data.Transactions, Row{
			ID:      tx.ID,
			Date:    tx.Date.Format(time.DateOnly),
			Amount:  tx.Amount.String(),
			Party:   tx.Party,
			Status:  string(tx.Status),
			Invoice: tx.MatchedInvoiceID,
		})
	}

	ref, err := s.writeArtifact(data, now)
	if err != nil {
		return "", nil, err
	}

	return ref, data, nil
}

func (s *Service) writeArtifact(data *Data, now time.Time) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	filename := fmt.Sprintf("reconciliation-%d.csv", now.UnixMilli())
	path := filepath.Join(s.outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{"id", "date", "amount", "party", "status", "invoice"}); err != nil {
		return "", fmt.Errorf("writing report header: %w", err)
	}

	for _, row := range data.Transactions {
		if err := w.Write([]string{row.ID, row.Date, row.Amount, row.Party, row.Status, row.Invoice}); err != nil {
			return "", fmt.Errorf("writing report row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing report: %w", err)
	}

	return "/reports/" + filename, nil
}
