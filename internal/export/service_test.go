package export_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ledgerpilot/ledgerpilot/internal/export"
	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

func TestExport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)

	repo.EXPECT().
		GetTransaction(gomock.Any(), "tx-1").
		Return(&transaction.Transaction{
			ID:               "tx-1",
			Date:             time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Amount:           decimal.RequireFromString("1500.50"),
			Party:            "Acme Corp",
			Status:           transaction.StatusReconciled,
			MatchedInvoiceID: "INV-001",
			Reconciled:       true,
		}, nil)
	repo.EXPECT().
		GetTransaction(gomock.Any(), "tx-2").
		Return(&transaction.Transaction{
			ID:     "tx-2",
			Date:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Amount: decimal.NewFromInt(-200),
			Party:  "Beta GmbH",
			Status: transaction.StatusFlagged,
			Flags:  []string{"AMOUNT_MISMATCH"},
		}, nil)

	dir := t.TempDir()
	svc := export.NewService(transaction.NewService(repo), dir)

	ref, data, err := svc.Export(context.Background(), []string{"tx-1", "tx-2"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "/reports/reconciliation-"))
	assert.True(t, strings.HasSuffix(ref, ".csv"))

	assert.Equal(t, 2, data.Summary.Total)
	assert.Equal(t, 1, data.Summary.Flagged)
	assert.Equal(t, 1, data.Summary.Reconciled)
	require.Len(t, data.Transactions, 2)
	assert.Equal(t, "1500.5", data.Transactions[0].Amount)
	assert.Equal(t, "INV-001", data.Transactions[0].Invoice)

	// The artifact on disk matches the returned data.
	f, err := os.Open(filepath.Join(dir, strings.TrimPrefix(ref, "/reports/")))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "date", "amount", "party", "status", "invoice"}, rows[0])
	assert.Equal(t, "tx-1", rows[1][0])
	assert.Equal(t, "2024-03-02", rows[2][1])
}

func TestExport_UnknownTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().GetTransaction(gomock.Any(), "missing").Return(nil, transaction.ErrNotFound)

	svc := export.NewService(transaction.NewService(repo), t.TempDir())

	_, _, err := svc.Export(context.Background(), []string{"missing"})
	require.ErrorIs(t, err, transaction.ErrNotFound)
}
