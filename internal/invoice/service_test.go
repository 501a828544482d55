package invoice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ledgerpilot/ledgerpilot/internal/invoice"
)

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		inv       *invoice.Invoice
		setupMock func(m *invoice.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			inv: &invoice.Invoice{
				InvoiceNumber: "INV-001",
				Date:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				CustomerName:  "Acme Corp",
				Total:         decimal.NewFromInt(1500),
			},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "MissingCustomer",
			inv: &invoice.Invoice{
				InvoiceNumber: "INV-002",
				Date:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			},
			setupMock: func(m *invoice.MockRepository) {},
			wantErr:   invoice.ErrValidation,
		},
		{
			name: "MissingDate",
			inv: &invoice.Invoice{
				InvoiceNumber: "INV-003",
				CustomerName:  "Acme Corp",
			},
			setupMock: func(m *invoice.MockRepository) {},
			wantErr:   invoice.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := invoice.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := invoice.NewService(repo)
			err := svc.Create(context.Background(), tt.inv)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, tt.inv.ID)
		})
	}
}

func TestService_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := invoice.NewMockRepository(ctrl)
	repo.EXPECT().GetInvoice(gomock.Any(), "missing").Return(nil, invoice.ErrNotFound)

	svc := invoice.NewService(repo)

	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, invoice.ErrNotFound)
}

func TestService_Update_Invalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := invoice.NewMockRepository(ctrl)
	svc := invoice.NewService(repo)

	err := svc.Update(context.Background(), &invoice.Invoice{ID: "inv-1"})
	require.ErrorIs(t, err, invoice.ErrValidation)
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := invoice.NewMockRepository(ctrl)
	repo.EXPECT().DeleteInvoice(gomock.Any(), "inv-1").Return(errors.New("db down"))

	svc := invoice.NewService(repo)
	assert.Error(t, svc.Delete(context.Background(), "inv-1"))
}
