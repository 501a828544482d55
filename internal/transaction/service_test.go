package transaction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

func TestService_GetBatch(t *testing.T) {
	type testCase struct {
		name      string
		ids       []string
		setupMock func(m *transaction.MockRepository)
		wantLen   int
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			ids:  []string{"tx-1", "tx-2"},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					GetTransaction(gomock.Any(), "tx-1").
					Return(&transaction.Transaction{ID: "tx-1"}, nil)
				m.EXPECT().
					GetTransaction(gomock.Any(), "tx-2").
					Return(&transaction.Transaction{ID: "tx-2"}, nil)
			},
			wantLen: 2,
		},
		{
			name: "UnknownIDFailsWhole",
			ids:  []string{"tx-1", "missing"},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					GetTransaction(gomock.Any(), "tx-1").
					Return(&transaction.Transaction{ID: "tx-1"}, nil)
				m.EXPECT().
					GetTransaction(gomock.Any(), "missing").
					Return(nil, transaction.ErrNotFound)
			},
			wantErr: transaction.ErrNotFound,
		},
		{
			name:      "Empty",
			ids:       nil,
			setupMock: func(m *transaction.MockRepository) {},
			wantLen:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := transaction.NewService(repo)
			got, err := svc.GetBatch(context.Background(), tt.ids)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestService_CreateBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	txs := []*transaction.Transaction{
		{ID: "tx-1", Status: transaction.StatusPending},
		{ID: "tx-2", Status: transaction.StatusPending},
	}

	repo.EXPECT().CreateTransactions(gomock.Any(), txs).Return(nil)

	require.NoError(t, svc.CreateBatch(context.Background(), txs))
}

func TestService_CreateBatch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	// No repository call for an empty batch.
	require.NoError(t, svc.CreateBatch(context.Background(), nil))
}

func TestService_Save(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	tx := &transaction.Transaction{ID: "tx-1"}
	repo.EXPECT().SaveTransaction(gomock.Any(), tx).Return(errors.New("db down"))

	assert.Error(t, svc.Save(context.Background(), tx))
}
