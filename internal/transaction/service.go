package transaction

import (
	"context"
	"time"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)

	// SaveTransaction is last-write-wins on the transaction row but must
	// merge audit steps: entries appended by a concurrent writer survive.
	SaveTransaction(ctx context.Context, tx *Transaction) error
}

// ListFilter narrows ListTransactions. Nil/zero fields are ignored.
type ListFilter struct {
	Status       *Status
	DateFrom     *time.Time
	DateTo       *time.Time
	Party        string
	UpdatedSince *time.Time
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// GetBatch loads the named transactions, failing with ErrNotFound if any id
// is unknown.
func (s *Service) GetBatch(ctx context.Context, ids []string) ([]*Transaction, error) {
	txs := make([]*Transaction, 0, len(ids))

	for _, id := range ids {
		tx, err := s.repo.GetTransaction(ctx, id)
		if err != nil {
			return nil, err
		}

		txs = append(txs, tx)
	}

	return txs, nil
}

func (s *Service) CreateBatch(ctx context.Context, txs []*Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	return s.repo.CreateTransactions(ctx, txs)
}

func (s *Service) Save(ctx context.Context, tx *Transaction) error {
	return s.repo.SaveTransaction(ctx, tx)
}
