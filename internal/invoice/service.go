package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]*Invoice, error)
	UpdateInvoice(ctx context.Context, inv *Invoice) error
	DeleteInvoice(ctx context.Context, id string) error
}

// ListFilter narrows ListInvoices. Zero fields are ignored.
type ListFilter struct {
	CustomerName string
	Status       string
	DateFrom     *time.Time
	DateTo       *time.Time
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, inv *Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	return s.repo.CreateInvoice(ctx, inv)
}

func (s *Service) Get(ctx context.Context, id string) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	return s.repo.ListInvoices(ctx, filter)
}

func (s *Service) Update(ctx context.Context, inv *Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}

	return s.repo.UpdateInvoice(ctx, inv)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteInvoice(ctx, id)
}
