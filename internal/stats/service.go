package stats

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jswalia/karigar/internal/ledger"
)

type Repository interface {
	CountTransactions(ctx context.Context) (int64, error)
	CountTransactionsSince(ctx context.Context, date string) (int64, error)
	CountOwners(ctx context.Context, kind string) (int64, error)
	TotalGold(ctx context.Context) (decimal.Decimal, error)
}

// Dashboard is the summary block the back-office landing page renders.
type Dashboard struct {
	TotalTransactions int64
	TotalClients      int64
	TotalEmployees    int64
	TodayTransactions int64
	TotalGold         decimal.Decimal
	Recent            []*ledger.Transaction
}

type Service struct {
	repo        Repository
	ledger      *ledger.Service
	recentLimit int64
	today       func() string
}

func NewService(repo Repository, ledgerSvc *ledger.Service, today func() string) *Service {
	return &Service{
		repo:        repo,
		ledger:      ledgerSvc,
		recentLimit: 10,
		today:       today,
	}
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}

	var err error

	if d.TotalTransactions, err = s.repo.CountTransactions(ctx); err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}

	if d.TotalClients, err = s.repo.CountOwners(ctx, "client"); err != nil {
		return nil, fmt.Errorf("counting clients: %w", err)
	}

	if d.TotalEmployees, err = s.repo.CountOwners(ctx, "employee"); err != nil {
		return nil, fmt.Errorf("counting employees: %w", err)
	}

	if d.TodayTransactions, err = s.repo.CountTransactionsSince(ctx, s.today()); err != nil {
		return nil, fmt.Errorf("counting today's transactions: %w", err)
	}

	if d.TotalGold, err = s.repo.TotalGold(ctx); err != nil {
		return nil, fmt.Errorf("summing gold: %w", err)
	}

	if d.Recent, err = s.ledger.List(ctx, ledger.ListFilter{Limit: s.recentLimit}); err != nil {
		return nil, fmt.Errorf("listing recent transactions: %w", err)
	}

	return d, nil
}
