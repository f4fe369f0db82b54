package service

import (
	"context"
	"fmt"
	"strings"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/xid"
)

// FinancialSummary covers the local calendar days start through end.
func (s *Service) FinancialSummary(ctx context.Context, start, end string) (domain.FinancialSummary, error) {
	from, to, err := domain.DayRange(start, end, s.location)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	return s.finance.Summary(ctx, from, to)
}

func (s *Service) CreateOperatingCost(ctx context.Context, req domain.OperatingCostCreateRequest) (domain.OperatingCost, error) {
	spent, err := s.dayOrNow(req.ExpenseDate, "expense_date")
	if err != nil {
		return domain.OperatingCost{}, err
	}
	cost := domain.OperatingCost{
		ID:          xid.New("opc"),
		ExpenseName: strings.TrimSpace(req.ExpenseName),
		Amount:      req.Amount,
		ExpenseDate: domain.NewTimestamp(spent),
		Description: strings.TrimSpace(req.Description),
	}
	saved, err := s.repo.CreateOperatingCost(ctx, cost)
	if err != nil {
		return domain.OperatingCost{}, err
	}
	s.logAudit(ctx, "operating_cost_create", "operating_cost", saved.ID, fmt.Sprintf("amount=%s", saved.Amount))
	return saved, nil
}

// ListOperatingCosts returns expenses in the local date range, newest first.
func (s *Service) ListOperatingCosts(ctx context.Context, start, end string) ([]domain.OperatingCost, error) {
	from, to, err := domain.DayRange(start, end, s.location)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOperatingCostsBetween(ctx, from, to)
}
