package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	ledger ports.LedgerRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(ledger ports.LedgerRepository) ports.ReportingService {
	return &reportingService{ledger: ledger}
}

// History returns one page of the trader's journal, newest first. Platform
// fee rows are bookkeeping and are left out.
func (s *reportingService) History(ctx context.Context, traderID string, page, limit int) (*ports.HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	// keeps (page-1)*limit inside a Postgres integer OFFSET
	if maxPage := math.MaxInt32 / limit; page > maxPage {
		page = maxPage
	}

	entries, total, err := s.ledger.List(ctx, ports.EntryListParams{
		TraderID:     traderID,
		ExcludeKinds: []domain.EntryKind{domain.EntryKindPlatformFee},
		Page:         page,
		PageSize:     limit,
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list entries: %w", err))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.HistoryPage{
		Entries:     entries,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		PerPage:     limit,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}, nil
}

// RewardStats sums the trader's reward entries in [from, to].
func (s *reportingService) RewardStats(ctx context.Context, traderID string, from, to time.Time) (decimal.Decimal, error) {
	return s.sum(ctx, traderID, domain.EntryKindReward, from, to)
}

// CommissionProfit sums the team-lead commissions paid to traderID in [from, to].
func (s *reportingService) CommissionProfit(ctx context.Context, traderID string, from, to time.Time) (decimal.Decimal, error) {
	return s.sum(ctx, traderID, domain.EntryKindTeamLeadCommission, from, to)
}

func (s *reportingService) sum(ctx context.Context, traderID string, kind domain.EntryKind, from, to time.Time) (decimal.Decimal, error) {
	if to.Before(from) {
		return decimal.Zero, apperror.Validation("from must not be after to")
	}
	total, err := s.ledger.SumByKindAndRange(ctx, traderID, kind, from, to)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("sum %s: %w", kind, err))
	}
	return total, nil
}
