package service

import (
	"context"
	"fmt"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// adminService implements ports.AdminService.
type adminService struct {
	rules      ports.WithdrawalRuleRepository
	accounts   ports.AccountRepository
	transactor ports.DBTransactor
	currency   string
	log        zerolog.Logger
}

// NewAdminService creates the operator-facing service for withdrawal rules and sweeps.
func NewAdminService(
	rules ports.WithdrawalRuleRepository,
	accounts ports.AccountRepository,
	transactor ports.DBTransactor,
	currency string,
	log zerolog.Logger,
) ports.AdminService {
	return &adminService{
		rules:      rules,
		accounts:   accounts,
		transactor: transactor,
		currency:   currency,
		log:        log,
	}
}

// UpsertRule merges req into the stored rule. Omitted fields keep their stored value,
// or zero for a new rule.
func (s *adminService) UpsertRule(ctx context.Context, req ports.RuleUpsertRequest) (*domain.WithdrawalRule, error) {
	if req.TraderID == "" {
		return nil, apperror.Validation("traderId is required")
	}

	rule, err := s.rules.Get(ctx, req.TraderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get rule: %w", err))
	}
	if rule == nil {
		rule = &domain.WithdrawalRule{
			TraderID:  req.TraderID,
			FixedFee:  decimal.Zero,
			MinAmount: decimal.Zero,
		}
	}

	if req.FixedFee != nil {
		rule.FixedFee = domain.RoundMoney(*req.FixedFee)
	}
	if req.MinAmount != nil {
		rule.MinAmount = domain.RoundMoney(*req.MinAmount)
	}
	if req.CooldownSeconds != nil {
		rule.CooldownSeconds = *req.CooldownSeconds
	}
	if err := rule.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if err := s.rules.Upsert(ctx, rule); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("upsert rule: %w", err))
	}

	s.log.Info().
		Str("trader_id", rule.TraderID).
		Str("fixed_fee", rule.FixedFee.String()).
		Str("min_amount", rule.MinAmount.String()).
		Int64("cooldown_seconds", rule.CooldownSeconds).
		Msg("withdrawal rule saved")

	return rule, nil
}

func (s *adminService) GetRule(ctx context.Context, traderID string) (*domain.WithdrawalRule, error) {
	rule, err := s.rules.Get(ctx, traderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get rule: %w", err))
	}
	if rule == nil {
		return nil, apperror.ErrNotFound("withdrawal rule")
	}
	return rule, nil
}

func (s *adminService) DeleteRule(ctx context.Context, traderID string) error {
	deleted, err := s.rules.Delete(ctx, traderID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("delete rule: %w", err))
	}
	if !deleted {
		return apperror.ErrNotFound("withdrawal rule")
	}
	s.log.Info().Str("trader_id", traderID).Msg("withdrawal rule deleted")
	return nil
}

// ResetSweep returns an account stuck in submitting to idle. The operator must
// have checked that the sweep never reached the chain; pending_sweep is kept so
// the next cycle resubmits it.
func (s *adminService) ResetSweep(ctx context.Context, traderID string) (*domain.Account, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accounts.GetByTraderForUpdate(ctx, dbTx, traderID, s.currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}
	if account.SweepStatus != domain.SweepSubmitting {
		return nil, apperror.Validation(fmt.Sprintf("sweep status is %s, only submitting can be reset", account.SweepStatus)).
			With("sweep_status", string(account.SweepStatus))
	}

	if err := s.accounts.UpdateSweep(ctx, dbTx, account.ID, ports.SweepUpdate{
		Status:            domain.SweepIdle,
		PendingSweepDelta: decimal.Zero,
	}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reset sweep: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit: %w", err))
	}

	s.log.Warn().
		Str("trader_id", traderID).
		Str("address", account.Address).
		Str("pending_sweep", account.PendingSweep.String()).
		Msg("sweep reset by operator")

	account.SweepStatus = domain.SweepIdle
	account.SweepTxHash = nil
	account.SweepStartedAt = nil
	return account, nil
}
