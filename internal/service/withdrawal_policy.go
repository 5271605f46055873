package service

import (
	"context"
	"fmt"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// withdrawalPolicy implements ports.WithdrawalPolicy.
type withdrawalPolicy struct {
	rules  ports.WithdrawalRuleRepository
	ledger ports.LedgerRepository
	now    func() time.Time
}

// NewWithdrawalPolicy creates a policy backed by the rule table and the journal.
func NewWithdrawalPolicy(rules ports.WithdrawalRuleRepository, ledger ports.LedgerRepository) ports.WithdrawalPolicy {
	return &withdrawalPolicy{rules: rules, ledger: ledger, now: time.Now}
}

// Evaluate checks the minimum first, then the cooldown against the trader's
// latest withdraw entry.
func (p *withdrawalPolicy) Evaluate(ctx context.Context, traderID string, amount decimal.Decimal) (domain.PolicyDecision, error) {
	rule, err := p.rules.Get(ctx, traderID)
	if err != nil {
		return domain.PolicyDecision{}, apperror.InternalError(fmt.Errorf("get withdrawal rule: %w", err))
	}
	if rule == nil {
		return domain.EvaluateWithdrawal(nil, amount, nil, p.now()), nil
	}

	var lastAt *time.Time
	if rule.CooldownSeconds > 0 {
		last, err := p.ledger.LatestByTraderAndKind(ctx, traderID, domain.EntryKindWithdraw)
		if err != nil {
			return domain.PolicyDecision{}, apperror.InternalError(fmt.Errorf("latest withdraw: %w", err))
		}
		if last != nil {
			lastAt = &last.CreatedAt
		}
	}

	return domain.EvaluateWithdrawal(rule, amount, lastAt, p.now()), nil
}
