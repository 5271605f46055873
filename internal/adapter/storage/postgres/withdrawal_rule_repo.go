package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// WithdrawalRuleRepo implements ports.WithdrawalRuleRepository.
type WithdrawalRuleRepo struct {
	pool Pool
}

// NewWithdrawalRuleRepo creates a new WithdrawalRuleRepo.
func NewWithdrawalRuleRepo(pool Pool) *WithdrawalRuleRepo {
	return &WithdrawalRuleRepo{pool: pool}
}

// Get fetches the rule for traderID. Returns nil, nil when none is set.
func (r *WithdrawalRuleRepo) Get(ctx context.Context, traderID string) (*domain.WithdrawalRule, error) {
	query := `SELECT trader_id, fixed_fee, min_amount, cooldown_seconds, created_at, updated_at
		FROM withdrawal_rules WHERE trader_id = $1`

	rule := &domain.WithdrawalRule{}
	err := r.pool.QueryRow(ctx, query, traderID).Scan(
		&rule.TraderID, &rule.FixedFee, &rule.MinAmount, &rule.CooldownSeconds,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal rule: %w", err)
	}
	return rule, nil
}

// Upsert inserts or replaces the trader's rule.
func (r *WithdrawalRuleRepo) Upsert(ctx context.Context, rule *domain.WithdrawalRule) error {
	query := `INSERT INTO withdrawal_rules (trader_id, fixed_fee, min_amount, cooldown_seconds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (trader_id) DO UPDATE SET
			fixed_fee = EXCLUDED.fixed_fee,
			min_amount = EXCLUDED.min_amount,
			cooldown_seconds = EXCLUDED.cooldown_seconds,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		rule.TraderID, rule.FixedFee, rule.MinAmount, rule.CooldownSeconds, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert withdrawal rule: %w", err)
	}
	return nil
}

// Delete removes the trader's rule and reports whether one existed.
func (r *WithdrawalRuleRepo) Delete(ctx context.Context, traderID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM withdrawal_rules WHERE trader_id = $1`, traderID)
	if err != nil {
		return false, fmt.Errorf("delete withdrawal rule: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
