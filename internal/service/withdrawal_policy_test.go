package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports/mocks"
	"custodial-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupPolicy(t *testing.T, now time.Time) (*withdrawalPolicy, *mocks.MockWithdrawalRuleRepository, *mocks.MockLedgerRepository) {
	ctrl := gomock.NewController(t)
	rules := mocks.NewMockWithdrawalRuleRepository(ctrl)
	ledger := mocks.NewMockLedgerRepository(ctrl)
	p := NewWithdrawalPolicy(rules, ledger).(*withdrawalPolicy)
	p.now = func() time.Time { return now }
	return p, rules, ledger
}

func TestWithdrawalPolicy_NoRule(t *testing.T) {
	p, rules, _ := setupPolicy(t, time.Now())
	ctx := context.Background()

	rules.EXPECT().Get(ctx, "t1").Return(nil, nil)

	d, err := p.Evaluate(ctx, "t1", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.Fee.IsZero())
}

func TestWithdrawalPolicy_BelowMinimum(t *testing.T) {
	p, rules, _ := setupPolicy(t, time.Now())
	ctx := context.Background()

	rules.EXPECT().Get(ctx, "t1").Return(&domain.WithdrawalRule{
		TraderID:  "t1",
		FixedFee:  decimal.NewFromInt(1),
		MinAmount: decimal.NewFromInt(10),
	}, nil)

	d, err := p.Evaluate(ctx, "t1", decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, domain.PolicyBelowMinimum, d.Reason)
	assert.True(t, decimal.NewFromInt(10).Equal(d.MinAmount))
}

func TestWithdrawalPolicy_CooldownActive(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p, rules, ledger := setupPolicy(t, now)
	ctx := context.Background()

	rules.EXPECT().Get(ctx, "t1").Return(&domain.WithdrawalRule{
		TraderID:        "t1",
		FixedFee:        decimal.Zero,
		MinAmount:       decimal.Zero,
		CooldownSeconds: 60,
	}, nil)
	ledger.EXPECT().LatestByTraderAndKind(ctx, "t1", domain.EntryKindWithdraw).Return(&domain.LedgerEntry{
		Kind:      domain.EntryKindWithdraw,
		CreatedAt: now.Add(-20500 * time.Millisecond),
	}, nil)

	d, err := p.Evaluate(ctx, "t1", decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, domain.PolicyCooldown, d.Reason)
	assert.Equal(t, int64(40), d.WaitSeconds)
}

func TestWithdrawalPolicy_CooldownElapsed(t *testing.T) {
	now := time.Now()
	p, rules, ledger := setupPolicy(t, now)
	ctx := context.Background()

	rules.EXPECT().Get(ctx, "t1").Return(&domain.WithdrawalRule{
		TraderID:        "t1",
		FixedFee:        decimal.RequireFromString("0.5"),
		MinAmount:       decimal.Zero,
		CooldownSeconds: 60,
	}, nil)
	ledger.EXPECT().LatestByTraderAndKind(ctx, "t1", domain.EntryKindWithdraw).Return(&domain.LedgerEntry{
		CreatedAt: now.Add(-2 * time.Minute),
	}, nil)

	d, err := p.Evaluate(ctx, "t1", decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, decimal.RequireFromString("0.5").Equal(d.Fee))
}

func TestWithdrawalPolicy_NoCooldownSkipsHistory(t *testing.T) {
	p, rules, _ := setupPolicy(t, time.Now())
	ctx := context.Background()

	rules.EXPECT().Get(ctx, "t1").Return(&domain.WithdrawalRule{
		TraderID:  "t1",
		FixedFee:  decimal.Zero,
		MinAmount: decimal.Zero,
	}, nil)

	d, err := p.Evaluate(ctx, "t1", decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestWithdrawalPolicy_RuleLookupFails(t *testing.T) {
	p, rules, _ := setupPolicy(t, time.Now())
	ctx := context.Background()

	rules.EXPECT().Get(ctx, "t1").Return(nil, errors.New("db down"))

	_, err := p.Evaluate(ctx, "t1", decimal.NewFromInt(5))
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SYS_001", appErr.Code)
}
