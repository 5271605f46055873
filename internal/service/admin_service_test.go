package service

import (
	"context"
	"errors"
	"testing"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/internal/core/ports/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupAdmin(t *testing.T) (ports.AdminService, *mocks.MockWithdrawalRuleRepository, *memStore) {
	ctrl := gomock.NewController(t)
	rules := mocks.NewMockWithdrawalRuleRepository(ctrl)
	store := newMemStore()
	svc := NewAdminService(rules, memAccountRepo{store}, store, "USDT", newTestLogger())
	return svc, rules, store
}

func int64Ptr(v int64) *int64 { return &v }

func TestAdmin_UpsertRule_New(t *testing.T) {
	svc, rules, _ := setupAdmin(t)

	rules.EXPECT().Get(gomock.Any(), "t1").Return(nil, nil)
	rules.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *domain.WithdrawalRule) error {
			assertDec(t, "1.5", r.FixedFee)
			assertDec(t, "0", r.MinAmount)
			assert.Equal(t, int64(60), r.CooldownSeconds)
			return nil
		})

	rule, err := svc.UpsertRule(context.Background(), ports.RuleUpsertRequest{
		TraderID:        "t1",
		FixedFee:        decPtr("1.5"),
		CooldownSeconds: int64Ptr(60),
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", rule.TraderID)
}

func TestAdmin_UpsertRule_PartialKeepsStored(t *testing.T) {
	svc, rules, _ := setupAdmin(t)

	rules.EXPECT().Get(gomock.Any(), "t1").Return(&domain.WithdrawalRule{
		TraderID:        "t1",
		FixedFee:        dec("2"),
		MinAmount:       dec("10"),
		CooldownSeconds: 300,
	}, nil)
	rules.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)

	rule, err := svc.UpsertRule(context.Background(), ports.RuleUpsertRequest{
		TraderID:  "t1",
		MinAmount: decPtr("25"),
	})
	require.NoError(t, err)
	assertDec(t, "2", rule.FixedFee)
	assertDec(t, "25", rule.MinAmount)
	assert.Equal(t, int64(300), rule.CooldownSeconds)
}

func TestAdmin_UpsertRule_RejectsNegative(t *testing.T) {
	svc, rules, _ := setupAdmin(t)

	rules.EXPECT().Get(gomock.Any(), "t1").Return(nil, nil)

	_, err := svc.UpsertRule(context.Background(), ports.RuleUpsertRequest{
		TraderID: "t1",
		FixedFee: decPtr("-1"),
	})
	requireCode(t, err, "VAL_001")

	_, err = svc.UpsertRule(context.Background(), ports.RuleUpsertRequest{})
	requireCode(t, err, "VAL_001")
}

func TestAdmin_GetRule(t *testing.T) {
	svc, rules, _ := setupAdmin(t)

	rules.EXPECT().Get(gomock.Any(), "t1").Return(&domain.WithdrawalRule{TraderID: "t1"}, nil)
	rules.EXPECT().Get(gomock.Any(), "t2").Return(nil, nil)
	rules.EXPECT().Get(gomock.Any(), "t3").Return(nil, errors.New("db down"))

	rule, err := svc.GetRule(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", rule.TraderID)

	_, err = svc.GetRule(context.Background(), "t2")
	requireCode(t, err, "LED_002")

	_, err = svc.GetRule(context.Background(), "t3")
	requireCode(t, err, "SYS_001")
}

func TestAdmin_DeleteRule(t *testing.T) {
	svc, rules, _ := setupAdmin(t)

	rules.EXPECT().Delete(gomock.Any(), "t1").Return(true, nil)
	rules.EXPECT().Delete(gomock.Any(), "t2").Return(false, nil)

	require.NoError(t, svc.DeleteRule(context.Background(), "t1"))
	requireCode(t, svc.DeleteRule(context.Background(), "t2"), "LED_002")
}

func TestAdmin_ResetSweep(t *testing.T) {
	svc, _, store := setupAdmin(t)
	store.seed("t1", "0", "0")
	store.update("t1", func(a *domain.Account) {
		a.SweepStatus = domain.SweepSubmitting
		a.PendingSweep = dec("40")
	})

	acct, err := svc.ResetSweep(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.SweepIdle, acct.SweepStatus)

	stored := store.account("t1")
	assert.Equal(t, domain.SweepIdle, stored.SweepStatus)
	assertDec(t, "40", stored.PendingSweep)
}

func TestAdmin_ResetSweep_OnlyFromSubmitting(t *testing.T) {
	svc, _, store := setupAdmin(t)
	store.seed("t1", "0", "0")

	_, err := svc.ResetSweep(context.Background(), "t1")
	requireCode(t, err, "VAL_001")

	_, err = svc.ResetSweep(context.Background(), "ghost")
	requireCode(t, err, "LED_002")
}
