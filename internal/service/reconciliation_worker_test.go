package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/internal/core/ports/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reconcileFixture struct {
	worker    *ReconciliationWorker
	store     *memStore
	locker    *memLocker
	publisher *recordingPublisher
	chain     *mocks.MockChainGateway
	encSvc    *mocks.MockEncryptionService
	metrics   ports.Metrics
}

func setupReconcile(t *testing.T, metrics ports.Metrics) *reconcileFixture {
	ctrl := gomock.NewController(t)
	if metrics == nil {
		metrics = nopMetrics{}
	}
	f := &reconcileFixture{
		store:     newMemStore(),
		locker:    newMemLocker(),
		publisher: &recordingPublisher{},
		chain:     mocks.NewMockChainGateway(ctrl),
		encSvc:    mocks.NewMockEncryptionService(ctrl),
		metrics:   metrics,
	}
	f.worker = NewReconciliationWorker(ReconciliationDeps{
		Accounts:   memAccountRepo{f.store},
		Ledger:     memLedgerRepo{f.store},
		Chain:      f.chain,
		Encryption: f.encSvc,
		Locker:     f.locker,
		Publisher:  f.publisher,
		Metrics:    metrics,
		Transactor: f.store,
	}, ReconciliationConfig{
		Currency:        "USDT",
		CustodyTraderID: "platform",
		Interval:        time.Hour,
		DustThreshold:   dec("0.000001"),
		LeaseTTL:        time.Minute,
	}, newTestLogger())

	f.store.seed("platform", "0", "0")
	return f
}

func (f *reconcileFixture) seedWallet(traderID string) {
	f.store.seed(traderID, "0", "0")
	f.store.update(traderID, func(a *domain.Account) { a.SecretEnc = "sealed-" + traderID })
}

func entriesOfKind(entries []domain.LedgerEntry, kind domain.EntryKind) []domain.LedgerEntry {
	var out []domain.LedgerEntry
	for _, e := range entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestReconcile_CreditsAndSweeps(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")

	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("50"), nil)
	f.encSvc.EXPECT().Decrypt("sealed-t1").Return("key", nil)
	f.chain.EXPECT().Transfer(gomock.Any(), "0xt1", "0xplatform", gomock.Any(), "key").DoAndReturn(
		func(_ context.Context, _, _ string, amount decimal.Decimal, _ string) (string, error) {
			assert.Equal(t, "50", amount.String())
			return "0xsweep1", nil
		})

	f.worker.RunCycle(context.Background())

	acct := f.store.account("t1")
	assertDec(t, "50", acct.Balance)
	assertDec(t, "50", acct.PendingSweep)
	assert.Equal(t, domain.SweepSubmitted, acct.SweepStatus)
	require.NotNil(t, acct.SweepTxHash)
	assert.Equal(t, "0xsweep1", *acct.SweepTxHash)

	entries := f.store.entries()
	deposits := entriesOfKind(entries, domain.EntryKindDeposit)
	require.Len(t, deposits, 1)
	assertDec(t, "50", deposits[0].Amount)
	assert.Equal(t, domain.EntryStatusConfirmed, deposits[0].Status)

	forwards := entriesOfKind(entries, domain.EntryKindForwardToCustody)
	require.Len(t, forwards, 1)
	assert.Equal(t, domain.EntryStatusPending, forwards[0].Status)

	assert.Equal(t, []domain.EventType{domain.EventDeposit, domain.EventSweepSubmitted}, f.publisher.types())
	assert.Empty(t, f.locker.held, "lease released")
}

func TestReconcile_NoDoubleCreditWhileSweepInFlight(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")
	f.store.update("t1", func(a *domain.Account) {
		h := "0xsweep1"
		a.Balance = dec("50")
		a.PendingSweep = dec("50")
		a.SweepStatus = domain.SweepSubmitted
		a.SweepTxHash = &h
	})

	// not mined yet, balance still on the address
	f.chain.EXPECT().GetTransferEvent(gomock.Any(), "0xsweep1").Return(nil, nil).Times(2)
	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("50"), nil).Times(2)

	f.worker.RunCycle(context.Background())
	f.worker.RunCycle(context.Background())

	acct := f.store.account("t1")
	assertDec(t, "50", acct.Balance)
	assert.Equal(t, domain.SweepSubmitted, acct.SweepStatus)
	assert.Empty(t, entriesOfKind(f.store.entries(), domain.EntryKindDeposit))
}

func TestReconcile_ConfirmsSweep(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")
	seedForward(t, f, "t1", "50", "0xsweep1")

	f.chain.EXPECT().GetTransferEvent(gomock.Any(), "0xsweep1").
		Return(&domain.ChainTransfer{TxHash: "0xsweep1", Amount: dec("50")}, nil)
	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("0"), nil)

	f.worker.RunCycle(context.Background())

	acct := f.store.account("t1")
	assertDec(t, "50", acct.Balance)
	assertDec(t, "0", acct.PendingSweep)
	assert.Equal(t, domain.SweepIdle, acct.SweepStatus)
	assert.Nil(t, acct.SweepTxHash)

	forwards := entriesOfKind(f.store.entries(), domain.EntryKindForwardToCustody)
	require.Len(t, forwards, 1)
	assert.Equal(t, domain.EntryStatusConfirmed, forwards[0].Status)
	assert.Equal(t, []domain.EventType{domain.EventEntryConfirmed}, f.publisher.types())
}

func TestReconcile_RevertedSweepIsResubmitted(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")
	seedForward(t, f, "t1", "50", "0xsweep1")

	gomock.InOrder(
		f.chain.EXPECT().GetTransferEvent(gomock.Any(), "0xsweep1").Return(nil, domain.ErrTransferReverted),
		f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("50"), nil),
		f.chain.EXPECT().Transfer(gomock.Any(), "0xt1", "0xplatform", gomock.Any(), "key").Return("0xsweep2", nil),
	)
	f.encSvc.EXPECT().Decrypt("sealed-t1").Return("key", nil)

	f.worker.RunCycle(context.Background())

	acct := f.store.account("t1")
	assertDec(t, "50", acct.Balance, "reverted sweep does not credit again")
	assertDec(t, "50", acct.PendingSweep)
	assert.Equal(t, domain.SweepSubmitted, acct.SweepStatus)
	assert.Equal(t, "0xsweep2", *acct.SweepTxHash)

	forwards := entriesOfKind(f.store.entries(), domain.EntryKindForwardToCustody)
	require.Len(t, forwards, 2)
	assert.Equal(t, domain.EntryStatusFailed, forwards[0].Status)
	assert.Equal(t, domain.EntryStatusPending, forwards[1].Status)
}

func TestReconcile_SubmittingLandedIsCleared(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")
	f.store.update("t1", func(a *domain.Account) {
		a.Balance = dec("30")
		a.PendingSweep = dec("30")
		a.SweepStatus = domain.SweepSubmitting
	})

	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("0"), nil)

	f.worker.RunCycle(context.Background())

	acct := f.store.account("t1")
	assertDec(t, "30", acct.Balance)
	assertDec(t, "0", acct.PendingSweep)
	assert.Equal(t, domain.SweepIdle, acct.SweepStatus)

	forwards := entriesOfKind(f.store.entries(), domain.EntryKindForwardToCustody)
	require.Len(t, forwards, 1)
	assertDec(t, "30", forwards[0].Amount)
	assert.Equal(t, domain.EntryStatusConfirmed, forwards[0].Status)
}

func TestReconcile_SubmittingUnknownIsNeverResubmitted(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")
	f.store.update("t1", func(a *domain.Account) {
		a.Balance = dec("30")
		a.PendingSweep = dec("30")
		a.SweepStatus = domain.SweepSubmitting
	})

	// a new 5 arrived on top of the unswept 30
	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("35"), nil)

	f.worker.RunCycle(context.Background())

	acct := f.store.account("t1")
	assertDec(t, "35", acct.Balance)
	assertDec(t, "35", acct.PendingSweep)
	assert.Equal(t, domain.SweepSubmitting, acct.SweepStatus)
}

func TestReconcile_TransferFailureLeavesSubmitting(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")

	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("20"), nil)
	f.encSvc.EXPECT().Decrypt("sealed-t1").Return("key", nil)
	f.chain.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("insufficient gas"))

	f.worker.RunCycle(context.Background())

	acct := f.store.account("t1")
	assertDec(t, "20", acct.Balance, "deposit stays credited")
	assertDec(t, "20", acct.PendingSweep)
	assert.Equal(t, domain.SweepSubmitting, acct.SweepStatus)
	assert.Empty(t, entriesOfKind(f.store.entries(), domain.EntryKindForwardToCustody))
}

func TestReconcile_DustIgnored(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")

	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("0.000001"), nil)

	f.worker.RunCycle(context.Background())

	acct := f.store.account("t1")
	assertDec(t, "0", acct.Balance)
	assert.Empty(t, f.store.entries())
}

func TestReconcile_WalletFailureDoesNotStopCycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	f := setupReconcile(t, metrics)
	f.seedWallet("a1")
	f.seedWallet("b1")

	metrics.EXPECT().ObserveCredit(domain.EntryKindDeposit, gomock.Any())
	metrics.EXPECT().ObserveCycle(gomock.Any(), 2, 1)

	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xa1").Return(dec("0"), errors.New("rpc timeout"))
	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xb1").Return(dec("5"), nil)
	f.encSvc.EXPECT().Decrypt("sealed-b1").Return("key", nil)
	f.chain.EXPECT().Transfer(gomock.Any(), "0xb1", "0xplatform", gomock.Any(), "key").Return("0xsweepb", nil)

	f.worker.RunCycle(context.Background())

	assertDec(t, "0", f.store.account("a1").Balance)
	assertDec(t, "5", f.store.account("b1").Balance)
}

func TestReconcile_LeaseHeldSkipsCycle(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")

	_, ok, err := f.locker.TryLock(context.Background(), reconcileLeaseKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// no chain expectations: any call fails the test
	f.worker.RunCycle(context.Background())
	assert.Empty(t, f.store.entries())
}

func TestReconcile_RenewsLeaseBetweenWallets(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")
	f.seedWallet("t2")
	f.seedWallet("t3")

	for _, addr := range []string{"0xt1", "0xt2", "0xt3"} {
		f.chain.EXPECT().GetTokenBalance(gomock.Any(), addr).Return(decimal.Zero, nil)
	}

	f.worker.RunCycle(context.Background())
	assert.Equal(t, 2, f.locker.extendCount())
	assert.Empty(t, f.locker.held, "lease released")
}

func TestReconcile_LostLeaseEndsCycle(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")
	f.seedWallet("t2")

	// the lease expires while t1 is in flight and another replica takes it
	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").DoAndReturn(
		func(context.Context, string) (decimal.Decimal, error) {
			f.locker.steal(reconcileLeaseKey)
			return decimal.Zero, nil
		})

	// no expectation for 0xt2: reconciling it fails the test
	f.worker.RunCycle(context.Background())

	assert.Equal(t, 1, f.locker.extendCount())
	assert.Equal(t, "other-replica", f.locker.held[reconcileLeaseKey], "foreign lease left alone")
}

func TestReconcile_SettlesWithdrawals(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")

	tx, err := f.store.Begin(context.Background())
	require.NoError(t, err)
	ok := domain.NewEntry("t1", "USDT", domain.EntryKindWithdraw, dec("10"), domain.EntryStatusPending).WithTxHash("0xw1")
	bad := domain.NewEntry("t1", "USDT", domain.EntryKindWithdraw, dec("4"), domain.EntryStatusPending).WithTxHash("0xw2")
	waiting := domain.NewEntry("t1", "USDT", domain.EntryKindWithdraw, dec("1"), domain.EntryStatusPending).WithTxHash("0xw3")
	for _, e := range []*domain.LedgerEntry{ok, bad, waiting} {
		require.NoError(t, memLedgerRepo{f.store}.Append(context.Background(), tx, e))
	}
	require.NoError(t, tx.Commit(context.Background()))

	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("0"), nil)
	f.chain.EXPECT().GetTransferEvent(gomock.Any(), "0xw1").Return(&domain.ChainTransfer{TxHash: "0xw1"}, nil)
	f.chain.EXPECT().GetTransferEvent(gomock.Any(), "0xw2").Return(nil, domain.ErrTransferReverted)
	f.chain.EXPECT().GetTransferEvent(gomock.Any(), "0xw3").Return(nil, nil)

	f.worker.RunCycle(context.Background())

	status := map[string]domain.EntryStatus{}
	for _, e := range entriesOfKind(f.store.entries(), domain.EntryKindWithdraw) {
		status[*e.TxHash] = e.Status
	}
	assert.Equal(t, domain.EntryStatusConfirmed, status["0xw1"])
	assert.Equal(t, domain.EntryStatusFailed, status["0xw2"])
	assert.Equal(t, domain.EntryStatusPending, status["0xw3"])
	assert.ElementsMatch(t, []domain.EventType{domain.EventEntryConfirmed, domain.EventEntryFailed}, f.publisher.types())
}

func TestReconcile_ReconcileAddress(t *testing.T) {
	f := setupReconcile(t, nil)
	f.seedWallet("t1")
	f.seedWallet("t2")

	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt2").Return(dec("0"), nil)

	require.NoError(t, f.worker.ReconcileAddress(context.Background(), "0XT2"))
	require.NoError(t, f.worker.ReconcileAddress(context.Background(), "0xunknown"))
}

func TestReconcile_StartStop(t *testing.T) {
	f := setupReconcile(t, nil)

	f.worker.Start(context.Background())
	f.worker.Trigger("0xnobody")

	done := make(chan struct{})
	go func() {
		f.worker.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	// Stop is idempotent
	f.worker.Stop()
}

func TestReconcile_StopWithoutStart(t *testing.T) {
	f := setupReconcile(t, nil)
	f.worker.Stop()
}

func seedForward(t *testing.T, f *reconcileFixture, traderID, amount, txHash string) {
	t.Helper()
	f.store.update(traderID, func(a *domain.Account) {
		h := txHash
		a.Balance = dec(amount)
		a.PendingSweep = dec(amount)
		a.SweepStatus = domain.SweepSubmitted
		a.SweepTxHash = &h
	})
	tx, err := f.store.Begin(context.Background())
	require.NoError(t, err)
	entry := domain.NewEntry(traderID, "USDT", domain.EntryKindForwardToCustody, dec(amount), domain.EntryStatusPending).
		WithTxHash(txHash)
	require.NoError(t, memLedgerRepo{f.store}.Append(context.Background(), tx, entry))
	require.NoError(t, tx.Commit(context.Background()))
}
