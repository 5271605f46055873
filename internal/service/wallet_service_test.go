package service

import (
	"context"
	"errors"
	"testing"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type walletFixture struct {
	svc     *WalletServiceImpl
	store   *memStore
	indices *mocks.MockWalletIndexRepository
	keys    *mocks.MockKeyGenerator
	encSvc  *mocks.MockEncryptionService
	chain   *mocks.MockChainGateway
	watcher *mocks.MockAddressWatcher
}

func setupWallet(t *testing.T) *walletFixture {
	ctrl := gomock.NewController(t)
	f := &walletFixture{
		store:   newMemStore(),
		indices: mocks.NewMockWalletIndexRepository(ctrl),
		keys:    mocks.NewMockKeyGenerator(ctrl),
		encSvc:  mocks.NewMockEncryptionService(ctrl),
		chain:   mocks.NewMockChainGateway(ctrl),
		watcher: mocks.NewMockAddressWatcher(ctrl),
	}
	f.svc = NewWalletService(memAccountRepo{f.store}, f.indices, f.keys, f.encSvc, f.chain, f.watcher,
		f.store, "USDT", newTestLogger())
	return f
}

func TestWallet_CreateWallet(t *testing.T) {
	f := setupWallet(t)

	f.keys.EXPECT().Generate().Return(&domain.KeyPair{Address: "0xabc", Secret: "deadbeef"}, nil)
	f.encSvc.EXPECT().Encrypt("deadbeef").Return("v1:sealed", nil)
	f.indices.EXPECT().Next(gomock.Any(), gomock.Any(), "t1").Return(int64(0), nil)
	f.watcher.EXPECT().Watch("0xabc")

	acct, created, err := f.svc.CreateWallet(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "0xabc", acct.Address)
	assert.Equal(t, domain.SweepIdle, acct.SweepStatus)

	stored := f.store.account("t1")
	require.NotNil(t, stored)
	assert.Equal(t, "v1:sealed", stored.SecretEnc)
	assertDec(t, "0", stored.Balance)
}

func TestWallet_CreateWallet_Idempotent(t *testing.T) {
	f := setupWallet(t)
	f.store.seed("t1", "5", "0")

	acct, created, err := f.svc.CreateWallet(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "0xt1", acct.Address)
	assertDec(t, "5", acct.Balance)
}

func TestWallet_CreateWallet_EncryptFails(t *testing.T) {
	f := setupWallet(t)

	f.keys.EXPECT().Generate().Return(&domain.KeyPair{Address: "0xabc", Secret: "deadbeef"}, nil)
	f.encSvc.EXPECT().Encrypt(gomock.Any()).Return("", errors.New("bad key"))

	_, _, err := f.svc.CreateWallet(context.Background(), "t1")
	requireCode(t, err, "SYS_003")
	assert.Nil(t, f.store.account("t1"))
}

func TestWallet_CreateWallet_IndexFailureRollsBack(t *testing.T) {
	f := setupWallet(t)

	f.keys.EXPECT().Generate().Return(&domain.KeyPair{Address: "0xabc", Secret: "deadbeef"}, nil)
	f.encSvc.EXPECT().Encrypt(gomock.Any()).Return("v1:sealed", nil)
	f.indices.EXPECT().Next(gomock.Any(), gomock.Any(), "t1").Return(int64(0), errors.New("db down"))

	_, _, err := f.svc.CreateWallet(context.Background(), "t1")
	requireCode(t, err, "SYS_001")
	assert.Nil(t, f.store.account("t1"))
}

func TestWallet_CreateWallet_RequiresTrader(t *testing.T) {
	f := setupWallet(t)

	_, _, err := f.svc.CreateWallet(context.Background(), "")
	requireCode(t, err, "VAL_001")
}

func TestWallet_GetAccount(t *testing.T) {
	f := setupWallet(t)
	f.store.seed("t1", "7", "3")

	acct, err := f.svc.GetAccount(context.Background(), "t1")
	require.NoError(t, err)
	assertDec(t, "7", acct.Balance)
	assertDec(t, "3", acct.Frozen)

	_, err = f.svc.GetAccount(context.Background(), "ghost")
	requireCode(t, err, "LED_002")
}

func TestWallet_GetOnchainBalance(t *testing.T) {
	f := setupWallet(t)
	f.store.seed("t1", "0", "0")

	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("12.5"), nil)

	bal, addr, err := f.svc.GetOnchainBalance(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "0xt1", addr)
	assertDec(t, "12.5", bal)
}

func TestWallet_GetOnchainBalance_ChainError(t *testing.T) {
	f := setupWallet(t)
	f.store.seed("t1", "0", "0")

	f.chain.EXPECT().GetTokenBalance(gomock.Any(), "0xt1").Return(dec("0"), errors.New("rpc timeout"))

	_, _, err := f.svc.GetOnchainBalance(context.Background(), "t1")
	requireCode(t, err, "CHN_001")
}
