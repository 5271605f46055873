package service

import (
	"context"
	"fmt"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	accounts   ports.AccountRepository
	indices    ports.WalletIndexRepository
	keys       ports.KeyGenerator
	encSvc     ports.EncryptionService
	chain      ports.ChainGateway
	watcher    ports.AddressWatcher
	transactor ports.DBTransactor
	currency   string
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl. watcher may be nil.
func NewWalletService(
	accounts ports.AccountRepository,
	indices ports.WalletIndexRepository,
	keys ports.KeyGenerator,
	encSvc ports.EncryptionService,
	chain ports.ChainGateway,
	watcher ports.AddressWatcher,
	transactor ports.DBTransactor,
	currency string,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		accounts:   accounts,
		indices:    indices,
		keys:       keys,
		encSvc:     encSvc,
		chain:      chain,
		watcher:    watcher,
		transactor: transactor,
		currency:   currency,
		log:        log,
	}
}

// CreateWallet provisions the trader's account with a fresh chain key.
// An existing account is returned unchanged with created=false.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, traderID string) (*domain.Account, bool, error) {
	if traderID == "" {
		return nil, false, apperror.Validation("traderId is required")
	}

	existing, err := s.accounts.GetByTrader(ctx, traderID, s.currency)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if existing != nil {
		return existing, false, nil
	}

	pair, err := s.keys.Generate()
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("generate key: %w", err))
	}
	sealed, err := s.encSvc.Encrypt(pair.Secret)
	if err != nil {
		return nil, false, apperror.ErrEncryptionFailure(err)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Next locks the trader's counter row, so concurrent creates queue here
	// and the loser sees the winner's account below.
	idx, err := s.indices.Next(ctx, dbTx, traderID)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("next wallet index: %w", err))
	}
	existing, err = s.accounts.GetByTraderForUpdate(ctx, dbTx, traderID, s.currency)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("recheck account: %w", err))
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uuid.New(),
		TraderID:     traderID,
		Currency:     s.currency,
		Address:      pair.Address,
		Balance:      decimal.Zero,
		Frozen:       decimal.Zero,
		SecretEnc:    sealed,
		HDIndex:      idx,
		PendingSweep: decimal.Zero,
		SweepStatus:  domain.SweepIdle,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, dbTx, account); err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("commit: %w", err))
	}

	if s.watcher != nil {
		s.watcher.Watch(account.Address)
	}

	s.log.Info().
		Str("trader_id", traderID).
		Str("address", account.Address).
		Int64("hd_index", idx).
		Msg("wallet created")

	return account, true, nil
}

// GetAccount returns the trader's account or LED_002.
func (s *WalletServiceImpl) GetAccount(ctx context.Context, traderID string) (*domain.Account, error) {
	account, err := s.accounts.GetByTrader(ctx, traderID, s.currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}
	return account, nil
}

// GetOnchainBalance reads the token balance held on the trader's address.
func (s *WalletServiceImpl) GetOnchainBalance(ctx context.Context, traderID string) (decimal.Decimal, string, error) {
	account, err := s.GetAccount(ctx, traderID)
	if err != nil {
		return decimal.Zero, "", err
	}
	balance, err := s.chain.GetTokenBalance(ctx, account.Address)
	if err != nil {
		return decimal.Zero, account.Address, apperror.ErrChainQuery(err)
	}
	return balance, account.Address, nil
}
