package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	opFreeze           = "freeze"
	opRelease          = "release"
	opWithdraw         = "withdraw"
	opDeposit          = "deposit"
	opOffchainWithdraw = "offchain_withdraw"

	withdrawLockPrefix = "withdraw:"
)

// SettlementConfig holds the tunables of the settlement engine.
type SettlementConfig struct {
	Currency             string
	CustodyTraderID      string
	DefaultRewardPercent decimal.Decimal
	DefaultPlatformFee   decimal.Decimal
	WithdrawLockTTL      time.Duration
	DepositCacheTTL      time.Duration
}

// SettlementDeps are the collaborators of the settlement engine.
type SettlementDeps struct {
	Accounts     ports.AccountRepository
	Ledger       ports.LedgerRepository
	Policy       ports.WithdrawalPolicy
	Chain        ports.ChainGateway
	Encryption   ports.EncryptionService
	DepositCache ports.DepositCache
	Locker       ports.Locker
	Publisher    ports.EventPublisher
	Metrics      ports.Metrics
	Transactor   ports.DBTransactor
}

// SettlementServiceImpl implements ports.SettlementService.
type SettlementServiceImpl struct {
	accounts   ports.AccountRepository
	ledger     ports.LedgerRepository
	policy     ports.WithdrawalPolicy
	chain      ports.ChainGateway
	encSvc     ports.EncryptionService
	cache      ports.DepositCache
	locker     ports.Locker
	publisher  ports.EventPublisher
	metrics    ports.Metrics
	transactor ports.DBTransactor
	cfg        SettlementConfig
	log        zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(deps SettlementDeps, cfg SettlementConfig, log zerolog.Logger) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		accounts:   deps.Accounts,
		ledger:     deps.Ledger,
		policy:     deps.Policy,
		chain:      deps.Chain,
		encSvc:     deps.Encryption,
		cache:      deps.DepositCache,
		locker:     deps.Locker,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		transactor: deps.Transactor,
		cfg:        cfg,
		log:        log,
	}
}

// Freeze moves amount from the trader's balance into frozen under orderID.
func (s *SettlementServiceImpl) Freeze(ctx context.Context, req ports.FreezeRequest) (res *ports.LedgerResult, err error) {
	defer s.observe(opFreeze, &err)

	amount := domain.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount("amount")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Order row before account rows, the same order Release locks in.
	existing, err := s.ledger.FindLatestByOrderAndKindForUpdate(ctx, dbTx, req.OrderID, domain.EntryKindFreeze)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find freeze: %w", err))
	}
	if existing != nil && existing.IsPending() {
		return nil, apperror.ErrOrderState(req.OrderID, "order already frozen")
	}

	acct, err := s.accounts.GetByTraderForUpdate(ctx, dbTx, req.TraderID, s.cfg.Currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if acct == nil {
		return nil, apperror.ErrNotFound("account")
	}

	if !acct.CanCover(amount) {
		return nil, apperror.ErrInsufficientFunds(req.TraderID, acct.Balance.String(), amount.String())
	}

	updated, err := s.accounts.ApplyDelta(ctx, dbTx, acct.ID, amount.Neg(), amount)
	if err != nil {
		return nil, s.deltaError(err, acct, amount)
	}

	entry := domain.NewEntry(req.TraderID, s.cfg.Currency, domain.EntryKindFreeze, amount, domain.EntryStatusPending).
		WithOrder(req.OrderID)
	if err := s.ledger.Append(ctx, dbTx, entry); err != nil {
		if errors.Is(err, domain.ErrOrderFrozen) {
			return nil, apperror.ErrOrderState(req.OrderID, "order already frozen")
		}
		return nil, apperror.InternalError(fmt.Errorf("append freeze: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("trader_id", req.TraderID).
		Str("order_id", req.OrderID).
		Str("amount", amount.String()).
		Msg("funds frozen")

	ev := domain.NewLedgerEvent(domain.EventFreeze, req.TraderID, s.cfg.Currency, amount)
	ev.OrderID = req.OrderID
	s.publish(ctx, ev)

	return &ports.LedgerResult{Account: updated, Entry: entry}, nil
}

type accountDelta struct {
	balance decimal.Decimal
	frozen  decimal.Decimal
}

func (d *accountDelta) isZero() bool {
	return d.balance.IsZero() && d.frozen.IsZero()
}

// Release settles a frozen order across trader, merchant, platform and team
// leads in one unit of work.
func (s *SettlementServiceImpl) Release(ctx context.Context, req ports.ReleaseRequest) (res *ports.ReleaseResult, err error) {
	defer s.observe(opRelease, &err)

	rewardPct := s.cfg.DefaultRewardPercent
	if req.RewardPercent != nil {
		rewardPct = *req.RewardPercent
	}
	feePct := s.cfg.DefaultPlatformFee
	if req.PlatformFee != nil {
		feePct = *req.PlatformFee
	}
	if err := validateRates(rewardPct, feePct, req.CommissionUsers); err != nil {
		return nil, err
	}
	if req.MerchantID == "" {
		return nil, apperror.Validation("merchantId is required")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	freeze, err := s.ledger.FindLatestByOrderAndKindForUpdate(ctx, dbTx, req.OrderID, domain.EntryKindFreeze)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find freeze: %w", err))
	}
	if freeze == nil || freeze.TraderID != req.TraderID {
		return nil, apperror.ErrNotFound("freeze entry")
	}
	if !freeze.IsPending() {
		return nil, apperror.ErrOrderState(req.OrderID, "order already released")
	}

	split, err := domain.SplitRelease(freeze.Amount, rewardPct, feePct, req.CommissionUsers)
	if err != nil {
		return nil, rateError(err)
	}

	currency := freeze.Currency
	traderKey := domain.AccountKey{TraderID: req.TraderID, Currency: currency}
	merchantKey := domain.AccountKey{TraderID: req.MerchantID, Currency: currency}
	platformKey := domain.AccountKey{TraderID: s.cfg.CustodyTraderID, Currency: currency}

	keys := []domain.AccountKey{traderKey, merchantKey, platformKey}
	for _, c := range split.Commissions {
		keys = append(keys, domain.AccountKey{TraderID: c.UserID, Currency: currency})
	}

	locked := make(map[domain.AccountKey]*domain.Account, len(keys))
	for _, k := range domain.LockOrder(keys...) {
		acct, err := s.accounts.GetByTraderForUpdate(ctx, dbTx, k.TraderID, k.Currency)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock account %s: %w", k.TraderID, err))
		}
		if acct != nil {
			locked[k] = acct
		}
	}

	if locked[traderKey] == nil {
		return nil, apperror.ErrNotFound("trader account")
	}
	if locked[merchantKey] == nil {
		return nil, apperror.ErrNotFound("merchant account")
	}
	if locked[platformKey] == nil {
		return nil, apperror.ErrNotFound("platform account")
	}

	for _, c := range append([]domain.CommissionShare(nil), split.Commissions...) {
		if locked[domain.AccountKey{TraderID: c.UserID, Currency: currency}] != nil {
			continue
		}
		if split.DropCommission(c.UserID, domain.SkipWalletMissing) {
			s.log.Warn().
				Str("order_id", req.OrderID).
				Str("team_lead_id", c.UserID).
				Msg("team lead wallet not found, commission kept by platform")
		}
	}

	if !split.Conserved() {
		return nil, apperror.InternalError(fmt.Errorf("release split for order %s does not balance", req.OrderID))
	}

	trader := locked[traderKey]
	deltas := make(map[domain.AccountKey]*accountDelta, len(locked))
	add := func(k domain.AccountKey, balance, frozen decimal.Decimal) {
		d, ok := deltas[k]
		if !ok {
			d = &accountDelta{balance: decimal.Zero, frozen: decimal.Zero}
			deltas[k] = d
		}
		d.balance = d.balance.Add(balance)
		d.frozen = d.frozen.Add(frozen)
	}
	add(traderKey, split.Reward, decimal.Min(split.Amount, trader.Frozen).Neg())
	add(merchantKey, split.MerchantAmount, decimal.Zero)
	add(platformKey, split.PlatformProfit, decimal.Zero)
	for _, c := range split.Commissions {
		add(domain.AccountKey{TraderID: c.UserID, Currency: currency}, c.Amount, decimal.Zero)
	}

	touched := make([]domain.AccountKey, 0, len(deltas))
	for k := range deltas {
		touched = append(touched, k)
	}
	touched = domain.LockOrder(touched...)

	for _, k := range touched {
		acct, d := locked[k], deltas[k]
		if acct.Balance.Add(d.balance).IsNegative() {
			return nil, apperror.ErrInsufficientFunds(k.TraderID, acct.Balance.String(), d.balance.Neg().String())
		}
	}

	updated := make(map[domain.AccountKey]*domain.Account, len(touched))
	for _, k := range touched {
		acct, d := locked[k], deltas[k]
		if d.isZero() {
			continue
		}
		u, err := s.accounts.ApplyDelta(ctx, dbTx, acct.ID, d.balance, d.frozen)
		if err != nil {
			return nil, s.deltaError(err, acct, d.balance.Neg())
		}
		updated[k] = u
	}

	entries := []*domain.LedgerEntry{
		domain.NewEntry(req.TraderID, currency, domain.EntryKindRelease, split.Amount, domain.EntryStatusConfirmed).
			WithOrder(req.OrderID),
	}
	journal := func(traderID string, kind domain.EntryKind, amount decimal.Decimal) {
		if amount.IsZero() {
			return
		}
		entries = append(entries,
			domain.NewEntry(traderID, currency, kind, amount, domain.EntryStatusConfirmed).WithOrder(req.OrderID))
	}
	journal(req.TraderID, domain.EntryKindReward, split.Reward)
	for _, c := range split.Commissions {
		journal(c.UserID, domain.EntryKindTeamLeadCommission, c.Amount)
	}
	journal(req.MerchantID, domain.EntryKindMerchantIncome, split.MerchantAmount)
	journal(s.cfg.CustodyTraderID, domain.EntryKindPlatformProfit, split.PlatformProfit)

	for _, e := range entries {
		if err := s.ledger.Append(ctx, dbTx, e); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("append %s: %w", e.Kind, err))
		}
	}

	if err := s.ledger.UpdateStatus(ctx, dbTx, freeze.ID, domain.EntryStatusConfirmed); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, apperror.ErrOrderState(req.OrderID, "order already released")
		}
		return nil, apperror.InternalError(fmt.Errorf("confirm freeze: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	for _, sk := range split.Skipped {
		s.log.Warn().
			Str("order_id", req.OrderID).
			Str("team_lead_id", sk.UserID).
			Str("amount", sk.Amount.String()).
			Str("reason", string(sk.Reason)).
			Msg("commission skipped")
	}
	s.log.Info().
		Str("trader_id", req.TraderID).
		Str("order_id", req.OrderID).
		Str("merchant_id", req.MerchantID).
		Str("amount", split.Amount.String()).
		Str("platform_profit", split.PlatformProfit.String()).
		Int("commissions", len(split.Commissions)).
		Msg("order released")

	ev := domain.NewLedgerEvent(domain.EventRelease, req.TraderID, currency, split.Amount)
	ev.OrderID = req.OrderID
	ev.Release = split
	s.publish(ctx, ev)
	s.metrics.ObserveCredit(domain.EntryKindReward, split.Reward)
	s.metrics.ObserveCredit(domain.EntryKindTeamLeadCommission, split.TotalCommissions)

	traderAcct := updated[traderKey]
	if traderAcct == nil {
		traderAcct = trader
	}

	return &ports.ReleaseResult{
		Split:              split,
		Distribution:       split.Distribution(),
		CommissionsSkipped: len(split.Skipped),
		Trader:             traderAcct,
	}, nil
}

// Withdraw sends amount on chain from the custody wallet, then debits amount
// plus the rule's fee. The transfer happens before the debit; a ledger
// failure after a successful transfer needs manual reconciliation.
func (s *SettlementServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (res *ports.WithdrawResult, err error) {
	defer s.observe(opWithdraw, &err)

	amount := domain.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount("amount")
	}
	if !s.chain.IsValidAddress(req.ToAddress) {
		return nil, apperror.ErrInvalidAddress(req.ToAddress)
	}

	lockKey := withdrawLockPrefix + req.TraderID
	token, ok, err := s.locker.TryLock(ctx, lockKey, s.cfg.WithdrawLockTTL)
	if err != nil {
		return nil, apperror.ErrLockTimeout(fmt.Errorf("withdraw lock: %w", err))
	}
	if !ok {
		return nil, apperror.ErrLockTimeout(fmt.Errorf("withdrawal already in progress for %s", req.TraderID))
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.log.Warn().Err(err).Str("trader_id", req.TraderID).Msg("failed to release withdraw lock")
		}
	}()

	acct, err := s.accounts.GetByTrader(ctx, req.TraderID, s.cfg.Currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if acct == nil {
		return nil, apperror.ErrNotFound("account")
	}

	decision, err := s.policy.Evaluate(ctx, req.TraderID, amount)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		switch decision.Reason {
		case domain.PolicyBelowMinimum:
			return nil, apperror.ErrBelowMinimum(decision.MinAmount.String())
		default:
			return nil, apperror.ErrCooldownActive(decision.WaitSeconds)
		}
	}

	fee := domain.RoundMoney(decision.Fee)
	total := amount.Add(fee)
	if !acct.CanCover(total) {
		return nil, apperror.ErrInsufficientFunds(req.TraderID, acct.Balance.String(), total.String())
	}

	custody, err := s.accounts.GetByTrader(ctx, s.cfg.CustodyTraderID, s.cfg.Currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get custody account: %w", err))
	}
	if custody == nil {
		return nil, apperror.ErrNotFound("custody account")
	}
	secret, err := s.encSvc.Decrypt(custody.SecretEnc)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("unseal custody key: %w", err))
	}

	txHash, err := s.chain.Transfer(ctx, custody.Address, req.ToAddress, amount, secret)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAddress) {
			return nil, apperror.ErrInvalidAddress(req.ToAddress)
		}
		return nil, apperror.ErrTransferFailed(err)
	}

	// The chain transfer is final from here on.
	result, err := s.recordWithdraw(context.WithoutCancel(ctx), req.TraderID, amount, fee, txHash)
	if err != nil {
		s.log.Error().Err(err).
			Str("trader_id", req.TraderID).
			Str("tx_hash", txHash).
			Str("amount", amount.String()).
			Str("fee", fee.String()).
			Msg("withdraw transferred on chain but ledger debit failed; manual reconciliation required")
		return nil, apperror.ErrManualReconciliation(txHash, err)
	}

	s.log.Info().
		Str("trader_id", req.TraderID).
		Str("to", req.ToAddress).
		Str("amount", amount.String()).
		Str("fee", fee.String()).
		Str("tx_hash", txHash).
		Msg("withdrawal submitted")

	ev := domain.NewLedgerEvent(domain.EventWithdraw, req.TraderID, s.cfg.Currency, amount)
	ev.TxHash = txHash
	s.publish(ctx, ev)

	return &ports.WithdrawResult{
		LedgerResult: *result,
		TxHash:       txHash,
		Fee:          fee,
		TotalDebit:   total,
	}, nil
}

func (s *SettlementServiceImpl) recordWithdraw(ctx context.Context, traderID string, amount, fee decimal.Decimal, txHash string) (*ports.LedgerResult, error) {
	total := amount.Add(fee)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	acct, err := s.accounts.GetByTraderForUpdate(ctx, dbTx, traderID, s.cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if acct == nil {
		return nil, errors.New("account disappeared")
	}
	if !acct.CanCover(total) {
		return nil, fmt.Errorf("balance %s no longer covers %s", acct.Balance, total)
	}

	updated, err := s.accounts.ApplyDelta(ctx, dbTx, acct.ID, total.Neg(), decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("debit: %w", err)
	}

	entry := domain.NewEntry(traderID, s.cfg.Currency, domain.EntryKindWithdraw, amount, domain.EntryStatusPending).
		WithTxHash(txHash)
	if err := s.ledger.Append(ctx, dbTx, entry); err != nil {
		return nil, fmt.Errorf("append withdraw: %w", err)
	}
	if fee.IsPositive() {
		feeEntry := domain.NewEntry(traderID, s.cfg.Currency, domain.EntryKindPlatformFee, fee, domain.EntryStatusConfirmed)
		if err := s.ledger.Append(ctx, dbTx, feeEntry); err != nil {
			return nil, fmt.Errorf("append fee: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &ports.LedgerResult{Account: updated, Entry: entry}, nil
}

// Deposit credits an on-chain deposit once per tx hash. A repeated hash is
// reported as Duplicate, not as an error.
func (s *SettlementServiceImpl) Deposit(ctx context.Context, req ports.DepositRequest) (res *ports.DepositResult, err error) {
	defer s.observe(opDeposit, &err)

	amount := domain.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount("amount")
	}
	if req.TxHash == "" {
		return nil, apperror.Validation("txHash is required")
	}

	seen, err := s.cache.Seen(ctx, req.TxHash)
	if err != nil {
		s.log.Warn().Err(err).Str("tx_hash", req.TxHash).Msg("redis deposit check failed, falling through to DB")
	}
	if seen {
		return s.duplicateDeposit(ctx, req.TraderID, req.TxHash)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	acct, err := s.accounts.GetByTraderForUpdate(ctx, dbTx, req.TraderID, s.cfg.Currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if acct == nil {
		return nil, apperror.ErrNotFound("account")
	}

	entry := domain.NewEntry(req.TraderID, s.cfg.Currency, domain.EntryKindDeposit, amount, domain.EntryStatusConfirmed).
		WithTxHash(req.TxHash)
	if err := s.ledger.Append(ctx, dbTx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateTxHash) {
			_ = dbTx.Rollback(ctx)
			s.markDeposit(ctx, req.TxHash)
			return s.duplicateDeposit(ctx, req.TraderID, req.TxHash)
		}
		return nil, apperror.InternalError(fmt.Errorf("append deposit: %w", err))
	}

	updated, err := s.accounts.ApplyDelta(ctx, dbTx, acct.ID, amount, decimal.Zero)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit deposit: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.markDeposit(ctx, req.TxHash)

	s.log.Info().
		Str("trader_id", req.TraderID).
		Str("amount", amount.String()).
		Str("tx_hash", req.TxHash).
		Msg("deposit credited")

	ev := domain.NewLedgerEvent(domain.EventDeposit, req.TraderID, s.cfg.Currency, amount)
	ev.TxHash = req.TxHash
	s.publish(ctx, ev)
	s.metrics.ObserveCredit(domain.EntryKindDeposit, amount)

	return &ports.DepositResult{LedgerResult: ports.LedgerResult{Account: updated, Entry: entry}}, nil
}

// duplicateDeposit answers a replayed deposit. Only a replay by the same
// trader of an existing deposit counts as success.
func (s *SettlementServiceImpl) duplicateDeposit(ctx context.Context, traderID, txHash string) (*ports.DepositResult, error) {
	entry, err := s.ledger.FindByTxHash(ctx, txHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find deposit: %w", err))
	}
	if entry != nil && (entry.TraderID != traderID || entry.Kind != domain.EntryKindDeposit) {
		s.log.Warn().
			Str("trader_id", traderID).
			Str("owner_id", entry.TraderID).
			Str("kind", string(entry.Kind)).
			Str("tx_hash", txHash).
			Msg("deposit tx hash already used by another entry")
		return nil, apperror.ErrDuplicateEntry(txHash)
	}

	s.log.Info().Str("trader_id", traderID).Str("tx_hash", txHash).Msg("deposit already recorded")
	acct, err := s.accounts.GetByTrader(ctx, traderID, s.cfg.Currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	return &ports.DepositResult{
		LedgerResult: ports.LedgerResult{Account: acct, Entry: entry},
		Duplicate:    true,
	}, nil
}

func (s *SettlementServiceImpl) markDeposit(ctx context.Context, txHash string) {
	if err := s.cache.Mark(ctx, txHash, s.cfg.DepositCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("tx_hash", txHash).Msg("failed to cache deposit in redis")
	}
}

// OffchainWithdraw debits a withdrawal settled outside the chain.
func (s *SettlementServiceImpl) OffchainWithdraw(ctx context.Context, req ports.OffchainWithdrawRequest) (res *ports.LedgerResult, err error) {
	defer s.observe(opOffchainWithdraw, &err)

	amount := domain.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount("amount")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	acct, err := s.accounts.GetByTraderForUpdate(ctx, dbTx, req.TraderID, s.cfg.Currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if acct == nil {
		return nil, apperror.ErrNotFound("account")
	}
	if !acct.CanCover(amount) {
		return nil, apperror.ErrInsufficientFunds(req.TraderID, acct.Balance.String(), amount.String())
	}

	entry := domain.NewEntry(req.TraderID, s.cfg.Currency, domain.EntryKindOffchainWithdraw, amount, domain.EntryStatusConfirmed).
		WithTxHash(req.TxHash)
	if err := s.ledger.Append(ctx, dbTx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateTxHash) {
			return nil, apperror.ErrDuplicateEntry(req.TxHash)
		}
		return nil, apperror.InternalError(fmt.Errorf("append offchain withdraw: %w", err))
	}

	updated, err := s.accounts.ApplyDelta(ctx, dbTx, acct.ID, amount.Neg(), decimal.Zero)
	if err != nil {
		return nil, s.deltaError(err, acct, amount)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("trader_id", req.TraderID).
		Str("amount", amount.String()).
		Str("tx_hash", req.TxHash).
		Msg("off-chain withdrawal recorded")

	ev := domain.NewLedgerEvent(domain.EventOffchainWithdraw, req.TraderID, s.cfg.Currency, amount)
	ev.TxHash = req.TxHash
	s.publish(ctx, ev)

	return &ports.LedgerResult{Account: updated, Entry: entry}, nil
}

func (s *SettlementServiceImpl) deltaError(err error, acct *domain.Account, required decimal.Decimal) error {
	if errors.Is(err, domain.ErrBalanceConstraint) {
		return apperror.ErrInsufficientFunds(acct.TraderID, acct.Balance.String(), required.String())
	}
	return apperror.InternalError(fmt.Errorf("apply delta: %w", err))
}

func (s *SettlementServiceImpl) publish(ctx context.Context, ev *domain.LedgerEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event_type", string(ev.Type)).Msg("failed to publish ledger event")
	}
}

func (s *SettlementServiceImpl) observe(op string, err *error) {
	s.metrics.ObserveOperation(op, outcome(*err))
}

// outcome is "ok" or the error code of a failed operation.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "error"
}

func validateRates(rewardPct, feePct decimal.Decimal, users []domain.CommissionRequest) error {
	if err := domain.ValidateRate("rewardPercent", rewardPct); err != nil {
		return rateError(err)
	}
	if err := domain.ValidateRate("platformFee", feePct); err != nil {
		return rateError(err)
	}
	for i, u := range users {
		if err := domain.ValidateRate(fmt.Sprintf("commissionUsers[%d].commission", i), u.Rate); err != nil {
			return rateError(err)
		}
	}
	return nil
}

func rateError(err error) error {
	var rateErr *domain.InvalidRateError
	if errors.As(err, &rateErr) {
		return apperror.ErrInvalidCommission(rateErr.Field, rateErr.Value.String())
	}
	return apperror.InternalError(err)
}
