package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	reconcileLeaseKey = "reconcile:lease"
	triggerQueueSize  = 64
)

// ReconciliationConfig holds the worker's tunables.
type ReconciliationConfig struct {
	Currency        string
	CustodyTraderID string
	Interval        time.Duration
	DustThreshold   decimal.Decimal
	LeaseTTL        time.Duration
}

// ReconciliationDeps groups the worker's collaborators.
type ReconciliationDeps struct {
	Accounts   ports.AccountRepository
	Ledger     ports.LedgerRepository
	Chain      ports.ChainGateway
	Encryption ports.EncryptionService
	Locker     ports.Locker
	Publisher  ports.EventPublisher
	Metrics    ports.Metrics
	Transactor ports.DBTransactor
}

// ReconciliationWorker credits on-chain deposits to managed wallets, sweeps
// them to the custody address and settles pending withdrawals.
//
// Each wallet carries a sweep status. Value credited but not yet swept is held
// in pending_sweep, so repeated cycles over the same on-chain balance credit it
// once.
type ReconciliationWorker struct {
	accounts   ports.AccountRepository
	ledger     ports.LedgerRepository
	chain      ports.ChainGateway
	encSvc     ports.EncryptionService
	locker     ports.Locker
	publisher  ports.EventPublisher
	metrics    ports.Metrics
	transactor ports.DBTransactor
	cfg        ReconciliationConfig
	log        zerolog.Logger

	trigger  chan string
	stopCh   chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewReconciliationWorker creates a stopped worker.
func NewReconciliationWorker(deps ReconciliationDeps, cfg ReconciliationConfig, log zerolog.Logger) *ReconciliationWorker {
	return &ReconciliationWorker{
		accounts:   deps.Accounts,
		ledger:     deps.Ledger,
		chain:      deps.Chain,
		encSvc:     deps.Encryption,
		locker:     deps.Locker,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		transactor: deps.Transactor,
		cfg:        cfg,
		log:        logger.Component(log, "reconciliation"),
		trigger:    make(chan string, triggerQueueSize),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs a cycle immediately and then every Interval until Stop is called
// or ctx is cancelled.
func (w *ReconciliationWorker) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

// Stop signals the loop and waits for the wallet in flight to finish.
func (w *ReconciliationWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	if w.started.Load() {
		<-w.done
	}
}

// Trigger asks for one address to be reconciled now. It never blocks; a full
// queue drops the request and the next cycle picks the wallet up.
func (w *ReconciliationWorker) Trigger(address string) {
	select {
	case w.trigger <- address:
	default:
		w.log.Debug().Str("address", address).Msg("trigger queue full")
	}
}

func (w *ReconciliationWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunCycle(ctx)
		case addr := <-w.trigger:
			if err := w.ReconcileAddress(ctx, addr); err != nil {
				w.log.Error().Err(err).Str("address", addr).Msg("triggered reconciliation failed")
			}
		}
	}
}

func (w *ReconciliationWorker) stopping(ctx context.Context) bool {
	select {
	case <-w.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// cycleLease is the cross-replica reconciliation lease held by this worker.
type cycleLease struct {
	w     *ReconciliationWorker
	token string
}

// lease takes the cycle lease. It returns nil when not taken.
func (w *ReconciliationWorker) lease(ctx context.Context) *cycleLease {
	token, ok, err := w.locker.TryLock(ctx, reconcileLeaseKey, w.cfg.LeaseTTL)
	if err != nil {
		w.log.Warn().Err(err).Msg("failed to take reconciliation lease, skipping")
		return nil
	}
	if !ok {
		w.log.Debug().Msg("reconciliation lease held elsewhere")
		return nil
	}
	return &cycleLease{w: w, token: token}
}

// renew extends the lease by another LeaseTTL. It reports false only when
// another holder has taken the lease; a Redis error keeps the cycle going.
func (l *cycleLease) renew(ctx context.Context) bool {
	ok, err := l.w.locker.Extend(ctx, reconcileLeaseKey, l.token, l.w.cfg.LeaseTTL)
	if err != nil {
		l.w.log.Warn().Err(err).Msg("failed to extend reconciliation lease")
		return true
	}
	return ok
}

func (l *cycleLease) release(ctx context.Context) {
	if err := l.w.locker.Unlock(context.WithoutCancel(ctx), reconcileLeaseKey, l.token); err != nil {
		l.w.log.Warn().Err(err).Msg("failed to release reconciliation lease")
	}
}

// RunCycle reconciles every managed wallet once. Failures are per wallet and
// do not stop the cycle.
func (w *ReconciliationWorker) RunCycle(ctx context.Context) {
	lease := w.lease(ctx)
	if lease == nil {
		return
	}
	defer lease.release(ctx)

	start := time.Now()
	wallets, err := w.accounts.ListManaged(ctx, w.cfg.Currency, w.cfg.CustodyTraderID)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to list wallets")
		return
	}

	processed, failures := 0, 0
	for i, wallet := range wallets {
		if w.stopping(ctx) {
			break
		}
		if i > 0 && !lease.renew(context.WithoutCancel(ctx)) {
			w.log.Warn().Int("remaining", len(wallets)-i).Msg("reconciliation lease lost, ending cycle early")
			break
		}
		processed++
		if err := w.reconcileWallet(context.WithoutCancel(ctx), wallet); err != nil {
			failures++
			w.log.Error().Err(err).
				Str("trader_id", wallet.TraderID).
				Str("address", wallet.Address).
				Msg("wallet reconciliation failed")
		}
	}

	elapsed := time.Since(start)
	w.metrics.ObserveCycle(elapsed, processed, failures)
	w.log.Debug().
		Int("wallets", processed).
		Int("failures", failures).
		Dur("elapsed", elapsed).
		Msg("reconciliation cycle finished")
}

// ReconcileAddress reconciles the managed wallet at address, if there is one.
func (w *ReconciliationWorker) ReconcileAddress(ctx context.Context, address string) error {
	lease := w.lease(ctx)
	if lease == nil {
		return nil
	}
	defer lease.release(ctx)

	wallets, err := w.accounts.ListManaged(ctx, w.cfg.Currency, w.cfg.CustodyTraderID)
	if err != nil {
		return fmt.Errorf("list wallets: %w", err)
	}
	for _, wallet := range wallets {
		if strings.EqualFold(wallet.Address, address) {
			return w.reconcileWallet(context.WithoutCancel(ctx), wallet)
		}
	}
	return nil
}

func (w *ReconciliationWorker) reconcileWallet(ctx context.Context, wallet domain.Account) error {
	account := &wallet
	var err error

	if account.SweepStatus == domain.SweepSubmitted {
		if account, err = w.settleSweep(ctx, account); err != nil {
			return fmt.Errorf("settle sweep: %w", err)
		}
	}

	onchain, err := w.chain.GetTokenBalance(ctx, account.Address)
	if err != nil {
		return fmt.Errorf("get token balance: %w", err)
	}

	if account.SweepStatus == domain.SweepSubmitting {
		if account, err = w.resolveSubmitting(ctx, account, onchain); err != nil {
			return fmt.Errorf("resolve submitting sweep: %w", err)
		}
	}

	if account, err = w.creditUncredited(ctx, account, onchain); err != nil {
		return fmt.Errorf("credit deposit: %w", err)
	}

	if account.SweepStatus == domain.SweepIdle && onchain.GreaterThan(w.cfg.DustThreshold) {
		if err := w.sweep(ctx, account, onchain); err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
	}

	if err := w.settleWithdrawals(ctx, account.TraderID); err != nil {
		return fmt.Errorf("settle withdrawals: %w", err)
	}
	return nil
}

// inTx locks the account, runs fn and returns the account as committed.
func (w *ReconciliationWorker) inTx(ctx context.Context, traderID string, fn func(dbTx pgx.Tx, locked *domain.Account) error) (*domain.Account, error) {
	dbTx, err := w.transactor.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := w.accounts.GetByTraderForUpdate(ctx, dbTx, traderID, w.cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if locked == nil {
		return nil, fmt.Errorf("account %s disappeared", traderID)
	}
	if err := fn(dbTx, locked); err != nil {
		return nil, err
	}

	updated, err := w.accounts.GetByTraderForUpdate(ctx, dbTx, traderID, w.cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("reload account: %w", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// settleSweep checks a submitted sweep on chain. A mined sweep releases its
// amount from pending_sweep; a reverted one goes back to idle so the funds are
// swept again.
func (w *ReconciliationWorker) settleSweep(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if account.SweepTxHash == nil {
		return nil, errors.New("submitted sweep without tx hash")
	}
	txHash := *account.SweepTxHash

	event, chainErr := w.chain.GetTransferEvent(ctx, txHash)
	reverted := errors.Is(chainErr, domain.ErrTransferReverted)
	if chainErr != nil && !reverted {
		return nil, fmt.Errorf("get transfer event: %w", chainErr)
	}
	if event == nil && !reverted {
		return account, nil
	}

	entry, err := w.ledger.FindByTxHash(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("find sweep entry: %w", err)
	}

	status := domain.EntryStatusConfirmed
	if reverted {
		status = domain.EntryStatusFailed
	}

	updated, err := w.inTx(ctx, account.TraderID, func(dbTx pgx.Tx, locked *domain.Account) error {
		if locked.SweepStatus != domain.SweepSubmitted || locked.SweepTxHash == nil || *locked.SweepTxHash != txHash {
			return nil
		}
		if entry != nil && entry.IsPending() {
			if err := w.ledger.UpdateStatus(ctx, dbTx, entry.ID, status); err != nil {
				return fmt.Errorf("update sweep entry: %w", err)
			}
		}

		release := decimal.Zero
		if !reverted {
			swept := event.Amount
			if entry != nil {
				swept = entry.Amount
			}
			release = decimal.Min(swept, locked.PendingSweep).Neg()
		}
		return w.accounts.UpdateSweep(ctx, dbTx, locked.ID, ports.SweepUpdate{
			Status:            domain.SweepIdle,
			PendingSweepDelta: release,
		})
	})
	if err != nil {
		return nil, err
	}

	evType := domain.EventEntryConfirmed
	if reverted {
		evType = domain.EventEntryFailed
		w.log.Warn().Str("trader_id", account.TraderID).Str("tx_hash", txHash).Msg("sweep reverted, will resubmit")
	} else {
		w.log.Info().Str("trader_id", account.TraderID).Str("tx_hash", txHash).Msg("sweep confirmed")
	}
	amount := decimal.Zero
	if entry != nil {
		amount = entry.Amount
	}
	ev := domain.NewLedgerEvent(evType, account.TraderID, account.Currency, amount)
	ev.TxHash = txHash
	w.publish(ctx, ev)

	return updated, nil
}

// resolveSubmitting handles a sweep whose intent was stored but whose tx hash
// never was. It is never resubmitted: an emptied address means it landed,
// anything else needs an operator.
func (w *ReconciliationWorker) resolveSubmitting(ctx context.Context, account *domain.Account, onchain decimal.Decimal) (*domain.Account, error) {
	if onchain.GreaterThan(w.cfg.DustThreshold) {
		w.log.Error().
			Str("trader_id", account.TraderID).
			Str("address", account.Address).
			Str("onchain", onchain.String()).
			Str("pending_sweep", account.PendingSweep.String()).
			Msg("sweep outcome unknown, manual reconciliation required")
		return account, nil
	}

	return w.inTx(ctx, account.TraderID, func(dbTx pgx.Tx, locked *domain.Account) error {
		if locked.SweepStatus != domain.SweepSubmitting {
			return nil
		}
		if locked.PendingSweep.IsPositive() {
			entry := domain.NewEntry(locked.TraderID, locked.Currency, domain.EntryKindForwardToCustody,
				locked.PendingSweep, domain.EntryStatusConfirmed)
			if err := w.ledger.Append(ctx, dbTx, entry); err != nil {
				return fmt.Errorf("append forward entry: %w", err)
			}
		}
		w.log.Warn().
			Str("trader_id", locked.TraderID).
			Str("pending_sweep", locked.PendingSweep.String()).
			Msg("unrecorded sweep landed, clearing pending sweep")
		return w.accounts.UpdateSweep(ctx, dbTx, locked.ID, ports.SweepUpdate{
			Status:            domain.SweepIdle,
			PendingSweepDelta: locked.PendingSweep.Neg(),
		})
	})
}

// creditUncredited credits on-chain value not yet covered by pending_sweep.
func (w *ReconciliationWorker) creditUncredited(ctx context.Context, account *domain.Account, onchain decimal.Decimal) (*domain.Account, error) {
	if !onchain.Sub(account.PendingSweep).GreaterThan(w.cfg.DustThreshold) {
		return account, nil
	}

	var credited decimal.Decimal
	updated, err := w.inTx(ctx, account.TraderID, func(dbTx pgx.Tx, locked *domain.Account) error {
		credited = domain.RoundMoney(onchain.Sub(locked.PendingSweep))
		if !credited.GreaterThan(w.cfg.DustThreshold) {
			credited = decimal.Zero
			return nil
		}
		if _, err := w.accounts.ApplyDelta(ctx, dbTx, locked.ID, credited, decimal.Zero); err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}
		if err := w.accounts.UpdateSweep(ctx, dbTx, locked.ID, ports.SweepUpdate{
			Status:            locked.SweepStatus,
			TxHash:            locked.SweepTxHash,
			StartedAt:         locked.SweepStartedAt,
			PendingSweepDelta: credited,
		}); err != nil {
			return fmt.Errorf("add pending sweep: %w", err)
		}
		entry := domain.NewEntry(locked.TraderID, locked.Currency, domain.EntryKindDeposit, credited, domain.EntryStatusConfirmed)
		if err := w.ledger.Append(ctx, dbTx, entry); err != nil {
			return fmt.Errorf("append deposit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if credited.IsZero() {
		return updated, nil
	}

	w.log.Info().
		Str("trader_id", account.TraderID).
		Str("address", account.Address).
		Str("amount", credited.String()).
		Msg("on-chain deposit credited")
	w.metrics.ObserveCredit(domain.EntryKindDeposit, credited)
	w.publish(ctx, domain.NewLedgerEvent(domain.EventDeposit, account.TraderID, account.Currency, credited))

	return updated, nil
}

// sweep moves the wallet's whole on-chain balance to the custody address. The
// submitting intent is committed before the transfer so a crash in between is
// visible to the next cycle.
func (w *ReconciliationWorker) sweep(ctx context.Context, account *domain.Account, amount decimal.Decimal) error {
	custody, err := w.accounts.GetByTrader(ctx, w.cfg.CustodyTraderID, w.cfg.Currency)
	if err != nil {
		return fmt.Errorf("get custody account: %w", err)
	}
	if custody == nil {
		return errors.New("custody account not found")
	}
	credential, err := w.encSvc.Decrypt(account.SecretEnc)
	if err != nil {
		return fmt.Errorf("decrypt wallet key: %w", err)
	}

	startedAt := time.Now().UTC()
	proceed := false
	if _, err := w.inTx(ctx, account.TraderID, func(dbTx pgx.Tx, locked *domain.Account) error {
		if locked.SweepStatus != domain.SweepIdle {
			return nil
		}
		proceed = true
		return w.accounts.UpdateSweep(ctx, dbTx, locked.ID, ports.SweepUpdate{
			Status:            domain.SweepSubmitting,
			StartedAt:         &startedAt,
			PendingSweepDelta: decimal.Zero,
		})
	}); err != nil {
		return fmt.Errorf("record sweep intent: %w", err)
	}
	if !proceed {
		return nil
	}

	txHash, err := w.chain.Transfer(ctx, account.Address, custody.Address, amount, credential)
	if err != nil {
		w.log.Error().Err(err).
			Str("trader_id", account.TraderID).
			Str("amount", amount.String()).
			Msg("sweep transfer failed, left in submitting for manual reconciliation")
		return fmt.Errorf("transfer: %w", err)
	}

	if _, err := w.inTx(ctx, account.TraderID, func(dbTx pgx.Tx, locked *domain.Account) error {
		entry := domain.NewEntry(locked.TraderID, locked.Currency, domain.EntryKindForwardToCustody, amount, domain.EntryStatusPending).
			WithTxHash(txHash)
		if err := w.ledger.Append(ctx, dbTx, entry); err != nil {
			return fmt.Errorf("append forward entry: %w", err)
		}
		return w.accounts.UpdateSweep(ctx, dbTx, locked.ID, ports.SweepUpdate{
			Status:            domain.SweepSubmitted,
			TxHash:            &txHash,
			StartedAt:         &startedAt,
			PendingSweepDelta: decimal.Zero,
		})
	}); err != nil {
		w.log.Error().Err(err).
			Str("trader_id", account.TraderID).
			Str("tx_hash", txHash).
			Msg("sweep submitted but not recorded, manual reconciliation required")
		return fmt.Errorf("record sweep: %w", err)
	}

	w.log.Info().
		Str("trader_id", account.TraderID).
		Str("amount", amount.String()).
		Str("tx_hash", txHash).
		Msg("sweep submitted")
	ev := domain.NewLedgerEvent(domain.EventSweepSubmitted, account.TraderID, account.Currency, amount)
	ev.TxHash = txHash
	w.publish(ctx, ev)
	return nil
}

// settleWithdrawals moves the trader's pending withdrawals to confirmed or
// failed once their transfer is mined. A failed withdrawal is not refunded.
func (w *ReconciliationWorker) settleWithdrawals(ctx context.Context, traderID string) error {
	pending, err := w.ledger.ListPending(ctx, traderID, []domain.EntryKind{domain.EntryKindWithdraw})
	if err != nil {
		return fmt.Errorf("list pending withdrawals: %w", err)
	}

	var errs []error
	for _, entry := range pending {
		if entry.TxHash == nil {
			continue
		}
		event, err := w.chain.GetTransferEvent(ctx, *entry.TxHash)
		reverted := errors.Is(err, domain.ErrTransferReverted)
		if err != nil && !reverted {
			errs = append(errs, fmt.Errorf("withdrawal %s: %w", *entry.TxHash, err))
			continue
		}
		if event == nil && !reverted {
			continue
		}

		status, evType := domain.EntryStatusConfirmed, domain.EventEntryConfirmed
		if reverted {
			status, evType = domain.EntryStatusFailed, domain.EventEntryFailed
		}
		applied, err := w.setStatus(ctx, entry.ID, status)
		if err != nil {
			errs = append(errs, fmt.Errorf("withdrawal %s: %w", *entry.TxHash, err))
			continue
		}
		if !applied {
			continue
		}

		if reverted {
			w.log.Error().
				Str("trader_id", traderID).
				Str("tx_hash", *entry.TxHash).
				Str("amount", entry.Amount.String()).
				Msg("withdrawal reverted on chain, manual reconciliation required")
		}
		ev := domain.NewLedgerEvent(evType, traderID, entry.Currency, entry.Amount)
		ev.TxHash = *entry.TxHash
		w.publish(ctx, ev)
	}
	return errors.Join(errs...)
}

// setStatus reports false when another writer already settled the entry.
func (w *ReconciliationWorker) setStatus(ctx context.Context, id uuid.UUID, status domain.EntryStatus) (bool, error) {
	dbTx, err := w.transactor.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := w.ledger.UpdateStatus(ctx, dbTx, id, status); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return false, nil
		}
		return false, fmt.Errorf("update status: %w", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (w *ReconciliationWorker) publish(ctx context.Context, ev *domain.LedgerEvent) {
	if err := w.publisher.Publish(ctx, ev); err != nil {
		w.log.Warn().Err(err).Str("event_type", string(ev.Type)).Msg("failed to publish ledger event")
	}
}
