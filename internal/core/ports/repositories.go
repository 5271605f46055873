package ports

import (
	"context"
	"time"

	"custodial-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type AccountRepository interface {
	Create(ctx context.Context, tx pgx.Tx, account *domain.Account) error
	GetByTrader(ctx context.Context, traderID, currency string) (*domain.Account, error)
	GetByTraderForUpdate(ctx context.Context, tx pgx.Tx, traderID, currency string) (*domain.Account, error)
	// ApplyDelta adds the deltas to balance and frozen and returns the new row.
	// It fails with domain.ErrBalanceConstraint instead of going negative.
	ApplyDelta(ctx context.Context, tx pgx.Tx, id uuid.UUID, deltaBalance, deltaFrozen decimal.Decimal) (*domain.Account, error)
	UpdateSweep(ctx context.Context, tx pgx.Tx, id uuid.UUID, update SweepUpdate) error
	// ListManaged returns every account of currency except the custody trader's.
	ListManaged(ctx context.Context, currency, custodyTraderID string) ([]domain.Account, error)
}

// SweepUpdate sets the sweep state of an account and adjusts its pending sweep.
type SweepUpdate struct {
	Status            domain.SweepStatus
	TxHash            *string
	StartedAt         *time.Time
	PendingSweepDelta decimal.Decimal
}

// LedgerRepository defines persistence operations for the transaction journal.
type LedgerRepository interface {
	// Append stores an entry. It fails with domain.ErrDuplicateTxHash when
	// the entry's tx hash is already journaled.
	Append(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	// UpdateStatus moves a pending entry to a terminal status.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.EntryStatus) error
	FindLatestByOrderAndKind(ctx context.Context, orderID string, kind domain.EntryKind) (*domain.LedgerEntry, error)
	FindLatestByOrderAndKindForUpdate(ctx context.Context, tx pgx.Tx, orderID string, kind domain.EntryKind) (*domain.LedgerEntry, error)
	FindByTxHash(ctx context.Context, txHash string) (*domain.LedgerEntry, error)
	LatestByTraderAndKind(ctx context.Context, traderID string, kind domain.EntryKind) (*domain.LedgerEntry, error)
	ListPending(ctx context.Context, traderID string, kinds []domain.EntryKind) ([]domain.LedgerEntry, error)
	// Reporting queries
	List(ctx context.Context, params EntryListParams) ([]domain.LedgerEntry, int64, error)
	SumByKindAndRange(ctx context.Context, traderID string, kind domain.EntryKind, from, to time.Time) (decimal.Decimal, error)
}

// EntryListParams holds filter + pagination for listing journal entries, newest first.
type EntryListParams struct {
	TraderID     string
	Kinds        []domain.EntryKind
	ExcludeKinds []domain.EntryKind
	Page         int
	PageSize     int
}

// WithdrawalRuleRepository defines persistence operations for withdrawal rules.
type WithdrawalRuleRepository interface {
	Get(ctx context.Context, traderID string) (*domain.WithdrawalRule, error)
	Upsert(ctx context.Context, rule *domain.WithdrawalRule) error
	Delete(ctx context.Context, traderID string) (bool, error)
}

// WalletIndexRepository hands out per-trader derivation indices.
type WalletIndexRepository interface {
	Next(ctx context.Context, tx pgx.Tx, traderID string) (int64, error)
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
