package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, trader_id, currency, address, balance, frozen, secret_enc, hd_index,
		pending_sweep, sweep_status, sweep_tx_hash, sweep_started_at, created_at, updated_at`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account within a database transaction.
func (r *AccountRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := tx.Exec(ctx, query,
		a.ID, a.TraderID, a.Currency, a.Address, a.Balance, a.Frozen, a.SecretEnc, a.HDIndex,
		a.PendingSweep, a.SweepStatus, a.SweepTxHash, a.SweepStartedAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", mapError(err))
	}
	return nil
}

// GetByTrader fetches an account by trader and currency (non-locking read).
func (r *AccountRepo) GetByTrader(ctx context.Context, traderID, currency string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE trader_id = $1 AND currency = $2`
	return scanAccount(r.pool.QueryRow(ctx, query, traderID, currency))
}

// GetByTraderForUpdate fetches an account with pessimistic locking.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByTraderForUpdate(ctx context.Context, tx pgx.Tx, traderID, currency string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE trader_id = $1 AND currency = $2 FOR UPDATE`
	return scanAccount(tx.QueryRow(ctx, query, traderID, currency))
}

// ApplyDelta adjusts balance and frozen in place. The CHECK constraints turn
// a negative result into domain.ErrBalanceConstraint.
func (r *AccountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, id uuid.UUID, deltaBalance, deltaFrozen decimal.Decimal) (*domain.Account, error) {
	query := `UPDATE accounts SET balance = balance + $1, frozen = frozen + $2, updated_at = NOW()
		WHERE id = $3 RETURNING ` + accountColumns

	a, err := scanAccount(tx.QueryRow(ctx, query, deltaBalance, deltaFrozen, id))
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("account not found: %s", id)
	}
	return a, nil
}

// UpdateSweep records a sweep state change.
func (r *AccountRepo) UpdateSweep(ctx context.Context, tx pgx.Tx, id uuid.UUID, u ports.SweepUpdate) error {
	query := `UPDATE accounts SET sweep_status = $1, sweep_tx_hash = $2, sweep_started_at = $3,
		pending_sweep = pending_sweep + $4, updated_at = NOW() WHERE id = $5`

	tag, err := tx.Exec(ctx, query, u.Status, u.TxHash, u.StartedAt, u.PendingSweepDelta, id)
	if err != nil {
		return fmt.Errorf("update sweep: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// ListManaged returns every account of currency except the custody account.
func (r *AccountRepo) ListManaged(ctx context.Context, currency, custodyTraderID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE currency = $1 AND trader_id <> $2 ORDER BY trader_id`

	rows, err := r.pool.Query(ctx, query, currency, custodyTraderID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a := domain.Account{}
		if err := rows.Scan(accountDest(&a)...); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}

func accountDest(a *domain.Account) []any {
	return []any{
		&a.ID, &a.TraderID, &a.Currency, &a.Address, &a.Balance, &a.Frozen, &a.SecretEnc, &a.HDIndex,
		&a.PendingSweep, &a.SweepStatus, &a.SweepTxHash, &a.SweepStartedAt, &a.CreatedAt, &a.UpdatedAt,
	}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	if err := row.Scan(accountDest(a)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", mapError(err))
	}
	return a, nil
}
