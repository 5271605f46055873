package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const entryColumns = `id, trader_id, currency, kind, amount, order_id, tx_hash, status, created_at`

// LedgerRepo implements ports.LedgerRepository over the ledger_entries journal.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Append inserts a journal row within a database transaction.
func (r *LedgerRepo) Append(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.TraderID, e.Currency, e.Kind, e.Amount, e.OrderID, e.TxHash, e.Status, e.CreatedAt,
	)
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, domain.ErrDuplicateTxHash) || errors.Is(mapped, domain.ErrOrderFrozen) {
			return mapped
		}
		return fmt.Errorf("insert ledger entry: %w", mapped)
	}
	return nil
}

// UpdateStatus moves a pending entry to status. Terminal entries are never touched.
func (r *LedgerRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.EntryStatus) error {
	if !domain.CanTransition(domain.EntryStatusPending, status) {
		return domain.ErrInvalidTransition
	}

	query := `UPDATE ledger_entries SET status = $1 WHERE id = $2 AND status = 'pending'`

	tag, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update entry status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// FindLatestByOrderAndKind returns the newest entry of kind for orderID.
func (r *LedgerRepo) FindLatestByOrderAndKind(ctx context.Context, orderID string, kind domain.EntryKind) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE order_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT 1`
	return scanEntry(r.pool.QueryRow(ctx, query, orderID, kind))
}

// FindLatestByOrderAndKindForUpdate is FindLatestByOrderAndKind with a row lock.
// This MUST be called within a transaction.
func (r *LedgerRepo) FindLatestByOrderAndKindForUpdate(ctx context.Context, tx pgx.Tx, orderID string, kind domain.EntryKind) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE order_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT 1 FOR UPDATE`
	return scanEntry(tx.QueryRow(ctx, query, orderID, kind))
}

// FindByTxHash fetches the entry carrying txHash.
func (r *LedgerRepo) FindByTxHash(ctx context.Context, txHash string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE tx_hash = $1`
	return scanEntry(r.pool.QueryRow(ctx, query, txHash))
}

// LatestByTraderAndKind returns the trader's newest entry of kind.
func (r *LedgerRepo) LatestByTraderAndKind(ctx context.Context, traderID string, kind domain.EntryKind) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE trader_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT 1`
	return scanEntry(r.pool.QueryRow(ctx, query, traderID, kind))
}

// ListPending returns the trader's pending entries of the given kinds, oldest first.
func (r *LedgerRepo) ListPending(ctx context.Context, traderID string, kinds []domain.EntryKind) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE trader_id = $1 AND status = 'pending' AND kind = ANY($2) ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, traderID, kindStrings(kinds))
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}
	return collectEntries(rows)
}

// List fetches journal entries with filtering and pagination, newest first.
func (r *LedgerRepo) List(ctx context.Context, params ports.EntryListParams) ([]domain.LedgerEntry, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("trader_id = $%d", argIdx))
	args = append(args, params.TraderID)
	argIdx++

	if len(params.Kinds) > 0 {
		conditions = append(conditions, fmt.Sprintf("kind = ANY($%d)", argIdx))
		args = append(args, kindStrings(params.Kinds))
		argIdx++
	}
	if len(params.ExcludeKinds) > 0 {
		conditions = append(conditions, fmt.Sprintf("kind <> ALL($%d)", argIdx))
		args = append(args, kindStrings(params.ExcludeKinds))
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM ledger_entries %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT `+entryColumns+`
		FROM ledger_entries %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// SumByKindAndRange totals the trader's entries of kind created in [from, to].
func (r *LedgerRepo) SumByKindAndRange(ctx context.Context, traderID string, kind domain.EntryKind, from, to time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE trader_id = $1 AND kind = $2 AND status <> 'failed' AND created_at >= $3 AND created_at <= $4`

	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, traderID, kind, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum ledger entries: %w", err)
	}
	return total, nil
}

func kindStrings(kinds []domain.EntryKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func entryDest(e *domain.LedgerEntry) []any {
	return []any{&e.ID, &e.TraderID, &e.Currency, &e.Kind, &e.Amount, &e.OrderID, &e.TxHash, &e.Status, &e.CreatedAt}
}

func collectEntries(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e := domain.LedgerEntry{}
		if err := rows.Scan(entryDest(&e)...); err != nil {
			return nil, fmt.Errorf("scan ledger entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entry rows: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	e := &domain.LedgerEntry{}
	if err := row.Scan(entryDest(e)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	return e, nil
}
