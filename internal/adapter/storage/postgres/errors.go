package postgres

import (
	"errors"

	"custodial-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// mapError translates constraint violations into domain sentinels.
// Other errors pass through unchanged.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case "ledger_entries_tx_hash_key":
			return domain.ErrDuplicateTxHash
		case "ledger_entries_pending_freeze_key":
			return domain.ErrOrderFrozen
		}
	case pgCheckViolation:
		return domain.ErrBalanceConstraint
	}
	return err
}
