package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// WalletIndexRepo implements ports.WalletIndexRepository.
type WalletIndexRepo struct{}

// NewWalletIndexRepo creates a new WalletIndexRepo.
func NewWalletIndexRepo() *WalletIndexRepo {
	return &WalletIndexRepo{}
}

// Next increments the trader's derivation counter and returns the new value.
// The first call for a trader returns 0.
func (r *WalletIndexRepo) Next(ctx context.Context, tx pgx.Tx, traderID string) (int64, error) {
	query := `INSERT INTO trader_wallet_index (trader_id, hd_index) VALUES ($1, 0)
		ON CONFLICT (trader_id) DO UPDATE SET hd_index = trader_wallet_index.hd_index + 1
		RETURNING hd_index`

	var idx int64
	if err := tx.QueryRow(ctx, query, traderID).Scan(&idx); err != nil {
		return 0, fmt.Errorf("next wallet index: %w", err)
	}
	return idx, nil
}
