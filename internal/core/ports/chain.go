package ports

import (
	"context"

	"custodial-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ChainGateway is the only path to the token contract. Reads are idempotent
// and may be retried. Transfer is not and must never be retried blindly.
type ChainGateway interface {
	GetTokenBalance(ctx context.Context, address string) (decimal.Decimal, error)
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal, credential string) (string, error)
	GetTransactionsSince(ctx context.Context, address string, cursor domain.ChainCursor) ([]domain.ChainTransfer, domain.ChainCursor, error)
	// GetTransferEvent returns nil when the transaction is not yet mined and
	// domain.ErrTransferReverted when it was mined but failed.
	GetTransferEvent(ctx context.Context, txHash string) (*domain.ChainTransfer, error)
	IsValidAddress(address string) bool
}

// KeyGenerator creates chain key pairs for new wallets.
type KeyGenerator interface {
	Generate() (*domain.KeyPair, error)
}

// AddressWatcher reports inbound transfers to watched addresses.
type AddressWatcher interface {
	Watch(address string)
	// Run blocks until ctx is cancelled, calling sink for each transfer seen.
	Run(ctx context.Context, sink func(domain.ChainTransfer)) error
	Mode() string
}
