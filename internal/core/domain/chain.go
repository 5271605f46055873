package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrTransferReverted means the transaction was mined but failed.
	ErrTransferReverted = errors.New("transfer reverted on chain")
	// ErrInvalidAddress means an address is not well formed for the chain.
	ErrInvalidAddress = errors.New("invalid chain address")
)

// ChainTransfer is one token transfer observed on chain.
type ChainTransfer struct {
	TxHash      string          `json:"txHash"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	BlockNumber uint64          `json:"blockNumber"`
}

// ChainCursor marks how far an address has been scanned. It is the next
// block number to read.
type ChainCursor uint64

// KeyPair is a freshly generated chain identity.
type KeyPair struct {
	Address string
	Secret  string // hex private key, sealed before it is stored
}
