package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind is the type of a journal row.
type EntryKind string

const (
	EntryKindDeposit            EntryKind = "deposit"
	EntryKindWithdraw           EntryKind = "withdraw"
	EntryKindOffchainWithdraw   EntryKind = "offchain_withdraw"
	EntryKindFreeze             EntryKind = "freeze"
	EntryKindRelease            EntryKind = "release"
	EntryKindReward             EntryKind = "reward"
	EntryKindMerchantIncome     EntryKind = "merchant_income"
	EntryKindPlatformProfit     EntryKind = "platform_profit"
	EntryKindPlatformFee        EntryKind = "platform_fee"
	EntryKindTeamLeadCommission EntryKind = "team_lead_commission"
	EntryKindForwardToCustody   EntryKind = "forward_to_custody"
)

// EntryStatus is the only mutable field of a journal row.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusConfirmed EntryStatus = "confirmed"
	EntryStatusFailed    EntryStatus = "failed"
)

var (
	// ErrDuplicateTxHash is returned by the store when a tx hash is already journaled.
	ErrDuplicateTxHash = errors.New("duplicate tx hash")
	// ErrBalanceConstraint is returned when a mutation would drive balance or frozen below zero.
	ErrBalanceConstraint = errors.New("balance constraint violated")
	// ErrOrderFrozen is returned when an order already has a pending freeze.
	ErrOrderFrozen = errors.New("order already has a pending freeze")
	// ErrInvalidTransition is returned when an entry is not pending.
	ErrInvalidTransition = errors.New("entry status transition not allowed")
)

// LedgerEntry is one immutable row of the transaction journal.
type LedgerEntry struct {
	ID        uuid.UUID       `json:"id"`
	TraderID  string          `json:"trader_id"`
	Currency  string          `json:"currency"`
	Kind      EntryKind       `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	OrderID   *string         `json:"order_id,omitempty"`
	TxHash    *string         `json:"tx_hash,omitempty"`
	Status    EntryStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEntry builds a journal row stamped with a fresh id and the current time.
func NewEntry(traderID, currency string, kind EntryKind, amount decimal.Decimal, status EntryStatus) *LedgerEntry {
	return &LedgerEntry{
		ID:        uuid.New(),
		TraderID:  traderID,
		Currency:  currency,
		Kind:      kind,
		Amount:    RoundMoney(amount),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
}

// WithOrder sets the correlating order id.
func (e *LedgerEntry) WithOrder(orderID string) *LedgerEntry {
	if orderID != "" {
		e.OrderID = &orderID
	}
	return e
}

// WithTxHash sets the on-chain transaction hash.
func (e *LedgerEntry) WithTxHash(txHash string) *LedgerEntry {
	if txHash != "" {
		e.TxHash = &txHash
	}
	return e
}

// IsPending reports whether the entry can still transition.
func (e *LedgerEntry) IsPending() bool {
	return e.Status == EntryStatusPending
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to EntryStatus) bool {
	return from == EntryStatusPending && (to == EntryStatusConfirmed || to == EntryStatusFailed)
}
