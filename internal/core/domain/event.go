package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names a committed ledger change published to downstream consumers.
type EventType string

const (
	EventFreeze           EventType = "ledger.freeze"
	EventRelease          EventType = "ledger.release"
	EventDeposit          EventType = "ledger.deposit"
	EventWithdraw         EventType = "ledger.withdraw"
	EventOffchainWithdraw EventType = "ledger.offchain_withdraw"
	EventSweepSubmitted   EventType = "ledger.sweep_submitted"
	EventEntryConfirmed   EventType = "ledger.entry_confirmed"
	EventEntryFailed      EventType = "ledger.entry_failed"
)

// LedgerEvent is emitted after a unit of work commits.
type LedgerEvent struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	TraderID   string          `json:"traderId"`
	Currency   string          `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
	OrderID    string          `json:"orderId,omitempty"`
	TxHash     string          `json:"txHash,omitempty"`
	Release    *ReleaseSplit   `json:"release,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewLedgerEvent stamps an event with an id and time.
func NewLedgerEvent(t EventType, traderID, currency string, amount decimal.Decimal) *LedgerEvent {
	return &LedgerEvent{
		ID:         uuid.New(),
		Type:       t,
		TraderID:   traderID,
		Currency:   currency,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	}
}
