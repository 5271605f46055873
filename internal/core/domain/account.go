package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places every ledger amount is held to.
const MoneyScale int32 = 6

// RoundMoney rounds half away from zero to MoneyScale places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// SweepStatus tracks the movement of an address's on-chain funds to custody.
type SweepStatus string

const (
	SweepIdle       SweepStatus = "idle"
	SweepSubmitting SweepStatus = "submitting" // intent persisted, tx hash not yet known
	SweepSubmitted  SweepStatus = "submitted"  // tx hash known, awaiting confirmation
)

// Account is a trader's balance in one currency plus the on-chain address backing it.
type Account struct {
	ID       uuid.UUID       `json:"id"`
	TraderID string          `json:"trader_id"`
	Currency string          `json:"currency"`
	Address  string          `json:"address"`
	Balance  decimal.Decimal `json:"balance"`
	Frozen   decimal.Decimal `json:"frozen"`
	// SecretEnc is the AES-sealed signing key. Never exposed.
	SecretEnc string `json:"-"`
	HDIndex   int64  `json:"-"`
	// PendingSweep is on-chain value already credited to Balance but still
	// sitting on Address.
	PendingSweep   decimal.Decimal `json:"pending_sweep"`
	SweepStatus    SweepStatus     `json:"sweep_status"`
	SweepTxHash    *string         `json:"sweep_tx_hash,omitempty"`
	SweepStartedAt *time.Time      `json:"sweep_started_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Key returns the account's identity.
func (a *Account) Key() AccountKey {
	return AccountKey{TraderID: a.TraderID, Currency: a.Currency}
}

// CanCover reports whether the available balance covers amount.
func (a *Account) CanCover(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// AccountKey identifies an account.
type AccountKey struct {
	TraderID string
	Currency string
}

// Less orders keys by trader id, then currency.
func (k AccountKey) Less(o AccountKey) bool {
	if k.TraderID != o.TraderID {
		return k.TraderID < o.TraderID
	}
	return k.Currency < o.Currency
}

// LockOrder returns the distinct keys in the order rows must be locked.
// Every multi-account operation locks in this order.
func LockOrder(keys ...AccountKey) []AccountKey {
	seen := make(map[AccountKey]struct{}, len(keys))
	out := make([]AccountKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
