package dto

import (
	"custodial-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// TokenRequest exchanges API client credentials for a bearer token.
type TokenRequest struct {
	ClientID     string `json:"clientId" binding:"required,max=64"`
	ClientSecret string `json:"clientSecret" binding:"required,max=256"`
}

// TokenResponse is the response body for a successful token exchange.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"` // Unix timestamp
}

// CreateWalletRequest provisions a trader's wallet.
type CreateWalletRequest struct {
	TraderID string `json:"traderId" binding:"required,trader_id"`
}

// DepositRequest credits an off-chain confirmed deposit.
type DepositRequest struct {
	TraderID string           `json:"traderId" binding:"required,trader_id"`
	Amount   *decimal.Decimal `json:"amount" binding:"required"`
	TxHash   string           `json:"txHash" binding:"required,max=128"`
}

// OffchainWithdrawRequest debits a withdrawal settled outside the chain.
type OffchainWithdrawRequest struct {
	TraderID string           `json:"traderId" binding:"required,trader_id"`
	Amount   *decimal.Decimal `json:"amount" binding:"required"`
	TxHash   string           `json:"txHash" binding:"required,max=128"`
}

// FreezeRequest reserves funds for an order.
type FreezeRequest struct {
	TraderID string           `json:"traderId" binding:"required,trader_id"`
	Amount   *decimal.Decimal `json:"amount" binding:"required"`
	OrderID  string           `json:"orderId" binding:"required,max=128"`
}

// CommissionUser is one team-lead payout request.
type CommissionUser struct {
	UserID     string           `json:"userId" binding:"required,trader_id"`
	Commission *decimal.Decimal `json:"commission" binding:"required"`
}

// ReleaseRequest settles a frozen order. Omitted rates take the configured defaults.
type ReleaseRequest struct {
	TraderID        string           `json:"traderId" binding:"required,trader_id"`
	OrderID         string           `json:"orderId" binding:"required,max=128"`
	RewardPercent   *decimal.Decimal `json:"rewardPercent,omitempty"`
	PlatformFee     *decimal.Decimal `json:"platformFee,omitempty"`
	MerchantID      string           `json:"merchantId" binding:"required,trader_id"`
	CommissionUsers []CommissionUser `json:"commissionUsers" binding:"omitempty,max=50,dive"`
}

// Commissions converts the payout requests to domain values.
func (r *ReleaseRequest) Commissions() []domain.CommissionRequest {
	out := make([]domain.CommissionRequest, 0, len(r.CommissionUsers))
	for _, u := range r.CommissionUsers {
		out = append(out, domain.CommissionRequest{UserID: u.UserID, Rate: *u.Commission})
	}
	return out
}

// WithdrawRequest sends funds on chain to an external address.
type WithdrawRequest struct {
	TraderID  string           `json:"traderId" binding:"required,trader_id"`
	ToAddress string           `json:"toAddress" binding:"required,evm_address"`
	Amount    *decimal.Decimal `json:"amount" binding:"required"`
}

// RangeRequest selects a trader's journal between two dates. Dates are
// RFC 3339 timestamps or plain YYYY-MM-DD days.
type RangeRequest struct {
	TraderID string `json:"traderId" binding:"required,trader_id"`
	From     string `json:"from" binding:"required"`
	To       string `json:"to" binding:"required"`
}

// RuleRequest creates or partially updates a withdrawal rule.
type RuleRequest struct {
	TraderID        string           `json:"traderId" binding:"required,trader_id"`
	FixedFee        *decimal.Decimal `json:"fixedFee,omitempty"`
	MinAmount       *decimal.Decimal `json:"minAmount,omitempty"`
	CooldownSeconds *int64           `json:"cooldownSeconds,omitempty" binding:"omitempty,min=0"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	TraderID     string          `json:"traderId"`
	Currency     string          `json:"currency"`
	Address      string          `json:"address"`
	Balance      decimal.Decimal `json:"balance"`
	Frozen       decimal.Decimal `json:"frozen"`
	PendingSweep decimal.Decimal `json:"pendingSweep"`
	SweepStatus  string          `json:"sweepStatus"`
}

// NewAccountResponse maps an account to its public view.
func NewAccountResponse(a *domain.Account) AccountResponse {
	if a == nil {
		return AccountResponse{}
	}
	return AccountResponse{
		TraderID:     a.TraderID,
		Currency:     a.Currency,
		Address:      a.Address,
		Balance:      a.Balance,
		Frozen:       a.Frozen,
		PendingSweep: a.PendingSweep,
		SweepStatus:  string(a.SweepStatus),
	}
}

// CreateWalletResponse reports the provisioned address.
type CreateWalletResponse struct {
	TraderID string `json:"traderId"`
	Address  string `json:"address"`
	Created  bool   `json:"created"`
}

// LedgerResponse is the account state and journal row after a mutation.
type LedgerResponse struct {
	Account AccountResponse     `json:"account"`
	Entry   *domain.LedgerEntry `json:"entry"`
}

// DepositResponse reports Duplicate when the deposit was already recorded.
type DepositResponse struct {
	LedgerResponse
	Duplicate bool `json:"duplicate"`
}

// WithdrawResponse carries the on-chain hash and the fee charged.
type WithdrawResponse struct {
	LedgerResponse
	TxHash     string          `json:"txHash"`
	Fee        decimal.Decimal `json:"fee"`
	TotalDebit decimal.Decimal `json:"totalDebit"`
}

// ReleaseResponse is the full settlement breakdown.
type ReleaseResponse struct {
	*domain.ReleaseSplit
	Distribution       domain.Distribution `json:"distribution"`
	CommissionsSkipped int                 `json:"commissionsSkipped"`
	Trader             AccountResponse     `json:"trader"`
}

// BalanceResponse is the off-chain balance of a trader.
type BalanceResponse struct {
	TraderID string          `json:"traderId"`
	Balance  decimal.Decimal `json:"balance"`
	Frozen   decimal.Decimal `json:"frozen"`
	Currency string          `json:"currency"`
}

// OnchainBalanceResponse is the token balance held on the trader's address.
type OnchainBalanceResponse struct {
	TraderID string          `json:"traderId"`
	Address  string          `json:"address"`
	Balance  decimal.Decimal `json:"balance"`
}

// AddressResponse is the deposit address of a trader.
type AddressResponse struct {
	TraderID string `json:"traderId"`
	Address  string `json:"address"`
}

// SumResponse is a total over a date range.
type SumResponse struct {
	TraderID string          `json:"traderId"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Total    decimal.Decimal `json:"total"`
}

// Pagination describes a page of results.
type Pagination struct {
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int   `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// HistoryResponse wraps a page of journal entries.
type HistoryResponse struct {
	Transactions []domain.LedgerEntry `json:"transactions"`
	Pagination   Pagination           `json:"pagination"`
}
