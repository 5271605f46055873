package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	rateFloor = decimal.Zero
	rateCeil  = decimal.NewFromInt(1)
	hundred   = decimal.NewFromInt(100)
)

// SkipReason explains why a commission was not paid.
type SkipReason string

const (
	SkipExceedsPlatformCut SkipReason = "exceeds_platform_cut"
	SkipPlatformCutZero    SkipReason = "platform_cut_zero"
	SkipGuardClamped       SkipReason = "guard_clamped"
	SkipWalletMissing      SkipReason = "wallet_missing"
)

// CommissionRequest asks for a team-lead payout of Rate * principal.
type CommissionRequest struct {
	UserID string          `json:"userId"`
	Rate   decimal.Decimal `json:"commission"`
}

// CommissionShare is a computed team-lead payout.
type CommissionShare struct {
	UserID string          `json:"userId"`
	Rate   decimal.Decimal `json:"commission"`
	Amount decimal.Decimal `json:"amount"`
	Reason SkipReason      `json:"reason,omitempty"`
}

// InvalidRateError reports a percentage outside [0, 1].
type InvalidRateError struct {
	Field string
	Value decimal.Decimal
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("%s must be between 0 and 1, got %s", e.Field, e.Value.String())
}

// ReleaseSplit is the full breakdown of one released principal.
type ReleaseSplit struct {
	Amount           decimal.Decimal   `json:"totalAmount"`
	PlatformCut      decimal.Decimal   `json:"platformFee"`
	MerchantAmount   decimal.Decimal   `json:"merchantReceived"`
	Reward           decimal.Decimal   `json:"traderReward"`
	TotalCommissions decimal.Decimal   `json:"totalCommissions"`
	PlatformProfit   decimal.Decimal   `json:"platformProfit"`
	Commissions      []CommissionShare `json:"teamCommissions"`
	Skipped          []CommissionShare `json:"skippedCommissions"`
	// Clamped is set when accepted commissions were discarded because they
	// would have driven platform profit below zero.
	Clamped bool `json:"commissionsClamped"`
}

// Distribution is the percentage view of a split, two decimal places.
type Distribution struct {
	Merchant  string `json:"merchant"`
	Platform  string `json:"platform"`
	Trader    string `json:"trader"`
	TeamLeads string `json:"teamLeads"`
}

// ValidateRate checks that v lies in [0, 1].
func ValidateRate(field string, v decimal.Decimal) error {
	if v.LessThan(rateFloor) || v.GreaterThan(rateCeil) {
		return &InvalidRateError{Field: field, Value: v}
	}
	return nil
}

// SplitRelease divides amount between merchant, platform, trader reward and
// team-lead commissions. Each product is rounded to MoneyScale before it is
// used, so MerchantAmount + PlatformProfit + Reward + TotalCommissions equals
// amount exactly.
//
// A commission is accepted only if it does not exceed the platform cut on its
// own. If the accepted commissions together push platform profit below zero,
// all of them are dropped and profit becomes PlatformCut - Reward.
func SplitRelease(amount, rewardPercent, platformFee decimal.Decimal, users []CommissionRequest) (*ReleaseSplit, error) {
	if err := ValidateRate("rewardPercent", rewardPercent); err != nil {
		return nil, err
	}
	if err := ValidateRate("platformFee", platformFee); err != nil {
		return nil, err
	}
	for i, u := range users {
		if err := ValidateRate(fmt.Sprintf("commissionUsers[%d].commission", i), u.Rate); err != nil {
			return nil, err
		}
	}

	amount = RoundMoney(amount)
	s := &ReleaseSplit{
		Amount:      amount,
		PlatformCut: RoundMoney(amount.Mul(platformFee)),
		Reward:      RoundMoney(amount.Mul(rewardPercent)),
		Commissions: []CommissionShare{},
		Skipped:     []CommissionShare{},
	}
	s.MerchantAmount = RoundMoney(amount.Sub(s.PlatformCut))

	total := decimal.Zero
	for _, u := range users {
		share := CommissionShare{UserID: u.UserID, Rate: u.Rate, Amount: RoundMoney(amount.Mul(u.Rate))}
		switch {
		case !s.PlatformCut.IsPositive():
			share.Reason = SkipPlatformCutZero
			s.Skipped = append(s.Skipped, share)
		case share.Amount.GreaterThan(s.PlatformCut):
			share.Reason = SkipExceedsPlatformCut
			s.Skipped = append(s.Skipped, share)
		default:
			total = total.Add(share.Amount)
			s.Commissions = append(s.Commissions, share)
		}
	}

	s.TotalCommissions = total
	s.PlatformProfit = RoundMoney(s.PlatformCut.Sub(s.Reward).Sub(total))

	if s.PlatformProfit.IsNegative() && len(s.Commissions) > 0 {
		for _, c := range s.Commissions {
			c.Reason = SkipGuardClamped
			s.Skipped = append(s.Skipped, c)
		}
		s.Commissions = []CommissionShare{}
		s.TotalCommissions = decimal.Zero
		s.PlatformProfit = RoundMoney(s.PlatformCut.Sub(s.Reward))
		s.Clamped = true
	}

	return s, nil
}

// DropCommission moves an accepted commission for userID back into platform
// profit, keeping the split balanced. It reports whether anything was moved.
func (s *ReleaseSplit) DropCommission(userID string, reason SkipReason) bool {
	kept := s.Commissions[:0:0]
	moved := false
	for _, c := range s.Commissions {
		if c.UserID != userID {
			kept = append(kept, c)
			continue
		}
		moved = true
		s.TotalCommissions = s.TotalCommissions.Sub(c.Amount)
		s.PlatformProfit = s.PlatformProfit.Add(c.Amount)
		c.Reason = reason
		s.Skipped = append(s.Skipped, c)
	}
	s.Commissions = kept
	return moved
}

// Conserved reports whether the split accounts for every unit of Amount.
func (s *ReleaseSplit) Conserved() bool {
	sum := s.MerchantAmount.Add(s.PlatformProfit).Add(s.Reward).Add(s.TotalCommissions)
	return sum.Equal(s.Amount)
}

// Distribution returns each party's share of Amount as a percentage.
func (s *ReleaseSplit) Distribution() Distribution {
	pct := func(part decimal.Decimal) string {
		if s.Amount.IsZero() {
			return "0%"
		}
		return part.Div(s.Amount).Mul(hundred).Round(2).String() + "%"
	}
	return Distribution{
		Merchant:  pct(s.MerchantAmount),
		Platform:  pct(s.PlatformCut),
		Trader:    pct(s.Reward),
		TeamLeads: pct(s.TotalCommissions),
	}
}
