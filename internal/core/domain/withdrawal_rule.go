package domain

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalRule constrains a trader's withdrawals. A missing rule means no
// fee, no minimum and no cooldown.
type WithdrawalRule struct {
	TraderID        string          `json:"traderId"`
	FixedFee        decimal.Decimal `json:"fixedFee"`
	MinAmount       decimal.Decimal `json:"minAmount"`
	CooldownSeconds int64           `json:"cooldownSeconds"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Validate rejects negative values.
func (r *WithdrawalRule) Validate() error {
	if r.FixedFee.IsNegative() {
		return errors.New("fixedFee must not be negative")
	}
	if r.MinAmount.IsNegative() {
		return errors.New("minAmount must not be negative")
	}
	if r.CooldownSeconds < 0 {
		return errors.New("cooldownSeconds must not be negative")
	}
	return nil
}

// Fee returns the fixed fee, zero for a nil rule.
func (r *WithdrawalRule) Fee() decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return r.FixedFee
}

// PolicyReason names the check that rejected a withdrawal.
type PolicyReason string

const (
	PolicyAllowed      PolicyReason = ""
	PolicyBelowMinimum PolicyReason = "below_minimum"
	PolicyCooldown     PolicyReason = "cooldown"
)

// PolicyDecision is the outcome of evaluating a withdrawal against a rule.
type PolicyDecision struct {
	Allowed     bool
	Reason      PolicyReason
	MinAmount   decimal.Decimal
	WaitSeconds int64
	Fee         decimal.Decimal
}

// EvaluateWithdrawal applies the minimum check, then the cooldown check.
// lastWithdrawAt is the creation time of the trader's latest withdraw entry.
func EvaluateWithdrawal(rule *WithdrawalRule, amount decimal.Decimal, lastWithdrawAt *time.Time, now time.Time) PolicyDecision {
	if rule == nil {
		return PolicyDecision{Allowed: true, Fee: decimal.Zero}
	}

	if amount.LessThan(rule.MinAmount) {
		return PolicyDecision{Reason: PolicyBelowMinimum, MinAmount: rule.MinAmount, Fee: rule.FixedFee}
	}

	if rule.CooldownSeconds > 0 && lastWithdrawAt != nil {
		elapsed := now.Sub(*lastWithdrawAt).Seconds()
		cooldown := float64(rule.CooldownSeconds)
		if elapsed < cooldown {
			wait := int64(math.Ceil(cooldown - elapsed))
			if wait > rule.CooldownSeconds {
				wait = rule.CooldownSeconds
			}
			return PolicyDecision{Reason: PolicyCooldown, WaitSeconds: wait, Fee: rule.FixedFee}
		}
	}

	return PolicyDecision{Allowed: true, Fee: rule.FixedFee}
}
