package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("LED_001", "Insufficient balance", http.StatusPaymentRequired),
			expected: "[LED_001] Insufficient balance",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
	assert.Nil(t, New("VAL_001", "test", http.StatusBadRequest).Unwrap())
}

func TestAppError_With(t *testing.T) {
	err := ErrInsufficientFunds("t1", "5", "10")

	assert.Equal(t, "t1", err.Details["trader_id"])
	assert.Equal(t, "5", err.Details["available"])
	assert.Equal(t, "10", err.Details["required"])

	plain := New("VAL_001", "bad", http.StatusBadRequest)
	assert.Nil(t, plain.Details)
	plain.With("field", "amount")
	assert.Equal(t, "amount", plain.Details["field"])
}

func TestErrorCatalog(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"Validation", Validation("bad"), "VAL_001", 400},
		{"InvalidAmount", ErrInvalidAmount("amount"), "VAL_002", 400},
		{"InvalidCommission", ErrInvalidCommission("commissionUsers[0].commission", "1.5"), "VAL_003", 400},
		{"InvalidAddress", ErrInvalidAddress("nope"), "VAL_004", 400},
		{"InsufficientFunds", ErrInsufficientFunds("t", "0", "1"), "LED_001", 402},
		{"NotFound", ErrNotFound("account"), "LED_002", 404},
		{"DuplicateEntry", ErrDuplicateEntry("0xabc"), "LED_003", 409},
		{"OrderState", ErrOrderState("o1", "order already released"), "LED_004", 409},
		{"BelowMinimum", ErrBelowMinimum("10"), "POL_001", 422},
		{"Cooldown", ErrCooldownActive(30), "POL_002", 429},
		{"ChainQuery", ErrChainQuery(fmt.Errorf("timeout")), "CHN_001", 502},
		{"TransferFailed", ErrTransferFailed(fmt.Errorf("reverted")), "CHN_002", 502},
		{"ManualReconciliation", ErrManualReconciliation("0xabc", fmt.Errorf("db down")), "SET_001", 500},
		{"InvalidCredentials", ErrInvalidCredentials(), "AUTH_001", 401},
		{"InvalidToken", ErrInvalidToken(), "AUTH_003", 401},
		{"Forbidden", ErrForbidden(), "AUTH_005", 403},
		{"RateLimit", ErrRateLimitExceeded(), "RATE_001", 429},
		{"Database", ErrDatabaseError(fmt.Errorf("x")), "SYS_001", 500},
		{"LockTimeout", ErrLockTimeout(fmt.Errorf("x")), "SYS_002", 503},
		{"Encryption", ErrEncryptionFailure(fmt.Errorf("x")), "SYS_003", 500},
		{"Internal", InternalError(fmt.Errorf("x")), "SYS_001", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestPolicyErrors_CarryDetails(t *testing.T) {
	assert.Equal(t, "10", ErrBelowMinimum("10").Details["min_amount"])
	assert.Equal(t, int64(30), ErrCooldownActive(30).Details["wait_seconds"])
	assert.Equal(t, "0xabc", ErrManualReconciliation("0xabc", nil).Details["tx_hash"])
}

func TestAppError_ErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrNotFound("freeze entry"))

	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "LED_002", appErr.Code)
	assert.Equal(t, "freeze entry not found", appErr.Message)
}
