package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string                 `json:"error_code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// With attaches a detail field and returns the same error for chaining.
func (e *AppError) With(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a generic request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount(field string) *AppError {
	return New("VAL_002", "Amount must be a positive decimal", http.StatusBadRequest).With("field", field)
}

func ErrInvalidCommission(field string, value string) *AppError {
	return New("VAL_003", "Rate must be between 0 and 1", http.StatusBadRequest).
		With("field", field).
		With("value", value)
}

func ErrInvalidAddress(address string) *AppError {
	return New("VAL_004", "Invalid destination address", http.StatusBadRequest).With("address", address)
}

// ---- Ledger (LED) ----

func ErrInsufficientFunds(traderID string, available, required string) *AppError {
	return New("LED_001", "Insufficient balance", http.StatusPaymentRequired).
		With("trader_id", traderID).
		With("available", available).
		With("required", required)
}

func ErrNotFound(entity string) *AppError {
	return New("LED_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound).With("entity", entity)
}

func ErrDuplicateEntry(txHash string) *AppError {
	return New("LED_003", "Transaction hash already recorded", http.StatusConflict).With("tx_hash", txHash)
}

func ErrOrderState(orderID string, message string) *AppError {
	return New("LED_004", message, http.StatusConflict).With("order_id", orderID)
}

// ---- Withdrawal policy (POL) ----

func ErrBelowMinimum(minAmount string) *AppError {
	return New("POL_001", "Amount is below the withdrawal minimum", http.StatusUnprocessableEntity).
		With("min_amount", minAmount)
}

func ErrCooldownActive(waitSeconds int64) *AppError {
	return New("POL_002", "Withdrawal cooldown is active", http.StatusTooManyRequests).
		With("wait_seconds", waitSeconds)
}

// ---- Chain (CHN) ----

func ErrChainQuery(err error) *AppError {
	return Wrap("CHN_001", "Chain query failed", http.StatusBadGateway, err)
}

func ErrTransferFailed(err error) *AppError {
	return Wrap("CHN_002", "On-chain transfer failed", http.StatusBadGateway, err)
}

// ---- Settlement (SET) ----

// ErrManualReconciliation marks a state where the chain moved funds but the
// ledger could not record it. Operators must reconcile by hand.
func ErrManualReconciliation(txHash string, err error) *AppError {
	return Wrap("SET_001", "Ledger write failed after on-chain transfer; manual reconciliation required",
		http.StatusInternalServerError, err).With("tx_hash", txHash)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_005", "Insufficient role for this operation", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
