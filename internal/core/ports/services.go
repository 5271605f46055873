package ports

import (
	"context"
	"time"

	"custodial-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// EncryptionService handles AES-256-GCM encryption/decryption of wallet secrets.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// HashService handles client secret hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(clientID string, role string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	ClientID string
	Role     string
}

// Roles carried in tokens.
const (
	RoleService = "service"
	RoleAdmin   = "admin"
)

// DepositCache is the Redis fast path for deposit deduplication. The
// journal's unique tx hash stays authoritative.
type DepositCache interface {
	Seen(ctx context.Context, txHash string) (bool, error)
	Mark(ctx context.Context, txHash string, ttl time.Duration) error
}

// Locker provides cross-process mutual exclusion with expiry.
type Locker interface {
	// TryLock returns a token when the lock was taken, ok=false when held elsewhere.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key string, token string) error
	// Extend resets the lock's ttl. ok is false when token no longer holds it.
	Extend(ctx context.Context, key string, token string, ttl time.Duration) (ok bool, err error)
}

// EventPublisher emits committed ledger changes.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.LedgerEvent) error
}

// Metrics records operation outcomes. Implementations must be safe for concurrent use.
type Metrics interface {
	ObserveOperation(op string, outcome string)
	ObserveCredit(kind domain.EntryKind, amount decimal.Decimal)
	ObserveCycle(duration time.Duration, wallets int, failures int)
}

// AuditService records audit trails.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// SettlementService mutates balances: freeze, release, withdraw, deposit.
type SettlementService interface {
	Freeze(ctx context.Context, req FreezeRequest) (*LedgerResult, error)
	Release(ctx context.Context, req ReleaseRequest) (*ReleaseResult, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error)
	Deposit(ctx context.Context, req DepositRequest) (*DepositResult, error)
	OffchainWithdraw(ctx context.Context, req OffchainWithdrawRequest) (*LedgerResult, error)
}

type FreezeRequest struct {
	TraderID string
	Amount   decimal.Decimal
	OrderID  string
}

// ReleaseRequest settles a frozen order. Nil percentages take configured defaults.
type ReleaseRequest struct {
	TraderID        string
	OrderID         string
	RewardPercent   *decimal.Decimal
	PlatformFee     *decimal.Decimal
	MerchantID      string
	CommissionUsers []domain.CommissionRequest
}

type WithdrawRequest struct {
	TraderID  string
	ToAddress string
	Amount    decimal.Decimal
}

type DepositRequest struct {
	TraderID string
	Amount   decimal.Decimal
	TxHash   string
}

type OffchainWithdrawRequest struct {
	TraderID string
	Amount   decimal.Decimal
	TxHash   string
}

// LedgerResult is the account state and journal row produced by one operation.
type LedgerResult struct {
	Account *domain.Account
	Entry   *domain.LedgerEntry
}

// DepositResult reports Duplicate when the tx hash was already recorded.
type DepositResult struct {
	LedgerResult
	Duplicate bool
}

type WithdrawResult struct {
	LedgerResult
	TxHash     string
	Fee        decimal.Decimal
	TotalDebit decimal.Decimal
}

type ReleaseResult struct {
	Split              *domain.ReleaseSplit
	Distribution       domain.Distribution
	CommissionsSkipped int
	Trader             *domain.Account
}

// WithdrawalPolicy evaluates a trader's rule against a proposed withdrawal.
type WithdrawalPolicy interface {
	Evaluate(ctx context.Context, traderID string, amount decimal.Decimal) (domain.PolicyDecision, error)
}

// WalletService provisions accounts and answers balance queries.
type WalletService interface {
	CreateWallet(ctx context.Context, traderID string) (*domain.Account, bool, error) // account, created, error
	GetAccount(ctx context.Context, traderID string) (*domain.Account, error)
	GetOnchainBalance(ctx context.Context, traderID string) (decimal.Decimal, string, error) // balance, address, error
}

// ReportingService answers journal queries.
type ReportingService interface {
	History(ctx context.Context, traderID string, page, limit int) (*HistoryPage, error)
	RewardStats(ctx context.Context, traderID string, from, to time.Time) (decimal.Decimal, error)
	CommissionProfit(ctx context.Context, traderID string, from, to time.Time) (decimal.Decimal, error)
}

// HistoryPage is one page of journal entries, newest first.
type HistoryPage struct {
	Entries     []domain.LedgerEntry
	TotalItems  int64
	TotalPages  int
	CurrentPage int
	PerPage     int
	HasNext     bool
	HasPrev     bool
}

// AdminService manages withdrawal rules and stuck sweeps.
type AdminService interface {
	UpsertRule(ctx context.Context, req RuleUpsertRequest) (*domain.WithdrawalRule, error)
	GetRule(ctx context.Context, traderID string) (*domain.WithdrawalRule, error)
	DeleteRule(ctx context.Context, traderID string) error
	ResetSweep(ctx context.Context, traderID string) (*domain.Account, error)
}

// RuleUpsertRequest carries a partial rule; nil fields keep stored values.
type RuleUpsertRequest struct {
	TraderID        string
	FixedFee        *decimal.Decimal
	MinAmount       *decimal.Decimal
	CooldownSeconds *int64
}

// AuthService exchanges client credentials for a token.
type AuthService interface {
	IssueToken(ctx context.Context, clientID, secret string) (string, time.Time, error)
}
