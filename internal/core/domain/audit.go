package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRuleUpsert   AuditAction = "RULE_UPSERT"
	AuditActionRuleDelete   AuditAction = "RULE_DELETE"
	AuditActionSweepReset   AuditAction = "SWEEP_RESET"
	AuditActionWalletCreate AuditAction = "WALLET_CREATE"
	AuditActionWithdraw     AuditAction = "WITHDRAW"
	AuditActionRelease      AuditAction = "RELEASE"
	AuditActionTokenIssue   AuditAction = "TOKEN_ISSUE"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	ActorID      string      `json:"actor_id,omitempty"` // API client id from the token
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
