package middleware

import (
	"encoding/json"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type auditRoute struct {
	action       domain.AuditAction
	resourceType string
}

// auditedRoutes maps "METHOD route-pattern" to the action it records.
var auditedRoutes = map[string]auditRoute{
	"POST /wallets/create":               {domain.AuditActionWalletCreate, "account"},
	"POST /wallets/withdraw":             {domain.AuditActionWithdraw, "account"},
	"POST /wallets/release":              {domain.AuditActionRelease, "order"},
	"POST /admin/withdrawal-rules":       {domain.AuditActionRuleUpsert, "withdrawal_rule"},
	"DELETE /withdrawal-rules/:traderId": {domain.AuditActionRuleDelete, "withdrawal_rule"},
	"POST /admin/sweeps/:traderId/reset": {domain.AuditActionSweepReset, "account"},
}

// AuditLog records successful sensitive writes after the handler ran.
// Handlers without a traderId path parameter name the resource through
// CtxAuditResource.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		route, ok := auditedRoutes[c.Request.Method+" "+c.FullPath()]
		if !ok {
			return
		}

		resourceID := c.Param("traderId")
		if resourceID == "" {
			resourceID = c.GetString(CtxAuditResource)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(CtxRequestID),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			ActorID:      c.GetString(CtxClientID),
			Action:       route.action,
			ResourceType: route.resourceType,
			ResourceID:   resourceID,
			Details:      string(details),
			IPAddress:    c.ClientIP(),
			CreatedAt:    time.Now().UTC(),
		})
	}
}
