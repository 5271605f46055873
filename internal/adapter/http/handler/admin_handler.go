package handler

import (
	"custodial-ledger/internal/adapter/http/dto"
	"custodial-ledger/internal/adapter/http/middleware"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler manages withdrawal rules and stuck sweeps.
type AdminHandler struct {
	adminSvc ports.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminSvc ports.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// UpsertRule handles POST /admin/withdrawal-rules.
func (h *AdminHandler) UpsertRule(c *gin.Context) {
	var req dto.RuleRequest
	if !bind(c, &req) {
		return
	}
	c.Set(middleware.CtxAuditResource, req.TraderID)

	rule, err := h.adminSvc.UpsertRule(c.Request.Context(), ports.RuleUpsertRequest{
		TraderID:        req.TraderID,
		FixedFee:        req.FixedFee,
		MinAmount:       req.MinAmount,
		CooldownSeconds: req.CooldownSeconds,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rule)
}

// GetRule handles GET /withdrawal-rules/:traderId.
func (h *AdminHandler) GetRule(c *gin.Context) {
	rule, err := h.adminSvc.GetRule(c.Request.Context(), c.Param("traderId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rule)
}

// DeleteRule handles DELETE /withdrawal-rules/:traderId.
func (h *AdminHandler) DeleteRule(c *gin.Context) {
	traderID := c.Param("traderId")
	if err := h.adminSvc.DeleteRule(c.Request.Context(), traderID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"traderId": traderID, "deleted": true})
}

// ResetSweep handles POST /admin/sweeps/:traderId/reset.
func (h *AdminHandler) ResetSweep(c *gin.Context) {
	account, err := h.adminSvc.ResetSweep(c.Request.Context(), c.Param("traderId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewAccountResponse(account))
}
