package handler

import (
	"context"
	"strconv"
	"time"

	"custodial-ledger/internal/adapter/http/dto"
	"custodial-ledger/internal/adapter/http/middleware"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"
	"custodial-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WalletHandler serves the trader wallet API: provisioning, balance
// mutations and journal queries.
type WalletHandler struct {
	walletSvc     ports.WalletService
	settlementSvc ports.SettlementService
	reportingSvc  ports.ReportingService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, settlementSvc ports.SettlementService, reportingSvc ports.ReportingService) *WalletHandler {
	return &WalletHandler{
		walletSvc:     walletSvc,
		settlementSvc: settlementSvc,
		reportingSvc:  reportingSvc,
	}
}

// bind decodes and sanitizes a JSON body. It writes the error response itself.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return false
	}
	dto.SanitizeStruct(req)
	return true
}

// CreateWallet handles POST /wallets/create.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if !bind(c, &req) {
		return
	}
	c.Set(middleware.CtxAuditResource, req.TraderID)

	account, created, err := h.walletSvc.CreateWallet(c.Request.Context(), req.TraderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.CreateWalletResponse{
		TraderID: account.TraderID,
		Address:  account.Address,
		Created:  created,
	}
	if created {
		response.Created(c, resp)
		return
	}
	response.OK(c, resp)
}

// Deposit handles POST /wallets/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req dto.DepositRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.settlementSvc.Deposit(c.Request.Context(), ports.DepositRequest{
		TraderID: req.TraderID,
		Amount:   *req.Amount,
		TxHash:   req.TxHash,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.DepositResponse{
		LedgerResponse: toLedgerResponse(&result.LedgerResult),
		Duplicate:      result.Duplicate,
	})
}

// OffchainWithdraw handles POST /wallets/offchain-withdraw.
func (h *WalletHandler) OffchainWithdraw(c *gin.Context) {
	var req dto.OffchainWithdrawRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.settlementSvc.OffchainWithdraw(c.Request.Context(), ports.OffchainWithdrawRequest{
		TraderID: req.TraderID,
		Amount:   *req.Amount,
		TxHash:   req.TxHash,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toLedgerResponse(result))
}

// Freeze handles POST /wallets/freeze.
func (h *WalletHandler) Freeze(c *gin.Context) {
	var req dto.FreezeRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.settlementSvc.Freeze(c.Request.Context(), ports.FreezeRequest{
		TraderID: req.TraderID,
		Amount:   *req.Amount,
		OrderID:  req.OrderID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toLedgerResponse(result))
}

// Release handles POST /wallets/release.
func (h *WalletHandler) Release(c *gin.Context) {
	var req dto.ReleaseRequest
	if !bind(c, &req) {
		return
	}
	c.Set(middleware.CtxAuditResource, req.OrderID)

	result, err := h.settlementSvc.Release(c.Request.Context(), ports.ReleaseRequest{
		TraderID:        req.TraderID,
		OrderID:         req.OrderID,
		RewardPercent:   req.RewardPercent,
		PlatformFee:     req.PlatformFee,
		MerchantID:      req.MerchantID,
		CommissionUsers: req.Commissions(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ReleaseResponse{
		ReleaseSplit:       result.Split,
		Distribution:       result.Distribution,
		CommissionsSkipped: result.CommissionsSkipped,
		Trader:             dto.NewAccountResponse(result.Trader),
	})
}

// Withdraw handles POST /wallets/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req dto.WithdrawRequest
	if !bind(c, &req) {
		return
	}
	c.Set(middleware.CtxAuditResource, req.TraderID)

	result, err := h.settlementSvc.Withdraw(c.Request.Context(), ports.WithdrawRequest{
		TraderID:  req.TraderID,
		ToAddress: req.ToAddress,
		Amount:    *req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WithdrawResponse{
		LedgerResponse: toLedgerResponse(&result.LedgerResult),
		TxHash:         result.TxHash,
		Fee:            result.Fee,
		TotalDebit:     result.TotalDebit,
	})
}

// History handles GET /wallets/:traderId/history.
func (h *WalletHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.reportingSvc.History(c.Request.Context(), c.Param("traderId"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.HistoryResponse{
		Transactions: result.Entries,
		Pagination: dto.Pagination{
			TotalItems:   result.TotalItems,
			TotalPages:   result.TotalPages,
			CurrentPage:  result.CurrentPage,
			ItemsPerPage: result.PerPage,
			HasNextPage:  result.HasNext,
			HasPrevPage:  result.HasPrev,
		},
	})
}

// Balance handles GET /wallets/:traderId/balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	account, err := h.walletSvc.GetAccount(c.Request.Context(), c.Param("traderId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		TraderID: account.TraderID,
		Balance:  account.Balance,
		Frozen:   account.Frozen,
		Currency: account.Currency,
	})
}

// OnchainBalance handles GET /wallets/:traderId/onchain-balance.
func (h *WalletHandler) OnchainBalance(c *gin.Context) {
	traderID := c.Param("traderId")
	balance, address, err := h.walletSvc.GetOnchainBalance(c.Request.Context(), traderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.OnchainBalanceResponse{
		TraderID: traderID,
		Address:  address,
		Balance:  balance,
	})
}

// Address handles GET /wallets/:traderId/address.
func (h *WalletHandler) Address(c *gin.Context) {
	account, err := h.walletSvc.GetAccount(c.Request.Context(), c.Param("traderId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.AddressResponse{
		TraderID: account.TraderID,
		Address:  account.Address,
	})
}

// RewardStats handles POST /wallets/reward-stats.
func (h *WalletHandler) RewardStats(c *gin.Context) {
	h.sumOverRange(c, h.reportingSvc.RewardStats)
}

// CommissionProfit handles POST /wallets/commission-profit.
func (h *WalletHandler) CommissionProfit(c *gin.Context) {
	h.sumOverRange(c, h.reportingSvc.CommissionProfit)
}

type rangeSum func(ctx context.Context, traderID string, from, to time.Time) (decimal.Decimal, error)

func (h *WalletHandler) sumOverRange(c *gin.Context, sum rangeSum) {
	var req dto.RangeRequest
	if !bind(c, &req) {
		return
	}

	from, err := dto.ParseDate(req.From, false)
	if err != nil {
		response.Error(c, apperror.Validation("invalid from date"))
		return
	}
	to, err := dto.ParseDate(req.To, true)
	if err != nil {
		response.Error(c, apperror.Validation("invalid to date"))
		return
	}

	total, err := sum(c.Request.Context(), req.TraderID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SumResponse{
		TraderID: req.TraderID,
		From:     req.From,
		To:       req.To,
		Total:    total,
	})
}

func toLedgerResponse(r *ports.LedgerResult) dto.LedgerResponse {
	return dto.LedgerResponse{
		Account: dto.NewAccountResponse(r.Account),
		Entry:   r.Entry,
	}
}
