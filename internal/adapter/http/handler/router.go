package handler

import (
	"net/http"

	"custodial-ledger/internal/adapter/http/middleware"
	redisStore "custodial-ledger/internal/adapter/storage/redis"
	"custodial-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	WalletSvc      ports.WalletService
	SettlementSvc  ports.SettlementService
	ReportingSvc   ports.ReportingService
	AdminSvc       ports.AdminService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	MetricsHandler http.Handler       // nil = metrics not served
	MetricsPath    string             // defaults to /metrics
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(deps.MetricsHandler))
	}

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	r.POST("/auth/token", rl("auth_token"), authHandler.IssueToken)

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	serviceOnly := middleware.RequireRole(ports.RoleService, ports.RoleAdmin)
	adminOnly := middleware.RequireRole(ports.RoleAdmin)

	// --- Trader wallets (service tokens) ---
	walletHandler := NewWalletHandler(deps.WalletSvc, deps.SettlementSvc, deps.ReportingSvc)
	wallets := r.Group("/wallets", jwtAuth, serviceOnly)
	{
		wallets.POST("/create", rl("wallets_write"), walletHandler.CreateWallet)
		wallets.POST("/deposit", rl("wallets_write"), walletHandler.Deposit)
		wallets.POST("/offchain-withdraw", rl("wallets_write"), walletHandler.OffchainWithdraw)
		wallets.POST("/freeze", rl("wallets_write"), walletHandler.Freeze)
		wallets.POST("/release", rl("wallets_write"), walletHandler.Release)
		wallets.POST("/withdraw", rl("wallets_write"), walletHandler.Withdraw)
		wallets.POST("/reward-stats", rl("wallets_read"), walletHandler.RewardStats)
		wallets.POST("/commission-profit", rl("wallets_read"), walletHandler.CommissionProfit)
		wallets.GET("/:traderId/history", rl("wallets_read"), walletHandler.History)
		wallets.GET("/:traderId/balance", rl("wallets_read"), walletHandler.Balance)
		wallets.GET("/:traderId/onchain-balance", rl("wallets_read"), walletHandler.OnchainBalance)
		wallets.GET("/:traderId/address", rl("wallets_read"), walletHandler.Address)
	}

	// --- Operator routes (admin tokens) ---
	adminHandler := NewAdminHandler(deps.AdminSvc)
	admin := r.Group("/admin", jwtAuth, adminOnly)
	{
		admin.POST("/withdrawal-rules", rl("admin"), adminHandler.UpsertRule)
		admin.POST("/sweeps/:traderId/reset", rl("admin"), adminHandler.ResetSweep)
	}

	rulesGroup := r.Group("/withdrawal-rules", jwtAuth, adminOnly)
	{
		rulesGroup.GET("/:traderId", rl("admin"), adminHandler.GetRule)
		rulesGroup.DELETE("/:traderId", rl("admin"), adminHandler.DeleteRule)
	}

	return r
}
