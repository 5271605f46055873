package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"custodial-ledger/config"
	"custodial-ledger/internal/adapter/chain"
	httpHandler "custodial-ledger/internal/adapter/http/handler"
	"custodial-ledger/internal/adapter/messaging"
	"custodial-ledger/internal/adapter/metrics"
	pgStorage "custodial-ledger/internal/adapter/storage/postgres"
	redisStorage "custodial-ledger/internal/adapter/storage/redis"
	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/internal/service"
	"custodial-ledger/pkg/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("currency", cfg.Custody.Currency).
		Msg("Starting Custodial Ledger")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := pgStorage.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		log.Info().Msg("Schema applied")
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Chain access
	gateway, ethClient, err := chain.Dial(ctx, cfg.Chain, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to chain RPC")
	}
	defer ethClient.Close()

	watcher, err := chain.NewAddressWatcher(ctx, cfg.Watcher, cfg.Chain, gateway, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start address watcher")
	}

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	ruleRepo := pgStorage.NewWithdrawalRuleRepo(pool)
	indexRepo := pgStorage.NewWalletIndexRepo()
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool, cfg.Database.LockTimeout)

	// Initialize Redis stores
	depositCache := redisStorage.NewDepositCache(rdb)
	locker := redisStorage.NewLocker(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Event publishing and metrics
	var publisher interface {
		ports.EventPublisher
		Close() error
	} = messaging.NoopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = messaging.NewKafkaPublisher(cfg.Kafka, log)
	}
	defer publisher.Close() //nolint:errcheck
	dispatcher := service.NewEventDispatcher(publisher, logger.Component(log, "event_dispatcher"))

	var metricsSink ports.Metrics = metrics.Noop{}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheus()
		metricsSink = prom
		metricsHandler = prom.Handler()
	}

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	clients := make([]service.APIClient, 0, len(cfg.Auth.Clients))
	for _, c := range cfg.Auth.Clients {
		clients = append(clients, service.APIClient{ID: c.ID, SecretHash: c.SecretHash, Role: c.Role})
	}

	// Initialize business services
	authSvc := service.NewAuthService(clients, hashSvc, tokenSvc, auditSvc)
	walletSvc := service.NewWalletService(
		accountRepo,
		indexRepo,
		chain.NewKeyGenerator(),
		encSvc,
		gateway,
		watcher,
		transactor,
		cfg.Custody.Currency,
		logger.Component(log, "wallet"),
	)
	settlementSvc := service.NewSettlementService(service.SettlementDeps{
		Accounts:     accountRepo,
		Ledger:       ledgerRepo,
		Policy:       service.NewWithdrawalPolicy(ruleRepo, ledgerRepo),
		Chain:        gateway,
		Encryption:   encSvc,
		DepositCache: depositCache,
		Locker:       locker,
		Publisher:    dispatcher,
		Metrics:      metricsSink,
		Transactor:   transactor,
	}, service.SettlementConfig{
		Currency:             cfg.Custody.Currency,
		CustodyTraderID:      cfg.Custody.TraderID,
		DefaultRewardPercent: cfg.Settlement.DefaultRewardPercent,
		DefaultPlatformFee:   cfg.Settlement.DefaultPlatformFeeRate,
		WithdrawLockTTL:      cfg.Withdrawal.LockTTL,
		DepositCacheTTL:      cfg.Settlement.DepositCacheTTL,
	}, logger.Component(log, "settlement"))
	reportingSvc := service.NewReportingService(ledgerRepo)
	adminSvc := service.NewAdminService(ruleRepo, accountRepo, transactor, cfg.Custody.Currency, logger.Component(log, "admin"))

	worker := service.NewReconciliationWorker(service.ReconciliationDeps{
		Accounts:   accountRepo,
		Ledger:     ledgerRepo,
		Chain:      gateway,
		Encryption: encSvc,
		Locker:     locker,
		Publisher:  dispatcher,
		Metrics:    metricsSink,
		Transactor: transactor,
	}, service.ReconciliationConfig{
		Currency:        cfg.Custody.Currency,
		CustodyTraderID: cfg.Custody.TraderID,
		Interval:        cfg.Reconciliation.Interval,
		DustThreshold:   cfg.Reconciliation.DustThreshold,
		LeaseTTL:        cfg.Reconciliation.LeaseTTL,
	}, log)

	// Existing deposit addresses are watched from startup.
	wallets, err := accountRepo.ListManaged(ctx, cfg.Custody.Currency, cfg.Custody.TraderID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list managed wallets")
	}
	for _, w := range wallets {
		watcher.Watch(w.Address)
	}
	log.Info().Int("wallets", len(wallets)).Msg("Deposit addresses watched")

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		WalletSvc:      walletSvc,
		SettlementSvc:  settlementSvc,
		ReportingSvc:   reportingSvc,
		AdminSvc:       adminSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool), redisStorage.NewHealthCheck(rdb)},
		AuditSvc:       auditSvc,
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Reconciliation.Enabled {
		worker.Start(gctx)
		g.Go(func() error {
			err := watcher.Run(gctx, func(t domain.ChainTransfer) {
				worker.Trigger(t.To)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Address watcher stopped; deposits rely on the periodic reconciliation cycle")
			}
			return nil
		})
	} else {
		log.Warn().Msg("Reconciliation disabled; deposits must be credited through the API")
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		worker.Stop()
		auditSvc.Close()
		if err := dispatcher.Wait(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Pending ledger events dropped")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Exited with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}
