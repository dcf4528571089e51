package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountingapp "github.com/travelcrm/backend/internal/application/accounting"
	paymentapp "github.com/travelcrm/backend/internal/application/payment"
	receiptapp "github.com/travelcrm/backend/internal/application/receipt"
	refundapp "github.com/travelcrm/backend/internal/application/refund"
	"github.com/travelcrm/backend/internal/infrastructure/cache"
	"github.com/travelcrm/backend/internal/infrastructure/config"
	"github.com/travelcrm/backend/internal/infrastructure/fiscal"
	"github.com/travelcrm/backend/internal/infrastructure/logger"
	"github.com/travelcrm/backend/internal/infrastructure/loyalty"
	"github.com/travelcrm/backend/internal/infrastructure/notify"
	"github.com/travelcrm/backend/internal/infrastructure/outbox"
	"github.com/travelcrm/backend/internal/infrastructure/persistence"
	"github.com/travelcrm/backend/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// resumeDelayedInterval is how often delayed refund cards are checked for
// a passed delay date
const resumeDelayedInterval = 1 * time.Minute

// Unacknowledged receipts are re-pushed in batches on a fixed cadence
const (
	resubmitReceiptsInterval = 5 * time.Minute
	resubmitReceiptsBatch    = 50
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting TravelCRM Finance Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	ledgerRepo := persistence.NewGormPaymentTransactionRepository(db.DB)
	cardRepo := persistence.NewGormFinancialCardRepository(db.DB)
	creditRepo := persistence.NewGormCreditRepository(db.DB)
	entryRepo := persistence.NewGormAccountingEntryRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	refundCardRepo := persistence.NewGormRefundCardRepository(db.DB)
	outboxRepo := persistence.NewGormOutboxRepository(db.DB)
	jobRepo := persistence.NewGormDeferredJobRepository(db.DB)
	dealStore := persistence.NewGormDealStore(db.DB, cfg.Accounting.ControlStageID)
	depositStore := persistence.NewGormDepositStore(db.DB)
	rateProvider := persistence.NewGormRateProvider(db.DB)
	debtProvider := persistence.NewLedgerDebtProvider(cardRepo, ledgerRepo)

	// Transaction scope for refund workflow side effects
	refundScope := persistence.NewGormRefundTransactionScope(db.DB)

	// Fiscal gateway (OFD provider)
	ofdGateway, err := fiscal.NewOFDAdapter(&fiscal.Config{
		BaseURL:   cfg.Fiscal.BaseURL,
		Token:     cfg.Fiscal.Token,
		GroupCode: cfg.Fiscal.GroupCode,
		Timeout:   cfg.Fiscal.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize fiscal gateway", zap.Error(err))
	}

	// Loyalty provider client
	loyaltyClient, err := loyalty.NewClient(&loyalty.Config{
		BaseURL:  cfg.Loyalty.BaseURL,
		Login:    cfg.Loyalty.Login,
		Password: cfg.Loyalty.Password,
		Timeout:  cfg.Loyalty.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize loyalty client", zap.Error(err))
	}

	// Idempotency store (Redis with in-memory fallback)
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}

	// Deferred job scheduler
	registry := scheduler.NewRegistry()
	sched := scheduler.NewScheduler(scheduler.Config{
		Enabled:       cfg.Scheduler.Enabled,
		PollInterval:  cfg.Scheduler.PollInterval,
		MaxConcurrent: cfg.Scheduler.MaxConcurrent,
		JobTimeout:    cfg.Scheduler.JobTimeout,
		RetryAttempts: cfg.Scheduler.RetryAttempts,
		RetryDelay:    cfg.Scheduler.RetryDelay,
	}, jobRepo, registry, log)
	deferrer := scheduler.NewJobDeferrer(jobRepo, cfg.Scheduler.RetryAttempts, log)

	// Point payments and refunds recorded through the loyalty flow
	paymentScope := persistence.NewGormPaymentTransactionScope(db.DB)
	pointReconciler := paymentapp.NewPointRefundReconciler(ledgerRepo, loyaltyClient)
	pointPaymentService := paymentapp.NewPointPaymentService(paymentScope, rateProvider, log).
		WithReconciler(pointReconciler)

	// Receipt issuance
	receiptManager := receiptapp.NewManager(receiptRepo, ofdGateway, receiptapp.ManagerConfig{
		URLBase:     cfg.Fiscal.URLBase,
		URLPrefix:   cfg.Fiscal.URLPrefix,
		SettleDelay: cfg.Fiscal.SettleDelay,
	}, log)
	receiptService := receiptapp.NewService(
		dealStore,
		cardRepo,
		ledgerRepo,
		creditRepo,
		refundCardRepo,
		receiptRepo,
		rateProvider,
		deferrer,
		receiptManager,
		log,
	)
	registry.Register(receiptapp.JobKindReceiptPush, scheduler.HandlerFunc(
		func(ctx context.Context, job *scheduler.Job) error {
			return receiptService.HandleDeferredPush(ctx, job.Payload)
		}))

	// Refund status notifications
	var refundNotifier refundapp.Notifier
	if cfg.Notify.WebhookURL != "" {
		refundNotifier, err = notify.NewWebhookNotifier(notify.Config{
			URL:     cfg.Notify.WebhookURL,
			Timeout: cfg.Notify.Timeout,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize webhook notifier", zap.Error(err))
		}
	} else {
		refundNotifier = notify.NewLoggingNotifier(log)
	}

	// Refund workflow
	refundService := refundapp.NewService(
		refundScope,
		dealStore,
		depositStore,
		&receiptIssuer{svc: receiptService},
		refundapp.Config{RefundStageID: cfg.Refund.StageID},
		log,
	).WithNotifier(refundNotifier).
		WithPointRefunder(pointPaymentService).
		WithJobCanceler(deferrer)

	// Realization accounting
	accountingService := accountingapp.NewService(dealStore, ledgerRepo, debtProvider, cardRepo, entryRepo, log)

	// Outbox processor delivering loyalty intents recorded by point payments
	processor := outbox.NewProcessor(outboxRepo, idempotencyStore, outbox.ProcessorConfig{
		BatchSize:        cfg.Outbox.BatchSize,
		PollInterval:     cfg.Outbox.PollInterval,
		CleanupEnabled:   cfg.Outbox.CleanupEnabled,
		CleanupRetention: cfg.Outbox.CleanupRetention,
		CleanupInterval:  1 * time.Hour,
	}, log)
	bonusExecutor := outbox.NewBonusExecutor(loyaltyClient)
	processor.Register(paymentapp.IntentBonusDebit, bonusExecutor)
	processor.Register(paymentapp.IntentBonusCredit, bonusExecutor)

	// Root context cancelled on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Outbox.ProcessorEnabled {
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		log.Info("Outbox processor started",
			zap.Int("batch_size", cfg.Outbox.BatchSize),
			zap.Duration("poll_interval", cfg.Outbox.PollInterval),
		)
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		log.Info("Deferred job scheduler started",
			zap.Duration("poll_interval", cfg.Scheduler.PollInterval),
			zap.Int("max_concurrent", cfg.Scheduler.MaxConcurrent),
		)
	}

	// Background loop resuming delayed refund cards
	go runResumeDelayed(ctx, refundService, refundCardRepo, log)

	// Background loop re-pushing receipts the provider has not acknowledged
	go runResubmitReceipts(ctx, receiptManager, log)

	// Daily realization sweep posting entries for control-stage deals
	sweepTrigger := scheduler.NewDailyTrigger(scheduler.DefaultDailyTriggerConfig(), "realization_sweep",
		func(ctx context.Context) error {
			result, err := accountingService.RunRealizationSweep(ctx, time.Now())
			if err != nil {
				return err
			}
			log.Info("Realization sweep finished",
				zap.Int("scanned", result.Scanned),
				zap.Int("posted", result.Posted),
				zap.Int("skipped", result.Skipped),
				zap.Int("failed", result.Failed),
			)
			return nil
		}, log)
	if err := sweepTrigger.Start(ctx); err != nil {
		log.Fatal("Failed to start realization sweep trigger", zap.Error(err))
	}

	log.Info("TravelCRM Finance Backend started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sweepTrigger.Stop(shutdownCtx); err != nil {
		log.Error("Realization sweep trigger shutdown failed", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Error("Scheduler shutdown failed", zap.Error(err))
		}
	}
	if cfg.Outbox.ProcessorEnabled {
		if err := processor.Stop(shutdownCtx); err != nil {
			log.Error("Outbox processor shutdown failed", zap.Error(err))
		}
	}

	log.Info("Server exited")
}

// receiptIssuer adapts the receipt service to the refund workflow port,
// which cares only about the issuance outcome
type receiptIssuer struct {
	svc *receiptapp.Service
}

func (i *receiptIssuer) HandleRefund(ctx context.Context, paymentID uuid.UUID, full bool) error {
	_, err := i.svc.HandleRefund(ctx, paymentID, full)
	return err
}

// delayedCardFinder lists delayed refund cards whose delay date has passed
type delayedCardFinder interface {
	FindDelayedDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// runResubmitReceipts periodically re-pushes receipts still waiting for
// provider acknowledgement
func runResubmitReceipts(ctx context.Context, manager *receiptapp.Manager, log *zap.Logger) {
	ticker := time.NewTicker(resubmitReceiptsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := manager.ResubmitPending(ctx, resubmitReceiptsBatch); err != nil {
				log.Error("Failed to resubmit pending receipts", zap.Error(err))
			}
		}
	}
}

// runResumeDelayed periodically wakes refund cards whose delay has expired
func runResumeDelayed(ctx context.Context, svc *refundapp.Service, finder delayedCardFinder, log *zap.Logger) {
	ticker := time.NewTicker(resumeDelayedInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			ids, err := finder.FindDelayedDue(ctx, now)
			if err != nil {
				log.Error("Failed to list delayed refund cards", zap.Error(err))
				continue
			}
			if len(ids) == 0 {
				continue
			}
			if err := svc.ResumeDelayed(ctx, now, ids); err != nil {
				log.Error("Failed to resume delayed refund cards", zap.Error(err))
			}
		}
	}
}

