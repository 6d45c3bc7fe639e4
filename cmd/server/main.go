package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/stockledger/internal/application/catalog"
	financeapp "github.com/erp/stockledger/internal/application/finance"
	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	partnerapp "github.com/erp/stockledger/internal/application/partner"
	tradeapp "github.com/erp/stockledger/internal/application/trade"
	"github.com/erp/stockledger/internal/infrastructure/cache"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/event"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/erp/stockledger/internal/infrastructure/scheduler"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/erp/stockledger/internal/interfaces/http/handler"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/erp/stockledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = baseLog.Sync() }()

	ctx := context.Background()
	tel := initTelemetry(ctx, cfg, baseLog)
	defer tel.shutdown(baseLog)
	log := tel.log

	log.Info("Starting stock ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	backends, err := cache.NewBackendFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize coordination backends", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(); err != nil {
			log.Error("Error closing coordination backends", zap.Error(err))
		}
	}()

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	usageChecker := persistence.NewGormUOMUsageChecker(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	voucherRepo := persistence.NewGormPurchaseVoucherRepository(db.DB)
	orderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	payableRepo := persistence.NewGormAccountPayableRepository(db.DB)
	ledger := persistence.NewGormStockLedger(db.DB, log)

	// Event bus with a deduplicated audit trail
	eventBus := event.NewInMemoryEventBus(log)
	audit := event.NewAuditLogHandler(event.NewLedgerSerializer(), log)
	eventBus.Subscribe(event.NewIdempotentHandler("audit", audit, backends.Idempotency, 0, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:         tel.meters.Meter("stockledger/ledger"),
		Logger:        log,
		GaugeProvider: telemetry.NewGormStockGaugeProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize ledger metrics", zap.Error(err))
	}
	if tel.meters.IsEnabled() {
		ledgerMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
		defer ledgerMetrics.Stop()
	}

	// Services
	productService := catalogapp.NewProductService(productRepo, usageChecker, log)
	productService.SetEventPublisher(eventBus)

	partnerService := partnerapp.NewPartnerService(supplierRepo, warehouseRepo, log)

	inventoryService := inventoryapp.NewInventoryService(batchRepo, movementRepo, ledger, productRepo, warehouseRepo, log)
	inventoryService.SetEventPublisher(eventBus)
	inventoryService.SetMetrics(ledgerMetrics)
	recorder := inventoryService.Recorder()

	voucherService := tradeapp.NewVoucherService(voucherRepo, productRepo, supplierRepo, warehouseRepo, log)
	voucherService.SetEventPublisher(eventBus)

	receiving := tradeapp.NewReceivingWorkflow(voucherRepo, productRepo, supplierRepo, payableRepo, ledger,
		backends.Locker, tradeapp.ReceivingConfig{
			LockTTL:                cfg.Ledger.ReceiveLockTTL,
			DefaultPaymentTermDays: cfg.Ledger.DefaultPaymentTermDays,
		}, log)
	receiving.SetRecorder(recorder)
	receiving.SetEventPublisher(eventBus)
	receiving.SetMetrics(ledgerMetrics)

	sales := tradeapp.NewSaleWorkflow(orderRepo, productRepo, inventoryService, ledger, tradeapp.SaleConfig{
		IdempotencyTTL:   cfg.Ledger.IdempotencyTTL,
		DecrementTimeout: cfg.Ledger.DecrementTimeout,
	}, log)
	sales.SetIdempotencyStore(backends.Idempotency)
	sales.SetRecorder(recorder)
	sales.SetEventPublisher(eventBus)
	sales.SetMetrics(ledgerMetrics)

	payableService := financeapp.NewPayableService(payableRepo, log)
	payableService.SetEventPublisher(eventBus)
	payableService.SetMetrics(ledgerMetrics)

	expirySweeper := inventoryapp.NewExpirySweeper(batchRepo, ledger, recorder, log)
	expirySweeper.SetEventPublisher(eventBus)
	expirySweeper.SetMetrics(ledgerMetrics)

	// Periodic sweeps, one replica per tick through the shared locker
	sched := scheduler.New(scheduler.Config{
		Enabled:     true,
		LockTTL:     cfg.Ledger.SweepLockTTL,
		TaskTimeout: cfg.Ledger.SweepLockTTL,
	}, backends.Locker, log)
	tasks := []scheduler.Task{
		{
			Name:     "expiry-sweep",
			Interval: cfg.Ledger.ExpirySweepInterval,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := expirySweeper.Sweep(ctx, now)
				return err
			},
		},
		{
			Name:     "overdue-payables",
			Interval: cfg.Ledger.OverdueSweepInterval,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := payableService.MarkOverdue(ctx, now)
				return err
			},
		},
	}
	for _, task := range tasks {
		if err := sched.Register(task); err != nil {
			log.Fatal("Failed to register task", zap.String("task", task.Name), zap.Error(err))
		}
	}
	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer func() {
		if err := sched.Stop(context.Background()); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}()

	engine := newEngine(cfg, log, tel.meters)
	router.Mount(engine, router.Handlers{
		Products:  handler.NewProductHandler(productService),
		Partners:  handler.NewPartnerHandler(partnerService),
		Inventory: handler.NewInventoryHandler(inventoryService),
		Vouchers:  handler.NewVoucherHandler(voucherService, receiving),
		Sales:     handler.NewSalesHandler(sales),
		Payables:  handler.NewPayableHandler(payableService),
		System:    handler.NewSystemHandler(db, version),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// newEngine builds the gin engine with the middleware chain in order:
// panic recovery first, then request id so every later layer can log it.
func newEngine(cfg *config.Config, log *zap.Logger, meters *telemetry.MeterProvider) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = append(cors.AllowHeaders, cfg.HTTP.CORSAllowHeaders...)

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(meters),
		middleware.Profiling(middleware.ProfilingConfig{
			Enabled:   cfg.Telemetry.ProfilingEnabled,
			SkipPaths: middleware.DefaultProfilingConfig().SkipPaths,
		}),
		middleware.CORS(cors),
		middleware.Secure(),
		middleware.BodyLimit(middleware.DefaultBodyLimit),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)
	return engine
}
