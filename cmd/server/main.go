package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	billingapp "github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/application/billing"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/invoice"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/config"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/logger"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/persistence"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/telemetry"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/interfaces/http/handler"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/interfaces/http/middleware"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting DME billing service",
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
		ExportInterval:    cfg.Telemetry.ExportInterval,
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	billingMetrics, err := telemetry.NewBillingMetrics(meterProvider.Meter("dme-billing"))
	if err != nil {
		log.Fatal("Failed to register billing metrics", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)

	engine := invoice.NewService(shared.SystemClock())
	invoiceService := billingapp.NewInvoiceService(
		invoiceRepo,
		auditRepo,
		engine,
		billingapp.PolicyFromConfig(&cfg.Billing),
		log,
	)
	invoiceService.SetMetrics(billingMetrics)
	calculatorService := billingapp.NewCalculatorService(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	httpEngine, err := router.NewEngine(router.EngineConfig{
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		TrustedProxies: cfg.HTTP.TrustedProxies,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		QuietPaths:     []string{"/health"},
	}, log)
	if err != nil {
		log.Fatal("Failed to configure HTTP engine", zap.Error(err))
	}

	handler.NewHealthHandler(db, cfg.App.Name).RegisterRoutes(&httpEngine.RouterGroup)
	router.NewRouter(httpEngine, router.WithAPIVersion("v1")).
		Register(handler.NewCalculatorHandler(calculatorService)).
		Register(handler.NewInvoiceHandler(invoiceService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        httpEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}

	log.Info("Server exited")
}
