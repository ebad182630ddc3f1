package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"cartao/internal/auth"
	"cartao/internal/backend"
	"cartao/internal/cache"
	"cartao/internal/cli"
	"cartao/internal/core"
	apphttp "cartao/internal/http"
	"cartao/internal/metrics"
	"cartao/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("cartao")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateServer(); err != nil {
		logger.Error("Server configuration validation failed", "error", err)
		os.Exit(1)
	}

	cycle, err := core.NewBillingCycle(cfg.TurnoverDay, cfg.DueDay)
	if err != nil {
		logger.Error("Invalid billing cycle", "error", err)
		os.Exit(1)
	}
	clock := core.SystemClock{Location: cfg.Location()}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize receipt storage", "error", err, "backend", cfg.BlobBackend)
		os.Exit(1)
	}

	m := metrics.New()

	var publisher services.CleanupPublisher
	if res.Publisher != nil {
		publisher = res.Publisher
	}
	receipts := services.NewReceipts(res.Store, publisher, m)

	creds, err := auth.NewCredentials(cfg.AuthLogin, cfg.AuthPassword, cfg.AuthPasswordHash)
	if err != nil {
		logger.Error("Failed to set up credentials", "error", err)
		os.Exit(1)
	}
	session := auth.NewSession(auth.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL), cfg.CookieSecure)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		People:         services.NewPeopleService(repo, receipts),
		Purchases:      services.NewPurchaseService(repo, cycle, cfg.MaxInstallments, receipts, m),
		Installments:   services.NewInstallmentService(repo, receipts, clock, m),
		Reports:        services.NewReportService(repo, cycle, clock),
		Session:        session,
		Credentials:    creds,
		Clock:          clock,
		Metrics:        m,
		Database:       repo,
		Receipts:       res.Store,
		LoginRateLimit: cfg.LoginRateLimit,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	caches := cache.NewManager()
	if res.Cached != nil {
		caches.Register("receipts", res.Cached.Cache())
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	caches.StartCleanup(ctx, 10*time.Minute)

	logger.Info("Starting cartao server",
		"port", cfg.Port,
		"blob_backend", cfg.BlobBackend,
		"amqp", publisher != nil,
		"turnover_day", cycle.TurnoverDay,
		"due_day", cycle.DueDay,
		"timezone", cfg.Timezone,
		"current_period", cycle.Current(clock).String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
