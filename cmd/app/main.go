package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"telegram-credential-broker/internal/application"
	"telegram-credential-broker/internal/config"
	"telegram-credential-broker/internal/infra/logging"
	red "telegram-credential-broker/internal/infra/redis"
	"telegram-credential-broker/internal/infra/sched"
	"telegram-credential-broker/internal/infra/store"
	tele "telegram-credential-broker/internal/infra/telegram"
	"telegram-credential-broker/internal/infra/web"
	"telegram-credential-broker/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (console logging)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	catalog := cfg.Catalog()

	// ---- Persistent store ----
	st, err := store.Open(cfg.Store.Dir, cfg.Store.LockTimeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("store open failed")
	}

	userRepo := store.NewUserRepo()
	payRepo := store.NewPaymentRepo()
	credRepo := store.NewCredentialRepo()
	subRepo := store.NewSubscriptionRepo()
	couponRepo := store.NewCouponRepo()
	refRepo := store.NewReferralRepo()
	settingsRepo := store.NewSettingsRepo()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	stateRepo := red.NewStateRepo(redisClient, cfg.Redis.StateTTL)

	// ---- Use cases ----
	poolUC := usecase.NewPoolUseCase(credRepo, catalog, st, logger)
	pricingUC := usecase.NewPricingUseCase(couponRepo, settingsRepo, cfg.Referral, st, logger)
	referralUC := usecase.NewReferralUseCase(refRepo, userRepo, subRepo, cfg.Referral, st, logger)
	paymentUC := usecase.NewPaymentUseCase(payRepo, subRepo, userRepo, couponRepo, poolUC, pricingUC, referralUC, catalog, st, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, credRepo, poolUC, st, logger)
	userUC := usecase.NewUserUseCase(userRepo, subRepo, poolUC, st, logger)
	couponUC := usecase.NewCouponUseCase(couponRepo, st, logger)
	salesUC := usecase.NewSalesUseCase(settingsRepo, st, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, subRepo, payRepo, credRepo, st, logger)

	core := application.NewCore(userUC, poolUC, paymentUC, subUC, couponUC, referralUC, pricingUC, salesUC, statsUC, catalog)

	// ---- Telegram ----
	bot, err := tele.NewBot(&cfg.Bot, core, stateRepo, rateLimiter, 8, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram init failed")
	}
	go func() {
		if err := bot.StartPolling(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Workers ----
	expiryWorker := sched.NewExpiryWorker(
		cfg.Monitor.SweepInterval, cfg.Monitor.ExpiryWarning, cfg.Monitor.LowAvailabilityThreshold,
		subUC, poolUC, bot, logger)
	go func() { _ = expiryWorker.Run(ctx) }()

	reaper := sched.NewPaymentReaper(cfg.Payments.ReapInterval, cfg.Payments.PendingTTL, paymentUC, bot, logger)
	go func() { _ = reaper.Run(ctx) }()

	// ---- Admin web ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.Password, cfg.Admin.SessionTTL)
	server := web.NewServer(core, auth, cfg.Admin.Port, logger)
	go func() {
		if err := server.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("admin web stopped")
		}
	}()

	logger.Info().Int("plans", len(catalog)).Msg("broker started")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	bot.StopPolling()
}
