package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ErlanBelekov/bloodbank/config"
	"github.com/ErlanBelekov/bloodbank/internal/email"
	"github.com/ErlanBelekov/bloodbank/internal/health"
	"github.com/ErlanBelekov/bloodbank/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/bloodbank/internal/infrastructure/redis"
	ctxlog "github.com/ErlanBelekov/bloodbank/internal/log"
	"github.com/ErlanBelekov/bloodbank/internal/metrics"
	"github.com/ErlanBelekov/bloodbank/internal/scheduler"
	httptransport "github.com/ErlanBelekov/bloodbank/internal/transport/http"
	"github.com/ErlanBelekov/bloodbank/internal/transport/http/handler"
	"github.com/ErlanBelekov/bloodbank/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.MigrateUp(cfg.DatabaseURL); err != nil {
		stop()
		log.Fatalf("migrate: %v", err)
	}

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer).
		Add("postgres", health.PingFunc(pool.Ping))

	var (
		guard   usecase.OTPGuard = usecase.NoopGuard{}
		routing                  = httptransport.RouterConfig{
			CORSOrigins:    cfg.CORSOrigins,
			AuthRateLimit:  cfg.AuthRateLimit,
			AuthRateWindow: cfg.AuthRateWindow,
		}
	)
	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()

		checker.Add("redis", health.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
		guard = redis.NewOTPGuard(rdb, redis.OTPGuardConfig{
			Cooldown:      cfg.OTPResendCooldown,
			MaxAttempts:   cfg.OTPMaxAttempts,
			AttemptWindow: cfg.OTPTTL,
		}, logger)
		routing.Limiter = redis.NewCounter(rdb, "ratelimit")
	} else {
		logger.Warn("REDIS_URL not set; OTP throttling and auth rate limiting disabled")
	}

	loc, _ := cfg.Location()
	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	// Account lifecycle
	identityRepo := postgres.NewIdentityRepository(pool)
	creds := usecase.NewCredentialStore(identityRepo, cfg.BcryptCost)
	otp := usecase.NewOTPEngine(postgres.NewOTPRepository(pool), cfg.OTPTTL)
	sessions := usecase.NewSessionIssuer(creds, []byte(cfg.JWTSecret), cfg.JWTTTL)
	authUsecase := usecase.NewAuthUsecase(creds, otp, sessions, guard, sender, logger)
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	// Donations
	donationRepo := postgres.NewDonationRepository(pool)
	ledger := usecase.NewDonationLedger(donationRepo)
	donationHandler := handler.NewDonationHandler(ledger, logger)

	// Reports
	reports := usecase.NewReportAggregator(identityRepo, donationRepo, loc)
	reportHandler := handler.NewReportHandler(reports, logger)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(logger, routing, sessions, authHandler, donationHandler, reportHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	var wg sync.WaitGroup
	sweeper := scheduler.NewSweeper(otp, cfg.OTPSweepCron, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sweeper.Start(ctx); err != nil {
			logger.Error("sweeper", "error", err)
		}
	}()

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
	wg.Wait()
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
