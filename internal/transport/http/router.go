package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/transport/http/handler"
	"github.com/ErlanBelekov/bloodbank/internal/transport/http/middleware"
	"github.com/ErlanBelekov/bloodbank/internal/usecase"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type rateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RouterConfig struct {
	CORSOrigins []string
	// Limiter is nil when Redis is not configured; /auth is then unthrottled.
	Limiter        rateLimiter
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

func NewRouter(
	logger *slog.Logger,
	cfg RouterConfig,
	sessions *usecase.SessionIssuer,
	authHandler *handler.AuthHandler,
	donationHandler *handler.DonationHandler,
	reportHandler *handler.ReportHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMW := middleware.Auth(sessions)
	adminMW := middleware.Auth(sessions, domain.RoleAdmin)

	auth := r.Group("/auth")
	if cfg.Limiter != nil && cfg.AuthRateLimit > 0 {
		auth.Use(middleware.RateLimit(cfg.Limiter, cfg.AuthRateLimit, cfg.AuthRateWindow, logger))
	}
	auth.POST("/register", authHandler.Register)
	auth.POST("/verify-otp", authHandler.VerifyOTP)
	auth.POST("/resend-otp", authHandler.ResendOTP)
	auth.POST("/login", authHandler.Login)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/verify-reset-otp", authHandler.VerifyResetOTP)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/change-password", authMW, authHandler.ChangePassword)
	auth.GET("/me", authMW, authHandler.Me)

	donations := r.Group("/donations")
	donations.POST("", authMW, donationHandler.Create)
	donations.GET("", authMW, donationHandler.List)
	donations.GET("/all", adminMW, donationHandler.ListAll)

	reports := r.Group("/reports", adminMW)
	reports.GET("/daily", reportHandler.Daily)
	reports.GET("/range", reportHandler.Range)
	reports.GET("/users", reportHandler.Users)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
