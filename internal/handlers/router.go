package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"sportsbook-backend/internal/config"
	"sportsbook-backend/internal/middleware"
	"sportsbook-backend/internal/services"
)

const betRateWindow = time.Minute

type Dependencies struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Store   services.Store
	Limiter services.RateLimiter
	Odds    *services.OddsService
	Ledger  *services.LedgerService
	JWT     *services.JWTService
	Hub     *Hub
}

func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(deps.Logger))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	if !cfg.IsProduction() {
		pprof.Register(router)
	}

	oddsHandler := NewOddsHandler(deps.Odds)
	authHandler := NewAuthHandler(deps.Ledger, deps.JWT, deps.Logger)
	userHandler := NewUserHandler(deps.Ledger, deps.Logger)
	adminHandler := NewAdminHandler(deps.Ledger, deps.Logger)
	healthHandler := NewHealthHandler(deps.Store)
	wsHandler := NewWebSocketHandler(deps.Ledger, deps.Hub, deps.Logger)

	router.GET("/odds", oddsHandler.GetOdds)
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", wsHandler.HandleWebSocket)

	auth := router.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
	}

	user := router.Group("/user")
	{
		user.POST("/sync", userHandler.Sync)
		user.POST("/bet", middleware.RateLimit(deps.Limiter, "bet", cfg.BetRateLimit, betRateWindow), userHandler.PlaceBet)
	}

	router.POST("/admin/login", authHandler.AdminLogin)

	admin := router.Group("/admin")
	if cfg.AdminAuthEnabled() {
		admin.Use(middleware.AdminAuth(deps.JWT))
	}
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/balance", adminHandler.AdjustBalance)
	admin.POST("/settle", adminHandler.Settle)

	return router
}
