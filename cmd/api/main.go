package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"sportsbook-backend/internal/config"
	"sportsbook-backend/internal/handlers"
	"sportsbook-backend/internal/providers"
	"sportsbook-backend/internal/providers/apifootball"
	"sportsbook-backend/internal/providers/betsapi"
	"sportsbook-backend/internal/services"
)

type store interface {
	services.Store
	services.RateLimiter
}

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	st, err := newStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer st.Close()
	logger.WithField("driver", cfg.StoreDriver).Info("store ready")

	provider := newProvider(cfg, logger)
	cache := services.NewOddsCache(cfg.OddsCacheTTL, nil)
	oddsService := services.NewOddsService(provider, cache, cfg.OddsLeagueDeny, logger)

	hub := handlers.NewHub(logger)
	defer hub.Close()

	ledger := services.NewLedgerService(st, services.NewPasswordHasher(bcrypt.DefaultCost), hub, logger)
	jwtService := services.NewJWTService(cfg)

	if !cfg.AdminAuthEnabled() {
		logger.Warn("ADMIN_PASSWORD is not set: admin routes are open to anyone")
	}

	router := handlers.NewRouter(handlers.Dependencies{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Limiter: st,
		Odds:    oddsService,
		Ledger:  ledger,
		JWT:     jwtService,
		Hub:     hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"provider": provider.Name(),
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

func newStore(cfg *config.Config) (store, error) {
	if cfg.StoreDriver == config.StoreMemory {
		return services.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return services.NewRedisStore(ctx, cfg)
}

func newProvider(cfg *config.Config, logger *logrus.Logger) providers.Provider {
	if cfg.OddsProvider == config.ProviderAPIFootball {
		return apifootball.NewAdapter(apifootball.Config{
			BaseURL:   cfg.OddsBaseURL,
			Token:     cfg.OddsAPIToken,
			Leagues:   cfg.FootballLeagues,
			Bookmaker: cfg.FootballBookmaker,
			Season:    cfg.FootballSeason,
			Timeout:   cfg.OddsTimeout,
		}, logger)
	}

	return betsapi.NewAdapter(betsapi.Config{
		BaseURL:      cfg.OddsBaseURL,
		Token:        cfg.OddsAPIToken,
		SportID:      cfg.OddsSportID,
		UpcomingDays: cfg.OddsUpcomingDays,
		Timeout:      cfg.OddsTimeout,
	}, logger)
}
