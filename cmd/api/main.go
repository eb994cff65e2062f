package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"campusevents/internal/api"
	"campusevents/internal/auth"
	"campusevents/internal/catalog"
	"campusevents/internal/config"
	"campusevents/internal/httpmiddleware"
	"campusevents/internal/identity"
	"campusevents/internal/ledger"
	"campusevents/internal/reports"
	"campusevents/internal/store"
)

func main() {
	cfg := config.Load()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg config.App, logger zerolog.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.InitSchema(ctx); err != nil {
		return err
	}
	seedHash, err := auth.HashPassword(cfg.SeedAdminPass, cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := db.SeedDefaults(ctx, cfg.SeedAdminUser, cfg.SeedAdminEmail, seedHash); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var limiter httpmiddleware.Limiter
	if cfg.RateLimitStore == "redis" {
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, "campusevents:ratelimit", cfg.RateLimitPerMin)
	} else {
		limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}

	ids := identity.NewService(identity.NewRepository(db.Client), cfg.BcryptCost)
	cat := catalog.NewService(catalog.NewRepository(db.Client))
	led := ledger.NewService(ledger.NewRepository(db.Client))
	rep := reports.NewService(reports.NewRepository(db.Client))

	tokens := api.TokenConfig{
		Issuer:     cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
		AccessTTL:  cfg.AccessTTL,
	}
	app := api.New(logger, tokens, ids, cat, led, rep, db, redisClient, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      app.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server exited")
	return nil
}
