package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/learnmart/coupon-service/internal/config"
	"github.com/learnmart/coupon-service/internal/handler"
	"github.com/learnmart/coupon-service/internal/repository"
	"github.com/learnmart/coupon-service/internal/service"
	"github.com/learnmart/coupon-service/internal/validator"
	"github.com/learnmart/coupon-service/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Coupon Service",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	validate := validator.New()

	couponRepo := repository.NewCouponRepository(pool)
	purchaseRepo := repository.NewPurchaseRepository(pool)
	couponService := service.NewCouponService(couponRepo)
	validationService := service.NewValidationService(couponRepo, purchaseRepo)
	couponHandler := handler.NewCouponHandler(couponService, validate)
	validateHandler := handler.NewValidateHandler(validationService, validate)

	healthHandler := handler.NewHealthHandler(pool)
	app.Get("/health", healthHandler.Check)

	// Validation engine and redemption recorder
	app.Post("/api/coupons/validate", validateHandler.ValidateCoupon)
	app.Post("/api/coupons/:id/redemptions", couponHandler.RecordRedemption)

	// Admin coupon lifecycle
	app.Post("/api/coupons", couponHandler.CreateCoupon)
	app.Get("/api/coupons", couponHandler.ListCoupons)
	app.Get("/api/coupons/:code", couponHandler.GetCoupon)
	app.Patch("/api/coupons/:code", couponHandler.UpdateCoupon)
	app.Delete("/api/coupons/:code", couponHandler.DeactivateCoupon)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	pool.Close()
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
