// Package main runs the Family Festival registration HTTP server with
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ibgp-events/backend/config"
	"github.com/ibgp-events/backend/internal/middleware"
	"github.com/ibgp-events/backend/internal/registration"
	"github.com/ibgp-events/backend/internal/session"
	"github.com/ibgp-events/backend/pkg/database"
	"github.com/ibgp-events/backend/pkg/redis"
	"github.com/ibgp-events/backend/pkg/response"
	"github.com/ibgp-events/backend/pkg/sheets"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Form sessions live in Redis for the lifetime of one page load.
	sessionStore := session.NewStore(rdb.Client, time.Duration(cfg.Session.TTLMinutes)*time.Minute, logger)
	sessionHandler := session.NewHandler(sessionStore, logger)

	// Submission collaborator (spreadsheet webhook) and local persistence.
	sheetsClient := sheets.NewClient(cfg.Sheets.EndpointURL, time.Duration(cfg.Sheets.TimeoutSec)*time.Second, logger)
	registrationRepo := registration.NewRepository(pool)
	registrationService := registration.NewService(registrationRepo, sheetsClient, registration.PixConfig{
		Key:          cfg.Pix.Key,
		MerchantName: cfg.Pix.MerchantName,
		MerchantCity: cfg.Pix.MerchantCity,
	}, logger)
	registrationHandler := registration.NewHandler(registrationService, sessionStore, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Form sessions
	router.POST("/sessions", sessionHandler.Create)
	router.GET("/sessions/:id", sessionHandler.Get)
	router.POST("/sessions/:id/participants", sessionHandler.AddParticipant)
	router.PATCH("/sessions/:id/participants/:index", sessionHandler.UpdateParticipant)
	router.DELETE("/sessions/:id/participants/:index", sessionHandler.RemoveParticipant)
	router.PUT("/sessions/:id/payment", sessionHandler.SetPayment)

	// Submission and duplicate check
	router.POST("/sessions/:id/submit", registrationHandler.Submit)
	router.GET("/registrations/tax-id/:cpf/exists", registrationHandler.TaxIDExists)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
