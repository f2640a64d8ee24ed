package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seein-app/seein-backend/internal/app"
	"github.com/seein-app/seein-backend/internal/auth"
	"github.com/seein-app/seein-backend/internal/clova"
	"github.com/seein-app/seein-backend/internal/observability"
	"github.com/seein-app/seein-backend/internal/openai"
	"github.com/seein-app/seein-backend/internal/platform/cache"
	"github.com/seein-app/seein-backend/internal/platform/db"
	"github.com/seein-app/seein-backend/internal/product"
	"github.com/seein-app/seein-backend/internal/quota"
	"github.com/seein-app/seein-backend/internal/receipt"
	"github.com/seein-app/seein-backend/internal/stt"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// Redis only backs the AI usage quota; the server still starts without it.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, ai quota disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL(), cfg.BearerClockSkew)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, issuer)
	authHandler := auth.NewHandler(logger, authService, issuer)

	openaiClient := openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAITimeout)
	openaiClient.SetObserver(metrics.ObserveUpstream)
	clovaClient := clova.NewClient(cfg.ClovaOCRURL, cfg.ClovaOCRSecret, cfg.ClovaTimeout)
	clovaClient.SetObserver(metrics.ObserveUpstream)

	productService := product.NewService(logger, openaiClient)
	productHandler := product.NewHandler(logger, productService)

	receiptService := receipt.NewService(logger, clovaClient, openaiClient)
	receiptHandler := receipt.NewHandler(logger, receiptService)

	quotaLimiter := quota.NewLimiter(logger, redisClient, cfg.AIQuotaPerDay)

	sttService := stt.NewService(openaiClient)
	sttHandler := stt.NewHandler(logger, sttService, auth.RequireBearer(issuer), quotaLimiter.Middleware)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    authHandler,
		ProductHandler: productHandler,
		ReceiptHandler: receiptHandler,
		STTHandler:     sttHandler,
		Quota:          quotaLimiter,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
