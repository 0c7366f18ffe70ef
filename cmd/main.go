package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"complaints/backend/internal/api/handler"
	"complaints/backend/internal/bootstrap"
	"complaints/backend/internal/config"
	"complaints/backend/internal/hub"
	"complaints/backend/internal/localization"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/selector"
	"complaints/backend/internal/session"
	"complaints/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	logger := logging.New(cfg.LogLevel)
	logger.Info("Starting complaints backend...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Infrastructure
	infra, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open infrastructure: %v", err)
	}
	defer infra.Close()

	if cfg.UseLocalBackend {
		if err := infra.Store.Initialize(ctx); err != nil {
			logger.Fatalf("Failed to initialize store: %v", err)
		}
	}

	// 2. Live inbox, relayed through Redis when several instances share it
	var relay hub.Relay
	if cfg.KVBackend == "redis" {
		rdb, err := infra.RedisClient(ctx, cfg)
		if err != nil {
			logger.Fatalf("Failed to connect redis: %v", err)
		}
		relay = hub.NewRedisRelay(rdb, logger)
	}
	manager := hub.NewManager(relay, logger)
	go manager.Run(ctx)

	// 3. Services
	selector.Init(cfg, selector.Deps{Store: infra.Store, Publisher: manager, Logger: logger})
	tokens := session.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	// 4. Telegram intake, optional
	if cfg.TelegramBotToken != "" {
		localizer, err := localization.NewDefault()
		if err != nil {
			logger.Fatalf("Failed to load translations: %v", err)
		}
		bot, err := telegram.NewBotService(cfg.TelegramBotToken, telegram.Services{
			Complaints:    selector.Complaints(),
			Gamification:  selector.Gamification(),
			Notifications: selector.Notifications(),
		}, localizer, logger)
		if err != nil {
			logger.Fatalf("Failed to start Telegram bot: %v", err)
		}
		go bot.Run(ctx)
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, Telegram intake disabled")
	}

	// 5. HTTP
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(handler.Deps{
		Complaints:    selector.Complaints(),
		Analytics:     selector.Analytics(),
		Gamification:  selector.Gamification(),
		Notifications: selector.Notifications(),
		Hub:           manager,
		Tokens:        tokens,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        h.Router(handler.RouterOptions{RateLimitRPS: cfg.RateLimitRPS, RateBurst: cfg.RateBurst}),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("HTTP shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "mode": selector.CurrentMode()}).Info("HTTP server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server failed: %v", err)
	}
	logger.Info("Shutdown complete")
}
