package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ogurasousui/taskvault/internal/adapters/telegram"
	"github.com/ogurasousui/taskvault/internal/platform/config"
	"github.com/ogurasousui/taskvault/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatalf("failed to load bot config: %v", err)
	}

	logger, err := logging.New(config.LogConfig{Level: "info", Development: cfg.Debug})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.WebAppURL == "" {
		logger.Warn("WEBAPP_URL is not set; /webapp links will be incomplete")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}
	bot.Debug = cfg.Debug
	logger.Info("authorized on account", zap.String("username", bot.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	h := telegram.NewHandler(bot, cfg.WebAppURL, logger.Named("telegram"))
	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	if err := h.Run(ctx, updates); err != nil {
		logger.Error("bot stopped with error", zap.Error(err))
	}
	logger.Info("bot stopped")
}
