// Command chatid replies to every message with the chat title and id.
// Add the bot to the review group and send anything to learn REVIEW_GROUP_ID.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/config"
	"github.com/ivankudzin/tgrelay/internal/infra/logger"
	tginfra "github.com/ivankudzin/tgrelay/internal/infra/telegram"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	bot, err := tginfra.NewBot(cfg.Bot.Token, cfg.Bot.PollTimeoutSeconds, log)
	if err != nil {
		log.Fatal("init telegram bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("chat id helper started", zap.String("username", bot.Username()))
	err = bot.Poll(ctx, func(ctx context.Context, update tginfra.Update) {
		message := update.Message
		if message == nil || message.Chat == nil {
			return
		}

		text := fmt.Sprintf("Chat title: %s\nChat ID: %d", message.Chat.Title, message.Chat.ID)
		if _, err := bot.Reply(ctx, message.Chat.ID, message.MessageID, text, nil); err != nil {
			log.Warn("reply with chat id", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("chat id helper failed", zap.Error(err))
	}
}
