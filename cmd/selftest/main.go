package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SqueezeAlert/internal/config"
	"github.com/Alias1177/SqueezeAlert/internal/notify"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.TelegramBotToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}
	if len(cfg.TelegramChatIDs) == 0 {
		log.Fatal().Msg("TELEGRAM_CHAT_ID not set in environment")
	}

	tg, err := notify.NewTelegram(notify.TelegramOptions{
		Token:    cfg.TelegramBotToken,
		ChatIDs:  cfg.TelegramChatIDs,
		Throttle: time.Duration(cfg.TelegramThrottleMS) * time.Millisecond,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := tg.Send(ctx, testMessage(cfg)); err != nil {
		log.Fatal().Err(err).Msg("Test message was not delivered to every chat")
	}

	log.Info().Int("chats", len(cfg.TelegramChatIDs)).Msg("Test message sent")
	fmt.Printf("\n🎯 Self-test completed: %d chat(s) reached\n", len(cfg.TelegramChatIDs))
}

func testMessage(cfg *config.Config) string {
	symbols := cfg.Symbols
	if len(symbols) > 5 {
		symbols = symbols[:5]
	}
	return "🧪 TEST | Volatility Squeeze Breakout\n" +
		"Telegram connection works. If you can read this, everything is ok.\n" +
		fmt.Sprintf("Timeframe: %s | Pairs: %s…\n", cfg.Timeframe, strings.Join(symbols, ", ")) +
		"⚙️ This is a test message only (no market data)."
}
