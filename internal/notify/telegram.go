// Package notify delivers rendered alerts to chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// TelegramOptions configures the Telegram notifier
type TelegramOptions struct {
	Token    string
	ChatIDs  []string // numeric ids or @channel names
	Throttle time.Duration
	// Endpoint overrides the Bot API URL format, e.g. for tests
	Endpoint   string
	HTTPClient *http.Client
}

// Telegram sends every message to each configured chat
type Telegram struct {
	bot     *tgbotapi.BotAPI
	chats   []string
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewTelegram connects the bot. Without a token or chats it returns a
// notifier that only logs a warning on Send.
func NewTelegram(opts TelegramOptions) (*Telegram, error) {
	t := &Telegram{
		chats:   cleanChats(opts.ChatIDs),
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  log.With().Str("component", "telegram").Logger(),
	}
	if opts.Throttle > 0 {
		t.limiter = rate.NewLimiter(rate.Every(opts.Throttle), 1)
	}

	if opts.Token == "" || len(t.chats) == 0 {
		t.logger.Warn().Msg("Telegram not configured (token / chat id missing)")
		return t, nil
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	t.bot = bot
	t.logger.Info().Str("bot", bot.Self.UserName).Int("chats", len(t.chats)).Msg("Telegram bot authorized")

	return t, nil
}

// Configured reports whether messages will actually be delivered
func (t *Telegram) Configured() bool {
	return t.bot != nil
}

// Send delivers text to every chat. A failing chat does not stop the others,
// all failures are returned together.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if !t.Configured() {
		t.logger.Warn().Msg("Telegram not configured, message not sent")
		return nil
	}

	var errs []error
	for _, chat := range t.chats {
		if err := t.limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}

		if _, err := t.bot.Send(newMessage(chat, text)); err != nil {
			t.logger.Error().Err(err).Str("chat", chat).Msg("Failed to send message")
			errs = append(errs, fmt.Errorf("chat %s: %w", chat, err))
			continue
		}
		t.logger.Debug().Str("chat", chat).Msg("Message sent")
	}

	return errors.Join(errs...)
}

func newMessage(chat, text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	return tgbotapi.NewMessageToChannel(chat, text)
}

func cleanChats(ids []string) []string {
	var out []string
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
