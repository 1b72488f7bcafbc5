// Package telegram adapts the Telegram Bot API to the transport.Gateway
// contract: long polling for inbound updates, HTML-formatted sends, and
// inline keyboards for selectable options.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkrasnov/zadachnik/transport"
)

// Gateway is a transport.Gateway backed by a Telegram bot.
type Gateway struct {
	api *tgbotapi.BotAPI
	log *slog.Logger

	mu      sync.RWMutex
	handler transport.Handler
}

// New authenticates against the Bot API with the given token.
func New(token string, logger *slog.Logger) (*Gateway, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	logger.Info("telegram gateway ready", "bot", api.Self.UserName)
	return &Gateway{api: api, log: logger}, nil
}

// Send delivers an HTML-formatted message to the user.
func (g *Gateway) Send(_ context.Context, userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := g.api.Send(msg); err != nil {
		return &transport.DeliveryError{UserID: userID, Err: err}
	}
	return nil
}

// SendOptions delivers a message with an inline keyboard, one option per row.
func (g *Gateway) SendOptions(_ context.Context, userID int64, text string, opts []transport.Option) error {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(opts))
	for _, o := range opts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o.Label, o.Data),
		))
	}
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := g.api.Send(msg); err != nil {
		return &transport.DeliveryError{UserID: userID, Err: err}
	}
	return nil
}

// OnEvent registers the handler for inbound updates.
func (g *Gateway) OnEvent(h transport.Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handler = h
}

// Run long-polls Telegram for updates until ctx is canceled. Handler errors
// are logged and never stop the poll loop.
func (g *Gateway) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := g.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			g.api.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			ev := g.toEvent(upd)
			if ev == nil {
				continue
			}
			g.mu.RLock()
			h := g.handler
			g.mu.RUnlock()
			if h == nil {
				continue
			}
			if err := h(ctx, ev); err != nil {
				g.log.Error("event handler failed", "user", ev.UserID, "error", err)
			}
		}
	}
}

// toEvent maps a Telegram update to a transport event, or nil for update
// kinds the bot does not react to.
func (g *Gateway) toEvent(upd tgbotapi.Update) *transport.Event {
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		// Acknowledge so the client stops the spinner.
		if _, err := g.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			g.log.Warn("answer callback failed", "error", err)
		}
		return &transport.Event{
			UserID:      cq.From.ID,
			DisplayName: cq.From.FirstName,
			Selection:   cq.Data,
		}
	case upd.Message != nil:
		m := upd.Message
		ev := &transport.Event{
			UserID: m.Chat.ID,
			Text:   m.Text,
		}
		if m.From != nil {
			ev.DisplayName = m.From.FirstName
		}
		if m.IsCommand() {
			ev.Command = m.Command()
			ev.Text = m.CommandArguments()
		}
		return ev
	default:
		return nil
	}
}
