package handlers

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewInfoHandler, NewToolsHandler and NewHelpHandler answer menu buttons
// with a fixed text from the messages config.
func NewInfoHandler(deps HandlerDeps) bot.HandlerFunc {
	return staticHandler{deps: deps, name: "bot_info", text: deps.Config.Messages.BotInfo}.Handle
}

func NewToolsHandler(deps HandlerDeps) bot.HandlerFunc {
	return staticHandler{deps: deps, name: "tools", text: deps.Config.Messages.Tools}.Handle
}

func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return staticHandler{deps: deps, name: "help", text: deps.Config.Messages.Help}.Handle
}

type staticHandler struct {
	deps HandlerDeps
	name string
	text string
}

func (h staticHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: h.text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send menu reply", "handler", h.name, "error", err, "chat_id", chatID)
	}
}

// NewStatsHandler reports cache size, known users and stored transcript lines.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	stored := "n/a"
	if h.deps.Store != nil {
		n, err := h.deps.Store.CountMessages(ctx)
		if err != nil {
			log.WarnContext(ctx, "Failed to count stored messages", "error", err)
		} else {
			stored = strconv.FormatInt(n, 10)
		}
	}

	text := render(h.deps.Config.Messages.Stats,
		"cache_entries", strconv.Itoa(h.deps.Cache.Len()),
		"users", strconv.Itoa(h.deps.Tracker.Len()),
		"messages", stored,
	)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send stats", "error", err, "chat_id", chatID)
	}
}
