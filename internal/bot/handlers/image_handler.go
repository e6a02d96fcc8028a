package handlers

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/deepchat/internal/imagegen"
)

// NewImageHandler returns the /image handler. It makes a single generation
// call and sends the result as a photo.
func NewImageHandler(deps HandlerDeps) bot.HandlerFunc {
	return imageHandler{deps}.Handle
}

type imageHandler struct {
	deps HandlerDeps
}

func (h imageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "image")

	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	prompt := commandArgs(update.Message.Text)
	if prompt == "" {
		h.reply(ctx, b, chatID, msgs.ImageUsage)
		return
	}

	gen := h.deps.Images
	if gen == nil {
		gen = imagegen.Disabled{}
	}

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionUploadPhoto})

	img, err := gen.Generate(ctx, prompt)
	h.deps.Metrics.ObserveImage(gen.Name(), err)
	if err != nil {
		if errors.Is(err, imagegen.ErrDisabled) {
			h.reply(ctx, b, chatID, msgs.ImageUnavailable)
			return
		}
		log.ErrorContext(ctx, "Image generation failed", "error", err, "chat_id", chatID, "provider", gen.Name())
		h.reply(ctx, b, chatID, msgs.ImageFailed)
		return
	}

	var photo models.InputFile
	if img.URL != "" {
		photo = &models.InputFileString{Data: img.URL}
	} else {
		photo = &models.InputFileUpload{Filename: "image" + extensionFor(img.MIME), Data: bytes.NewReader(img.Data)}
	}

	if _, err := b.SendPhoto(ctx, &bot.SendPhotoParams{ChatID: chatID, Photo: photo}); err != nil {
		log.ErrorContext(ctx, "Failed to send generated image", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, msgs.ImageFailed)
	}
}

func (h imageHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send image reply", "error", err, "chat_id", chatID)
	}
}

// commandArgs returns the text after the leading /command token.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i:])
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
