package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/deepchat/internal/cache"
	"github.com/edgard/deepchat/internal/config"
	"github.com/edgard/deepchat/internal/database"
	"github.com/edgard/deepchat/internal/gateway"
	"github.com/edgard/deepchat/internal/imagegen"
	"github.com/edgard/deepchat/internal/metrics"
	"github.com/edgard/deepchat/internal/state"
)

// Responder produces a reply for a chat-mode prompt. *gateway.Gateway implements it.
type Responder interface {
	GenerateResponse(ctx context.Context, prompt string) gateway.Result
}

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Gateway Responder
	Tracker *state.Tracker
	Cache   *cache.ResponseCache
	Store   database.Store
	Images  imagegen.Generator
	Metrics *metrics.Metrics
}
