// Package bot wires the Telegram listener, the task scheduler and the admin
// HTTP server together and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/deepchat/internal/server"
)

// Bot owns the long-running components of the application.
type Bot struct {
	logger             *slog.Logger
	tgBot              *tgbot.Bot
	scheduler          *Scheduler
	admin              *server.Server
	dropPendingUpdates bool
}

// NewBot creates the orchestrator. admin may be nil when the admin HTTP
// server is disabled.
func NewBot(logger *slog.Logger, tgBot *tgbot.Bot, scheduler *Scheduler, admin *server.Server, dropPendingUpdates bool) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:             logger.With("component", "bot_orchestrator"),
		tgBot:              tgBot,
		scheduler:          scheduler,
		admin:              admin,
		dropPendingUpdates: dropPendingUpdates,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator")

	// Long polling does not work while a webhook is set.
	if _, err := b.tgBot.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{DropPendingUpdates: b.dropPendingUpdates}); err != nil {
		b.logger.Error("Failed to delete webhook", "error", err)
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener")
		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation")
			return errors.New("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Start(gCtx); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	if b.admin != nil {
		g.Go(func() error {
			return b.admin.Run(gCtx)
		})
	}

	b.logger.Info("Bot orchestrator running")
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}
