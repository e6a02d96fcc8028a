// Package main is the entrypoint of the deepchat Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/deepchat/internal/bot"
	"github.com/edgard/deepchat/internal/bot/handlers"
	"github.com/edgard/deepchat/internal/bot/tasks"
	"github.com/edgard/deepchat/internal/cache"
	"github.com/edgard/deepchat/internal/config"
	"github.com/edgard/deepchat/internal/database"
	"github.com/edgard/deepchat/internal/gateway"
	"github.com/edgard/deepchat/internal/imagegen"
	"github.com/edgard/deepchat/internal/logger"
	"github.com/edgard/deepchat/internal/metrics"
	"github.com/edgard/deepchat/internal/server"
	"github.com/edgard/deepchat/internal/state"
	"github.com/edgard/deepchat/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run builds every component, runs the bot until ctx is cancelled and
// returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	m := metrics.New()
	responseCache := cache.New()
	tracker := state.NewTracker()

	gw, err := gateway.New(gatewayConfig(cfg), responseCache, log, gateway.WithMetrics(m))
	if err != nil {
		log.Error("Failed to create AI gateway", "error", err)
		return 1
	}

	images, err := imagegen.New(ctx, cfg.Image, log)
	if err != nil {
		log.Error("Failed to create image generator", "provider", cfg.Image.Provider, "error", err)
		return 1
	}

	hDeps := handlers.HandlerDeps{
		Logger:  log,
		Config:  cfg,
		Gateway: gw,
		Tracker: tracker,
		Cache:   responseCache,
		Store:   store,
		Images:  images,
		Metrics: m,
	}
	tDeps := tasks.TaskDeps{
		Logger:  log,
		Config:  cfg,
		Store:   store,
		Cache:   responseCache,
		Tracker: tracker,
		Metrics: m,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log, m), handlers.Recover(hDeps)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.SetCommands(ctx, tg); err != nil {
		log.Warn("Failed to publish command menu", "error", err)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps), m)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var admin *server.Server
	if cfg.HTTP.ListenAddr != "" {
		admin = server.New(cfg.HTTP.ListenAddr, store, m, log)
	} else {
		log.Info("Admin HTTP server disabled")
	}

	app := bot.NewBot(log, tg, sched, admin, cfg.Telegram.DropPendingUpdates)

	log.Info("Starting bot")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished, shutting down")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting.
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully")
	return 0
}

func gatewayConfig(cfg *config.Config) gateway.Config {
	ai := cfg.AI
	msgs := cfg.Messages
	return gateway.Config{
		BaseURL:          ai.BaseURL,
		APIKey:           ai.APIKey,
		Model:            ai.Model,
		Temperature:      ai.Temperature,
		MaxTokens:        ai.MaxTokens,
		TopP:             ai.TopP,
		FrequencyPenalty: ai.FrequencyPenalty,
		ConnectTimeout:   ai.ConnectTimeout,
		Timeout:          ai.Timeout,
		Retry: gateway.RetryPolicy{
			Attempts:   ai.Retry.Attempts,
			Multiplier: ai.Retry.Multiplier,
			MinWait:    ai.Retry.MinWait,
			MaxWait:    ai.Retry.MaxWait,
		},
		Messages: gateway.Messages{
			RateLimit:   msgs.RateLimit,
			Timeout:     msgs.Timeout,
			SystemError: msgs.SystemError,
			Unexpected:  msgs.Unexpected,
		},
	}
}
