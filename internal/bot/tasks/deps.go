// Package tasks implements the scheduled maintenance tasks and their registry.
package tasks

import (
	"log/slog"

	"github.com/edgard/deepchat/internal/cache"
	"github.com/edgard/deepchat/internal/config"
	"github.com/edgard/deepchat/internal/database"
	"github.com/edgard/deepchat/internal/metrics"
	"github.com/edgard/deepchat/internal/state"
)

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Store   database.Store
	Cache   *cache.ResponseCache
	Tracker *state.Tracker
	Metrics *metrics.Metrics
}
