package tasks

import (
	"context"

	"github.com/edgard/deepchat/internal/config"
)

// ScheduledTaskFunc is the signature of every scheduled task. It should stop
// early when ctx is cancelled.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every task keyed by the name used in the
// scheduler.tasks config section.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		config.TaskTranscriptRetention: newTranscriptRetentionTask(deps),
		config.TaskSQLMaintenance:      newSQLMaintenanceTask(deps),
		config.TaskCacheStats:          newCacheStatsTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
