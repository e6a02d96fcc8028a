package tasks

import "context"

// newCacheStatsTask logs the in-memory cache and tracker sizes and exports
// them as gauges.
func newCacheStatsTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "cache_stats")

	return func(ctx context.Context) error {
		entries := deps.Cache.Len()
		users := deps.Tracker.Len()
		deps.Metrics.SetSizes(entries, users)

		log.InfoContext(ctx, "In-memory state size", "cache_entries", entries, "tracked_users", users)
		return nil
	}
}
