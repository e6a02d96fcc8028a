package tasks

import (
	"context"
	"fmt"
	"time"
)

// newTranscriptRetentionTask deletes transcript lines older than the
// configured retention. A zero retention keeps everything.
func newTranscriptRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "transcript_retention")
	now := time.Now

	return func(ctx context.Context) error {
		retention := deps.Config.Database.Retention
		if retention <= 0 {
			log.DebugContext(ctx, "Transcript retention disabled")
			return nil
		}

		cutoff := now().Add(-retention)
		deleted, err := deps.Store.DeleteMessagesBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Transcript retention failed", "error", err, "cutoff", cutoff)
			return fmt.Errorf("transcript retention failed: %w", err)
		}

		log.InfoContext(ctx, "Transcript retention completed", "deleted", deleted, "cutoff", cutoff)
		return nil
	}
}
