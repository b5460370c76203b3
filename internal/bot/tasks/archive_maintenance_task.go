package tasks

import (
	"context"
	"fmt"
	"time"
)

const maintenanceTimeout = 5 * time.Minute

// NewArchiveMaintenanceTask returns a task that prunes archived
// messages past the retention window and compacts the database file.
func NewArchiveMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	return func(ctx context.Context) error {
		log := deps.Logger.With("task", "archive_maintenance")

		taskCtx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
		defer cancel()

		retention := deps.Config.Database.RetentionDays
		cutoff := time.Now().UTC().AddDate(0, 0, -retention)

		deleted, err := deps.Store.DeleteMessagesBefore(taskCtx, cutoff)
		if err != nil {
			return fmt.Errorf("archive cleanup failed: %w", err)
		}
		log.InfoContext(taskCtx, "Pruned archived messages",
			"retention_days", retention, "deleted", deleted)

		if err := deps.Store.RunSQLMaintenance(taskCtx); err != nil {
			return fmt.Errorf("database maintenance failed: %w", err)
		}
		return nil
	}
}
