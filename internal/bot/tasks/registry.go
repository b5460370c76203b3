package tasks

// RegisterAllTasks builds the map of task names to task functions. The
// names match the keys under scheduler.tasks in the configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	return map[string]ScheduledTaskFunc{
		"archive_maintenance": NewArchiveMaintenanceTask(deps),
	}
}
