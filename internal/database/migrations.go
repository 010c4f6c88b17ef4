package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// AddIndexes creates the composite indexes the board and comment queries rely
// on. Single-column indexes come from the model tags.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Developer board: tasks assigned to one user, grouped by status
		{"tasks", "idx_tasks_assignee_status", "assignee_id, status"},

		// Comments are always read per task in write order
		{"task_comments", "idx_task_comments_task_created", "task_id, created_at, id"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			slog.Debug("Index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("Created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
