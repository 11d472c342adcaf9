package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: index claims by item so deleting an item with many claims
	// does not scan the whole table.
	`CREATE INDEX IF NOT EXISTS idx_claims_item ON claims(item_id)`,
	// Migration 2: tag filters join through item_tags by tag.
	`CREATE INDEX IF NOT EXISTS idx_item_tags_tag ON item_tags(tag_id)`,
}

// Migrate ensures the schema exists and applies pending migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
