package database

import (
	"context"
	"fmt"
)

const createReportsTable = `
CREATE TABLE IF NOT EXISTS crowd_reports (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	location_id VARCHAR(64) NOT NULL,
	location_name VARCHAR(128) NOT NULL,
	crowd_level VARCHAR(16) NOT NULL,
	comment VARCHAR(150) NULL,
	ts DATETIME(3) NOT NULL,
	expires_at DATETIME(3) NOT NULL,
	INDEX idx_location_ts (location_id, ts),
	INDEX idx_expires_at (expires_at)
)`

// EnsureSchema creates the reports table if it does not exist.
func (d *Database) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, createReportsTable); err != nil {
		return fmt.Errorf("failed to create crowd_reports table: %w", err)
	}
	return nil
}
