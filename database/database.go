package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bendy/config"
	"bendy/models"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// Database is the MySQL-backed report store.
type Database struct {
	db *sql.DB
}

// NewDatabase creates a new database connection from config.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// NewDatabaseWithDB wraps an existing connection. Used by tests.
func NewDatabaseWithDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// InsertReport writes a new crowd report. The timestamp comes from the
// database server clock, not the caller's, and expires_at is computed
// in the same statement so the 4-hour expiry invariant holds on that
// clock too.
func (d *Database) InsertReport(ctx context.Context, locationID, locationName string, level models.CrowdLevel, comment *string) (models.CrowdReport, error) {
	id := uuid.New().String()

	_, err := d.db.ExecContext(ctx, `
	INSERT INTO crowd_reports (id, location_id, location_name, crowd_level, comment, ts, expires_at)
	VALUES (?, ?, ?, ?, ?, UTC_TIMESTAMP(3), DATE_ADD(UTC_TIMESTAMP(3), INTERVAL 4 HOUR))`,
		id, locationID, locationName, string(level), comment)
	if err != nil {
		return models.CrowdReport{}, fmt.Errorf("failed to insert report: %w", err)
	}

	var ts, expiresAt time.Time
	err = d.db.QueryRowContext(ctx,
		`SELECT ts, expires_at FROM crowd_reports WHERE id = ?`, id).Scan(&ts, &expiresAt)
	if err != nil {
		return models.CrowdReport{}, fmt.Errorf("failed to read back report %s: %w", id, err)
	}

	return models.CrowdReport{
		ID:           id,
		LocationID:   locationID,
		LocationName: locationName,
		CrowdLevel:   level,
		Comment:      comment,
		Timestamp:    ts,
		ExpiresAt:    expiresAt,
	}, nil
}

// GetReportsSince returns a location's reports with ts >= since, newest
// first, capped at limit.
func (d *Database) GetReportsSince(ctx context.Context, locationID string, since time.Time, limit int) ([]models.CrowdReport, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT id, location_id, location_name, crowd_level, comment, ts, expires_at
	FROM crowd_reports
	WHERE location_id = ? AND ts >= ?
	ORDER BY ts DESC
	LIMIT ?`,
		locationID, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// GetActiveReports returns unexpired reports, newest first, optionally
// filtered by location.
func (d *Database) GetActiveReports(ctx context.Context, locationID string) ([]models.CrowdReport, error) {
	query := `
	SELECT id, location_id, location_name, crowd_level, comment, ts, expires_at
	FROM crowd_reports
	WHERE expires_at > UTC_TIMESTAMP(3)`
	args := []interface{}{}
	if locationID != "" {
		query += ` AND location_id = ?`
		args = append(args, locationID)
	}
	query += ` ORDER BY ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// scanReports decodes rows, skipping malformed ones rather than letting
// bad data reach the aggregation layer.
func scanReports(rows *sql.Rows) ([]models.CrowdReport, error) {
	reports := []models.CrowdReport{}
	for rows.Next() {
		var (
			r       models.CrowdReport
			level   string
			comment sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.LocationID, &r.LocationName, &level, &comment, &r.Timestamp, &r.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		parsed, err := models.ParseCrowdLevel(level)
		if err != nil {
			log.Warnf("skipping report %s: %v", r.ID, err)
			continue
		}
		r.CrowdLevel = parsed
		if comment.Valid && comment.String != "" {
			r.Comment = &comment.String
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return reports, nil
}
