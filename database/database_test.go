package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"

	"bendy/models"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var reportColumns = []string{"id", "location_id", "location_name", "crowd_level", "comment", "ts", "expires_at"}

func TestInsertReport(t *testing.T) {
	it(func() {
		d := NewDatabaseWithDB(db)

		ts := time.Date(2026, 3, 7, 18, 30, 0, 0, time.UTC)
		expiresAt := ts.Add(models.ReportDuration)

		mock.ExpectExec("INSERT INTO crowd_reports \\(id, location_id, location_name, crowd_level, comment, ts, expires_at\\)").
			WithArgs(sqlmock.AnyArg(), "sparks-lake", "Sparks Lake", "busy", nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT ts, expires_at FROM crowd_reports WHERE id = ").
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"ts", "expires_at"}).AddRow(ts, expiresAt))

		report, err := d.InsertReport(context.Background(), "sparks-lake", "Sparks Lake", models.LevelBusy, nil)
		if err != nil {
			t.Fatalf("InsertReport failed: %v", err)
		}
		if report.ID == "" {
			t.Error("expected a generated report id")
		}
		if !report.Timestamp.Equal(ts) {
			t.Errorf("Timestamp = %v, want %v", report.Timestamp, ts)
		}
		if !report.ExpiresAt.Equal(ts.Add(models.ReportDuration)) {
			t.Errorf("ExpiresAt = %v, want timestamp + 4h", report.ExpiresAt)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestInsertReportWriteFailure(t *testing.T) {
	it(func() {
		d := NewDatabaseWithDB(db)

		mock.ExpectExec("INSERT INTO crowd_reports").
			WillReturnError(sql.ErrConnDone)

		if _, err := d.InsertReport(context.Background(), "sparks-lake", "Sparks Lake", models.LevelBusy, nil); err == nil {
			t.Error("expected an error when the write fails")
		}
	})
}

func TestGetReportsSince(t *testing.T) {
	it(func() {
		d := NewDatabaseWithDB(db)

		since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		newer := time.Date(2026, 3, 7, 18, 0, 0, 0, time.UTC)
		older := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(reportColumns).
			AddRow("r1", "sparks-lake", "Sparks Lake", "packed", "full lot", newer, newer.Add(models.ReportDuration)).
			AddRow("r2", "sparks-lake", "Sparks Lake", "moderate", nil, older, older.Add(models.ReportDuration))

		mock.ExpectQuery("SELECT id, location_id, location_name, crowd_level, comment, ts, expires_at").
			WithArgs("sparks-lake", since, 100).
			WillReturnRows(rows)

		reports, err := d.GetReportsSince(context.Background(), "sparks-lake", since, 100)
		if err != nil {
			t.Fatalf("GetReportsSince failed: %v", err)
		}
		if len(reports) != 2 {
			t.Fatalf("expected 2 reports, got %d", len(reports))
		}
		if reports[0].ID != "r1" || reports[1].ID != "r2" {
			t.Errorf("unexpected report order: %s, %s", reports[0].ID, reports[1].ID)
		}
		if reports[0].Comment == nil || *reports[0].Comment != "full lot" {
			t.Error("expected the comment to round-trip")
		}
		if reports[1].Comment != nil {
			t.Error("expected a NULL comment to stay absent")
		}
	})
}

func TestGetReportsSinceSkipsMalformedRows(t *testing.T) {
	it(func() {
		d := NewDatabaseWithDB(db)

		since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		ts := time.Date(2026, 3, 7, 18, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(reportColumns).
			AddRow("r1", "sparks-lake", "Sparks Lake", "bonkers", nil, ts, ts.Add(models.ReportDuration)).
			AddRow("r2", "sparks-lake", "Sparks Lake", "busy", nil, ts, ts.Add(models.ReportDuration))

		mock.ExpectQuery("SELECT id, location_id, location_name, crowd_level, comment, ts, expires_at").
			WillReturnRows(rows)

		reports, err := d.GetReportsSince(context.Background(), "sparks-lake", since, 100)
		if err != nil {
			t.Fatalf("GetReportsSince failed: %v", err)
		}
		if len(reports) != 1 {
			t.Fatalf("expected the malformed row to be skipped, got %d reports", len(reports))
		}
		if reports[0].ID != "r2" {
			t.Errorf("kept the wrong report: %s", reports[0].ID)
		}
	})
}

func TestGetActiveReports(t *testing.T) {
	it(func() {
		d := NewDatabaseWithDB(db)

		ts := time.Date(2026, 3, 7, 18, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(reportColumns).
			AddRow("r1", "elk-lake", "Elk Lake", "empty", nil, ts, ts.Add(models.ReportDuration))

		mock.ExpectQuery("WHERE expires_at > UTC_TIMESTAMP\\(3\\) AND location_id = ").
			WithArgs("elk-lake").
			WillReturnRows(rows)

		reports, err := d.GetActiveReports(context.Background(), "elk-lake")
		if err != nil {
			t.Fatalf("GetActiveReports failed: %v", err)
		}
		if len(reports) != 1 {
			t.Fatalf("expected 1 report, got %d", len(reports))
		}
	})
}

func TestGetActiveReportsQueryFailure(t *testing.T) {
	it(func() {
		d := NewDatabaseWithDB(db)

		mock.ExpectQuery("WHERE expires_at > UTC_TIMESTAMP\\(3\\)").
			WillReturnError(sql.ErrConnDone)

		if _, err := d.GetActiveReports(context.Background(), ""); err == nil {
			t.Error("expected an error when the query fails")
		}
	})
}
