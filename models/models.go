package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReportDuration is how long a report counts toward current conditions.
// A report's ExpiresAt is always its Timestamp plus this duration.
const ReportDuration = 4 * time.Hour

// CrowdLevel is the ordered four-value crowding scale.
type CrowdLevel string

const (
	LevelEmpty    CrowdLevel = "empty"
	LevelModerate CrowdLevel = "moderate"
	LevelBusy     CrowdLevel = "busy"
	LevelPacked   CrowdLevel = "packed"
)

var crowdLevelValues = map[CrowdLevel]int{
	LevelEmpty:    1,
	LevelModerate: 2,
	LevelBusy:     3,
	LevelPacked:   4,
}

// ParseCrowdLevel validates a raw crowd level string.
func ParseCrowdLevel(s string) (CrowdLevel, error) {
	level := CrowdLevel(s)
	if _, ok := crowdLevelValues[level]; !ok {
		return "", fmt.Errorf("unknown crowd level %q", s)
	}
	return level, nil
}

// Valid reports whether the level is one of the four enumerated values.
func (l CrowdLevel) Valid() bool {
	_, ok := crowdLevelValues[l]
	return ok
}

// Value returns the numeric weight of the level (empty=1 .. packed=4).
func (l CrowdLevel) Value() int {
	return crowdLevelValues[l]
}

var (
	thresholdEmpty    = decimal.NewFromFloat(1.5)
	thresholdModerate = decimal.NewFromFloat(2.5)
	thresholdBusy     = decimal.NewFromFloat(3.5)
)

// LevelFromAverage maps a numeric average back to the nearest level.
// The thresholds are inclusive upper bounds: an average of exactly 2.5
// is still "moderate".
func LevelFromAverage(avg decimal.Decimal) CrowdLevel {
	switch {
	case avg.LessThanOrEqual(thresholdEmpty):
		return LevelEmpty
	case avg.LessThanOrEqual(thresholdModerate):
		return LevelModerate
	case avg.LessThanOrEqual(thresholdBusy):
		return LevelBusy
	default:
		return LevelPacked
	}
}

// CrowdReport is a single user-submitted observation of how busy a
// location is. Reports are never deleted; past their expiry they only
// stop counting toward current conditions.
type CrowdReport struct {
	ID           string     `json:"id"`
	LocationID   string     `json:"location_id"`
	LocationName string     `json:"location_name"`
	CrowdLevel   CrowdLevel `json:"crowd_level"`
	Comment      *string    `json:"comment,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// DailyReportSummary aggregates one location's reports for one calendar
// day. Computed on demand, never persisted.
type DailyReportSummary struct {
	Date         time.Time     `json:"date"`
	Reports      []CrowdReport `json:"reports"`
	AverageLevel CrowdLevel    `json:"average_level"`
	PeakLevel    CrowdLevel    `json:"peak_level"`
	PeakTime     time.Time     `json:"peak_time"`
	ReportCount  int           `json:"report_count"`
}

// SubmitResult is the typed outcome of a report submission. Failures
// are carried here as messages, never as panics or raw errors.
type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmitReportRequest is the POST /reports payload.
type SubmitReportRequest struct {
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	CrowdLevel   string `json:"crowd_level"`
	Comment      string `json:"comment"`
}

// BroadcastMessage wraps a payload pushed to websocket listeners.
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
