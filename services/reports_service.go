package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bendy/locations"
	"bendy/models"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
)

const (
	maxCommentLength = 150

	// historyFetchLimit caps one history fetch; results beyond it are
	// dropped, not paginated.
	historyFetchLimit = 100

	defaultDaysBack = 7
)

const (
	msgSuccess      = "Thanks! Your report helps locals and visitors."
	msgStoreFailure = "Failed to submit report. Please try again."
)

// ReportStore is the durable store behind the service. The store
// assigns ids and server-side timestamps on insert.
type ReportStore interface {
	InsertReport(ctx context.Context, locationID, locationName string, level models.CrowdLevel, comment *string) (models.CrowdReport, error)
	GetReportsSince(ctx context.Context, locationID string, since time.Time, limit int) ([]models.CrowdReport, error)
	GetActiveReports(ctx context.Context, locationID string) ([]models.CrowdReport, error)
}

// Cooldown is what the submitter needs from the rate limiter.
type Cooldown interface {
	CanSubmit(locationID string) bool
	TimeUntilAllowed(locationID string) time.Duration
	Record(locationID string) error
}

// Reports validates and persists crowd reports and summarizes their
// history.
type Reports struct {
	store        ReportStore
	cooldown     Cooldown
	catalog      *locations.Catalog
	loc          *time.Location
	storeTimeout time.Duration

	now func() time.Time
}

// NewReports creates the reports service. The timezone is used for
// calendar-day bucketing of history.
func NewReports(store ReportStore, cooldown Cooldown, catalog *locations.Catalog, loc *time.Location, storeTimeout time.Duration) *Reports {
	if loc == nil {
		loc = time.Local
	}
	if storeTimeout <= 0 {
		storeTimeout = 10 * time.Second
	}
	return &Reports{
		store:        store,
		cooldown:     cooldown,
		catalog:      catalog,
		loc:          loc,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// Submit validates a submission, enforces the cooldown, and writes the
// report. Every outcome is a SubmitResult; the returned report is
// non-nil only on success. The cooldown is recorded only after a
// successful write so a failed attempt never penalizes the user.
func (s *Reports) Submit(ctx context.Context, locationID, locationName, crowdLevel, comment string) (models.SubmitResult, *models.CrowdReport) {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return models.SubmitResult{Success: false, Message: "A location is required."}, nil
	}

	level, err := models.ParseCrowdLevel(crowdLevel)
	if err != nil {
		return models.SubmitResult{Success: false, Message: "Please choose how busy it is."}, nil
	}

	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return models.SubmitResult{Success: false, Message: "Comments are limited to 150 characters."}, nil
	}

	// The catalog is not enforced on writes; the original app accepted
	// arbitrary location ids, so an unknown id is only logged.
	if _, ok := s.catalog.Lookup(locationID); !ok {
		log.Warnf("report for location %q outside the popular-spot catalog", locationID)
	}

	if !s.cooldown.CanSubmit(locationID) {
		minutes := ceilMinutes(s.cooldown.TimeUntilAllowed(locationID))
		return models.SubmitResult{
			Success: false,
			Message: fmt.Sprintf("Please wait %d minute%s before reporting on this location again.", minutes, plural(minutes)),
		}, nil
	}

	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	report, err := s.store.InsertReport(cctx, locationID, locationName, level, commentPtr)
	if err != nil {
		log.Errorf("failed to submit crowd report for %s: %v", locationID, err)
		return models.SubmitResult{Success: false, Message: msgStoreFailure}, nil
	}

	if err := s.cooldown.Record(locationID); err != nil {
		log.Warnf("failed to record cooldown for %s: %v", locationID, err)
	}

	return models.SubmitResult{Success: true, Message: msgSuccess}, &report
}

// Current returns the unexpired reports, optionally for one location.
func (s *Reports) Current(ctx context.Context, locationID string) ([]models.CrowdReport, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	reports, err := s.store.GetActiveReports(cctx, locationID)
	if err != nil {
		log.Errorf("failed to fetch current reports: %v", err)
		return nil, fmt.Errorf("fetching current reports: %w", err)
	}
	return reports, nil
}

// History fetches a location's reports over the trailing window and
// returns one summary per calendar day with data, newest day first. An
// empty locationID short-circuits to an empty result without a fetch.
// A fetch error yields no partial results.
func (s *Reports) History(ctx context.Context, locationID string, daysBack int) ([]models.DailyReportSummary, error) {
	if locationID == "" {
		return []models.DailyReportSummary{}, nil
	}
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}

	now := s.now().In(s.loc)
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, -daysBack)

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	reports, err := s.store.GetReportsSince(cctx, locationID, windowStart, historyFetchLimit)
	if err != nil {
		log.Errorf("failed to fetch report history for %s: %v", locationID, err)
		return nil, fmt.Errorf("fetching report history: %w", err)
	}

	return s.summarize(reports), nil
}

// summarize groups reports by local calendar day and computes per-day
// statistics. The average uses decimal arithmetic so the level mapping
// is exact at the threshold boundaries.
func (s *Reports) summarize(reports []models.CrowdReport) []models.DailyReportSummary {
	byDay := map[string][]models.CrowdReport{}
	for _, r := range reports {
		key := r.Timestamp.In(s.loc).Format("2006-01-02")
		byDay[key] = append(byDay[key], r)
	}

	summaries := make([]models.DailyReportSummary, 0, len(byDay))
	for _, day := range byDay {
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].Timestamp.After(day[j].Timestamp)
		})

		total := decimal.Zero
		for _, r := range day {
			total = total.Add(decimal.NewFromInt(int64(r.CrowdLevel.Value())))
		}
		avg := total.Div(decimal.NewFromInt(int64(len(day))))

		// Peak: highest level, first occurrence in day order on ties.
		peak := day[0]
		for _, r := range day[1:] {
			if r.CrowdLevel.Value() > peak.CrowdLevel.Value() {
				peak = r
			}
		}

		summaries = append(summaries, models.DailyReportSummary{
			Date:         day[0].Timestamp,
			Reports:      day,
			AverageLevel: models.LevelFromAverage(avg),
			PeakLevel:    peak.CrowdLevel,
			PeakTime:     peak.Timestamp,
			ReportCount:  len(day),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date.After(summaries[j].Date)
	})
	return summaries
}

func ceilMinutes(d time.Duration) int {
	minutes := int((d + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
