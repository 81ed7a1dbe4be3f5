package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bendy/config"
	"bendy/models"

	"github.com/apex/log"
)

const conditionsUserAgent = "Mozilla/5.0 (compatible; BendyApp/1.0)"

// Conditions proxies the Mt. Bachelor and TripCheck upstreams. Both are
// best-effort: any upstream failure degrades to static fallback data so
// the dashboard never renders blank.
type Conditions struct {
	client      *http.Client
	mountainURL string
	roadsURL    string
	cacheTTL    time.Duration

	mu              sync.Mutex
	mountainCache   *models.MountainConditions
	mountainFetched time.Time
	roadsCache      *models.RoadConditionsResponse
	roadsFetched    time.Time

	now func() time.Time
}

// NewConditions creates the conditions proxy service from config.
func NewConditions(cfg *config.Config) *Conditions {
	return &Conditions{
		client:      &http.Client{Timeout: cfg.UpstreamTimeout},
		mountainURL: cfg.MountainConditionsURL,
		roadsURL:    cfg.RoadConditionsURL,
		cacheTTL:    cfg.ConditionsCacheTTL,
		now:         time.Now,
	}
}

// Mountain returns current Mt. Bachelor conditions, from cache when
// fresh, otherwise from upstream, otherwise the fallback snapshot.
func (s *Conditions) Mountain(ctx context.Context) models.MountainConditions {
	s.mu.Lock()
	if s.mountainCache != nil && s.now().Sub(s.mountainFetched) < s.cacheTTL {
		cached := *s.mountainCache
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	conditions, err := s.fetchMountain(ctx)
	if err != nil {
		log.Warnf("mountain conditions fetch failed, serving fallback: %v", err)
		return fallbackMountainConditions(s.now())
	}

	s.mu.Lock()
	s.mountainCache = &conditions
	s.mountainFetched = s.now()
	s.mu.Unlock()
	return conditions
}

// Roads returns pass conditions near Bend, with the same cache and
// fallback behavior as Mountain.
func (s *Conditions) Roads(ctx context.Context) models.RoadConditionsResponse {
	s.mu.Lock()
	if s.roadsCache != nil && s.now().Sub(s.roadsFetched) < s.cacheTTL {
		cached := *s.roadsCache
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	roads, err := s.fetchRoads(ctx)
	if err != nil {
		log.Warnf("road conditions fetch failed, serving fallback: %v", err)
		return fallbackRoadConditions(s.now())
	}

	s.mu.Lock()
	s.roadsCache = &roads
	s.roadsFetched = s.now()
	s.mu.Unlock()
	return roads
}

func (s *Conditions) fetchMountain(ctx context.Context) (models.MountainConditions, error) {
	var conditions models.MountainConditions
	if err := s.fetchJSON(ctx, s.mountainURL, &conditions); err != nil {
		return models.MountainConditions{}, err
	}
	conditions.LastUpdated = s.now().UTC().Format(time.RFC3339)
	conditions.Source = "mtbachelor.com"
	return conditions, nil
}

func (s *Conditions) fetchRoads(ctx context.Context) (models.RoadConditionsResponse, error) {
	var roads []models.RoadCondition
	if err := s.fetchJSON(ctx, s.roadsURL, &roads); err != nil {
		return models.RoadConditionsResponse{}, err
	}

	nowStr := s.now().UTC().Format(time.RFC3339)
	// Seasonal closures TripCheck does not report.
	roads = append(roads,
		models.RoadCondition{
			Name:        "McKenzie Pass",
			Route:       "OR-242",
			Status:      models.RoadClosed,
			Conditions:  "Closed for winter season (Nov-June)",
			Elevation:   5325,
			LastUpdated: nowStr,
		},
		models.RoadCondition{
			Name:        "Newberry Crater",
			Route:       "FR-21",
			Status:      models.RoadChainsRequired,
			Conditions:  "Snow covered, chains or 4WD required",
			Elevation:   6400,
			LastUpdated: nowStr,
		},
	)

	return models.RoadConditionsResponse{
		Roads:       roads,
		LastUpdated: nowStr,
		Source:      "tripcheck.com",
	}, nil
}

func (s *Conditions) fetchJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", conditionsUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &upstreamError{url: url, status: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type upstreamError struct {
	url    string
	status int
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream %s returned HTTP %d", e.url, e.status)
}

func fallbackMountainConditions(now time.Time) models.MountainConditions {
	return models.MountainConditions{
		SnowDepthBase:   67,
		SnowDepthSummit: 112,
		NewSnow24h:      0,
		NewSnow48h:      0,
		LiftsOpen:       11,
		LiftsTotal:      15,
		TerrainOpen:     92,
		Conditions:      "Check mtbachelor.com",
		LastUpdated:     now.UTC().Format(time.RFC3339),
		Source:          "fallback",
		Error:           "Live data temporarily unavailable",
	}
}

func fallbackRoadConditions(now time.Time) models.RoadConditionsResponse {
	nowStr := now.UTC().Format(time.RFC3339)
	return models.RoadConditionsResponse{
		Roads: []models.RoadCondition{
			{Name: "Santiam Pass", Route: "US-20", Status: models.RoadOpen, Conditions: "Check tripcheck.com for current conditions", Elevation: 4817, LastUpdated: nowStr},
			{Name: "McKenzie Pass", Route: "OR-242", Status: models.RoadClosed, Conditions: "Closed for winter season (Nov-June)", Elevation: 5325, LastUpdated: nowStr},
			{Name: "Cascade Lakes Highway", Route: "OR-46", Status: models.RoadOpen, Conditions: "Check tripcheck.com for current conditions", Elevation: 6300, LastUpdated: nowStr},
			{Name: "Newberry Crater", Route: "FR-21", Status: models.RoadChainsRequired, Conditions: "Snow covered, chains or 4WD required", Elevation: 6400, LastUpdated: nowStr},
		},
		LastUpdated: nowStr,
		Source:      "fallback",
		Error:       "Live data temporarily unavailable",
	}
}
