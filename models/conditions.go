package models

// MountainConditions mirrors the payload the SPA's conditions dashboard
// consumes. Field names stay camel-cased for compatibility.
type MountainConditions struct {
	SnowDepthBase   int    `json:"snowDepthBase"`
	SnowDepthSummit int    `json:"snowDepthSummit"`
	NewSnow24h      int    `json:"newSnow24h"`
	NewSnow48h      int    `json:"newSnow48h"`
	LiftsOpen       int    `json:"liftsOpen"`
	LiftsTotal      int    `json:"liftsTotal"`
	TerrainOpen     int    `json:"terrainOpen"`
	Conditions      string `json:"conditions"`
	LastUpdated     string `json:"lastUpdated"`
	Source          string `json:"source"`
	Error           string `json:"error,omitempty"`
}

// RoadStatus is the pass status reported by TripCheck.
type RoadStatus string

const (
	RoadOpen           RoadStatus = "open"
	RoadChainsRequired RoadStatus = "chains-required"
	RoadClosed         RoadStatus = "closed"
)

// RoadCondition is the state of one mountain pass near Bend.
type RoadCondition struct {
	Name        string     `json:"name"`
	Route       string     `json:"route"`
	Status      RoadStatus `json:"status"`
	Conditions  string     `json:"conditions"`
	Elevation   int        `json:"elevation"`
	LastUpdated string     `json:"lastUpdated"`
}

// RoadConditionsResponse is the GET /conditions/roads payload.
type RoadConditionsResponse struct {
	Roads       []RoadCondition `json:"roads"`
	LastUpdated string          `json:"lastUpdated"`
	Source      string          `json:"source"`
	Error       string          `json:"error,omitempty"`
}
