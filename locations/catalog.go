// Package locations holds the fixed catalog of popular spots eligible
// for crowd reporting. The catalog is read-only reference data.
package locations

import (
	"github.com/golang/geo/s2"
)

// Spot is one reportable place from the catalog.
type Spot struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

var popularSpots = []Spot{
	{ID: "elk-lake", Name: "Elk Lake", Lat: 43.9654, Lng: -121.8132},
	{ID: "sparks-lake", Name: "Sparks Lake", Lat: 44.0056, Lng: -121.7347},
	{ID: "tumalo-falls", Name: "Tumalo Falls", Lat: 44.0335, Lng: -121.5668},
	{ID: "phils-trail", Name: "Phil's Trail", Lat: 44.0422, Lng: -121.3853},
	{ID: "downtown-bend", Name: "Downtown Bend", Lat: 44.0582, Lng: -121.3153},
	{ID: "deschutes-river-trail", Name: "Deschutes River Trail", Lat: 44.0266, Lng: -121.3419},
	{ID: "smith-rock", Name: "Smith Rock", Lat: 44.3683, Lng: -121.1402},
	{ID: "mt-bachelor", Name: "Mt. Bachelor", Lat: 43.9793, Lng: -121.6885},
	{ID: "todd-lake", Name: "Todd Lake", Lat: 44.0269, Lng: -121.6847},
	{ID: "lava-river-cave", Name: "Lava River Cave", Lat: 43.8957, Lng: -121.3690},
}

const earthRadiusKm = 6371.01

// Catalog answers lookups against the popular-spot list.
type Catalog struct {
	spots []Spot
	byID  map[string]Spot
}

// NewCatalog builds a catalog seeded with the popular spots.
func NewCatalog() *Catalog {
	byID := make(map[string]Spot, len(popularSpots))
	for _, s := range popularSpots {
		byID[s.ID] = s
	}
	return &Catalog{spots: popularSpots, byID: byID}
}

// All returns every spot in catalog order.
func (c *Catalog) All() []Spot {
	out := make([]Spot, len(c.spots))
	copy(out, c.spots)
	return out
}

// Lookup finds a spot by its id.
func (c *Catalog) Lookup(id string) (Spot, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Nearest returns the catalog spot closest to the given coordinates and
// the great-circle distance to it in kilometers.
func (c *Catalog) Nearest(lat, lng float64) (Spot, float64) {
	from := s2.LatLngFromDegrees(lat, lng)
	best := c.spots[0]
	bestDist := from.Distance(s2.LatLngFromDegrees(best.Lat, best.Lng))
	for _, s := range c.spots[1:] {
		d := from.Distance(s2.LatLngFromDegrees(s.Lat, s.Lng))
		if d < bestDist {
			best = s
			bestDist = d
		}
	}
	return best, bestDist.Radians() * earthRadiusKm
}
