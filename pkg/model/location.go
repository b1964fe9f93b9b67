package model

import "time"

// Coordinates are optional map coordinates of a location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a place in the multiverse.
type Location struct {
	LocationID  int          `json:"location_id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Dimension   string       `json:"dimension"`
	Residents   []int        `json:"residents"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Created     time.Time    `json:"created"`
	Updated     time.Time    `json:"updated"`
}

// Ref returns the embedded reference form of the location.
func (l *Location) Ref() PlaceRef {
	return PlaceRef{ID: l.LocationID, Name: l.Name}
}

// LocationFilter narrows a location listing. "" or "all" means no filter.
type LocationFilter struct {
	Type      string
	Dimension string
}
