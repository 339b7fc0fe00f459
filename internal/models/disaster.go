package models

import (
	"time"
)

// DisasterType is the display label of a feed event type.
type DisasterType string

const (
	DisasterTypeEarthquake DisasterType = "Earthquake"
	DisasterTypeCyclone    DisasterType = "Cyclone"
	DisasterTypeFlood      DisasterType = "Flood"
	DisasterTypeDrought    DisasterType = "Drought"
	DisasterTypeVolcano    DisasterType = "Volcano"
	DisasterTypeDisaster   DisasterType = "Disaster" // fallback for unmapped codes
)

// DisasterTypes lists every label an event can carry.
var DisasterTypes = []DisasterType{
	DisasterTypeEarthquake,
	DisasterTypeCyclone,
	DisasterTypeFlood,
	DisasterTypeDrought,
	DisasterTypeVolcano,
	DisasterTypeDisaster,
}

func (t DisasterType) Valid() bool {
	for _, known := range DisasterTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DisasterEvent is the canonical entry built from one upstream feed record.
type DisasterEvent struct {
	ID          int64        `json:"id"`
	Type        DisasterType `json:"type"`
	Title       string       `json:"title"`
	Location    string       `json:"location"`
	Date        string       `json:"date"`
	Description string       `json:"description"`
	Severity    Severity     `json:"severity"`
	Source      string       `json:"source"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	DetailsURL  string       `json:"detailsUrl,omitempty"`
	RawDate     time.Time    `json:"-"` // filtering only, never displayed
}

type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}
