// Package sos validates SOS reports and tracks the reporter's location
// permission.
package sos

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TypeNone             = "None"
	TypeEarthquake       = "Earthquake"
	TypeFlood            = "Flood"
	TypeWildfire         = "Wildfire"
	TypeHurricane        = "Hurricane"
	TypeTornado          = "Tornado"
	TypeTsunami          = "Tsunami"
	TypeLandslide        = "Landslide"
	TypeDrought          = "Drought"
	TypeVolcanicEruption = "Volcanic Eruption"
	TypeOther            = "Other"
)

// DisasterTypes lists the selectable types; TypeNone is the unselected
// placeholder.
var DisasterTypes = []string{
	TypeNone,
	TypeEarthquake,
	TypeFlood,
	TypeWildfire,
	TypeHurricane,
	TypeTornado,
	TypeTsunami,
	TypeLandslide,
	TypeDrought,
	TypeVolcanicEruption,
	TypeOther,
}

var (
	ErrDisasterTypeRequired = errors.New("please select a valid disaster type")
	ErrLocationRequired     = errors.New("location is required")
	ErrInvalidCoordinates   = errors.New("coordinates out of range")
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: %v, %v", ErrInvalidCoordinates, l.Latitude, l.Longitude)
	}
	return nil
}

type Report struct {
	MobileNumber string    `json:"mobileNumber"`
	DisasterType string    `json:"disasterType"`
	Details      string    `json:"details"`
	Location     *Location `json:"location,omitempty"`
}

// Validate checks the type first, then the location, and reports the first
// failure.
func (r Report) Validate() error {
	if !validType(r.DisasterType) {
		return ErrDisasterTypeRequired
	}
	if r.Location == nil {
		return ErrLocationRequired
	}
	return r.Location.Validate()
}

// ParseDisasterType resolves a type name case-insensitively.
func ParseDisasterType(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, t := range DisasterTypes {
		if strings.EqualFold(s, t) {
			return t, true
		}
	}
	return "", false
}

func validType(t string) bool {
	for _, known := range DisasterTypes[1:] {
		if t == known {
			return true
		}
	}
	return false
}

// Payload is the body accepted by the backend's SOS endpoint.
type Payload struct {
	MobileNumber string   `json:"mobileNumber"`
	DisasterType string   `json:"disasterType"`
	Details      string   `json:"details"`
	Location     Location `json:"location"`
	ReportedAt   string   `json:"reportedAt"`
}

// Payload validates the report and stamps it with the report time.
func (r Report) Payload(now time.Time) (Payload, error) {
	if err := r.Validate(); err != nil {
		return Payload{}, err
	}
	return Payload{
		MobileNumber: r.MobileNumber,
		DisasterType: r.DisasterType,
		Details:      r.Details,
		Location:     *r.Location,
		ReportedAt:   now.UTC().Format("2006-01-02T15:04:05.000Z"),
	}, nil
}
