package feed

import (
	"regexp"
	"strings"
	"time"

	"github.com/mr1hm/resqlink/internal/gdacs"
	"github.com/mr1hm/resqlink/internal/models"
)

const (
	defaultLocation = "Unknown"
	defaultSource   = "GDACS"
	unknownDate     = "Unknown date"
	displayLayout   = "Jan 2, 2006"
)

var eventTypes = map[string]models.DisasterType{
	"EQ": models.DisasterTypeEarthquake,
	"TC": models.DisasterTypeCyclone,
	"FL": models.DisasterTypeFlood,
	"DR": models.DisasterTypeDrought,
	"VO": models.DisasterTypeVolcano,
}

var alertSeverities = map[string]models.Severity{
	"green":  models.SeverityLow,
	"orange": models.SeverityMedium,
	"red":    models.SeverityHigh,
}

// Layouts tried in order for the feed's fromdate. Zone-less values are UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Normalize maps one raw feature to its canonical event. It is pure: the
// same feature always yields the same event.
func Normalize(f gdacs.Feature) models.DisasterEvent {
	p := f.Properties

	rawDate, dateOK := parseFeedDate(p.FromDate)
	date := unknownDate
	if dateOK {
		date = rawDate.Format(displayLayout)
	}

	title := p.Name
	if title == "" {
		title = p.Description
	}

	event := models.DisasterEvent{
		ID:          int64(p.EventID),
		Type:        MapEventType(p.EventType),
		Title:       title,
		Location:    orDefault(p.Country, defaultLocation),
		Date:        date,
		Description: StripTags(p.HTMLDescription),
		Severity:    MapAlertLevel(p.AlertLevel),
		Source:      orDefault(p.Source, defaultSource),
		RawDate:     rawDate,
	}

	if p.URL != nil {
		event.DetailsURL = p.URL.Report
	}
	if lon, lat, ok := f.Geometry.Point(); ok {
		event.Coordinates = &models.Coordinates{Latitude: lat, Longitude: lon}
	}

	return event
}

// MapEventType resolves a feed type code. Codes outside the table become the
// generic "Disaster" label so new feed codes degrade instead of failing.
func MapEventType(code string) models.DisasterType {
	if t, ok := eventTypes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return t
	}
	return models.DisasterTypeDisaster
}

// MapAlertLevel resolves an alert level case-insensitively. Unrecognized
// levels map to critical.
func MapAlertLevel(level string) models.Severity {
	s, _ := lookupAlertLevel(level)
	return s
}

func lookupAlertLevel(level string) (models.Severity, bool) {
	if s, ok := alertSeverities[strings.ToLower(strings.TrimSpace(level))]; ok {
		return s, true
	}
	return models.SeverityCritical, false
}

// StripTags removes every <...> sequence. Stray angle brackets that are not
// part of a tag are not distinguished.
func StripTags(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}

func parseFeedDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
