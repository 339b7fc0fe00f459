// Package gdacs reads the GDACS event list, a GeoJSON-like feature collection
// describing current and recent disasters.
package gdacs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mr1hm/resqlink/internal/fetch"
)

const DefaultURL = "https://www.gdacs.org/gdacsapi/api/events/geteventlist/SEARCH"

type eventList struct {
	Features []json.RawMessage `json:"features"`
}

// Feature is one raw record of the feed. The schema belongs to GDACS, so
// every field is optional.
type Feature struct {
	Properties Properties `json:"properties"`
	Geometry   *Geometry  `json:"geometry"`
}

type Properties struct {
	EventID         EventID `json:"eventid"`
	EventType       string  `json:"eventtype"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	HTMLDescription string  `json:"htmldescription"`
	Country         string  `json:"country"`
	AlertLevel      string  `json:"alertlevel"`
	Source          string  `json:"source"`
	FromDate        string  `json:"fromdate"`
	URL             *URLs   `json:"url"`
}

// UnmarshalJSON reads each property on its own. A property of the wrong
// JSON type decodes as its zero value and never fails the record.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		*p = Properties{}
		return nil
	}

	out := Properties{
		EventType:       text(fields["eventtype"]),
		Name:            text(fields["name"]),
		Description:     text(fields["description"]),
		HTMLDescription: text(fields["htmldescription"]),
		Country:         text(fields["country"]),
		AlertLevel:      text(fields["alertlevel"]),
		Source:          text(fields["source"]),
		FromDate:        text(fields["fromdate"]),
	}
	_ = out.EventID.UnmarshalJSON(fields["eventid"])

	if raw, ok := fields["url"]; ok {
		var urls map[string]json.RawMessage
		if err := json.Unmarshal(raw, &urls); err == nil && urls != nil {
			out.URL = &URLs{Report: text(urls["report"]), Details: text(urls["details"])}
		}
	}

	*p = out
	return nil
}

// text returns raw as a string when it is a JSON string, otherwise "".
func text(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

type URLs struct {
	Report  string `json:"report"`
	Details string `json:"details"`
}

type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// UnmarshalJSON keeps any feature that is a JSON object. A geometry that is
// not an object is dropped; the properties decode field by field.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var raw struct {
		Properties json.RawMessage `json:"properties"`
		Geometry   json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Feature
	if len(raw.Properties) > 0 {
		_ = out.Properties.UnmarshalJSON(raw.Properties)
	}
	if len(raw.Geometry) > 0 {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw.Geometry, &fields); err == nil && fields != nil {
			out.Geometry = &Geometry{Type: text(fields["type"]), Coordinates: fields["coordinates"]}
		}
	}

	*f = out
	return nil
}

// Point returns the [lon, lat] pair of a point geometry. Other shapes, or
// malformed coordinates, report ok=false.
func (g *Geometry) Point() (lon, lat float64, ok bool) {
	if g == nil || len(g.Coordinates) == 0 {
		return 0, 0, false
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) < 2 {
		return 0, 0, false
	}
	return coords[0], coords[1], true
}

// EventID accepts the feed identifier as a JSON number or a numeric string.
type EventID int64

func (id *EventID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*id = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*id = EventID(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*id = EventID(int64(f))
		return nil
	}
	// An unreadable id is a per-record defect; it becomes 0 rather than
	// failing the whole feed.
	*id = 0
	return nil
}

// Client performs a single GET against the GDACS event list.
type Client struct {
	http *fetch.Client
	url  string
}

func NewClient(httpClient *fetch.Client, url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{http: httpClient, url: url}
}

func (c *Client) URL() string {
	return c.url
}

// FetchEvents returns the raw features in feed order. It fails with a
// *fetch.FetchError, *fetch.TransportError or *fetch.ParseError.
func (c *Client) FetchEvents(ctx context.Context) ([]Feature, error) {
	var data eventList
	if err := c.http.GetJSON(ctx, c.url, &data); err != nil {
		return nil, err
	}
	if data.Features == nil {
		return nil, &fetch.ParseError{URL: c.url, Err: errors.New("response has no features array")}
	}

	features := make([]Feature, 0, len(data.Features))
	for i, raw := range data.Features {
		var f Feature
		if err := json.Unmarshal(raw, &f); err != nil {
			// Only a feature that is not a JSON object lands here.
			slog.Warn("skipping non-object GDACS feature", "index", i, "error", err)
			continue
		}
		features = append(features, f)
	}
	return features, nil
}
