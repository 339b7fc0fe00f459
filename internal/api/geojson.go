package api

import (
	"strings"

	"github.com/mr1hm/resqlink/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders events as a feature collection. Events without
// coordinates keep a null geometry so the list still matches the JSON view.
func toGeoJSON(events []models.DisasterEvent) FeatureCollection {
	features := make([]Feature, 0, len(events))

	for _, e := range events {
		f := Feature{
			Type: "Feature",
			Properties: map[string]any{
				"id":          e.ID,
				"type":        strings.ToLower(string(e.Type)),
				"title":       e.Title,
				"location":    e.Location,
				"date":        e.Date,
				"description": e.Description,
				"severity":    e.Severity,
				"source":      e.Source,
			},
		}
		if e.Coordinates != nil {
			f.Geometry = &Geometry{
				Type:        "Point",
				Coordinates: []float64{e.Coordinates.Longitude, e.Coordinates.Latitude},
			}
		}
		if e.DetailsURL != "" {
			f.Properties["details_url"] = e.DetailsURL
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
