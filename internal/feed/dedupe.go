package feed

import (
	"github.com/mr1hm/resqlink/internal/gdacs"
	"github.com/mr1hm/resqlink/internal/models"
)

// Dedupe normalizes features into one event per event id. The first feature
// seen for an id wins; later duplicates are dropped without being merged,
// even when they carry more fields. Output keeps first-occurrence order.
func Dedupe(features []gdacs.Feature) []models.DisasterEvent {
	seen := make(map[int64]struct{}, len(features))
	events := make([]models.DisasterEvent, 0, len(features))

	for _, f := range features {
		id := int64(f.Properties.EventID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		events = append(events, Normalize(f))
	}

	return events
}
