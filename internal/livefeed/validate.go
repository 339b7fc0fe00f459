// Package livefeed polls the application backend for SOS updates and keeps
// the latest list for display.
package livefeed

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/mr1hm/resqlink/internal/models"
)

const (
	defaultDisasterType = "unknown"
	defaultLocation     = "Unknown location"
	defaultMessage      = "No details provided"
	defaultStatus       = "under review"

	// createdAtLayout renders defaulted timestamps as UTC with millisecond
	// precision.
	createdAtLayout = "2006-01-02T15:04:05.000Z"
)

// RawUpdate is one record of the SOS message list exactly as the backend
// sent it. Any field may be missing or of an unexpected type.
type RawUpdate map[string]any

// Validate turns a raw record into a DisasterUpdate, defaulting every
// missing field on its own. It never fails: a malformed field degrades to
// its default instead of rejecting the record.
func Validate(raw RawUpdate, now time.Time) models.DisasterUpdate {
	id, ok := raw.int64("id")
	if !ok || id == 0 {
		id = now.UnixMilli()
	}

	return models.DisasterUpdate{
		ID:           id,
		DisasterType: raw.stringOr("disaster_type", defaultDisasterType),
		Location:     raw.stringOr("location", defaultLocation),
		CreatedAt:    raw.stringOr("created_at", now.UTC().Format(createdAtLayout)),
		Message:      raw.stringOr("message", defaultMessage),
		MobileNumber: raw.stringOr("mobile_number", ""),
		Status:       raw.stringOr("status", defaultStatus),
		Source:       raw.stringOr("source", ""),
	}
}

// ValidateAll validates every record against the same instant.
func ValidateAll(raws []RawUpdate, now time.Time) []models.DisasterUpdate {
	out := make([]models.DisasterUpdate, 0, len(raws))
	for _, r := range raws {
		out = append(out, Validate(r, now))
	}
	return out
}

// stringOr returns the field as text. Empty strings count as missing;
// numbers and booleans are rendered.
func (r RawUpdate) stringOr(key, fallback string) string {
	switch v := r[key].(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return fallback
}

func (r RawUpdate) int64(key string) (int64, bool) {
	switch v := r[key].(type) {
	case float64:
		return int64(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
