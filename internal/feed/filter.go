package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/resqlink/internal/models"
)

// TimeWindow selects how far back the filter looks.
type TimeWindow string

const (
	WindowDay   TimeWindow = "1day"
	WindowWeek  TimeWindow = "1week"
	WindowMonth TimeWindow = "1month"
	WindowYear  TimeWindow = "1year"

	DefaultWindow = WindowMonth
)

// TypeAll disables type filtering.
const TypeAll = "all"

func ParseTimeWindow(s string) (TimeWindow, error) {
	switch w := TimeWindow(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return DefaultWindow, nil
	case WindowDay, WindowWeek, WindowMonth, WindowYear:
		return w, nil
	default:
		return "", fmt.Errorf("unknown time window %q", s)
	}
}

// Cutoff subtracts the window's calendar unit from now. Months and years are
// calendar arithmetic, not fixed durations, so "1month" from March 31 lands
// in early March (February 31 normalized).
func Cutoff(w TimeWindow, now time.Time) time.Time {
	switch w {
	case WindowDay:
		return now.AddDate(0, 0, -1)
	case WindowWeek:
		return now.AddDate(0, 0, -7)
	case WindowYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

// Filter returns the events of the requested type whose RawDate is at or
// after the window's cutoff. The input slice is never modified.
func Filter(events []models.DisasterEvent, w TimeWindow, typ string, now time.Time) []models.DisasterEvent {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		typ = TypeAll
	}
	cutoff := Cutoff(w, now)

	out := make([]models.DisasterEvent, 0, len(events))
	for _, e := range events {
		typeMatch := strings.EqualFold(typ, TypeAll) || strings.EqualFold(typ, string(e.Type))
		dateMatch := !e.RawDate.IsZero() && !e.RawDate.Before(cutoff)
		if typeMatch && dateMatch {
			out = append(out, e)
		}
	}
	return out
}
