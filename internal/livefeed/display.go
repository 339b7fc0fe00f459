package livefeed

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mr1hm/resqlink/internal/models"
)

// View is an update plus the fields a list renderer needs.
type View struct {
	models.DisasterUpdate
	DisplayType     string `json:"display_type"`
	DisplayLocation string `json:"display_location"`
	Details         string `json:"details"`
	SeverityClass   string `json:"severity_class"`
	Icon            string `json:"icon"`
}

func NewView(u models.DisasterUpdate) View {
	return View{
		DisasterUpdate:  u,
		DisplayType:     DisplayType(u.DisasterType),
		DisplayLocation: FormatLocation(u.Location),
		Details:         ParseMessage(u.Message),
		SeverityClass:   SeverityClass(u.Status),
		Icon:            Icon(u.DisasterType),
	}
}

func NewViews(updates []models.DisasterUpdate) []View {
	views := make([]View, 0, len(updates))
	for _, u := range updates {
		views = append(views, NewView(u))
	}
	return views
}

// FormatLocation renders "Lat: x, Lng: y" as a four-decimal "x, y" pair.
// Any other text is returned unchanged.
func FormatLocation(location string) string {
	if !strings.Contains(location, "Lat:") || !strings.Contains(location, "Lng:") {
		return location
	}
	parts := strings.SplitN(location, ",", 2)
	if len(parts) != 2 {
		return location
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(parts[0], "Lat:", "", 1)), 64)
	if err != nil {
		return location
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(parts[1], "Lng:", "", 1)), 64)
	if err != nil {
		return location
	}
	return strconv.FormatFloat(lat, 'f', 4, 64) + ", " + strconv.FormatFloat(lng, 'f', 4, 64)
}

// ParseMessage extracts the free text of a structured SOS message
// ("Disaster Type: ... Details: ..."). Unstructured messages pass through.
func ParseMessage(message string) string {
	if !strings.Contains(message, "Disaster Type:") || !strings.Contains(message, "Details:") {
		return message
	}
	parts := strings.SplitN(message, "Details:", 3)
	return strings.TrimSpace(parts[1])
}

func SeverityClass(status string) string {
	switch strings.ToLower(status) {
	case "under review":
		return "severity-medium"
	case "verified":
		return "severity-high"
	case "critical":
		return "severity-critical"
	case "resolved":
		return "severity-low"
	default:
		return "severity-medium"
	}
}

// DisplayType lower-cases the reported type and capitalizes each word.
func DisplayType(t string) string {
	if t == "" {
		t = defaultDisasterType
	}
	return cases.Title(language.English).String(strings.ToLower(t))
}

// Icon names the list icon for a reported type.
func Icon(t string) string {
	switch strings.ToLower(t) {
	case "flood":
		return "cloud-rain"
	case "fire":
		return "flame"
	case "earthquake":
		return "building"
	case "tsunami":
		return "waves"
	case "hurricane", "storm":
		return "wind"
	case "landslide":
		return "mountain"
	default:
		return "alert-circle"
	}
}
