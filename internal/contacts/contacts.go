// Package contacts holds the emergency helpline directory.
package contacts

import (
	"strings"

	"github.com/mr1hm/resqlink/internal/models"
)

var directory = []models.Contact{
	{Service: "National Emergency Helpline", Number: "112", Description: "Police, Fire, Medical (all-in-one emergency number)"},
	{Service: "Fire Brigade", Number: "101", Description: "Fire emergencies"},
	{Service: "Ambulance Services", Number: "102", Description: "Medical emergencies"},
	{Service: "Police Helpline", Number: "100", Description: "Law enforcement & security"},
	{Service: "Madhya Pradesh Emergency Response", Number: "1070 / 0755-2441444", Description: "Emergency response in Madhya Pradesh"},
	{Service: "Chhattisgarh Disaster Helpline", Number: "1070 / 0771-2223471", Description: "Disaster response in Chhattisgarh"},
	{Service: "Rajasthan Disaster Control Room", Number: "0141-2385700", Description: "Disaster control in Rajasthan"},
	{Service: "Gujarat Emergency Helpline", Number: "1070 / 079-23259222", Description: "Emergency helpline in Gujarat"},
	{Service: "Maharashtra Disaster Helpline", Number: "022-22027990", Description: "Disaster response in Maharashtra"},
}

// All returns a copy of the directory in display order.
func All() []models.Contact {
	out := make([]models.Contact, len(directory))
	copy(out, directory)
	return out
}

// Search returns the contacts whose service or description contains q,
// ignoring case. An empty query returns everything.
func Search(q string) []models.Contact {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return All()
	}
	var out []models.Contact
	for _, c := range directory {
		if strings.Contains(strings.ToLower(c.Service), q) || strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
		}
	}
	return out
}
