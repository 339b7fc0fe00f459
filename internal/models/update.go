package models

// DisasterUpdate is one entry of the live SOS feed served by the application
// backend. The list is replaced wholesale on every poll.
type DisasterUpdate struct {
	ID           int64  `json:"id"`
	DisasterType string `json:"disaster_type"`
	Location     string `json:"location"`
	CreatedAt    string `json:"created_at"`
	Message      string `json:"message"`
	MobileNumber string `json:"mobile_number,omitempty"`
	Status       string `json:"status"`
	Source       string `json:"source,omitempty"`
}
