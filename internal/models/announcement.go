package models

type Announcement struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
	IsImportant bool   `json:"is_important"`
}

// Contact is an entry of the emergency helpline directory.
type Contact struct {
	Service     string `json:"service"`
	Number      string `json:"number"`
	Description string `json:"description"`
}
