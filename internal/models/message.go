package models

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message stored in the 'messages' table.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	Role           string    `db:"role" json:"role"`
	Content        string    `db:"content" json:"content"`
	Language       string    `db:"language" json:"language,omitempty"`
	Edited         bool      `db:"edited" json:"edited"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
