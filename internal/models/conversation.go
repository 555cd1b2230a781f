package models

import "time"

// Conversation owns an ordered sequence of messages. UpdatedAt is bumped on
// every mutation to the conversation or its messages and never moves backwards.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Title     string    `db:"title" json:"title"`
	IsPinned  bool      `db:"is_pinned" json:"is_pinned"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Computed from a joined query on list reads.
	MessageCount int `db:"message_count" json:"message_count"`
}
