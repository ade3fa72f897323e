package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a message for one user, delivered in-app and optionally
// by e-mail.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"message" json:"body"`
	Link      string    `db:"link" json:"link,omitempty"`
	Type      string    `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SystemMessage is a plain-text line appended to a conversation thread.
type SystemMessage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ThreadID  uuid.UUID `db:"request_id" json:"thread_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Profile is the slice of the identity store this service reads.
type Profile struct {
	UserID   uuid.UUID `db:"user_id"`
	FullName string    `db:"full_name"`
	Email    *string   `db:"email"`
}
