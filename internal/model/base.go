package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Touch stamps a new record with an id and timestamps.
func (b *Base) Touch(now time.Time) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Actor is the authenticated caller. ProfessionalID is set when the user
// manages an agenda.
type Actor struct {
	UserID         uuid.UUID
	ProfessionalID *uuid.UUID
}

func (a Actor) IsProfessional(id uuid.UUID) bool {
	return a.ProfessionalID != nil && *a.ProfessionalID == id
}
