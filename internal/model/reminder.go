package model

import (
	"time"

	"github.com/google/uuid"
)

type ReminderKind string

const (
	Reminder24h ReminderKind = "24h"
	Reminder1h  ReminderKind = "1h"
)

// ReminderWindow selects appointments starting within [now+From, now+To].
type ReminderWindow struct {
	Kind ReminderKind
	From time.Duration
	To   time.Duration
}

// DefaultReminderWindows are centred on 24 hours and 1 hour before start.
var DefaultReminderWindows = []ReminderWindow{
	{Kind: Reminder24h, From: 23*time.Hour + 30*time.Minute, To: 24*time.Hour + 30*time.Minute},
	{Kind: Reminder1h, From: 50 * time.Minute, To: 70 * time.Minute},
}

// ReminderCandidate is an upcoming appointment with what a reminder needs.
type ReminderCandidate struct {
	AppointmentID      uuid.UUID  `db:"id"`
	ClientID           uuid.UUID  `db:"client_id"`
	ProfessionalID     uuid.UUID  `db:"professional_id"`
	ProfessionalUserID *uuid.UUID `db:"professional_user_id"`
	AppointmentDate    Date       `db:"appointment_date"`
	StartTime          Clock      `db:"start_time"`
	ChatRequestID      *uuid.UUID `db:"chat_request_id"`
	ServiceLabel       *string    `db:"service_label"`
}
