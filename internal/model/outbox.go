package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusRetry      OutboxStatus = "retry"
	OutboxStatusProcessing OutboxStatus = "processing" // retry_at holds the lease
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Outbox event types.
const (
	EventAppointmentCreated       = "appointment.created"
	EventAppointmentRescheduled   = "appointment.rescheduled"
	EventAppointmentStatusChanged = "appointment.status_changed"

	EventDependencyMessage      = "dependency.message"
	EventDependencyNotification = "dependency.notification"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
}

// AppointmentEvent is the payload of appointment.* events.
type AppointmentEvent struct {
	AppointmentID  uuid.UUID         `json:"appointment_id"`
	ProfessionalID uuid.UUID         `json:"professional_id"`
	ClientID       uuid.UUID         `json:"client_id"`
	Date           Date              `json:"date"`
	StartTime      Clock             `json:"start_time"`
	EndTime        Clock             `json:"end_time"`
	Status         AppointmentStatus `json:"status"`
	PreviousStatus AppointmentStatus `json:"previous_status,omitempty"`
	PreviousDate   *Date             `json:"previous_date,omitempty"`
	PreviousStart  *Clock            `json:"previous_start_time,omitempty"`
	ActorID        *uuid.UUID        `json:"actor_id,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// MessagePayload is the payload of dependency.message retry events.
type MessagePayload struct {
	ThreadID uuid.UUID `json:"thread_id"`
	SenderID uuid.UUID `json:"sender_id"`
	Text     string    `json:"text"`
}

// NotificationPayload is the payload of dependency.notification retry events.
type NotificationPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	Link   string    `json:"link,omitempty"`
}
