package event

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
)

// Change describes what an appointment event replaced.
type Change struct {
	PreviousStatus model.AppointmentStatus
	PreviousDate   *model.Date
	PreviousStart  *model.Clock
}

// New builds a pending outbox event with a JSON payload.
func New(eventType string, payload interface{}) (*model.OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   data,
		Status:    model.OutboxStatusPending,
	}, nil
}

// NewAppointmentEvent snapshots apt after a mutation.
func NewAppointmentEvent(eventType string, apt *model.Appointment, actorID uuid.UUID, change Change) (*model.OutboxEvent, error) {
	payload := model.AppointmentEvent{
		AppointmentID:  apt.ID,
		ProfessionalID: apt.ProfessionalID,
		ClientID:       apt.ClientID,
		Date:           apt.AppointmentDate,
		StartTime:      apt.StartTime,
		EndTime:        apt.EndTime,
		Status:         apt.Status,
		PreviousStatus: change.PreviousStatus,
		PreviousDate:   change.PreviousDate,
		PreviousStart:  change.PreviousStart,
		OccurredAt:     time.Now().UTC(),
	}
	if actorID != uuid.Nil {
		payload.ActorID = &actorID
	}
	return New(eventType, payload)
}

// Decode unmarshals an event payload into v.
func Decode(event *model.OutboxEvent, v interface{}) error {
	if err := json.Unmarshal(event.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.EventType, err)
	}
	return nil
}
