package model

import (
	"github.com/google/uuid"
)

// CalendarEntry is an appointment as shown on the professional's calendar.
type CalendarEntry struct {
	*Appointment
	ClientName string `json:"client_name"`
}

type CalendarDay struct {
	Date         Date             `json:"date"`
	Appointments []*CalendarEntry `json:"appointments"`
}

// CalendarMonth lists every day of a month, including empty ones.
type CalendarMonth struct {
	ProfessionalID uuid.UUID      `json:"professional_id"`
	Year           int            `json:"year"`
	Month          int            `json:"month"`
	Days           []*CalendarDay `json:"days"`
}
