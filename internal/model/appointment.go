package model

import (
	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusDone      AppointmentStatus = "done"
	AppointmentStatusCanceled  AppointmentStatus = "canceled"
	AppointmentStatusRejected  AppointmentStatus = "rejected"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// OccupyingStatuses count against slot capacity. Done still occupies its
// slot for the rest of the day.
var OccupyingStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusDone,
}

// Occupies reports whether an appointment in this status holds capacity.
func (s AppointmentStatus) Occupies() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusDone:
		return true
	}
	return false
}

// Terminal statuses admit no further transitions.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentStatusDone, AppointmentStatusCanceled, AppointmentStatusRejected, AppointmentStatusNoShow:
		return true
	}
	return false
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusDone,
		AppointmentStatusCanceled, AppointmentStatusRejected, AppointmentStatusNoShow:
		return true
	}
	return false
}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCanceled, AppointmentStatusRejected},
	AppointmentStatusConfirmed: {AppointmentStatusDone, AppointmentStatusCanceled, AppointmentStatusNoShow},
}

// CanTransition reports whether from → to is an edge of the lifecycle.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Appointment struct {
	Base
	ProfessionalID  uuid.UUID         `db:"professional_id" json:"professional_id"`
	ClientID        uuid.UUID         `db:"client_id" json:"client_id"`
	AppointmentDate Date              `db:"appointment_date" json:"appointment_date"`
	StartTime       Clock             `db:"start_time" json:"start_time"`
	EndTime         Clock             `db:"end_time" json:"end_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	ChatRequestID   *uuid.UUID        `db:"chat_request_id" json:"chat_request_id,omitempty"`
	ServiceLabel    *string           `db:"service_label" json:"service_label,omitempty"`
}

// DurationMinutes is derived from the stored range.
func (a *Appointment) DurationMinutes() int {
	return int(a.EndTime - a.StartTime)
}

// SlotKey identifies the capacity bucket the appointment occupies.
func (a *Appointment) SlotKey() SlotKey {
	return SlotKey{ProfessionalID: a.ProfessionalID, Date: a.AppointmentDate, Start: a.StartTime}
}

// SlotKey is the exact (professional, date, start) triple capacity is
// evaluated at.
type SlotKey struct {
	ProfessionalID uuid.UUID
	Date           Date
	Start          Clock
}

func (k SlotKey) String() string {
	return k.ProfessionalID.String() + ":" + k.Date.String() + ":" + k.Start.String()
}

type CreateAppointmentRequest struct {
	ProfessionalID  string   `json:"professional_id" validate:"required,uuid"`
	Date            string   `json:"date" validate:"required,date"`
	StartTime       string   `json:"start_time" validate:"required,clock"`
	DurationMinutes int      `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	ServiceIDs      []string `json:"service_ids" validate:"omitempty,max=10,dive,uuid"`
	ChatRequestID   *string  `json:"chat_request_id" validate:"omitempty,uuid"`
}

type RescheduleAppointmentRequest struct {
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"start_time" validate:"required,clock"`
}

// AppointmentFilters narrows appointment listings.
type AppointmentFilters struct {
	ProfessionalID *uuid.UUID
	ClientID       *uuid.UUID
	From           Date
	To             Date
	Statuses       []AppointmentStatus
}
