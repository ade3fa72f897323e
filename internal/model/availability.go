package model

import (
	"github.com/google/uuid"
)

// DefaultSlotInterval applies when a rule carries a non-positive interval.
const DefaultSlotInterval = 30

// AvailabilityRule is a recurring weekly template of bookable starts.
type AvailabilityRule struct {
	Base
	ProfessionalID      uuid.UUID `db:"professional_id" json:"professional_id"`
	Weekday             int       `db:"weekday" json:"weekday"`
	StartTime           Clock     `db:"start_time" json:"start_time"`
	EndTime             Clock     `db:"end_time" json:"end_time"`
	SlotIntervalMinutes int       `db:"slot_interval_minutes" json:"slot_interval_minutes"`
	Capacity            int       `db:"capacity" json:"capacity"`
}

// Interval returns the step between candidate starts, never zero.
func (r *AvailabilityRule) Interval() int {
	if r.SlotIntervalMinutes <= 0 {
		return DefaultSlotInterval
	}
	return r.SlotIntervalMinutes
}

// AvailabilityBlock removes availability for part of a single date.
type AvailabilityBlock struct {
	Base
	ProfessionalID uuid.UUID `db:"professional_id" json:"professional_id"`
	BlockDate      Date      `db:"block_date" json:"block_date"`
	StartTime      Clock     `db:"start_time" json:"start_time"`
	EndTime        Clock     `db:"end_time" json:"end_time"`
	Reason         *string   `db:"reason" json:"reason,omitempty"`
}

// ServiceOffering is an entry of a professional's service catalog.
type ServiceOffering struct {
	Base
	ProfessionalID  uuid.UUID `db:"professional_id" json:"professional_id"`
	Name            string    `db:"name" json:"name"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Active          bool      `db:"active" json:"active"`
}

type CreateRuleRequest struct {
	Weekday             int    `json:"weekday" validate:"min=0,max=6"`
	StartTime           string `json:"start_time" validate:"required,clock"`
	EndTime             string `json:"end_time" validate:"required,clock"`
	SlotIntervalMinutes int    `json:"slot_interval_minutes" validate:"min=0,max=1440"`
	Capacity            int    `json:"capacity" validate:"required,min=1"`
}

type UpdateRuleRequest = CreateRuleRequest

type CreateBlockRequest struct {
	BlockDate string  `json:"block_date" validate:"required,date"`
	StartTime string  `json:"start_time" validate:"required,clock"`
	EndTime   string  `json:"end_time" validate:"required,clock"`
	Reason    *string `json:"reason" validate:"omitempty,max=255"`
}

type CreateOfferingRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1,max=1440"`
}
