package model

// Slot is a bookable start on a given date as seen at read time.
type Slot struct {
	Start     Clock `json:"start"`
	Capacity  int   `json:"capacity"`
	Occupied  int   `json:"occupied"`
	Remaining int   `json:"remaining"`
}

func (s Slot) IsFull() bool {
	return s.Remaining <= 0
}

// SlotCapacities maps candidate starts to their effective capacity.
type SlotCapacities map[Clock]int

// DaySlots is the resolver output for one date.
type DaySlots struct {
	ProfessionalID string `json:"professional_id"`
	Date           Date   `json:"date"`
	Duration       int    `json:"duration_minutes"`
	Slots          []Slot `json:"slots"`
}
