package availability

import (
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
)

// Resolve intersects generated capacity with live occupancy. Appointments are
// matched by exact start, only occupying statuses count, and exclude (the
// appointment being moved) is ignored. Results are sorted by start.
func Resolve(capacities model.SlotCapacities, appointments []*model.Appointment, exclude *uuid.UUID) []model.Slot {
	occupied := Occupancy(appointments, exclude)

	slots := make([]model.Slot, 0, len(capacities))
	for start, capacity := range capacities {
		used := occupied[start]
		if used >= capacity {
			continue
		}
		slots = append(slots, model.Slot{
			Start:     start,
			Capacity:  capacity,
			Occupied:  used,
			Remaining: capacity - used,
		})
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
	return slots
}

// Occupancy counts occupying appointments per start time.
func Occupancy(appointments []*model.Appointment, exclude *uuid.UUID) map[model.Clock]int {
	occupied := make(map[model.Clock]int, len(appointments))
	for _, apt := range appointments {
		if exclude != nil && apt.ID == *exclude {
			continue
		}
		if !apt.Status.Occupies() {
			continue
		}
		occupied[apt.StartTime]++
	}
	return occupied
}

// Find returns the slot starting at start, if bookable.
func Find(slots []model.Slot, start model.Clock) (model.Slot, bool) {
	i := sort.Search(len(slots), func(i int) bool { return slots[i].Start >= start })
	if i < len(slots) && slots[i].Start == start {
		return slots[i], true
	}
	return model.Slot{}, false
}
