package availability

import (
	"github.com/jwalitptl/agenda-api/internal/model"
)

// candidate is one start produced by one rule, before merging.
type candidate struct {
	start    model.Clock
	capacity int
}

// GenerateSlots turns the rules of a professional and the blocks of one date
// into the capacity of every surviving start. It has no side effects.
func GenerateSlots(rules []*model.AvailabilityRule, blocks []*model.AvailabilityBlock, weekday, durationMinutes int) model.SlotCapacities {
	out := make(model.SlotCapacities)
	if durationMinutes <= 0 {
		return out
	}

	var candidates []candidate
	for _, rule := range rules {
		if rule.Weekday != weekday {
			continue
		}
		candidates = append(candidates, enumerate(rule, durationMinutes)...)
	}

	merged := mergeMaxCapacity(candidates)
	for start, capacity := range merged {
		if blocked(start, durationMinutes, blocks) {
			continue
		}
		out[start] = capacity
	}
	return out
}

// enumerate walks a single rule window. A start is valid only when the whole
// service fits before the rule ends.
func enumerate(rule *model.AvailabilityRule, durationMinutes int) []candidate {
	if rule.Capacity <= 0 {
		return nil
	}
	step := rule.Interval()

	var out []candidate
	for m := rule.StartTime; m.Add(durationMinutes) <= rule.EndTime; m = m.Add(step) {
		out = append(out, candidate{start: m, capacity: rule.Capacity})
	}
	return out
}

// mergeMaxCapacity folds candidates sharing a start into one entry holding the
// largest capacity, independent of rule order.
func mergeMaxCapacity(candidates []candidate) model.SlotCapacities {
	merged := make(model.SlotCapacities, len(candidates))
	for _, c := range candidates {
		if current, ok := merged[c.start]; !ok || c.capacity > current {
			merged[c.start] = c.capacity
		}
	}
	return merged
}

// blocked uses half-open overlap: [start, start+d) against [block.start, block.end).
func blocked(start model.Clock, durationMinutes int, blocks []*model.AvailabilityBlock) bool {
	end := start.Add(durationMinutes)
	for _, b := range blocks {
		if start < b.EndTime && end > b.StartTime {
			return true
		}
	}
	return false
}
