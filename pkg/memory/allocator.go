package memory

import (
	"fmt"
	"sort"
	"strings"
)

// SlotRange is one contiguous block of physical slots the allocator assigned
// to a group (or to the ungrouped channels).
type SlotRange struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func (r SlotRange) contains(slot int) bool {
	return slot >= r.Start && slot <= r.End
}

// AllocationError reports two ranges that claim the same physical slots.
// Bulk writes refuse to start while any such conflict exists.
type AllocationError struct {
	A     SlotRange
	B     SlotRange
	Slots []int
}

func (e *AllocationError) Error() string {
	parts := make([]string, len(e.Slots))
	for i, s := range e.Slots {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return fmt.Sprintf("slot ranges %q (%d-%d) and %q (%d-%d) overlap at slots %s",
		e.A.Name, e.A.Start, e.A.End, e.B.Name, e.B.Start, e.B.End, strings.Join(parts, ", "))
}

// Plan is a fully resolved slot layout: every channel that will be written,
// keyed by its target physical slot, plus the ranges the layout occupies.
type Plan struct {
	Assignments map[int]Channel
	Ranges      []SlotRange
}

// Slots returns the target slots in ascending order, the order bulk writes
// walk them in.
func (p *Plan) Slots() []int {
	slots := make([]int, 0, len(p.Assignments))
	for slot := range p.Assignments {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	return slots
}

// Allocate resolves the store's channels and groups into a physical slot
// layout. Each group occupies [BaseSlot, BaseSlot+len(members)-1], members
// ordered by their current slot. Groups are placed in declaration order.
// Ungrouped channels follow as one block starting at the smallest multiple
// of ten strictly greater than the highest grouped slot, or at slot 1 when
// no group has members. The whole layout is validated before it is returned;
// any overlap or out-of-range block fails the allocation with no plan.
func Allocate(st *Store) (*Plan, error) {
	plan := &Plan{Assignments: make(map[int]Channel)}

	declared := make(map[string]bool)
	highestEnd := -1
	for _, g := range st.Groups() {
		declared[g.ID] = true
		members := st.Members(g.ID)
		if len(members) == 0 {
			continue
		}
		r := SlotRange{Name: g.ID, Start: g.BaseSlot, End: g.BaseSlot + len(members) - 1}
		if r.End > MaxSlot {
			return nil, fmt.Errorf("group %q needs slots %d-%d but the radio tops out at %d",
				g.ID, r.Start, r.End, MaxSlot)
		}
		for i, ch := range members {
			plan.Assignments[r.Start+i] = ch
		}
		plan.Ranges = append(plan.Ranges, r)
		if r.End > highestEnd {
			highestEnd = r.End
		}
	}

	// A tag naming no declared group counts as ungrouped.
	var ungrouped []Channel
	for _, ch := range st.NonEmpty() {
		if !declared[ch.Group] {
			ungrouped = append(ungrouped, ch)
		}
	}
	if len(ungrouped) > 0 {
		base := 1
		if highestEnd >= 0 {
			base = (highestEnd/10 + 1) * 10
		}
		r := SlotRange{Name: "(ungrouped)", Start: base, End: base + len(ungrouped) - 1}
		if r.End > MaxSlot {
			return nil, fmt.Errorf("ungrouped channels need slots %d-%d but the radio tops out at %d",
				r.Start, r.End, MaxSlot)
		}
		for i, ch := range ungrouped {
			plan.Assignments[r.Start+i] = ch
		}
		plan.Ranges = append(plan.Ranges, r)
	}

	if err := validateRanges(plan.Ranges); err != nil {
		return nil, err
	}
	return plan, nil
}

// validateRanges checks every pair of ranges for shared slots.
func validateRanges(ranges []SlotRange) error {
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			var shared []int
			for slot := ranges[i].Start; slot <= ranges[i].End; slot++ {
				if ranges[j].contains(slot) {
					shared = append(shared, slot)
				}
			}
			if len(shared) > 0 {
				return &AllocationError{A: ranges[i], B: ranges[j], Slots: shared}
			}
		}
	}
	return nil
}
