package memory

import (
	"fmt"
	"sort"
	"sync"
)

// Group names a block of channels that the allocator places contiguously
// starting at BaseSlot. Declaration order matters: the allocator walks
// groups in the order they were created.
type Group struct {
	ID       string `json:"id"`
	BaseSlot int    `json:"base_slot"`
}

// Store is the in-memory map of slot number to channel record, plus the
// declared groups. It is the single model the transaction engine, the
// allocator, persistence and the UI layers all share. Local edits are safe
// under the store's own lock; callers running device operations must also
// hold the manager's device guard so bulk writes never interleave with
// concurrent edits of the same slots.
type Store struct {
	mu       sync.RWMutex
	channels map[int]Channel
	groups   []Group
}

// NewStore creates a store with every slot 0-99 empty and no groups.
func NewStore() *Store {
	s := &Store{channels: make(map[int]Channel, MaxSlot+1)}
	for slot := 0; slot <= MaxSlot; slot++ {
		s.channels[slot] = EmptyChannel(slot)
	}
	return s
}

// Channel returns the record at a slot.
func (s *Store) Channel(slot int) (Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[slot]
	return ch, ok
}

// SetChannel stores a record at its slot, marking it in use.
func (s *Store) SetChannel(ch Channel) error {
	if ch.Slot < 0 || ch.Slot > MaxSlot {
		return fmt.Errorf("slot %d out of range 0-%d", ch.Slot, MaxSlot)
	}
	ch.Empty = false
	s.mu.Lock()
	s.channels[ch.Slot] = ch
	s.mu.Unlock()
	return nil
}

// ClearChannel resets a slot to empty.
func (s *Store) ClearChannel(slot int) error {
	if slot < 0 || slot > MaxSlot {
		return fmt.Errorf("slot %d out of range 0-%d", slot, MaxSlot)
	}
	s.mu.Lock()
	s.channels[slot] = EmptyChannel(slot)
	s.mu.Unlock()
	return nil
}

// Channels returns all records ordered by slot.
func (s *Store) Channels() []Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// NonEmpty returns all in-use records ordered by slot.
func (s *Store) NonEmpty() []Channel {
	var out []Channel
	for _, ch := range s.Channels() {
		if !ch.Empty {
			out = append(out, ch)
		}
	}
	return out
}

// Groups returns the declared groups in declaration order.
func (s *Store) Groups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Group(nil), s.groups...)
}

// Group returns a declared group by id.
func (s *Store) Group(id string) (Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// AddGroup declares a new group.
func (s *Store) AddGroup(id string, baseSlot int) error {
	if id == "" {
		return fmt.Errorf("group id must not be empty")
	}
	if baseSlot < 0 || baseSlot > MaxSlot {
		return fmt.Errorf("base slot %d out of range 0-%d", baseSlot, MaxSlot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.ID == id {
			return fmt.Errorf("group %q already exists", id)
		}
	}
	s.groups = append(s.groups, Group{ID: id, BaseSlot: baseSlot})
	return nil
}

// UpdateGroup changes a group's base slot.
func (s *Store) UpdateGroup(id string, baseSlot int) error {
	if baseSlot < 0 || baseSlot > MaxSlot {
		return fmt.Errorf("base slot %d out of range 0-%d", baseSlot, MaxSlot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.groups {
		if g.ID == id {
			s.groups[i].BaseSlot = baseSlot
			return nil
		}
	}
	return fmt.Errorf("group %q not found", id)
}

// DeleteGroup removes a group declaration. Member channels survive; only
// their group tag is cleared.
func (s *Store) DeleteGroup(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, g := range s.groups {
		if g.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("group %q not found", id)
	}
	s.groups = append(s.groups[:idx], s.groups[idx+1:]...)
	for slot, ch := range s.channels {
		if ch.Group == id {
			ch.Group = ""
			s.channels[slot] = ch
		}
	}
	return nil
}

// Members returns the non-empty channels tagged with a group id, ordered by
// their current slot.
func (s *Store) Members(id string) []Channel {
	var out []Channel
	for _, ch := range s.Channels() {
		if !ch.Empty && ch.Group == id {
			out = append(out, ch)
		}
	}
	return out
}

// Snapshot returns a copy of the full state for persistence.
func (s *Store) Snapshot() ([]Channel, []Group) {
	return s.Channels(), s.Groups()
}

// Restore replaces the store's state wholesale, used when loading persisted
// data. Slots missing from the input come back empty.
func (s *Store) Restore(channels []Channel, groups []Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slot := 0; slot <= MaxSlot; slot++ {
		s.channels[slot] = EmptyChannel(slot)
	}
	for _, ch := range channels {
		if ch.Slot < 0 || ch.Slot > MaxSlot || ch.Empty {
			continue
		}
		s.channels[ch.Slot] = ch
	}
	s.groups = append([]Group(nil), groups...)
}

// Reorganize rewrites the store so each planned channel sits at its just
// written physical slot. Slots not targeted by any range revert to empty,
// keeping the local model consistent with device state without a re-read.
func (s *Store) Reorganize(plan *Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slot := 0; slot <= MaxSlot; slot++ {
		s.channels[slot] = EmptyChannel(slot)
	}
	for slot, ch := range plan.Assignments {
		ch.Slot = slot
		ch.Empty = false
		s.channels[slot] = ch
	}
}

// Summary aggregates memory usage for display.
type Summary struct {
	TotalChannels int            `json:"total_channels"`
	UsedChannels  int            `json:"used_channels"`
	FreeChannels  int            `json:"free_channels"`
	ByMode        map[string]int `json:"channels_by_mode"`
	ByBand        map[string]int `json:"channels_by_band"`
}

// Summarize computes usage counts by band and mode.
func (s *Store) Summarize() Summary {
	used := s.NonEmpty()
	sum := Summary{
		TotalChannels: MaxSlot + 1,
		UsedChannels:  len(used),
		FreeChannels:  MaxSlot + 1 - len(used),
		ByMode:        make(map[string]int),
		ByBand:        make(map[string]int),
	}
	for _, ch := range used {
		sum.ByMode[ch.Mode.String()]++
		if band := BandFor(ch.RxFrequency); band != "" {
			sum.ByBand[band]++
		}
	}
	return sum
}
