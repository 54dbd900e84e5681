package telemetry

// Store holds the latest Reading per device.
//
// Entries keep the position at which their device was first seen: updating a
// device replaces its slot in place, a new device is appended. Entries are
// never removed.
//
// Store is not safe for concurrent use.
type Store struct {
	index   map[string]int
	entries []Reading
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Apply records r as the latest reading for its device.
//
// Returns the entry's position and whether the device was new.
func (s *Store) Apply(r Reading) (position int, added bool) {
	if i, ok := s.index[r.DeviceID]; ok {
		s.entries[i] = r
		return i, false
	}
	s.index[r.DeviceID] = len(s.entries)
	s.entries = append(s.entries, r)
	return len(s.entries) - 1, true
}

// Get returns the latest reading for deviceID.
func (s *Store) Get(deviceID string) (Reading, bool) {
	i, ok := s.index[deviceID]
	if !ok {
		return Reading{}, false
	}
	return s.entries[i], true
}

// All returns every latest reading in first-seen device order.
// The returned slice is a copy.
func (s *Store) All() []Reading {
	out := make([]Reading, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of distinct devices seen.
func (s *Store) Len() int {
	return len(s.entries)
}
