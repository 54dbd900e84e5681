package telemetry

// State is the lifecycle state of a Selection.
type State int

// Selection states.
const (
	Unselected State = iota
	SelectedNoSnapshot
	SelectedWithSnapshot
)

// String returns the state name used in API responses and logs.
func (s State) String() string {
	switch s {
	case SelectedNoSnapshot:
		return "selected_no_snapshot"
	case SelectedWithSnapshot:
		return "selected_with_snapshot"
	default:
		return "unselected"
	}
}

// Lookup finds the latest reading for a device. *Store implements it.
type Lookup interface {
	Get(deviceID string) (Reading, bool)
}

// Selection tracks the focused device and the last reading shown for it.
//
// Selection is an immutable value: every transition returns a new Selection.
// The zero value is Unselected. Once a device is selected there is no way
// back to Unselected; selecting another device replaces the current one.
type Selection struct {
	DeviceID    string  `json:"device_id,omitempty"`
	HasSnapshot bool    `json:"has_snapshot"`
	Snapshot    Reading `json:"snapshot"`
}

// State reports which lifecycle state the selection is in.
func (s Selection) State() State {
	switch {
	case s.DeviceID == "":
		return Unselected
	case s.HasSnapshot:
		return SelectedWithSnapshot
	default:
		return SelectedNoSnapshot
	}
}

// Select focuses deviceID, drops any snapshot shown so far and immediately
// tries to catch up from lookup. An empty deviceID leaves s unchanged.
// A device with no reading yet is not an error: the result is
// SelectedNoSnapshot until a matching reading arrives.
func (s Selection) Select(deviceID string, lookup Lookup) Selection {
	if deviceID == "" {
		return s
	}
	return Selection{DeviceID: deviceID}.Reconcile(lookup)
}

// Observe applies an incoming reading. Readings for other devices leave the
// selection untouched.
func (s Selection) Observe(r Reading) Selection {
	if s.DeviceID == "" || r.DeviceID != s.DeviceID {
		return s
	}
	return Selection{DeviceID: s.DeviceID, HasSnapshot: true, Snapshot: r}
}

// Reconcile is the catch-up path: a selected device with no snapshot takes
// its latest reading from lookup, if there is one.
func (s Selection) Reconcile(lookup Lookup) Selection {
	if s.DeviceID == "" || s.HasSnapshot || lookup == nil {
		return s
	}
	r, ok := lookup.Get(s.DeviceID)
	if !ok {
		return s
	}
	return Selection{DeviceID: s.DeviceID, HasSnapshot: true, Snapshot: r}
}
