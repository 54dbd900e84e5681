package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/dht-realtime/internal/telemetry"
)

// Options configures a View.
type Options struct {
	// Namespace is the topic prefix devices publish under (e.g. "purdue-dac").
	Namespace string

	// Seed is an optional device identifier supplied once at initialisation,
	// typically from navigation state. It is applied exactly like Select.
	Seed string
}

// Update describes the effect of one accepted message.
type Update struct {
	Reading   telemetry.Reading
	Position  int  // entry position in the ordered readings
	Added     bool // true when the device was seen for the first time
	Selection telemetry.Selection
	// SelectionChanged is true when the reading refreshed the focused snapshot.
	SelectionChanged bool
	Devices          int
}

// View is the single consumer of a telemetry subscription.
type View struct {
	decoder telemetry.Decoder
	seed    string

	mu        sync.Mutex
	store     *telemetry.Store
	selection telemetry.Selection
	release   Release
	opened    bool
	closed    bool

	hookMu      sync.RWMutex
	onUpdate    func(Update)
	onReject    func(topic string, err error)
	onSelection func(telemetry.Selection)
}

// New creates an unopened View with an empty store and no selection.
func New(opts Options) *View {
	return &View{
		decoder: telemetry.NewDecoder(opts.Namespace),
		seed:    opts.Seed,
		store:   telemetry.NewStore(),
	}
}

// Namespace returns the topic namespace the view consumes.
func (v *View) Namespace() string {
	return v.decoder.Namespace()
}

// Open subscribes the view to every device topic in its namespace and
// applies the seed identifier, if any.
//
// The subscription is held until Close.
func (v *View) Open(t Transport) error {
	if t == nil {
		return ErrNilTransport
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.opened {
		v.mu.Unlock()
		return ErrAlreadyOpen
	}
	v.opened = true
	v.mu.Unlock()

	release, err := t.Subscribe(FilterFor(v.Namespace()), v.Handle)
	if err != nil {
		v.mu.Lock()
		v.opened = false
		v.mu.Unlock()
		return fmt.Errorf("subscribing to %s: %w", FilterFor(v.Namespace()), err)
	}

	v.mu.Lock()
	v.release = release
	closed := v.closed
	before := v.selection
	if !closed && v.seed != "" {
		v.selection = v.selection.Select(v.seed, v.store)
	}
	sel := v.selection
	v.mu.Unlock()

	// Close raced with Subscribe; release what we just acquired.
	if closed && release != nil {
		return release()
	}
	if sel != before {
		v.notifySelection(sel)
	}
	return nil
}

// Close releases the subscription. Further messages are ignored.
// Calling Close more than once is safe.
func (v *View) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	release := v.release
	v.release = nil
	v.mu.Unlock()

	if release == nil {
		return nil
	}
	if err := release(); err != nil {
		return fmt.Errorf("releasing subscription: %w", err)
	}
	return nil
}

// Handle processes one inbound message: decode, update the store, then
// refresh the selection snapshot if the reading is for the focused device.
//
// Rejected messages leave all state untouched and are reported to the
// reject hook.
func (v *View) Handle(topic string, payload []byte) {
	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return
	}

	r, err := v.decoder.Decode(topic, string(payload))
	if err != nil {
		if hook := v.rejectHook(); hook != nil {
			hook(topic, err)
		}
		return
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	pos, added := v.store.Apply(r)
	before := v.selection
	v.selection = v.selection.Observe(r)
	u := Update{
		Reading:          r,
		Position:         pos,
		Added:            added,
		Selection:        v.selection,
		SelectionChanged: v.selection != before,
		Devices:          v.store.Len(),
	}
	v.mu.Unlock()

	if hook := v.updateHook(); hook != nil {
		hook(u)
	}
}

// Readings returns the latest reading of every device in first-seen order.
func (v *View) Readings() []telemetry.Reading {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.All()
}

// Reading returns the latest reading for deviceID.
func (v *View) Reading(deviceID string) (telemetry.Reading, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.Get(deviceID)
}

// DeviceCount returns the number of distinct devices seen.
func (v *View) DeviceCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.Len()
}

// Selection returns the current selection without reconciling.
func (v *View) Selection() telemetry.Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection
}

// Select focuses deviceID and immediately catches up from the store.
// An empty deviceID leaves the selection unchanged.
func (v *View) Select(deviceID string) telemetry.Selection {
	v.mu.Lock()
	before := v.selection
	v.selection = v.selection.Select(deviceID, v.store)
	sel := v.selection
	v.mu.Unlock()

	if sel != before {
		v.notifySelection(sel)
	}
	return sel
}

// Refresh runs the catch-up path and returns the resulting selection.
// Call it whenever the selection is rendered while no snapshot is shown.
func (v *View) Refresh() telemetry.Selection {
	v.mu.Lock()
	before := v.selection
	v.selection = v.selection.Reconcile(v.store)
	sel := v.selection
	v.mu.Unlock()

	if sel != before {
		v.notifySelection(sel)
	}
	return sel
}

// RunReconciler calls Refresh every interval until ctx is cancelled.
// A non-positive interval disables periodic reconciliation.
func (v *View) RunReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if v.Selection().State() == telemetry.SelectedNoSnapshot {
				v.Refresh()
			}
		}
	}
}

// SetOnUpdate sets a callback invoked after every accepted message.
func (v *View) SetOnUpdate(fn func(Update)) {
	v.hookMu.Lock()
	v.onUpdate = fn
	v.hookMu.Unlock()
}

// SetOnReject sets a callback invoked for every rejected message.
func (v *View) SetOnReject(fn func(topic string, err error)) {
	v.hookMu.Lock()
	v.onReject = fn
	v.hookMu.Unlock()
}

// SetOnSelection sets a callback invoked when Select, Refresh or the seed
// applied by Open changes the selection. Changes caused by incoming readings are reported via OnUpdate.
func (v *View) SetOnSelection(fn func(telemetry.Selection)) {
	v.hookMu.Lock()
	v.onSelection = fn
	v.hookMu.Unlock()
}

func (v *View) updateHook() func(Update) {
	v.hookMu.RLock()
	defer v.hookMu.RUnlock()
	return v.onUpdate
}

func (v *View) rejectHook() func(string, error) {
	v.hookMu.RLock()
	defer v.hookMu.RUnlock()
	return v.onReject
}

func (v *View) notifySelection(sel telemetry.Selection) {
	v.hookMu.RLock()
	fn := v.onSelection
	v.hookMu.RUnlock()
	if fn != nil {
		fn(sel)
	}
}
