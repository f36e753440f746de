package playback

import (
	"context"
	"sync"

	"github.com/desertthunder/aero/internal/models"
)

// EventKind names a vendor player lifecycle or state event.
type EventKind string

const (
	EventReady               EventKind = "ready"
	EventNotReady            EventKind = "not_ready"
	EventInitializationError EventKind = "initialization_error"
	EventAuthenticationError EventKind = "authentication_error"
	EventAccountError        EventKind = "account_error"
	EventStateChanged        EventKind = "player_state_changed"
)

// EventKinds lists every event a [Manager] subscribes to.
var EventKinds = []EventKind{
	EventReady,
	EventNotReady,
	EventInitializationError,
	EventAuthenticationError,
	EventAccountError,
	EventStateChanged,
}

// RemoteState is the authoritative snapshot carried by [EventStateChanged].
type RemoteState struct {
	Track      *models.Track
	Paused     bool
	PositionMS int
}

// VendorEvent is delivered to listeners registered on a [VendorPlayer].
type VendorEvent struct {
	Kind     EventKind
	DeviceID string       // set for ready and not_ready
	Message  string       // set for error events
	State    *RemoteState // set for player_state_changed
}

// Listener receives vendor events. Listeners may be called from any goroutine.
type Listener func(VendorEvent)

// VendorPlayer is the long-lived vendor playback client: an event source plus a thin command sink.
type VendorPlayer interface {
	// Connect starts the player. The result reports whether the vendor accepted the connection.
	Connect(ctx context.Context) (bool, error)
	Disconnect()
	// SetVolume takes a fraction between 0 and 1.
	SetVolume(ctx context.Context, volume float64) error
	Seek(ctx context.Context, positionMS int) error
	// AddListener registers l for kind and returns a function that removes it.
	AddListener(kind EventKind, l Listener) (remove func())
}

// TokenFunc hands the current access token to callback. It is consulted on every vendor token request.
type TokenFunc func(callback func(token string))

// VendorOptions configures a new vendor player.
type VendorOptions struct {
	Name          string
	Volume        float64
	GetOAuthToken TokenFunc
}

// VendorFactory builds a vendor player.
type VendorFactory func(opts VendorOptions) (VendorPlayer, error)

// Listeners is a registry of event listeners keyed by kind, shared by [VendorPlayer] implementations.
type Listeners struct {
	mu   sync.Mutex
	next int
	set  map[EventKind]map[int]Listener
}

// Add registers l and returns its removal function. Removal is idempotent.
func (ls *Listeners) Add(kind EventKind, l Listener) func() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.set == nil {
		ls.set = make(map[EventKind]map[int]Listener)
	}
	if ls.set[kind] == nil {
		ls.set[kind] = make(map[int]Listener)
	}
	id := ls.next
	ls.next++
	ls.set[kind][id] = l

	return func() {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		delete(ls.set[kind], id)
	}
}

// Emit calls every listener registered for ev.Kind outside the registry lock.
func (ls *Listeners) Emit(ev VendorEvent) {
	ls.mu.Lock()
	targets := make([]Listener, 0, len(ls.set[ev.Kind]))
	for _, l := range ls.set[ev.Kind] {
		targets = append(targets, l)
	}
	ls.mu.Unlock()

	for _, l := range targets {
		l(ev)
	}
}

// Count returns the number of registered listeners across all kinds.
func (ls *Listeners) Count() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	n := 0
	for _, m := range ls.set {
		n += len(m)
	}
	return n
}
