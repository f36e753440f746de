package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/aero/internal/playback"
	"github.com/desertthunder/aero/internal/shared"
	"github.com/zmb3/spotify/v2"
)

const devicesJSON = `{"devices":[
	{"id":"d1","is_active":false,"is_restricted":false,"name":"Kitchen","type":"Speaker","volume_percent":40},
	{"id":"d2","is_active":true,"is_restricted":false,"name":"Laptop","type":"Computer","volume_percent":70}
]}`

const stateJSON = `{
	"is_playing": true,
	"progress_ms": 1234,
	"item": {
		"id": "t1",
		"uri": "spotify:track:t1",
		"name": "One",
		"duration_ms": 200000,
		"artists": [{"name": "A"}],
		"album": {"name": "Al"}
	}
}`

const pausedStateJSON = `{
	"is_playing": false,
	"progress_ms": 0,
	"item": {
		"id": "t1",
		"uri": "spotify:track:t1",
		"name": "One",
		"duration_ms": 200000,
		"artists": [{"name": "A"}],
		"album": {"name": "Al"}
	}
}`

// waitForPolls blocks until the fixture has served n state requests.
func waitForPolls(t *testing.T, api *webAPI, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for api.count("GET /me/player?") < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d state polls, got %d", n, api.count("GET /me/player?"))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type webAPI struct {
	mu          sync.Mutex
	requests    []string
	stateStatus int
	state       string
}

func (a *webAPI) count(prefix string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, r := range a.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (a *webAPI) setState(body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = body
}

func (a *webAPI) record(r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, r.Method+" "+r.URL.Path+"?"+r.URL.Query().Encode())
}

func (a *webAPI) seen(req string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range a.requests {
		if r == req {
			return true
		}
	}
	return false
}

func (a *webAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.record(r)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/me/player/devices":
		fmt.Fprint(w, devicesJSON)
	case r.Method == http.MethodGet && r.URL.Path == "/me/player":
		a.mu.Lock()
		status, body := a.stateStatus, a.state
		a.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"error":{"status":%d,"message":"rejected"}}`, status)
			return
		}
		if body == "" {
			body = stateJSON
		}
		fmt.Fprint(w, body)
	case r.Method == http.MethodPut:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"status":404,"message":"not found"}}`)
	}
}

func newPollerFixture(t *testing.T, options ...PollerOption) (*Poller, *webAPI) {
	t.Helper()

	api := &webAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := spotify.New(srv.Client(), spotify.WithBaseURL(srv.URL+"/"))
	options = append([]PollerOption{
		WithPollInterval(10 * time.Millisecond),
		WithPollerLogger(shared.NewLogger(&bytes.Buffer{})),
	}, options...)
	p := NewPoller(client, options...)
	t.Cleanup(p.Disconnect)
	return p, api
}

func TestPoller(t *testing.T) {
	opts := playback.VendorOptions{Name: playback.DefaultPlayerName, Volume: 0.5}

	t.Run("Connect Selects Active Device", func(t *testing.T) {
		p, api := newPollerFixture(t)
		player, _ := p.Factory()(opts)
		ready := collect(player, playback.EventReady)
		changed := collect(player, playback.EventStateChanged)

		ok, err := player.Connect(context.Background())
		if err != nil || !ok {
			t.Fatalf("expected connect, got %v, %v", ok, err)
		}
		if ev := expectEvent(t, ready); ev.DeviceID != "d2" {
			t.Errorf("expected d2, got %q", ev.DeviceID)
		}
		if !api.seen("PUT /me/player/volume?device_id=d2&volume_percent=50") {
			t.Error("expected initial volume request")
		}

		ev := expectEvent(t, changed)
		if ev.State == nil || ev.State.Track == nil {
			t.Fatalf("expected state with a track, got %+v", ev.State)
		}
		if ev.State.Track.ID != "t1" || ev.State.Paused || ev.State.PositionMS != 1234 {
			t.Errorf("unexpected state %+v", ev.State)
		}
	})

	t.Run("Unchanged State Emits Once", func(t *testing.T) {
		p, api := newPollerFixture(t)
		api.setState(pausedStateJSON)
		player, _ := p.Factory()(opts)

		var mu sync.Mutex
		var events []playback.VendorEvent
		player.AddListener(playback.EventStateChanged, func(ev playback.VendorEvent) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		})

		if ok, err := player.Connect(context.Background()); err != nil || !ok {
			t.Fatalf("expected connect, got %v, %v", ok, err)
		}
		waitForPolls(t, api, 5)
		player.Disconnect()

		mu.Lock()
		defer mu.Unlock()
		if len(events) != 1 {
			t.Fatalf("expected exactly one state event, got %d", len(events))
		}
		if st := events[0].State; st == nil || !st.Paused || st.PositionMS != 0 || st.Track.ID != "t1" {
			t.Errorf("unexpected state %+v", events[0].State)
		}
	})

	t.Run("Changed State Emits Again", func(t *testing.T) {
		p, api := newPollerFixture(t)
		api.setState(pausedStateJSON)
		player, _ := p.Factory()(opts)
		changed := collect(player, playback.EventStateChanged)

		if ok, err := player.Connect(context.Background()); err != nil || !ok {
			t.Fatalf("expected connect, got %v, %v", ok, err)
		}
		if ev := expectEvent(t, changed); !ev.State.Paused {
			t.Fatalf("expected paused state first, got %+v", ev.State)
		}

		api.setState(stateJSON)
		ev := expectEvent(t, changed)
		if ev.State.Paused || ev.State.PositionMS != 1234 {
			t.Errorf("expected playing state, got %+v", ev.State)
		}
	})

	t.Run("Named Device", func(t *testing.T) {
		p, _ := newPollerFixture(t, WithDeviceName("kitchen"))
		player, _ := p.Factory()(opts)
		ready := collect(player, playback.EventReady)

		if ok, err := player.Connect(context.Background()); err != nil || !ok {
			t.Fatalf("expected connect, got %v, %v", ok, err)
		}
		if ev := expectEvent(t, ready); ev.DeviceID != "d1" {
			t.Errorf("expected d1, got %q", ev.DeviceID)
		}
	})

	t.Run("Missing Device Reports Initialization Error", func(t *testing.T) {
		p, _ := newPollerFixture(t, WithDeviceName("Car"))
		player, _ := p.Factory()(opts)
		failed := collect(player, playback.EventInitializationError)

		ok, err := player.Connect(context.Background())
		if err != nil || ok {
			t.Fatalf("expected refused connect, got %v, %v", ok, err)
		}
		if ev := expectEvent(t, failed); ev.Message != "device Car not found" {
			t.Errorf("unexpected message %q", ev.Message)
		}
	})

	t.Run("Expired Token Reports Authentication Error", func(t *testing.T) {
		p, api := newPollerFixture(t)
		api.mu.Lock()
		api.stateStatus = http.StatusUnauthorized
		api.mu.Unlock()
		player, _ := p.Factory()(opts)
		authFailed := collect(player, playback.EventAuthenticationError)

		if _, err := player.Connect(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev := expectEvent(t, authFailed); ev.Message != "rejected" {
			t.Errorf("unexpected message %q", ev.Message)
		}
	})

	t.Run("Seek And Volume Target Device", func(t *testing.T) {
		p, api := newPollerFixture(t)
		player, _ := p.Factory()(opts)
		if _, err := player.Connect(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := player.Seek(context.Background(), 30000); err != nil {
			t.Fatalf("seek failed: %v", err)
		}
		if err := player.SetVolume(context.Background(), 0.25); err != nil {
			t.Fatalf("volume failed: %v", err)
		}
		if !api.seen("PUT /me/player/seek?device_id=d2&position_ms=30000") {
			t.Error("expected seek request")
		}
		if !api.seen("PUT /me/player/volume?device_id=d2&volume_percent=25") {
			t.Error("expected volume request")
		}
	})

	t.Run("Disconnect", func(t *testing.T) {
		p, _ := newPollerFixture(t)
		player, _ := p.Factory()(opts)
		notReady := collect(player, playback.EventNotReady)
		if _, err := player.Connect(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		player.Disconnect()
		if ev := expectEvent(t, notReady); ev.DeviceID != "d2" {
			t.Errorf("expected d2, got %q", ev.DeviceID)
		}
		if err := player.Seek(context.Background(), 0); !errors.Is(err, shared.ErrDeviceNotFound) {
			t.Errorf("expected ErrDeviceNotFound, got %v", err)
		}

		player.Disconnect()
		select {
		case ev := <-notReady:
			t.Errorf("expected a single not_ready, got %+v", ev)
		default:
		}
	})
}

func TestSelectDevice(t *testing.T) {
	devices := []spotify.PlayerDevice{
		{ID: "r", Name: "Restricted", Active: true, Restricted: true},
		{ID: "a", Name: "Phone"},
		{ID: "b", Name: "Desk", Active: true},
	}

	tests := []struct {
		name    string
		devices []spotify.PlayerDevice
		want    spotify.ID
		found   bool
		device  string
	}{
		{name: "active unrestricted", devices: devices, want: "b", found: true},
		{name: "by name", devices: devices, device: "phone", want: "a", found: true},
		{name: "name missing", devices: devices, device: "TV"},
		{name: "first unrestricted", devices: devices[:2], want: "a", found: true},
		{name: "only restricted", devices: devices[:1]},
		{name: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := selectDevice(tt.devices, tt.device)
			if ok != tt.found || got.ID != tt.want {
				t.Errorf("selectDevice() = %q, %v; want %q, %v", got.ID, ok, tt.want, tt.found)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	for in, want := range map[float64]int{0: 0, 0.5: 50, 0.333: 33, 1: 100, 1.5: 100, -1: 0} {
		if got := percent(in); got != want {
			t.Errorf("percent(%v) = %d, want %d", in, got, want)
		}
	}
}
