package device

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aero/internal/playback"
	"github.com/desertthunder/aero/internal/services"
	"github.com/desertthunder/aero/internal/shared"
	"github.com/zmb3/spotify/v2"
)

// Poller is a [playback.VendorPlayer] for an existing Connect device.
type Poller struct {
	playback.Listeners

	api        *spotify.Client
	deviceName string
	interval   time.Duration
	logger     *log.Logger

	mu       sync.Mutex
	opts     playback.VendorOptions
	deviceID spotify.ID
	cancel   context.CancelFunc
	done     chan struct{}
}

// PollerOption configures a [Poller].
type PollerOption func(*Poller)

// WithDeviceName selects the device whose name matches, case-insensitively.
func WithDeviceName(name string) PollerOption {
	return func(p *Poller) { p.deviceName = name }
}

func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithPollerLogger(l *log.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// NewPoller creates a [Poller] over an authorized typed client.
func NewPoller(api *spotify.Client, options ...PollerOption) *Poller {
	p := &Poller{api: api, interval: time.Second, logger: shared.NewLogger(nil)}
	for _, opt := range options {
		opt(p)
	}
	p.logger = shared.WithLogger(p.logger, "component", "poller")
	return p
}

// Factory returns a [playback.VendorFactory] that reuses this poller with new options.
func (p *Poller) Factory() playback.VendorFactory {
	return func(opts playback.VendorOptions) (playback.VendorPlayer, error) {
		p.mu.Lock()
		p.opts = opts
		p.mu.Unlock()
		return p, nil
	}
}

// selectDevice prefers a name match, then the active device, then the first unrestricted one.
func selectDevice(devices []spotify.PlayerDevice, name string) (spotify.PlayerDevice, bool) {
	if name != "" {
		for _, d := range devices {
			if strings.EqualFold(d.Name, name) {
				return d, true
			}
		}
		return spotify.PlayerDevice{}, false
	}
	for _, d := range devices {
		if d.Active && !d.Restricted {
			return d, true
		}
	}
	for _, d := range devices {
		if !d.Restricted {
			return d, true
		}
	}
	return spotify.PlayerDevice{}, false
}

// Connect picks a device, reports it ready and starts polling its state.
func (p *Poller) Connect(ctx context.Context) (bool, error) {
	devices, err := p.api.PlayerDevices(ctx)
	if err != nil {
		p.emitError(err)
		return false, err
	}

	device, ok := selectDevice(devices, p.deviceName)
	if !ok {
		msg := "no available Connect device"
		if p.deviceName != "" {
			msg = "device " + p.deviceName + " not found"
		}
		p.Emit(playback.VendorEvent{Kind: playback.EventInitializationError, Message: msg})
		return false, nil
	}

	p.mu.Lock()
	p.stopLocked()
	p.deviceID = device.ID
	volume := p.opts.Volume
	pollCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	if err := p.api.VolumeOpt(ctx, percent(volume), &spotify.PlayOptions{DeviceID: &device.ID}); err != nil {
		p.logger.Warn("could not set initial volume", "device", device.Name, "error", err)
	}

	p.logger.Info("using device", "name", device.Name, "type", device.Type)
	p.Emit(playback.VendorEvent{Kind: playback.EventReady, DeviceID: device.ID.String()})

	go p.poll(pollCtx, done)
	return true, nil
}

func (p *Poller) poll(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last snapshot
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx, &last)
		}
	}
}

// snapshot is the part of the device state that decides whether a poll changed anything.
type snapshot struct {
	trackID    string
	paused     bool
	positionMS int
}

// pollOnce emits state_changed only when the device state differs from last.
func (p *Poller) pollOnce(ctx context.Context, last *snapshot) {
	state, err := p.api.PlayerState(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.emitError(err)
		}
		return
	}
	if state == nil || state.Item == nil {
		return
	}

	next := snapshot{trackID: state.Item.ID.String(), paused: !state.Playing, positionMS: int(state.Progress)}
	if next == *last {
		return
	}
	*last = next

	track := services.FromFullTrack(*state.Item)
	p.Emit(playback.VendorEvent{
		Kind: playback.EventStateChanged,
		State: &playback.RemoteState{
			Track:      &track,
			Paused:     next.paused,
			PositionMS: next.positionMS,
		},
	})
}

// emitError maps Web API failures onto vendor error events.
func (p *Poller) emitError(err error) {
	status, msg := apiStatus(err)
	switch status {
	case http.StatusUnauthorized:
		p.Emit(playback.VendorEvent{Kind: playback.EventAuthenticationError, Message: msg})
	case http.StatusForbidden:
		p.Emit(playback.VendorEvent{Kind: playback.EventAccountError, Message: msg})
	default:
		p.logger.Warn("player request failed", "error", err)
	}
}

func apiStatus(err error) (int, string) {
	var value spotify.Error
	if errors.As(err, &value) {
		return value.Status, value.Message
	}
	var ptr *spotify.Error
	if errors.As(err, &ptr) {
		return ptr.Status, ptr.Message
	}
	return 0, ""
}

// Disconnect stops polling and reports the device offline.
func (p *Poller) Disconnect() {
	p.mu.Lock()
	id := p.deviceID
	stopped := p.stopLocked()
	p.deviceID = ""
	p.mu.Unlock()

	if stopped {
		p.Emit(playback.VendorEvent{Kind: playback.EventNotReady, DeviceID: id.String()})
	}
}

// stopLocked cancels the poll loop and waits for it. It reports whether a loop was running.
func (p *Poller) stopLocked() bool {
	if p.cancel == nil {
		return false
	}
	p.cancel()
	<-p.done
	p.cancel, p.done = nil, nil
	return true
}

func (p *Poller) device() (*spotify.ID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deviceID == "" {
		return nil, shared.ErrDeviceNotFound
	}
	id := p.deviceID
	return &id, nil
}

func (p *Poller) SetVolume(ctx context.Context, volume float64) error {
	id, err := p.device()
	if err != nil {
		return err
	}
	return p.api.VolumeOpt(ctx, percent(volume), &spotify.PlayOptions{DeviceID: id})
}

func (p *Poller) Seek(ctx context.Context, positionMS int) error {
	id, err := p.device()
	if err != nil {
		return err
	}
	return p.api.SeekOpt(ctx, positionMS, &spotify.PlayOptions{DeviceID: id})
}

// AddListener implements [playback.VendorPlayer].
func (p *Poller) AddListener(kind playback.EventKind, l playback.Listener) func() {
	return p.Add(kind, l)
}

func percent(v float64) int {
	return int(math.Round(min(max(v, 0), 1) * 100))
}
