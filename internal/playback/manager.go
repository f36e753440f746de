package playback

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/services"
	"github.com/desertthunder/aero/internal/shared"
	"golang.org/x/oauth2"
)

const (
	DefaultPlayerName = "Aero Shuffle"
	DefaultVolume     = 0.5
)

// Manager owns the single active vendor player and issues commands scoped to its device.
type Manager struct {
	api     services.Requester
	factory VendorFactory
	tokens  oauth2.TokenSource
	name    string
	volume  float64
	logger  *log.Logger

	mu        sync.Mutex
	player    VendorPlayer
	removers  []func()
	deviceID  string
	connected bool
	product   string
	status    error
	sink      Listener
}

// ManagerOption configures a [Manager].
type ManagerOption func(*Manager)

func WithPlayerName(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.name = name
		}
	}
}

// WithInitialVolume sets the vendor volume fraction used on construction.
func WithInitialVolume(v float64) ManagerOption {
	return func(m *Manager) {
		if v >= 0 && v <= 1 {
			m.volume = v
		}
	}
}

func WithManagerLogger(l *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a [Manager]. tokens is consulted each time the vendor asks for a token.
func NewManager(api services.Requester, factory VendorFactory, tokens oauth2.TokenSource, opts ...ManagerOption) *Manager {
	m := &Manager{
		api:     api,
		factory: factory,
		tokens:  tokens,
		name:    DefaultPlayerName,
		volume:  DefaultVolume,
		logger:  shared.NewLogger(nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = shared.WithLogger(m.logger, "component", "playback")
	return m
}

// SetEventSink forwards every vendor event to fn after the manager has recorded it.
func (m *Manager) SetEventSink(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = fn
}

// SetAccount records the account's subscription product for the premium gate.
func (m *Manager) SetAccount(p models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.product = p.Product
}

// UpgradeRequired reports whether the signed-in account is known to be non-premium.
func (m *Manager) UpgradeRequired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.product != "" && m.product != "premium"
}

// Connected reports whether the last [Manager.Initialize] connected successfully.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// DeviceID returns the assigned device id, or "" before ready.
func (m *Manager) DeviceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deviceID
}

// Status returns the last [shared.ConnectionError] reported by the vendor, if any.
func (m *Manager) Status() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Initialize tears down any previous player, builds a new one and connects it.
//
// Connection failure is reported through the boolean and the error and is never retried.
func (m *Manager) Initialize(ctx context.Context) (bool, error) {
	if m.UpgradeRequired() {
		return false, shared.ErrPremiumRequired
	}

	m.mu.Lock()
	old, removers := m.detachLocked()
	m.mu.Unlock()
	release(old, removers)

	m.mu.Lock()
	player, err := m.factory(VendorOptions{Name: m.name, Volume: m.volume, GetOAuthToken: m.supplyToken})
	if err != nil {
		status := &shared.ConnectionError{Kind: shared.InitFailed, Message: err.Error()}
		m.status = status
		m.mu.Unlock()
		m.logger.Error("failed to create player", "error", err)
		return false, status
	}
	for _, kind := range EventKinds {
		m.removers = append(m.removers, player.AddListener(kind, m.handleEvent))
	}
	m.player = player
	m.status = nil
	m.mu.Unlock()

	ok, err := player.Connect(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.player != player {
		return false, shared.ErrPlayerClosed
	}
	m.connected = ok && err == nil
	switch {
	case err != nil:
		m.status = &shared.ConnectionError{Kind: shared.InitFailed, Message: err.Error()}
		m.logger.Error("player connection failed", "error", err)
		return false, m.status
	case !ok:
		m.logger.Warn("player refused connection", "name", m.name)
	default:
		m.logger.Info("player connected", "name", m.name)
	}
	return m.connected, nil
}

// Teardown removes every listener and disconnects the player. It is safe to call repeatedly.
func (m *Manager) Teardown() {
	m.mu.Lock()
	player, removers := m.detachLocked()
	m.mu.Unlock()
	release(player, removers)
}

// detachLocked clears the player state. The returned player must be released outside the lock.
func (m *Manager) detachLocked() (VendorPlayer, []func()) {
	player, removers := m.player, m.removers
	m.player, m.removers = nil, nil
	m.deviceID = ""
	m.connected = false
	return player, removers
}

func release(player VendorPlayer, removers []func()) {
	for _, remove := range removers {
		remove()
	}
	if player != nil {
		player.Disconnect()
	}
}

func (m *Manager) supplyToken(callback func(string)) {
	tok, err := m.tokens.Token()
	if err != nil {
		m.logger.Warn("no token for player", "error", err)
		callback("")
		return
	}
	callback(tok.AccessToken)
}

func (m *Manager) handleEvent(ev VendorEvent) {
	m.mu.Lock()
	switch ev.Kind {
	case EventReady:
		m.deviceID = ev.DeviceID
		m.logger.Info("device ready", "device_id", ev.DeviceID)
	case EventNotReady:
		m.deviceID = ""
		m.logger.Warn("device offline", "device_id", ev.DeviceID)
	case EventInitializationError:
		m.status = &shared.ConnectionError{Kind: shared.InitFailed, Message: ev.Message}
		m.logger.Error("player initialization error", "message", ev.Message)
	case EventAuthenticationError:
		m.status = &shared.ConnectionError{Kind: shared.AuthFailed, Message: ev.Message}
		m.logger.Error("player authentication error", "message", ev.Message)
	case EventAccountError:
		m.status = &shared.ConnectionError{Kind: shared.AccountRestricted, Message: ev.Message}
		m.logger.Error("player account error", "message", ev.Message)
	}
	sink := m.sink
	m.mu.Unlock()

	if sink != nil {
		sink(ev)
	}
}

type playBody struct {
	URIs       []string `json:"uris"`
	PositionMS int      `json:"position_ms,omitempty"`
}

// IssueCommand sends cmd to the current device.
//
// Without a device the command fails with [shared.NoDevice] and nothing is sent.
// Non-premium accounts get [shared.ErrPremiumRequired] and nothing is sent.
func (m *Manager) IssueCommand(ctx context.Context, cmd Command) error {
	if m.UpgradeRequired() {
		return shared.ErrPremiumRequired
	}

	m.mu.Lock()
	device, player := m.deviceID, m.player
	m.mu.Unlock()

	if device == "" || player == nil {
		return &shared.PlaybackCommandError{Kind: shared.NoDevice, Command: cmd.Kind.String()}
	}

	q := url.Values{"device_id": {device}}
	var err error
	switch cmd.Kind {
	case CommandPlay:
		err = m.api.Do(ctx, http.MethodPut, "me/player/play?"+q.Encode(), playBody{URIs: cmd.URIs, PositionMS: cmd.PositionMS}, nil)
	case CommandPause:
		err = m.api.Do(ctx, http.MethodPut, "me/player/pause?"+q.Encode(), nil, nil)
	case CommandSetShuffle:
		q.Set("state", fmt.Sprintf("%t", cmd.Shuffle))
		err = m.api.Do(ctx, http.MethodPut, "me/player/shuffle?"+q.Encode(), nil, nil)
	case CommandSetRepeat:
		q.Set("state", string(cmd.Repeat))
		err = m.api.Do(ctx, http.MethodPut, "me/player/repeat?"+q.Encode(), nil, nil)
	case CommandSeek:
		err = player.Seek(ctx, cmd.PositionMS)
	case CommandSetVolume:
		err = player.SetVolume(ctx, float64(cmd.Volume)/100)
	default:
		return fmt.Errorf("%w: command %d", shared.ErrInvalidArgument, cmd.Kind)
	}

	if err != nil {
		return commandError(cmd, err)
	}
	return nil
}

func commandError(cmd Command, err error) error {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		return &shared.PlaybackCommandError{Kind: shared.RemoteRejected, Command: cmd.Kind.String(), Status: apiErr.StatusCode, Err: err}
	}
	return &shared.PlaybackCommandError{Kind: shared.NetworkFailure, Command: cmd.Kind.String(), Err: err}
}
