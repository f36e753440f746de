package device

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/playback"
	"github.com/desertthunder/aero/internal/shared"
	"github.com/gorilla/websocket"
)

//go:embed player.html
var playerPage []byte

const (
	PagePath   = "/player"
	SocketPath = "/player/ws"

	defaultRequestTimeout = 10 * time.Second
)

// Message types exchanged with the player page.
const (
	msgConnect      = "connect"
	msgDisconnect   = "disconnect"
	msgSetVolume    = "set_volume"
	msgSeek         = "seek"
	msgToken        = "token"
	msgTokenRequest = "token_request"
	msgResult       = "result"
	msgEvent        = "event"
	msgClosed       = "closed"
)

type message struct {
	ID         string     `json:"id,omitempty"`
	Type       string     `json:"type"`
	Event      string     `json:"event,omitempty"`
	Name       string     `json:"name,omitempty"`
	Volume     float64    `json:"volume"`
	PositionMS int        `json:"position_ms"`
	Token      string     `json:"token,omitempty"`
	DeviceID   string     `json:"device_id,omitempty"`
	Message    string     `json:"message,omitempty"`
	OK         bool       `json:"ok,omitempty"`
	State      *pageState `json:"state,omitempty"`
}

type pageState struct {
	Paused   bool       `json:"paused"`
	Position int        `json:"position"`
	Track    *pageTrack `json:"track"`
}

type pageTrack struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	DurationMS int      `json:"duration_ms"`
}

// Bridge is a [playback.VendorPlayer] backed by a browser page running the vendor SDK.
//
// It implements server.Handler: mount it on the local server before connecting.
type Bridge struct {
	playback.Listeners

	pageURL  string
	open     func(string) error
	logger   *log.Logger
	timeout  time.Duration
	upgrader websocket.Upgrader

	mu       sync.Mutex
	opts     playback.VendorOptions
	conn     *websocket.Conn
	attached chan struct{}
	pending  map[string]chan message

	writeMu sync.Mutex
}

// BridgeOption configures a [Bridge].
type BridgeOption func(*Bridge)

// WithOpener sets the function used to open the player page when no page is attached.
func WithOpener(open func(string) error) BridgeOption {
	return func(b *Bridge) { b.open = open }
}

func WithBridgeLogger(l *log.Logger) BridgeOption {
	return func(b *Bridge) { b.logger = l }
}

func WithRequestTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// NewBridge creates a [Bridge] whose page is reachable at pageURL.
func NewBridge(pageURL string, options ...BridgeOption) *Bridge {
	b := &Bridge{
		pageURL:  pageURL,
		logger:   shared.NewLogger(nil),
		timeout:  defaultRequestTimeout,
		attached: make(chan struct{}),
		pending:  make(map[string]chan message),
	}
	b.upgrader = websocket.Upgrader{CheckOrigin: sameOrigin}
	for _, opt := range options {
		opt(b)
	}
	b.logger = shared.WithLogger(b.logger, "component", "bridge")
	return b
}

// sameOrigin accepts requests without an Origin header or from the page this bridge served.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// Factory returns a [playback.VendorFactory] that reuses this bridge with new options.
func (b *Bridge) Factory() playback.VendorFactory {
	return func(opts playback.VendorOptions) (playback.VendorPlayer, error) {
		b.mu.Lock()
		b.opts = opts
		b.mu.Unlock()
		return b, nil
	}
}

// Routes implements server.Handler.
func (b *Bridge) Routes() []string {
	return []string{PagePath, SocketPath}
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case PagePath:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(playerPage); err != nil {
			b.logger.Debug("failed to write player page", "error", err)
		}
	case SocketPath:
		b.serveSocket(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (b *Bridge) serveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	b.mu.Lock()
	if b.conn != nil {
		b.logger.Info("replacing player page connection")
		b.conn.Close()
	}
	b.conn = conn
	select {
	case <-b.attached:
	default:
		close(b.attached)
	}
	b.mu.Unlock()

	b.logger.Info("player page attached", "remote", r.RemoteAddr)
	b.readLoop(conn)
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	defer b.detach(conn)

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Warn("player page connection lost", "error", err)
			}
			return
		}
		b.handle(conn, msg)
	}
}

func (b *Bridge) handle(conn *websocket.Conn, msg message) {
	switch msg.Type {
	case msgResult:
		b.mu.Lock()
		ch := b.pending[msg.ID]
		b.mu.Unlock()
		if ch != nil {
			select {
			case ch <- msg:
			default:
			}
		}
	case msgTokenRequest:
		b.mu.Lock()
		supply := b.opts.GetOAuthToken
		b.mu.Unlock()
		if supply == nil {
			return
		}
		go supply(func(token string) {
			if err := b.write(conn, message{ID: msg.ID, Type: msgToken, Token: token}); err != nil {
				b.logger.Warn("failed to send token", "error", err)
			}
		})
	case msgEvent:
		ev, ok := toVendorEvent(msg)
		if !ok {
			b.logger.Debug("ignoring unknown player event", "event", msg.Event)
			return
		}
		b.Emit(ev)
	default:
		b.logger.Debug("ignoring player message", "type", msg.Type)
	}
}

// detach forgets conn if it is still current, fails in-flight requests and reports the device offline.
func (b *Bridge) detach(conn *websocket.Conn) {
	conn.Close()

	b.mu.Lock()
	current := b.conn == conn
	if current {
		b.conn = nil
		b.attached = make(chan struct{})
		for id, ch := range b.pending {
			select {
			case ch <- message{ID: id, Type: msgClosed}:
			default:
			}
		}
	}
	b.mu.Unlock()

	if current {
		b.logger.Info("player page detached")
		b.Emit(playback.VendorEvent{Kind: playback.EventNotReady})
	}
}

func toVendorEvent(msg message) (playback.VendorEvent, bool) {
	kind := playback.EventKind(msg.Event)
	known := false
	for _, k := range playback.EventKinds {
		if k == kind {
			known = true
			break
		}
	}
	if !known {
		return playback.VendorEvent{}, false
	}

	ev := playback.VendorEvent{Kind: kind, DeviceID: msg.DeviceID, Message: msg.Message}
	if msg.State != nil {
		state := &playback.RemoteState{Paused: msg.State.Paused, PositionMS: msg.State.Position}
		if t := msg.State.Track; t != nil {
			state.Track = &models.Track{
				ID:         t.ID,
				URI:        t.URI,
				Name:       t.Name,
				Artists:    t.Artists,
				Album:      t.Album,
				DurationMS: t.DurationMS,
			}
		}
		ev.State = state
	}
	return ev, true
}

func (b *Bridge) write(conn *websocket.Conn, msg message) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// request sends msg and waits for the page's result.
func (b *Bridge) request(ctx context.Context, msg message) (message, error) {
	msg.ID = shared.GenerateID()
	ch := make(chan message, 1)

	b.mu.Lock()
	conn := b.conn
	if conn == nil {
		b.mu.Unlock()
		return message{}, shared.ErrPlayerClosed
	}
	b.pending[msg.ID] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, msg.ID)
		b.mu.Unlock()
	}()

	if err := b.write(conn, msg); err != nil {
		return message{}, fmt.Errorf("failed to send %s: %w", msg.Type, err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	select {
	case reply := <-ch:
		if reply.Type == msgClosed {
			return message{}, shared.ErrPlayerClosed
		}
		return reply, nil
	case <-ctx.Done():
		return message{}, fmt.Errorf("%w: waiting for %s", shared.ErrTimeout, msg.Type)
	}
}

// waitForPage blocks until a player page is attached, opening it first when an opener is set.
func (b *Bridge) waitForPage(ctx context.Context) error {
	b.mu.Lock()
	conn, attached := b.conn, b.attached
	b.mu.Unlock()
	if conn != nil {
		return nil
	}

	if b.open != nil {
		if err := b.open(b.pageURL); err != nil {
			b.logger.Warn("could not open player page", "url", b.pageURL, "error", err)
		}
	}
	b.logger.Info("waiting for player page", "url", b.pageURL)

	select {
	case <-attached:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: player page did not attach: %v", shared.ErrTimeout, ctx.Err())
	}
}

// Connect waits for the page, then asks it to create and connect the SDK player.
func (b *Bridge) Connect(ctx context.Context) (bool, error) {
	if err := b.waitForPage(ctx); err != nil {
		return false, err
	}

	b.mu.Lock()
	opts := b.opts
	b.mu.Unlock()

	reply, err := b.request(ctx, message{Type: msgConnect, Name: opts.Name, Volume: opts.Volume})
	if err != nil {
		return false, err
	}
	return reply.OK, nil
}

// Disconnect asks the page to disconnect its player. The page stays attached for a later Connect.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}
	if err := b.write(conn, message{Type: msgDisconnect}); err != nil {
		b.logger.Warn("failed to send disconnect", "error", err)
	}
}

func (b *Bridge) SetVolume(ctx context.Context, volume float64) error {
	reply, err := b.request(ctx, message{Type: msgSetVolume, Volume: volume})
	if err != nil {
		return err
	}
	if !reply.OK {
		return fmt.Errorf("set volume rejected: %s", reply.Message)
	}
	return nil
}

func (b *Bridge) Seek(ctx context.Context, positionMS int) error {
	reply, err := b.request(ctx, message{Type: msgSeek, PositionMS: positionMS})
	if err != nil {
		return err
	}
	if !reply.OK {
		return fmt.Errorf("seek rejected: %s", reply.Message)
	}
	return nil
}

// AddListener implements [playback.VendorPlayer].
func (b *Bridge) AddListener(kind playback.EventKind, l playback.Listener) func() {
	return b.Add(kind, l)
}

// Close drops the page connection.
func (b *Bridge) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
