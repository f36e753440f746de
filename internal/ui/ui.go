package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/playback"
)

const (
	SeekStepMS   = 10000
	VolumeStep   = 10
	progressBars = 30
)

// Player is the reconciler surface the view needs.
type Player interface {
	Dispatch(ev playback.Event)
	Updates() <-chan playback.State
	Done() <-chan struct{}
	State() playback.State
}

// Model represents the TUI application state.
type Model struct {
	player  Player
	state   playback.State
	profile models.Profile
	status  func() error
	closed  bool

	width    int
	height   int
	upNext   list.Model
	help     help.Model
	keys     keyMap
	quitting bool
}

// Option configures a [Model].
type Option func(*Model)

// WithStatus reports the player connection status in the footer.
func WithStatus(fn func() error) Option {
	return func(m *Model) { m.status = fn }
}

// NewModel creates a now-playing view for player.
func NewModel(player Player, profile models.Profile, opts ...Option) *Model {
	upNext := list.New(nil, list.NewDefaultDelegate(), 60, 12)
	upNext.Title = "Up Next"
	upNext.SetShowStatusBar(false)
	upNext.SetFilteringEnabled(false)
	upNext.SetShowHelp(false)

	m := &Model{
		player:  player,
		state:   player.State(),
		profile: profile,
		upNext:  upNext,
		help:    help.New(),
		keys:    newKeyMap(),
	}
	m.help.Styles.ShortDesc = styles.help
	m.help.Styles.FullDesc = styles.help
	for _, opt := range opts {
		opt(m)
	}
	m.upNext.SetItems(trackItems(m.state.NextTracks))
	return m
}

// Init starts listening for state updates.
func (m *Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.upNext.SetSize(max(msg.Width-4, 0), max(msg.Height-14, 0))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgStateUpdated:
			m.state = msg.data.(playback.State)
			m.upNext.SetItems(trackItems(m.state.NextTracks))
			return m, m.waitForUpdate()
		case MsgUpdatesClosed:
			m.closed = true
			return m, nil
		}
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.closed {
		return m, nil
	}
	if ev := m.intent(msg); ev != nil {
		m.player.Dispatch(ev)
	}
	return m, nil
}

// intent maps a key press to the playback event it requests, or nil.
func (m *Model) intent(msg tea.KeyMsg) playback.Event {
	switch {
	case key.Matches(msg, m.keys.play):
		return playback.TogglePlay{}
	case key.Matches(msg, m.keys.next):
		return playback.SkipForward{}
	case key.Matches(msg, m.keys.prev):
		return playback.SkipBack{}
	case key.Matches(msg, m.keys.shuffle):
		return playback.ToggleShuffle{}
	case key.Matches(msg, m.keys.repeat):
		return playback.CycleRepeat{}
	case key.Matches(msg, m.keys.like):
		return playback.ToggleLike{}
	case key.Matches(msg, m.keys.volumeUp):
		return playback.ChangeVolume{Volume: m.state.Volume + VolumeStep}
	case key.Matches(msg, m.keys.volumeDown):
		return playback.ChangeVolume{Volume: m.state.Volume - VolumeStep}
	case key.Matches(msg, m.keys.forward):
		if m.state.CurrentTrack == nil {
			return nil
		}
		pos := m.state.PositionMS + SeekStepMS
		if d := m.state.CurrentTrack.DurationMS; d > 0 {
			pos = min(pos, d)
		}
		return playback.SeekTo{PositionMS: pos}
	case key.Matches(msg, m.keys.rewind):
		if m.state.CurrentTrack == nil {
			return nil
		}
		return playback.SeekTo{PositionMS: max(m.state.PositionMS-SeekStepMS, 0)}
	}
	return nil
}

func (m *Model) waitForUpdate() tea.Cmd {
	updates, done := m.player.Updates(), m.player.Done()
	return func() tea.Msg {
		select {
		case state := <-updates:
			return stateUpdatedMsg(state)
		case <-done:
			return updatesClosedMsg()
		}
	}
}

// View renders the now-playing screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Aero"))
	b.WriteString(styles.dim.Render("  " + m.profile.DisplayName))
	b.WriteString("\n")

	if m.profile.Product != "" && !m.profile.Premium() {
		b.WriteString(styles.warn.Render("Premium is required to control playback."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderTrack())
	b.WriteString("\n")
	b.WriteString(m.renderTransport())
	b.WriteString("\n")

	if m.state.LikedMessage != "" {
		style := styles.ok
		if m.state.LikedMessage == playback.MessageLikeFailed {
			style = styles.err
		}
		b.WriteString(style.Render(m.state.LikedMessage))
		b.WriteString("\n")
	}

	if status := m.renderStatus(); status != "" {
		b.WriteString(status)
		b.WriteString("\n")
	}

	if len(m.state.NextTracks) > 0 {
		b.WriteString("\n")
		b.WriteString(m.upNext.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderTrack() string {
	t := m.state.CurrentTrack
	if t == nil {
		if len(m.state.PendingURIs) > 0 {
			return styles.dim.Render("Waiting for the player to connect…")
		}
		return styles.dim.Render("Nothing playing")
	}

	like := "♡"
	if m.state.Liked {
		like = styles.ok.Render("♥")
	}
	lines := []string{
		fmt.Sprintf("%s %s", styles.track.Render(t.Name), like),
		t.ArtistLine(),
	}
	if t.Album != "" {
		lines = append(lines, styles.dim.Render(t.Album))
	}
	lines = append(lines, progressLine(m.state.PositionMS, t.DurationMS, progressBars))
	return strings.Join(lines, "\n")
}

func (m *Model) renderTransport() string {
	play := "⏸ paused"
	if m.state.IsPlaying {
		play = "▶ playing"
	}
	shuffle := "off"
	if m.state.ShuffleEnabled {
		shuffle = "on"
	}
	return fmt.Sprintf("%s  shuffle %s  repeat %s  volume %d%%", play, shuffle, m.state.RepeatMode, m.state.Volume)
}

func (m *Model) renderStatus() string {
	if m.closed {
		return styles.err.Render("Playback stopped.")
	}
	if m.status == nil {
		return ""
	}
	if err := m.status(); err != nil {
		return styles.err.Render(err.Error())
	}
	if m.state.DeviceID == "" {
		return styles.warn.Render("No device connected")
	}
	return ""
}

// progressLine renders "m:ss ━━━━──── m:ss" with width cells.
func progressLine(positionMS, durationMS, width int) string {
	filled := 0
	if durationMS > 0 {
		filled = min(max(positionMS*width/durationMS, 0), width)
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
	return fmt.Sprintf("%s %s %s", FormatMS(positionMS), bar, FormatMS(durationMS))
}

// FormatMS formats milliseconds as m:ss.
func FormatMS(ms int) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
