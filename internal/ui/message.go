package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/aero/internal/playback"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStateUpdated MsgKind = iota
	MsgUpdatesClosed
)

// stateUpdatedMsg is the constructor for [MsgStateUpdated]
func stateUpdatedMsg(state playback.State) Msg {
	return Msg{kind: MsgStateUpdated, data: state}
}

// updatesClosedMsg is the constructor for [MsgUpdatesClosed]
func updatesClosedMsg() Msg {
	return Msg{kind: MsgUpdatesClosed}
}
