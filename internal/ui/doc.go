// Package ui implements the now-playing terminal view using bubbletea's Elm architecture.
//
// The [Model] renders the reconciler's [playback.State]: the current track with a position bar, the transport
// flags (playing, shuffle, repeat, volume), the liked-songs confirmation message and the up-next list.
//
// State arrives through the reconciler's update channel, one [Msg] per snapshot. Key presses never mutate the
// view directly; they become intents dispatched back to the reconciler, and the view redraws when the resulting
// state comes back.
//
// Key bindings are listed with charmbracelet/bubbles/help.
package ui
