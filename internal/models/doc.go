// Package models defines the domain values shared by the session and playback layers.
//
// The package contains two categories of types:
//
// 1. Session values, owned by the session supervisor and token store
//   - [Token] : access/refresh token pair with an absolute expiry
//   - [PendingAuth] : the PKCE verifier held between login and code exchange
//   - [Profile] : identity of the signed-in account (display name, avatar, product)
//
// 2. Playback values, owned by the reconciler
//   - [Track] : immutable catalog entry referenced by queues
//   - [ContextRef] : the collection a queue was activated from
//   - [RepeatMode] : off, context or track, cycled in that order
//   - [PlaybackState] : the view-facing snapshot of the active device
//
// Nothing in this package performs I/O.
package models
