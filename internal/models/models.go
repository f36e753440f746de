// package models defines the data model for the playback session core
package models

import (
	"context"
	"strings"
	"time"
)

// Token is the active credential set. ExpiresAt always reflects the last successful exchange or refresh.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExpiresAtEpochMs returns the expiry as milliseconds since the Unix epoch, the persisted representation.
func (t Token) ExpiresAtEpochMs() int64 {
	return t.ExpiresAt.UnixMilli()
}

// Valid reports whether the token can still be used at now. A token expiring exactly at now is not valid.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// ExpiresWithin reports whether the token expires within d of now.
func (t Token) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !now.Before(t.ExpiresAt.Add(-d))
}

// PendingAuth holds the PKCE verifier between building the login URL and exchanging the code.
type PendingAuth struct {
	CodeVerifier string
}

// Profile is the signed-in account's identity.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Product     string `json:"product"`
	Country     string `json:"country"`
}

const (
	DefaultDisplayName = "user"
	DefaultAvatarURL   = "https://i.scdn.co/image/ab6761610000e5eb1020c22e0ce742eca7166e65"
)

// DefaultProfile is the identity shown before login and after logout.
func DefaultProfile() Profile {
	return Profile{DisplayName: DefaultDisplayName, AvatarURL: DefaultAvatarURL}
}

// Premium reports whether the account can drive playback devices.
func (p Profile) Premium() bool {
	return p.Product == "premium"
}

// Track is an immutable catalog entry.
type Track struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	DurationMS int      `json:"duration_ms"`
	Explicit   bool     `json:"explicit"`
}

// ArtistLine joins artist names for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// URIs returns the URI of every track in order.
func URIs(tracks []Track) []string {
	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		uris = append(uris, t.URI)
	}
	return uris
}

// IndexOf returns the position of the track with id in tracks, or -1.
func IndexOf(tracks []Track, id string) int {
	if id == "" {
		return -1
	}
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ContextKind names the collection a queue was built from.
type ContextKind int

const (
	PlaylistContext ContextKind = iota
	AlbumContext
	LikedSongsContext
	TopTracksContext
	TrackContext
)

func (k ContextKind) String() string {
	switch k {
	case PlaylistContext:
		return "playlist"
	case AlbumContext:
		return "album"
	case LikedSongsContext:
		return "liked"
	case TopTracksContext:
		return "top-tracks"
	case TrackContext:
		return "track"
	default:
		return "unknown"
	}
}

// StartsAtFirstTrack reports whether activating this kind selects the first queue entry as the current track.
// The rest wait for the first device snapshot.
func (k ContextKind) StartsAtFirstTrack() bool {
	return k == PlaylistContext || k == AlbumContext
}

// ContextRef identifies a collection to load. ID is unused for liked songs.
type ContextRef struct {
	Kind ContextKind
	ID   string
}

// RepeatMode is the device repeat setting.
type RepeatMode string

const (
	RepeatOff     RepeatMode = "off"
	RepeatContext RepeatMode = "context"
	RepeatTrack   RepeatMode = "track"
)

// Next cycles off -> context -> track -> off. Unknown values restart at off.
func (r RepeatMode) Next() RepeatMode {
	switch r {
	case RepeatOff:
		return RepeatContext
	case RepeatContext:
		return RepeatTrack
	default:
		return RepeatOff
	}
}

// PlaybackState is the single snapshot consumed by views.
type PlaybackState struct {
	CurrentTrack   *Track     `json:"current_track"`
	IsPlaying      bool       `json:"is_playing"`
	PositionMS     int        `json:"position_ms"`
	Volume         int        `json:"volume"`
	ShuffleEnabled bool       `json:"shuffle_enabled"`
	RepeatMode     RepeatMode `json:"repeat_mode"`
	DeviceID       string     `json:"device_id"`
}

// TokenStore persists the session credential set and the pending PKCE verifier.
//
// Load methods return nil with no error when nothing is stored.
type TokenStore interface {
	LoadToken(ctx context.Context) (*Token, error)             // LoadToken reads access token, expiry and refresh token as one set
	SaveToken(ctx context.Context, token Token) error          // SaveToken writes all three token fields atomically
	ClearToken(ctx context.Context) error                      // ClearToken removes all three token fields atomically
	LoadPendingAuth(ctx context.Context) (*PendingAuth, error) // LoadPendingAuth reads the stored verifier
	SavePendingAuth(ctx context.Context, p PendingAuth) error  // SavePendingAuth overwrites any stored verifier
	ClearPendingAuth(ctx context.Context) error                // ClearPendingAuth discards the stored verifier
}
