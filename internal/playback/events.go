package playback

import (
	"time"

	"github.com/desertthunder/aero/internal/models"
)

// Event is an input to [Reducer.Reduce].
type Event interface{ isEvent() }

// QueueActivated replaces the queue with a newly selected context.
type QueueActivated struct {
	Context models.ContextRef
	Tracks  []models.Track
}

// RemoteSnapshot is the vendor's authoritative player state.
type RemoteSnapshot struct {
	Track      *models.Track
	Paused     bool
	PositionMS int
}

// TimerTick advances the displayed position between snapshots.
type TimerTick struct{}

// CommandAcked reports the result of a command emitted as a [RunCommand] effect.
type CommandAcked struct {
	Command Command
	Err     error
}

type DeviceReady struct{ DeviceID string }

type DeviceNotReady struct{}

// LikedStatus answers a [QueryLiked] effect.
type LikedStatus struct {
	TrackID string
	Liked   bool
	Err     error
}

// LikeSaved answers a [SaveLiked] effect.
type LikeSaved struct {
	TrackID string
	Liked   bool
	Err     error
}

// MessageExpired answers a [ClearMessage] effect.
type MessageExpired struct{ Seq int }

// User intents.
type (
	SkipForward   struct{}
	SkipBack      struct{}
	TogglePlay    struct{}
	ToggleShuffle struct{}
	CycleRepeat   struct{}
	ToggleLike    struct{}
	SeekTo        struct{ PositionMS int }
	ChangeVolume  struct{ Volume int }
)

func (QueueActivated) isEvent() {}
func (RemoteSnapshot) isEvent() {}
func (TimerTick) isEvent()      {}
func (CommandAcked) isEvent()   {}
func (DeviceReady) isEvent()    {}
func (DeviceNotReady) isEvent() {}
func (LikedStatus) isEvent()    {}
func (LikeSaved) isEvent()      {}
func (MessageExpired) isEvent() {}
func (SkipForward) isEvent()    {}
func (SkipBack) isEvent()       {}
func (TogglePlay) isEvent()     {}
func (ToggleShuffle) isEvent()  {}
func (CycleRepeat) isEvent()    {}
func (ToggleLike) isEvent()     {}
func (SeekTo) isEvent()         {}
func (ChangeVolume) isEvent()   {}

// Effect is a side effect requested by [Reducer.Reduce] and carried out by the [Reconciler].
type Effect interface{ isEffect() }

// RunCommand sends a command; its result comes back as [CommandAcked].
type RunCommand struct{ Command Command }

// QueryLiked checks whether a track is liked; the result comes back as [LikedStatus].
type QueryLiked struct{ TrackID string }

// SaveLiked adds or removes a liked track; the result comes back as [LikeSaved].
type SaveLiked struct {
	TrackID string
	Add     bool
}

// ClearMessage schedules [MessageExpired] after the given delay.
type ClearMessage struct {
	Seq   int
	After time.Duration
}

// Notice is an informational log line.
type Notice struct{ Message string }

func (RunCommand) isEffect()   {}
func (QueryLiked) isEffect()   {}
func (SaveLiked) isEffect()    {}
func (ClearMessage) isEffect() {}
func (Notice) isEffect()       {}
