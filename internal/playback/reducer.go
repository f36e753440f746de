package playback

import (
	"slices"
	"time"

	"github.com/desertthunder/aero/internal/models"
)

const (
	TickInterval       = time.Second
	PositionStepMS     = 1000
	RestartThresholdMS = 3000
	MessageTTL         = 2 * time.Second
)

const (
	MessageLiked       = "Added to Liked Songs"
	MessageUnliked     = "Removed from Liked Songs"
	MessageLikeFailed  = "Couldn't update Liked Songs"
	NoticeNoMoreTracks = "no more tracks"
)

// State is everything the reconciler derives: the playback snapshot plus queue bookkeeping.
type State struct {
	models.PlaybackState

	Context    models.ContextRef
	Queue      []models.Track
	Order      []models.Track // active play order: Queue, or its shuffled view
	NextTracks []models.Track // up-next view relative to CurrentTrack

	Liked        bool
	LikedMessage string

	// PendingURIs holds a queue activated before the device was ready.
	PendingURIs []string

	messageSeq int
}

// NewState returns an idle state at the given volume percentage.
func NewState(volume int) State {
	return State{PlaybackState: models.PlaybackState{Volume: volume, RepeatMode: models.RepeatOff}}
}

func (s State) currentID() string {
	if s.CurrentTrack == nil {
		return ""
	}
	return s.CurrentTrack.ID
}

// trackChanged resets the liked flag and asks for a fresh one when the current track differs from prev.
func (s *State) trackChanged(prev string) []Effect {
	cur := s.currentID()
	if cur == prev {
		return nil
	}
	s.Liked = false
	if cur == "" {
		return nil
	}
	return []Effect{QueryLiked{TrackID: cur}}
}

// Reducer merges events into [State]. Slices in the returned state are never mutated afterwards.
type Reducer struct {
	shuffle    Shuffler
	messageTTL time.Duration
}

// NewReducer creates a [Reducer]. A nil shuffle uses [NewShuffler] with the default source.
func NewReducer(shuffle Shuffler) Reducer {
	if shuffle == nil {
		shuffle = NewShuffler(nil)
	}
	return Reducer{shuffle: shuffle, messageTTL: MessageTTL}
}

// Reduce applies ev to s and returns the next state with the effects to run.
func (r Reducer) Reduce(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case QueueActivated:
		return r.activate(s, ev)
	case RemoteSnapshot:
		return r.snapshot(s, ev)
	case TimerTick:
		if s.IsPlaying {
			s.PositionMS += PositionStepMS
		}
		return s, nil
	case CommandAcked:
		return r.ack(s, ev)
	case DeviceReady:
		s.DeviceID = ev.DeviceID
		if len(s.PendingURIs) == 0 {
			return s, nil
		}
		cmd := Play(s.PendingURIs, 0)
		cmd.Origin = OriginQueue
		s.PendingURIs = nil
		return s, []Effect{RunCommand{Command: cmd}}
	case DeviceNotReady:
		s.DeviceID = ""
		return s, nil
	case LikedStatus:
		if ev.Err == nil && ev.TrackID == s.currentID() {
			s.Liked = ev.Liked
		}
		return s, nil
	case LikeSaved:
		s.messageSeq++
		switch {
		case ev.Err != nil:
			s.LikedMessage = MessageLikeFailed
		case ev.Liked:
			s.LikedMessage = MessageLiked
		default:
			s.LikedMessage = MessageUnliked
		}
		if ev.Err == nil && ev.TrackID == s.currentID() {
			s.Liked = ev.Liked
		}
		return s, []Effect{ClearMessage{Seq: s.messageSeq, After: r.messageTTL}}
	case MessageExpired:
		if ev.Seq == s.messageSeq {
			s.LikedMessage = ""
		}
		return s, nil
	case SkipForward:
		return r.skipForward(s)
	case SkipBack:
		return r.skipBack(s)
	case TogglePlay:
		if s.IsPlaying {
			return s, []Effect{RunCommand{Command: Pause()}}
		}
		if s.CurrentTrack == nil {
			return s, nil
		}
		cmd := Play([]string{s.CurrentTrack.URI}, s.PositionMS)
		cmd.Origin = OriginResume
		return s, []Effect{RunCommand{Command: cmd}}
	case ToggleShuffle:
		return s, []Effect{RunCommand{Command: SetShuffle(!s.ShuffleEnabled)}}
	case CycleRepeat:
		return s, []Effect{RunCommand{Command: SetRepeat(s.RepeatMode.Next())}}
	case ToggleLike:
		if s.CurrentTrack == nil {
			return s, nil
		}
		return s, []Effect{SaveLiked{TrackID: s.CurrentTrack.ID, Add: !s.Liked}}
	case SeekTo:
		return s, []Effect{RunCommand{Command: Seek(max(ev.PositionMS, 0))}}
	case ChangeVolume:
		// The slider moves at once; the device catches up when the command lands.
		s.Volume = min(max(ev.Volume, 0), 100)
		return s, []Effect{RunCommand{Command: SetVolume(s.Volume)}}
	}
	return s, nil
}

func (r Reducer) activate(s State, ev QueueActivated) (State, []Effect) {
	prev := s.currentID()

	s.Context = ev.Context
	s.Queue = slices.Clone(ev.Tracks)
	s.Order = r.order(s.Queue, s.ShuffleEnabled)
	s.CurrentTrack = nil
	if ev.Context.Kind.StartsAtFirstTrack() && len(s.Queue) > 0 {
		first := s.Queue[0]
		s.CurrentTrack = &first
	}
	s.PositionMS = 0
	s.NextTracks = r.upNext(s)
	s.PendingURIs = nil

	effects := s.trackChanged(prev)

	uris := models.URIs(s.Queue)
	if len(uris) == 0 {
		return s, effects
	}
	if s.DeviceID == "" {
		s.PendingURIs = uris
		return s, effects
	}

	cmd := Play(uris, 0)
	cmd.Origin = OriginQueue
	return s, append(effects, RunCommand{Command: cmd})
}

func (r Reducer) snapshot(s State, ev RemoteSnapshot) (State, []Effect) {
	prev := s.currentID()

	s.IsPlaying = !ev.Paused
	s.CurrentTrack = nil
	if ev.Track != nil {
		t := *ev.Track
		s.CurrentTrack = &t
	}
	s.PositionMS = ev.PositionMS
	s.NextTracks = r.upNext(s)

	effects := s.trackChanged(prev)

	if !ev.Paused || ev.PositionMS != 0 {
		return s, effects
	}

	// Track ended.
	if len(s.NextTracks) == 0 {
		return s, append(effects, Notice{Message: NoticeNoMoreTracks})
	}
	if models.IndexOf(s.Queue, s.currentID()) >= len(s.Queue)-1 {
		s.IsPlaying = false
		return s, effects
	}

	s, more := r.skipForward(s)
	return s, append(effects, more...)
}

func (r Reducer) skipForward(s State) (State, []Effect) {
	next := models.IndexOf(s.Order, s.currentID()) + 1
	if next >= len(s.Order) {
		s.IsPlaying = false
		return s, nil
	}

	target := s.Order[next]
	cmd := Play([]string{target.URI}, 0)
	cmd.Origin = OriginSkip
	cmd.Target = &target
	return s, []Effect{RunCommand{Command: cmd}}
}

func (r Reducer) skipBack(s State) (State, []Effect) {
	if s.CurrentTrack == nil {
		return s, nil
	}
	if s.PositionMS > RestartThresholdMS {
		return s, []Effect{RunCommand{Command: Seek(0)}}
	}

	idx := models.IndexOf(s.Order, s.currentID())
	if idx <= 0 {
		return s, nil
	}

	target := s.Order[idx-1]
	cmd := Play([]string{target.URI}, 0)
	cmd.Origin = OriginSkip
	cmd.Target = &target
	return s, []Effect{RunCommand{Command: cmd}}
}

// ack applies a successful command. Failed commands leave state untouched.
func (r Reducer) ack(s State, ev CommandAcked) (State, []Effect) {
	if ev.Err != nil {
		return s, nil
	}

	cmd := ev.Command
	switch cmd.Kind {
	case CommandPlay:
		s.IsPlaying = true
		if cmd.Origin == OriginSkip && cmd.Target != nil {
			prev := s.currentID()
			t := *cmd.Target
			s.CurrentTrack = &t
			s.PositionMS = 0
			s.NextTracks = r.upNext(s)
			return s, s.trackChanged(prev)
		}
	case CommandPause:
		s.IsPlaying = false
	case CommandSeek:
		s.PositionMS = cmd.PositionMS
	case CommandSetShuffle:
		s.ShuffleEnabled = cmd.Shuffle
		s.Order = r.order(s.Queue, s.ShuffleEnabled)
		s.NextTracks = r.upNext(s)
	case CommandSetRepeat:
		s.RepeatMode = cmd.Repeat
	}
	return s, nil
}

// order returns the active play order. Disabling shuffle restores the queue exactly.
func (r Reducer) order(queue []models.Track, shuffle bool) []models.Track {
	if shuffle {
		return r.shuffle(queue)
	}
	return queue
}

// upNext rotates the queue to start after the current track, excluding it.
// A current track outside the queue yields the whole queue.
func (r Reducer) upNext(s State) []models.Track {
	idx := models.IndexOf(s.Queue, s.currentID())

	var next []models.Track
	if idx < 0 {
		next = slices.Clone(s.Queue)
	} else {
		next = make([]models.Track, 0, len(s.Queue)-1)
		next = append(next, s.Queue[idx+1:]...)
		next = append(next, s.Queue[:idx]...)
	}

	if s.ShuffleEnabled {
		next = r.shuffle(next)
	}
	return next
}
