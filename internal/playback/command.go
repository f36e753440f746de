package playback

import (
	"github.com/desertthunder/aero/internal/models"
)

// CommandKind enumerates remote playback commands.
type CommandKind int

const (
	CommandPlay CommandKind = iota
	CommandPause
	CommandSeek
	CommandSetVolume
	CommandSetShuffle
	CommandSetRepeat
)

func (k CommandKind) String() string {
	switch k {
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandSeek:
		return "seek"
	case CommandSetVolume:
		return "set_volume"
	case CommandSetShuffle:
		return "set_shuffle"
	case CommandSetRepeat:
		return "set_repeat"
	default:
		return "unknown"
	}
}

// Origin records which trigger produced a play command so its acknowledgement can be applied.
type Origin int

const (
	OriginIntent Origin = iota
	OriginQueue
	OriginSkip
	OriginResume
)

// Command is a single remote playback instruction.
type Command struct {
	Kind       CommandKind
	URIs       []string
	PositionMS int
	Volume     int
	Shuffle    bool
	Repeat     models.RepeatMode

	Origin Origin
	Target *models.Track // track that becomes current when a skip is acknowledged
}

// Play starts the given URIs, optionally at positionMS within the first.
func Play(uris []string, positionMS int) Command {
	return Command{Kind: CommandPlay, URIs: uris, PositionMS: positionMS}
}

func Pause() Command { return Command{Kind: CommandPause} }

func Seek(positionMS int) Command { return Command{Kind: CommandSeek, PositionMS: positionMS} }

// SetVolume takes a percentage between 0 and 100.
func SetVolume(volume int) Command { return Command{Kind: CommandSetVolume, Volume: volume} }

func SetShuffle(on bool) Command { return Command{Kind: CommandSetShuffle, Shuffle: on} }

func SetRepeat(mode models.RepeatMode) Command { return Command{Kind: CommandSetRepeat, Repeat: mode} }
