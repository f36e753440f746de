package playback

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/shared"
)

// Commander issues playback commands. [Manager] is the production implementation.
type Commander interface {
	IssueCommand(ctx context.Context, cmd Command) error
}

// Library reads and writes the liked-songs collection.
type Library interface {
	IsLiked(ctx context.Context, trackID string) (bool, error)
	SaveLiked(ctx context.Context, trackID string) error
	RemoveLiked(ctx context.Context, trackID string) error
}

// Reconciler runs the playback event loop. All state mutation happens on the goroutine running [Reconciler.Run].
//
// Commands are not serialized: overlapping commands resolve in any order and the last acknowledgement wins.
type Reconciler struct {
	reducer  Reducer
	commands Commander
	library  Library
	logger   *log.Logger
	tick     time.Duration

	events  chan Event
	updates chan State
	done    chan struct{}
	once    sync.Once

	mu    sync.RWMutex
	state State
}

// ReconcilerOption configures a [Reconciler].
type ReconcilerOption func(*Reconciler)

// WithShuffler replaces the random permutation used for shuffle views.
func WithShuffler(s Shuffler) ReconcilerOption {
	return func(r *Reconciler) {
		if s != nil {
			r.reducer.shuffle = s
		}
	}
}

// WithMessageTTL changes how long the liked-songs message stays visible.
func WithMessageTTL(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.reducer.messageTTL = d
		}
	}
}

func WithTickInterval(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.tick = d
		}
	}
}

func WithReconcilerLogger(l *log.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = l }
}

// WithVolume sets the initial volume percentage.
func WithVolume(v int) ReconcilerOption {
	return func(r *Reconciler) { r.state.Volume = v }
}

// NewReconciler creates a [Reconciler] over commands and library.
func NewReconciler(commands Commander, library Library, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		reducer:  NewReducer(nil),
		commands: commands,
		library:  library,
		logger:   shared.NewLogger(nil),
		tick:     TickInterval,
		events:   make(chan Event, 64),
		updates:  make(chan State, 1),
		done:     make(chan struct{}),
		state:    NewState(int(DefaultVolume * 100)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = shared.WithLogger(r.logger, "component", "reconciler")
	return r
}

// Dispatch queues ev for the event loop. It returns without effect once Run has stopped.
func (r *Reconciler) Dispatch(ev Event) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

// Activate replaces the queue with tracks loaded for ref.
func (r *Reconciler) Activate(ref models.ContextRef, tracks []models.Track) {
	r.Dispatch(QueueActivated{Context: ref, Tracks: tracks})
}

// HandleVendorEvent translates vendor events into reconciler events. Error events are recorded by the [Manager].
func (r *Reconciler) HandleVendorEvent(ev VendorEvent) {
	switch ev.Kind {
	case EventReady:
		r.Dispatch(DeviceReady{DeviceID: ev.DeviceID})
	case EventNotReady:
		r.Dispatch(DeviceNotReady{})
	case EventStateChanged:
		if ev.State != nil {
			r.Dispatch(RemoteSnapshot{Track: ev.State.Track, Paused: ev.State.Paused, PositionMS: ev.State.PositionMS})
		}
	}
}

// Updates delivers the latest state after every event. Slow readers only see the newest state.
func (r *Reconciler) Updates() <-chan State {
	return r.updates
}

// Done is closed when Run returns.
func (r *Reconciler) Done() <-chan struct{} {
	return r.done
}

// State returns the current state.
func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Run processes events until ctx is done. The position timer only runs while playing.
func (r *Reconciler) Run(ctx context.Context) error {
	defer r.once.Do(func() { close(r.done) })

	var ticker *time.Ticker
	var tick <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.events:
			r.apply(ctx, ev)
		case <-tick:
			r.apply(ctx, TimerTick{})
		}

		playing := r.State().IsPlaying
		switch {
		case playing && ticker == nil:
			ticker = time.NewTicker(r.tick)
			tick = ticker.C
		case !playing:
			stopTicker()
		}
	}
}

func (r *Reconciler) apply(ctx context.Context, ev Event) {
	r.mu.Lock()
	next, effects := r.reducer.Reduce(r.state, ev)
	r.state = next
	r.mu.Unlock()

	r.publish(next)
	for _, eff := range effects {
		r.run(ctx, eff)
	}
}

// publish replaces any unread state with next.
func (r *Reconciler) publish(next State) {
	select {
	case r.updates <- next:
		return
	default:
	}
	select {
	case <-r.updates:
	default:
	}
	select {
	case r.updates <- next:
	default:
		// Reader raced us; it already has a state at least as new as the dropped one.
	}
}

func (r *Reconciler) run(ctx context.Context, eff Effect) {
	switch eff := eff.(type) {
	case RunCommand:
		go func() {
			err := r.commands.IssueCommand(ctx, eff.Command)
			if err != nil {
				r.logger.Warn("command failed", "kind", eff.Command.Kind, "error", err)
			}
			r.Dispatch(CommandAcked{Command: eff.Command, Err: err})
		}()
	case QueryLiked:
		go func() {
			liked, err := r.library.IsLiked(ctx, eff.TrackID)
			if err != nil {
				r.logger.Warn("liked status lookup failed", "track", eff.TrackID, "error", err)
			}
			r.Dispatch(LikedStatus{TrackID: eff.TrackID, Liked: liked, Err: err})
		}()
	case SaveLiked:
		go func() {
			var err error
			if eff.Add {
				err = r.library.SaveLiked(ctx, eff.TrackID)
			} else {
				err = r.library.RemoveLiked(ctx, eff.TrackID)
			}
			if err != nil {
				r.logger.Warn("liked songs update failed", "track", eff.TrackID, "add", eff.Add, "error", err)
			}
			r.Dispatch(LikeSaved{TrackID: eff.TrackID, Liked: eff.Add, Err: err})
		}()
	case ClearMessage:
		time.AfterFunc(eff.After, func() { r.Dispatch(MessageExpired{Seq: eff.Seq}) })
	case Notice:
		r.logger.Info(eff.Message)
	}
}
