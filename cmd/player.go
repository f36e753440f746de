package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/aero/internal/device"
	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/playback"
	"github.com/desertthunder/aero/internal/server"
	"github.com/desertthunder/aero/internal/session"
	"github.com/desertthunder/aero/internal/shared"
	"github.com/desertthunder/aero/internal/ui"
	"github.com/urfave/cli/v3"
)

const connectTimeout = time.Minute

// Play opens the player and activates the collection named by the context flags.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	ref, err := contextRef(
		cmd.String("playlist"), cmd.String("album"), cmd.String("artist"), cmd.String("track"), cmd.Bool("liked"),
	)
	if err != nil {
		return err
	}
	return r.runPlayer(ctx, &ref)
}

// Player opens the player without queueing anything.
func (r *Runner) Player(ctx context.Context, cmd *cli.Command) error {
	return r.runPlayer(ctx, nil)
}

// contextRef builds the collection reference from the play flags. Exactly one must be set.
func contextRef(playlist, album, artist, track string, liked bool) (models.ContextRef, error) {
	var refs []models.ContextRef
	if playlist != "" {
		refs = append(refs, models.ContextRef{Kind: models.PlaylistContext, ID: resourceID("playlist", playlist)})
	}
	if album != "" {
		refs = append(refs, models.ContextRef{Kind: models.AlbumContext, ID: resourceID("album", album)})
	}
	if artist != "" {
		refs = append(refs, models.ContextRef{Kind: models.TopTracksContext, ID: resourceID("artist", artist)})
	}
	if track != "" {
		refs = append(refs, models.ContextRef{Kind: models.TrackContext, ID: resourceID("track", track)})
	}
	if liked {
		refs = append(refs, models.ContextRef{Kind: models.LikedSongsContext})
	}

	switch len(refs) {
	case 0:
		return models.ContextRef{}, fmt.Errorf("%w: one of --playlist, --album, --artist, --track or --liked", shared.ErrMissingArgument)
	case 1:
		return refs[0], nil
	default:
		return models.ContextRef{}, fmt.Errorf("%w: only one collection can be played at a time", shared.ErrInvalidArgument)
	}
}

// resourceID accepts a bare ID, a spotify:<kind>:<id> URI or an open.spotify.com link.
func resourceID(kind, s string) string {
	s = strings.TrimSpace(s)
	if id, ok := strings.CutPrefix(s, "spotify:"+kind+":"); ok {
		return id
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+1 < len(parts); i++ {
			if parts[i] == kind {
				return parts[i+1]
			}
		}
	}
	return s
}

// runPlayer wires the session, the device, the reconciler and the TUI, then blocks until the TUI exits.
func (r *Runner) runPlayer(ctx context.Context, ref *models.ContextRef) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	logger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return err
	}
	logger.SetLevel(r.logger.GetLevel())
	r.SetLogger(logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := r.newStack(session.WithStateListener(func(s session.State) {
		if s == session.Unauthenticated {
			cancel()
		}
	}))
	if err != nil {
		return err
	}
	if err := st.supervisor.Load(ctx, ""); err != nil {
		return err
	}
	profile := st.session.Profile()

	factory, stop, err := r.deviceFactory(st)
	if err != nil {
		return err
	}
	defer stop()

	player := r.config.Player
	manager := playback.NewManager(st.api, factory, st.session,
		playback.WithPlayerName(player.Name),
		playback.WithInitialVolume(float64(player.Volume)/100),
		playback.WithManagerLogger(shared.WithLogger(logger, "component", "manager")),
	)
	defer manager.Teardown()
	st.supervisor.AttachPlayer(manager)

	reconciler := playback.NewReconciler(manager, st.api,
		playback.WithVolume(player.Volume),
		playback.WithReconcilerLogger(shared.WithLogger(logger, "component", "reconciler")),
	)
	manager.SetEventSink(reconciler.HandleVendorEvent)

	go func() {
		if err := reconciler.Run(ctx); err != nil {
			logger.Error("reconciler stopped", "error", err)
		}
	}()
	go st.supervisor.Run(ctx)

	go func() {
		connectCtx, done := context.WithTimeout(ctx, connectTimeout)
		defer done()
		if ok, err := manager.Initialize(connectCtx); err != nil {
			logger.Error("player initialization failed", "error", err)
		} else if !ok {
			logger.Warn("player did not connect")
		}
	}()

	if ref != nil {
		tracks, err := st.catalog.Queue(ctx, *ref, profile.Country)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", ref.Kind, err)
		}
		if len(tracks) == 0 {
			return fmt.Errorf("%w: %s has no playable tracks", shared.ErrTrackNotFound, ref.Kind)
		}
		logger.Info("activating queue", "kind", ref.Kind, "id", ref.ID, "tracks", len(tracks))
		reconciler.Activate(*ref, tracks)
	}

	model := ui.NewModel(reconciler, profile, ui.WithStatus(manager.Status))
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("player UI failed: %w", err)
	}

	if st.session.State() == session.Unauthenticated {
		return shared.ErrNotAuthenticated
	}
	return nil
}

// deviceFactory builds the vendor player for the configured mode. The returned stop func releases it.
func (r *Runner) deviceFactory(st *stack) (playback.VendorFactory, func(), error) {
	player := r.config.Player

	if player.Mode == "connect" {
		poller := device.NewPoller(st.catalog.API(),
			device.WithDeviceName(player.DeviceName),
			device.WithPollInterval(player.PollInterval()),
			device.WithPollerLogger(r.logger),
		)
		return poller.Factory(), func() {}, nil
	}

	addr := r.config.Server.Addr()
	bridge := device.NewBridge("http://"+addr+device.PagePath,
		device.WithOpener(r.openURL),
		device.WithBridgeLogger(r.logger),
	)

	logger := shared.WithLogger(r.logger, "component", "server")
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(logger))
	router.Handler(bridge)
	logger.Debug("player page routes", "patterns", router.Patterns())

	srv, err := server.Start(addr, router, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start player page server: %w", err)
	}

	stop := func() {
		if err := bridge.Close(); err != nil {
			r.logger.Warn("failed to close player page", "error", err)
		}
		srv.Shutdown()
	}
	return bridge.Factory(), stop, nil
}
