package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/shared"
)

const (
	DefaultCheckInterval    = time.Minute
	DefaultRefreshLookahead = 5 * time.Minute
)

// Authenticator exchanges and refreshes tokens. Both calls persist the result.
type Authenticator interface {
	ExchangeCode(ctx context.Context, code string) (*models.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Token, error)
}

// ProfileLoader fetches the signed-in identity.
type ProfileLoader interface {
	Profile(ctx context.Context) (models.Profile, error)
}

// Player is the playback session torn down on logout.
type Player interface {
	SetAccount(p models.Profile)
	Teardown()
}

// Supervisor keeps the session token fresh and routes every token failure to logout.
type Supervisor struct {
	session   *Session
	store     models.TokenStore
	auth      Authenticator
	profiles  ProfileLoader
	now       func() time.Time
	interval  time.Duration
	lookahead time.Duration
	logger    *log.Logger

	// mu serializes transitions.
	mu       sync.Mutex
	player   Player
	onChange func(State)
}

// SupervisorOption configures a [Supervisor].
type SupervisorOption func(*Supervisor)

func WithCheckInterval(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRefreshLookahead sets how long before expiry a token is refreshed.
func WithRefreshLookahead(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.lookahead = d
		}
	}
}

func WithClock(now func() time.Time) SupervisorOption {
	return func(s *Supervisor) { s.now = now }
}

func WithLogger(l *log.Logger) SupervisorOption {
	return func(s *Supervisor) { s.logger = l }
}

// WithProfileLoader loads the identity after every successful authentication.
func WithProfileLoader(p ProfileLoader) SupervisorOption {
	return func(s *Supervisor) { s.profiles = p }
}

// WithStateListener is called after every state change, with the supervisor lock held.
func WithStateListener(fn func(State)) SupervisorOption {
	return func(s *Supervisor) { s.onChange = fn }
}

// NewSupervisor creates a [Supervisor] that writes to session.
func NewSupervisor(session *Session, store models.TokenStore, auth Authenticator, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		session:   session,
		store:     store,
		auth:      auth,
		now:       time.Now,
		interval:  DefaultCheckInterval,
		lookahead: DefaultRefreshLookahead,
		logger:    shared.NewLogger(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = shared.WithLogger(s.logger, "component", "supervisor")
	return s
}

// AttachPlayer registers the playback session so logout can tear it down and it learns the account tier.
func (s *Supervisor) AttachPlayer(p Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player = p
	if p != nil && s.session.State() == Authenticated {
		p.SetAccount(s.session.Profile())
	}
}

func (s *Supervisor) Session() *Session {
	return s.session
}

// Load establishes the session.
//
// A non-empty code is exchanged. Otherwise the stored token is used when still valid and refreshed once when
// expired. A missing token leaves the session unauthenticated and returns [shared.ErrNotAuthenticated].
func (s *Supervisor) Load(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if code != "" {
		s.transition(Authenticating)
		tok, err := s.auth.ExchangeCode(ctx, code)
		if err != nil {
			s.forceLogout(ctx, "code exchange failed", err)
			return err
		}
		s.authenticated(ctx, *tok)
		return nil
	}

	tok, err := s.store.LoadToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	if tok == nil {
		s.transition(Unauthenticated)
		return shared.ErrNotAuthenticated
	}
	if tok.Valid(s.now()) {
		s.authenticated(ctx, *tok)
		return nil
	}

	s.logger.Info("stored token expired, refreshing")
	return s.refresh(ctx, *tok)
}

// Tick refreshes the token when it expires within the lookahead window.
func (s *Supervisor) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.State() != Authenticated {
		return nil
	}
	tok, ok := s.session.CurrentToken()
	if !ok || !tok.ExpiresWithin(s.now(), s.lookahead) {
		return nil
	}
	return s.refresh(ctx, tok)
}

// Run calls [Supervisor.Tick] every check interval until ctx is done.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.Warn("token check failed", "error", err)
			}
		}
	}
}

// Logout tears down playback, clears the stored token and resets the session.
func (s *Supervisor) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logout(ctx)
}

func (s *Supervisor) refresh(ctx context.Context, tok models.Token) error {
	s.transition(Refreshing)
	next, err := s.auth.Refresh(ctx, tok.RefreshToken)
	if err != nil {
		s.forceLogout(ctx, "token refresh failed", err)
		return err
	}
	s.authenticated(ctx, *next)
	s.logger.Debug("token refreshed", "expires_at", next.ExpiresAt)
	return nil
}

func (s *Supervisor) authenticated(ctx context.Context, tok models.Token) {
	s.session.setToken(tok)
	s.transition(Authenticated)

	if s.profiles == nil {
		return
	}
	profile, err := s.profiles.Profile(ctx)
	if err != nil {
		s.logger.Warn("failed to load profile", "error", err)
		return
	}
	s.session.setProfile(profile)
	if s.player != nil {
		s.player.SetAccount(profile)
	}
}

func (s *Supervisor) forceLogout(ctx context.Context, reason string, cause error) {
	s.logger.Warn("ending session", "reason", reason, "error", cause)
	if err := s.logout(ctx); err != nil {
		s.logger.Error("logout failed", "error", err)
	}
}

func (s *Supervisor) logout(ctx context.Context) error {
	if s.player != nil {
		s.player.Teardown()
	}

	err := s.store.ClearToken(ctx)
	s.session.Teardown()
	s.notify(Unauthenticated)
	if err != nil {
		return fmt.Errorf("failed to clear stored token: %w", err)
	}
	return nil
}

func (s *Supervisor) transition(st State) {
	s.session.setState(st)
	s.notify(st)
}

func (s *Supervisor) notify(st State) {
	if s.onChange != nil {
		s.onChange(st)
	}
}
