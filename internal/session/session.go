package session

import (
	"sync"

	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/shared"
	"golang.org/x/oauth2"
)

// State is the authentication state of a [Session].
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Session is the process-wide signed-in state.
type Session struct {
	ID string

	mu      sync.RWMutex
	token   *models.Token
	profile models.Profile
	state   State
}

var _ oauth2.TokenSource = (*Session)(nil)

// New creates an unauthenticated session with the default identity.
func New() *Session {
	return &Session{ID: shared.GenerateID(), profile: models.DefaultProfile()}
}

// Token implements [oauth2.TokenSource]. It always returns the latest token, so refreshed
// credentials reach in-flight clients without rebuilding them.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil || s.token.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken:  s.token.AccessToken,
		RefreshToken: s.token.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.token.ExpiresAt,
	}, nil
}

// AccessToken returns the current access token or "".
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// CurrentToken returns a copy of the current token.
func (s *Session) CurrentToken() (models.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return models.Token{}, false
	}
	return *s.token, true
}

func (s *Session) setToken(t models.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = &t
}

func (s *Session) Profile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *Session) setProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// Teardown clears the token, restores the default identity and marks the session unauthenticated.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.profile = models.DefaultProfile()
	s.state = Unauthenticated
}
