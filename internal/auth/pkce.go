package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/shared"
	"golang.org/x/oauth2"
)

// Scopes requested at login.
var Scopes = []string{
	"streaming",
	"user-read-private",
	"user-read-currently-playing",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-library-read",
	"user-library-modify",
	"playlist-read-private",
	"playlist-modify-public",
	"playlist-modify-private",
	"ugc-image-upload",
	"user-top-read",
	"user-follow-modify",
	"user-follow-read",
}

// Authenticator runs the PKCE flow against the accounts service and persists results in a [models.TokenStore].
type Authenticator struct {
	config *oauth2.Config
	store  models.TokenStore
	client *http.Client
	now    func() time.Time
	logger *log.Logger
}

// Option configures an [Authenticator].
type Option func(*Authenticator)

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Authenticator) { a.client = c }
}

// WithClock overrides the time source used to compute expiries.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Authenticator) { a.logger = l }
}

// New creates an [Authenticator] for the public client described by cfg.
func New(cfg shared.SpotifyConfig, store models.TokenStore, opts ...Option) *Authenticator {
	a := &Authenticator{
		config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL(),
				TokenURL:  cfg.TokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:  store,
		client: http.DefaultClient,
		now:    time.Now,
		logger: shared.NewLogger(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Challenge derives the S256 code challenge for verifier: base64url(SHA-256(verifier)) without padding.
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// BuildLoginURL generates a fresh verifier, stores it (overwriting any previous one) and returns the authorization URL.
//
// state is echoed back on the callback; an empty state is omitted.
func (a *Authenticator) BuildLoginURL(ctx context.Context, state string) (string, error) {
	verifier := oauth2.GenerateVerifier()
	if err := a.store.SavePendingAuth(ctx, models.PendingAuth{CodeVerifier: verifier}); err != nil {
		return "", fmt.Errorf("failed to store code verifier: %w", err)
	}
	return a.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// ExchangeCode trades an authorization code for a token using the stored verifier.
//
// On success the token is persisted and the verifier discarded.
func (a *Authenticator) ExchangeCode(ctx context.Context, code string) (*models.Token, error) {
	pending, err := a.store.LoadPendingAuth(ctx)
	if err != nil {
		return nil, &shared.AuthError{Kind: shared.ExchangeFailed, Err: fmt.Errorf("failed to load code verifier: %w", err)}
	}
	if pending == nil {
		return nil, &shared.AuthError{Kind: shared.ExchangeFailed, Err: shared.ErrNoPendingAuth}
	}

	tok, err := a.config.Exchange(a.clientContext(ctx), code, oauth2.VerifierOption(pending.CodeVerifier))
	if err != nil {
		return nil, &shared.AuthError{Kind: shared.ExchangeFailed, Err: err}
	}

	token := a.fromOAuth(tok, "")
	if err := a.store.SaveToken(ctx, token); err != nil {
		return nil, &shared.AuthError{Kind: shared.ExchangeFailed, Err: fmt.Errorf("failed to persist token: %w", err)}
	}

	if err := a.store.ClearPendingAuth(ctx); err != nil {
		a.logger.Warn("failed to discard code verifier", "error", err)
	}

	a.logger.Debug("authorization code exchanged", "expires_at", token.ExpiresAt)
	return &token, nil
}

// Refresh trades refreshToken for a new access token and persists the result.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*models.Token, error) {
	if refreshToken == "" {
		return nil, &shared.AuthError{Kind: shared.RefreshFailed, Err: shared.ErrNoRefreshToken}
	}

	src := a.config.TokenSource(a.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, &shared.AuthError{Kind: shared.RefreshFailed, Err: err}
	}

	token := a.fromOAuth(tok, refreshToken)
	if err := a.store.SaveToken(ctx, token); err != nil {
		return nil, &shared.AuthError{Kind: shared.RefreshFailed, Err: fmt.Errorf("failed to persist token: %w", err)}
	}

	a.logger.Debug("access token refreshed", "expires_at", token.ExpiresAt)
	return &token, nil
}

func (a *Authenticator) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.client)
}

// fromOAuth computes the absolute expiry as now + expires_in and keeps prior when no refresh token was returned.
func (a *Authenticator) fromOAuth(tok *oauth2.Token, prior string) models.Token {
	expiresAt := tok.Expiry
	if tok.ExpiresIn > 0 {
		expiresAt = a.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = prior
	}

	return models.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}
}
