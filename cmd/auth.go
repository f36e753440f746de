package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/server"
	"github.com/desertthunder/aero/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 2 * time.Minute

// Login runs the PKCE sign-in: it serves the redirect URI locally, opens the authorization page and exchanges the
// returned code.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	st, err := r.newStack()
	if err != nil {
		return err
	}

	redirect, err := url.Parse(r.config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	state := shared.GenerateID()
	loginURL, err := st.auth.BuildLoginURL(ctx, state)
	if err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	callback := server.NewCallbackHandler(redirect.Path, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(logger))
	router.Handler(callback)
	logger.Debug("callback routes", "patterns", router.Patterns())

	srv, err := server.Start(r.config.Server.Addr(), router, logger)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer srv.Shutdown()

	if cmd.Bool("no-browser") {
		r.writePlainln("Open this URL to sign in:\n%s", loginURL)
	} else if err := r.openURL(loginURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlainln("Open this URL to sign in:\n%s", loginURL)
	} else {
		r.writePlainln("Waiting for sign-in in the browser...")
	}

	code, err := waitForCode(ctx, callback, srv, loginTimeout)
	if err != nil {
		return err
	}

	if err := st.supervisor.Load(ctx, code); err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	profile := st.session.Profile()
	r.writePlainln("Signed in as %s.", profile.DisplayName)
	if profile.Product != "" && !profile.Premium() {
		r.writePlain("Playback needs Spotify Premium; this account is %q.\n", profile.Product)
	}
	return nil
}

// waitForCode blocks until the callback delivers a code, the server fails or timeout elapses.
func waitForCode(ctx context.Context, callback *server.CallbackHandler, srv *server.Server, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case result := <-callback.Result():
		if err := result.Error(); err != nil {
			return "", err
		}
		return result.Code, nil
	case err := <-srv.Errors():
		return "", fmt.Errorf("callback server stopped: %v", err)
	case <-ctx.Done():
		return "", fmt.Errorf("%w: no sign-in after %s", shared.ErrTimeout, timeout)
	}
}

// Logout clears the stored token.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	st, err := r.newStack()
	if err != nil {
		return err
	}
	if err := st.supervisor.Logout(ctx); err != nil {
		return err
	}
	return r.writePlainln("Signed out.")
}

// statusReport is the --json form of [Runner.Status].
type statusReport struct {
	Authenticated bool           `json:"authenticated"`
	Profile       models.Profile `json:"profile"`
	Premium       bool           `json:"premium"`
	ExpiresAt     time.Time      `json:"expires_at,omitzero"`
}

// Status loads the stored session, refreshing it when expired, and reports the account.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	st, err := r.newStack()
	if err != nil {
		return err
	}

	report := statusReport{}
	if err := st.supervisor.Load(ctx, ""); err != nil {
		if !errors.Is(err, shared.ErrNotAuthenticated) && !shared.IsAuthError(err) {
			return err
		}
	} else {
		report.Authenticated = true
		report.Profile = st.session.Profile()
		report.Premium = report.Profile.Premium()
		if tok, ok := st.session.CurrentToken(); ok {
			report.ExpiresAt = tok.ExpiresAt
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	if !report.Authenticated {
		return r.writePlainln("Not signed in. Run `aero login`.")
	}

	tier := "free"
	if report.Premium {
		tier = "premium"
	}
	r.writePlainln("Signed in as %s (%s)", report.Profile.DisplayName, tier)
	return r.writePlain("Token expires %s\n", report.ExpiresAt.Local().Format(time.RFC1123))
}
