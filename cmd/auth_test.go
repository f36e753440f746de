package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/server"
	"github.com/desertthunder/aero/internal/shared"
	tu "github.com/desertthunder/aero/internal/testing"
	"github.com/urfave/cli/v3"
)

// statusRunner returns a runner whose Web API root is a test server answering /me.
func statusRunner(t *testing.T, store *tu.MemoryStore, product string) (*Runner, *bytes.Buffer) {
	t.Helper()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": "ada", "display_name": "Ada", "product": product, "country": "GB",
		})
	}))
	t.Cleanup(api.Close)

	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "client"
	config.Credentials.Spotify.APIURL = api.URL + "/"

	output := &bytes.Buffer{}
	return NewRunner(RunnerOpts{
		Config: config,
		Store:  store,
		Output: output,
		Logger: shared.NewLogger(&bytes.Buffer{}),
	}), output
}

// runAction invokes action through a command carrying the given flags.
func runAction(t *testing.T, action cli.ActionFunc, flags []cli.Flag, args ...string) error {
	t.Helper()
	cmd := &cli.Command{Name: "test", Flags: flags, Action: action}
	return cmd.Run(context.Background(), append([]string{"test"}, args...))
}

func TestStatus(t *testing.T) {
	flags := []cli.Flag{&cli.BoolFlag{Name: "json"}, &cli.BoolFlag{Name: "pretty"}}
	valid := &models.Token{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("not signed in", func(t *testing.T) {
		runner, output := statusRunner(t, tu.NewMemoryStore(nil), "premium")

		if err := runAction(t, runner.Status, flags); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Not signed in") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("signed in", func(t *testing.T) {
		runner, output := statusRunner(t, tu.NewMemoryStore(valid), "premium")

		if err := runAction(t, runner.Status, flags); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Signed in as Ada (premium)") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		runner, output := statusRunner(t, tu.NewMemoryStore(valid), "free")

		if err := runAction(t, runner.Status, flags, "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var report statusReport
		if err := json.Unmarshal(output.Bytes(), &report); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", output.String(), err)
		}
		if !report.Authenticated {
			t.Error("expected authenticated report")
		}
		if report.Premium {
			t.Error("expected free account")
		}
		if report.Profile.DisplayName != "Ada" || report.Profile.Country != "GB" {
			t.Errorf("unexpected profile %+v", report.Profile)
		}
		if !report.ExpiresAt.Equal(valid.ExpiresAt) {
			t.Errorf("expected expiry %v, got %v", valid.ExpiresAt, report.ExpiresAt)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store := tu.NewMemoryStore(nil)
		store.Err = errors.New("disk gone")
		runner, _ := statusRunner(t, store, "premium")

		err := runAction(t, runner.Status, flags)
		if err == nil || !strings.Contains(err.Error(), "disk gone") {
			t.Errorf("expected store error, got %v", err)
		}
	})

	t.Run("missing client id", func(t *testing.T) {
		runner, _ := statusRunner(t, tu.NewMemoryStore(nil), "premium")
		runner.config.Credentials.Spotify.ClientID = ""

		err := runAction(t, runner.Status, flags)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestLogout(t *testing.T) {
	store := tu.NewMemoryStore(&models.Token{AccessToken: "access", ExpiresAt: time.Now().Add(time.Hour)})
	runner, output := statusRunner(t, store, "premium")

	if err := runAction(t, runner.Logout, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.Clears != 1 {
		t.Errorf("expected token to be cleared once, got %d", store.Clears)
	}
	if tok, _ := store.LoadToken(context.Background()); tok != nil {
		t.Errorf("expected no stored token, got %+v", tok)
	}
	if !strings.Contains(output.String(), "Signed out.") {
		t.Errorf("unexpected output %q", output.String())
	}
}

func TestWaitForCode(t *testing.T) {
	start := func(t *testing.T) *server.Server {
		t.Helper()
		srv, err := server.Start("127.0.0.1:0", http.NotFoundHandler(), shared.NewLogger(&bytes.Buffer{}))
		if err != nil {
			t.Fatalf("failed to start server: %v", err)
		}
		t.Cleanup(srv.Shutdown)
		return srv
	}

	t.Run("returns the code", func(t *testing.T) {
		callback := server.NewCallbackHandler("", "state")
		callback.Send(server.CallbackResult{Code: "abc"})

		code, err := waitForCode(context.Background(), callback, start(t), time.Second)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if code != "abc" {
			t.Errorf("expected abc, got %s", code)
		}
	})

	t.Run("times out", func(t *testing.T) {
		callback := server.NewCallbackHandler("", "state")

		_, err := waitForCode(context.Background(), callback, start(t), 20*time.Millisecond)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("rejected callback", func(t *testing.T) {
		callback := server.NewCallbackHandler("", "state")
		req := httptest.NewRequest(http.MethodGet, "/callback?state=state&error=access_denied", nil)
		callback.ServeHTTP(httptest.NewRecorder(), req)

		_, err := waitForCode(context.Background(), callback, start(t), time.Second)
		if err == nil || !strings.Contains(err.Error(), "access_denied") {
			t.Errorf("expected access_denied error, got %v", err)
		}
	})
}
