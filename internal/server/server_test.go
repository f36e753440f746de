package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aero/internal/shared"
)

type routesHandler struct {
	routes []string
	hits   int
}

func (h *routesHandler) Routes() []string { return h.routes }

func (h *routesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.hits++
	w.Write([]byte(r.URL.Path))
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Handler Routes", func(t *testing.T) {
		h := &routesHandler{routes: []string{"/player", "/player/ws"}}
		router := NewBasicRouter()
		router.Handler(h)

		for _, path := range h.routes {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != path {
				t.Errorf("expected %s to be served, got %q", path, rec.Body.String())
			}
		}
		if h.hits != 2 {
			t.Errorf("expected 2 hits, got %d", h.hits)
		}
	})

	t.Run("Patterns", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("get", "/ping", http.NotFoundHandler())
		router.Handler(&routesHandler{routes: []string{"/player"}})

		got := strings.Join(router.Patterns(), ",")
		if got != "/player,GET /ping" {
			t.Errorf("unexpected patterns %q", got)
		}
	})

	t.Run("Request Logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		shared.SetLogLevel(logger, log.DebugLevel)

		router := NewBasicRouter()
		router.Use(RequestLogger(logger))
		router.Handle(http.MethodGet, "/logged", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/logged", nil))

		if !strings.Contains(buf.String(), "/logged") {
			t.Errorf("expected request to be logged, got %q", buf.String())
		}
	})
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		status   int
		wantCode string
		wantErr  string
	}{
		{"Success", "?state=s1&code=abc", http.StatusOK, "abc", ""},
		{"Wrong State", "?state=other&code=abc", http.StatusBadRequest, "", "invalid state"},
		{"Denied", "?state=s1&error=access_denied", http.StatusBadRequest, "", "access_denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCallbackHandler("", "s1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DefaultCallbackPath+tt.query, nil))

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}

			result := <-h.Result()
			if result.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, result.Code)
			}
			switch {
			case tt.wantErr == "" && result.Error() != nil:
				t.Errorf("unexpected error: %v", result.Error())
			case tt.wantErr != "" && (result.Error() == nil || !strings.Contains(result.Error().Error(), tt.wantErr)):
				t.Errorf("expected error containing %q, got %v", tt.wantErr, result.Error())
			}
		})
	}

	t.Run("Second Callback Rejected", func(t *testing.T) {
		h := NewCallbackHandler("/auth/callback", "s1")
		if routes := h.Routes(); len(routes) != 1 || routes[0] != "/auth/callback" {
			t.Errorf("unexpected routes %v", routes)
		}

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/callback?state=s1&code=abc", nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?state=s1&code=def", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		if result := <-h.Result(); result.Code != "abc" {
			t.Errorf("expected first code, got %q", result.Code)
		}
		if _, open := <-h.Result(); open {
			t.Error("expected closed channel")
		}
	})
}

func TestServer(t *testing.T) {
	router := NewBasicRouter()
	router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	}))

	srv, err := Start("127.0.0.1:0", router, shared.NewLogger(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("failed to start: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("expected pong, got %q", body)
	}

	srv.Shutdown()
	if err, open := <-srv.Errors(); open || err != nil {
		t.Errorf("expected clean stop, got %v", err)
	}

	if _, err := Start(srv.Addr()+"x", router, shared.NewLogger(&bytes.Buffer{})); err == nil {
		t.Error("expected invalid address to fail")
	}
}
