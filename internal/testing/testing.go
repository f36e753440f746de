// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/desertthunder/aero/internal/models"
)

// MemoryStore is an in-memory [models.TokenStore].
type MemoryStore struct {
	mu      sync.Mutex
	token   *models.Token
	pending *models.PendingAuth

	// Err, when set, is returned by every method.
	Err error
	// Saves counts successful SaveToken calls.
	Saves int
	// Clears counts successful ClearToken calls.
	Clears int
}

var _ models.TokenStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with token, which may be nil.
func NewMemoryStore(token *models.Token) *MemoryStore {
	s := &MemoryStore{}
	if token != nil {
		t := *token
		s.token = &t
	}
	return s
}

func (s *MemoryStore) LoadToken(ctx context.Context) (*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.token == nil {
		return nil, nil
	}
	t := *s.token
	return &t, nil
}

func (s *MemoryStore) SaveToken(ctx context.Context, token models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.token = &token
	s.Saves++
	return nil
}

func (s *MemoryStore) ClearToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.token = nil
	s.Clears++
	return nil
}

func (s *MemoryStore) LoadPendingAuth(ctx context.Context) (*models.PendingAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.pending == nil {
		return nil, nil
	}
	p := *s.pending
	return &p, nil
}

func (s *MemoryStore) SavePendingAuth(ctx context.Context, p models.PendingAuth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.pending = &p
	return nil
}

func (s *MemoryStore) ClearPendingAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.pending = nil
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}
