package playback

import (
	"context"
	"sync"

	"github.com/desertthunder/aero/internal/models"
	"golang.org/x/oauth2"
)

type fakePlayer struct {
	Listeners

	mu          sync.Mutex
	opts        VendorOptions
	connectOK   bool
	connectErr  error
	err         error
	connects    int
	disconnects int
	volumes     []float64
	seeks       []int
}

func (p *fakePlayer) Connect(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connects++
	return p.connectOK, p.connectErr
}

func (p *fakePlayer) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnects++
}

func (p *fakePlayer) SetVolume(ctx context.Context, v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumes = append(p.volumes, v)
	return p.err
}

func (p *fakePlayer) Seek(ctx context.Context, ms int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, ms)
	return p.err
}

func (p *fakePlayer) AddListener(kind EventKind, l Listener) func() {
	return p.Add(kind, l)
}

type request struct {
	method string
	path   string
	body   any
}

type fakeRequester struct {
	mu    sync.Mutex
	calls []request
	err   error
}

func (f *fakeRequester) Do(ctx context.Context, method, path string, body, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, request{method: method, path: path, body: body})
	return f.err
}

func (f *fakeRequester) requests() []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]request(nil), f.calls...)
}

type tokenFunc func() (*oauth2.Token, error)

func (f tokenFunc) Token() (*oauth2.Token, error) { return f() }

type fakeCommander struct {
	mu    sync.Mutex
	cmds  []Command
	errFn func(Command) error
}

func (f *fakeCommander) IssueCommand(ctx context.Context, cmd Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	if f.errFn != nil {
		return f.errFn(cmd)
	}
	return nil
}

func (f *fakeCommander) issued() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.cmds...)
}

type fakeLibrary struct {
	mu      sync.Mutex
	liked   map[string]bool
	err     error
	queries int
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{liked: make(map[string]bool)}
}

func (f *fakeLibrary) IsLiked(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	return f.liked[id], f.err
}

func (f *fakeLibrary) SaveLiked(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.liked[id] = true
	return nil
}

func (f *fakeLibrary) RemoveLiked(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.liked, id)
	return nil
}

func trackPtr(t models.Track) *models.Track { return &t }
