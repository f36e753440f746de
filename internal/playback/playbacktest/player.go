// Package playbacktest provides a recording vendor player for tests of code built on the playback package.
package playbacktest

import (
	"context"
	"sync"

	"github.com/desertthunder/aero/internal/playback"
)

// FakePlayer is a [playback.VendorPlayer] that records calls. Tests drive it with Emit.
type FakePlayer struct {
	playback.Listeners

	mu          sync.Mutex
	options     playback.VendorOptions
	connects    int
	disconnects int
	volumes     []float64
	seeks       []int

	// ConnectOK is returned by Connect.
	ConnectOK bool
	// Err, when set, is returned by Connect, SetVolume and Seek.
	Err error
}

var _ playback.VendorPlayer = (*FakePlayer)(nil)

// Factory returns a [playback.VendorFactory] that always yields p.
func (p *FakePlayer) Factory() playback.VendorFactory {
	return func(opts playback.VendorOptions) (playback.VendorPlayer, error) {
		p.mu.Lock()
		p.options = opts
		p.mu.Unlock()
		return p, nil
	}
}

func (p *FakePlayer) Connect(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connects++
	return p.ConnectOK, p.Err
}

func (p *FakePlayer) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnects++
}

func (p *FakePlayer) SetVolume(ctx context.Context, v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumes = append(p.volumes, v)
	return p.Err
}

func (p *FakePlayer) Seek(ctx context.Context, ms int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, ms)
	return p.Err
}

func (p *FakePlayer) AddListener(kind playback.EventKind, l playback.Listener) func() {
	return p.Add(kind, l)
}

// Options returns the options passed to the last factory call.
func (p *FakePlayer) Options() playback.VendorOptions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.options
}

// Calls returns the Connect and Disconnect counts.
func (p *FakePlayer) Calls() (connects, disconnects int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects, p.disconnects
}

func (p *FakePlayer) Seeks() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.seeks...)
}

func (p *FakePlayer) Volumes() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.volumes...)
}
