// package services implements the Web API collaborators for the playback session
package services

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Requester is the verb+path+body -> JSON contract the playback layer depends on.
type Requester interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// RateLimitedTransport blocks each request until the shared limiter admits it.
type RateLimitedTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// RoundTrip implements [http.RoundTripper].
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewRateLimiter returns a limiter admitting perSecond requests with the given burst. A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// NewHTTPClient returns a client that authorizes every request from src and paces it with limiter.
func NewHTTPClient(src oauth2.TokenSource, limiter *rate.Limiter) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: src,
			Base:   &RateLimitedTransport{Base: http.DefaultTransport, Limiter: limiter},
		},
	}
}
