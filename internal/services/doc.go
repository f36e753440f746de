// Package services talks to the streaming provider's Web API.
//
// # Remote API Client
//
// [Client] is the single authorized HTTP client for playback and library calls. It exposes verb+path+body
// semantics through [Client.Do]; JSON bodies are encoded on the way out and decoded on the way in. Any
// non-2xx status becomes an [*APIError] carrying the status code so callers can tell a rejected command
// from a network failure.
//
// The bearer token is not captured by the client. [NewHTTPClient] wraps an [oauth2.TokenSource] in an
// [oauth2.Transport], so every request reads the session's current token and a mid-session refresh is
// picked up without rebuilding anything.
//
// # Library
//
// Liked-songs endpoints (contains, save, remove) are thin wrappers over [Client.Do].
//
// # Catalog
//
// [Catalog] uses the typed zmb3/spotify client for reads that build playback queues: playlist items,
// album tracks, liked songs, artist top tracks, single tracks and the current user's profile.
//
// # Rate Limiting
//
// Outbound requests share one [rate.Limiter] through [RateLimitedTransport], mirroring how bulk jobs pace
// provider calls.
package services
