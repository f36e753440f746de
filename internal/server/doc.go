// Package server provides the local HTTP surface: routing, middleware, the OAuth callback and the player bridge pages.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [CallbackHandler] receives the authorization redirect of the PKCE flow. It validates the state parameter
// (CSRF protection) and hands the one-time code to the caller, which exchanges it with the stored verifier.
//
// It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// The device bridge is registered this way so the player page and its websocket share the callback server.
//
// # Lifecycle
//
// [Start] runs a router on the configured address until [Server.Shutdown]. Login keeps it up only until the
// callback arrives; the player keeps it up for the whole session.
package server
