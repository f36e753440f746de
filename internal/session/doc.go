// Package session owns the signed-in state shared by every other component.
//
// A [Session] holds the current token, identity and authentication state. It is created once by the host
// and passed to the API clients (as an [oauth2.TokenSource]) and to the [Supervisor], which is the only
// writer. [Session.Teardown] clears every field.
//
// The [Supervisor] moves the session through Unauthenticated, Authenticating, Authenticated and Refreshing.
// Every failed token operation takes the same path: the player is torn down, the stored token is cleared
// and the session is reset.
package session
