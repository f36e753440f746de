// Package auth implements the PKCE authorization code flow for a public client.
//
// [Authenticator.BuildLoginURL] generates a verifier, stores it as [models.PendingAuth] and returns the
// authorization URL carrying the S256 challenge. [Authenticator.ExchangeCode] consumes the stored verifier
// exactly once. [Authenticator.Refresh] trades a refresh token for a new access token, keeping the prior
// refresh token when the provider omits one.
//
// Every token endpoint failure is returned as a [shared.AuthError]; callers treat it as the end of the session.
//
// Starting a second login before the first completes overwrites the stored verifier, so the first
// authorization code can no longer be exchanged. This is a known race and is not special-cased.
package auth
