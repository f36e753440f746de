// Package repositories implements SQLite persistence for session credentials.
//
// [SessionRepository] implements [models.TokenStore] over a single key/value table (session_store).
// The keys match the browser storage names used by the web player: token, tokenExpiry and refresh_token,
// plus code_verifier for an in-progress PKCE login. Token writes and clears touch all three token keys in
// one transaction so readers never observe a partial credential set.
package repositories
