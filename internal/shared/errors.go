package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoPendingAuth    = fmt.Errorf("no pending authorization: login was not started")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Playback errors
	ErrPremiumRequired = fmt.Errorf("premium account required")
	ErrPlayerClosed    = fmt.Errorf("player is not connected")

	// API and service errors
	ErrAPIRequest     = fmt.Errorf("API request failed")
	ErrTrackNotFound  = fmt.Errorf("track not found")
	ErrDeviceNotFound = fmt.Errorf("device not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// AuthErrorKind classifies token endpoint failures.
type AuthErrorKind int

const (
	ExchangeFailed AuthErrorKind = iota
	RefreshFailed
)

func (k AuthErrorKind) String() string {
	switch k {
	case ExchangeFailed:
		return "exchange failed"
	case RefreshFailed:
		return "refresh failed"
	default:
		return "unknown"
	}
}

// AuthError is returned by the authenticator when a code exchange or refresh does not produce a token.
// Callers treat any AuthError as a dead session.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + e.Kind.String()
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// CommandErrorKind classifies playback command failures.
type CommandErrorKind int

const (
	NoDevice CommandErrorKind = iota
	RemoteRejected
	NetworkFailure
)

func (k CommandErrorKind) String() string {
	switch k {
	case NoDevice:
		return "no device"
	case RemoteRejected:
		return "remote rejected"
	case NetworkFailure:
		return "network failure"
	default:
		return "unknown"
	}
}

// PlaybackCommandError describes a command that did not reach or was refused by the device.
type PlaybackCommandError struct {
	Kind    CommandErrorKind
	Command string
	Status  int
	Err     error
}

func (e *PlaybackCommandError) Error() string {
	msg := fmt.Sprintf("playback %s: %s", e.Command, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *PlaybackCommandError) Unwrap() error { return e.Err }

// ConnectionErrorKind classifies vendor player connection failures.
type ConnectionErrorKind int

const (
	InitFailed ConnectionErrorKind = iota
	AuthFailed
	AccountRestricted
)

func (k ConnectionErrorKind) String() string {
	switch k {
	case InitFailed:
		return "initialization failed"
	case AuthFailed:
		return "authentication failed"
	case AccountRestricted:
		return "account restricted"
	default:
		return "unknown"
	}
}

// ConnectionError is a non-fatal player status. There is no reconnect loop.
type ConnectionError struct {
	Kind    ConnectionErrorKind
	Message string
}

func (e *ConnectionError) Error() string {
	if e.Message == "" {
		return "player: " + e.Kind.String()
	}
	return fmt.Sprintf("player: %s: %s", e.Kind, e.Message)
}

// IsAuthError reports whether err carries an [AuthError].
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// CommandErrorKindOf returns the kind of a [PlaybackCommandError] in err's chain.
func CommandErrorKindOf(err error) (CommandErrorKind, bool) {
	var pe *PlaybackCommandError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
