package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/aero/internal/models"
)

// SessionRepository implements [models.TokenStore] on SQLite.
type SessionRepository struct {
	db *sql.DB
}

var _ models.TokenStore = (*SessionRepository)(nil)

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// LoadToken returns the stored token, or nil when no access token or expiry is stored.
func (r *SessionRepository) LoadToken(ctx context.Context) (*models.Token, error) {
	values, err := readKeys(ctx, r.db, tokenKeys...)
	if err != nil {
		return nil, err
	}

	access, ok := values[KeyAccessToken]
	if !ok || access == "" {
		return nil, nil
	}
	rawExpiry, ok := values[KeyTokenExpiry]
	if !ok {
		return nil, nil
	}

	ms, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid stored token expiry %q: %w", rawExpiry, err)
	}

	return &models.Token{
		AccessToken:  access,
		RefreshToken: values[KeyRefreshToken],
		ExpiresAt:    time.UnixMilli(ms),
	}, nil
}

// SaveToken writes the access token, expiry and refresh token in one transaction.
func (r *SessionRepository) SaveToken(ctx context.Context, token models.Token) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := upsert(ctx, tx, KeyAccessToken, token.AccessToken); err != nil {
			return err
		}
		if err := upsert(ctx, tx, KeyTokenExpiry, strconv.FormatInt(token.ExpiresAtEpochMs(), 10)); err != nil {
			return err
		}
		return upsert(ctx, tx, KeyRefreshToken, token.RefreshToken)
	})
}

// ClearToken deletes all three token keys in one transaction.
func (r *SessionRepository) ClearToken(ctx context.Context) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, key := range tokenKeys {
			if err := remove(ctx, tx, key); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadPendingAuth returns the stored PKCE verifier, or nil when no login is in progress.
func (r *SessionRepository) LoadPendingAuth(ctx context.Context) (*models.PendingAuth, error) {
	values, err := readKeys(ctx, r.db, KeyCodeVerifier)
	if err != nil {
		return nil, err
	}
	v, ok := values[KeyCodeVerifier]
	if !ok || v == "" {
		return nil, nil
	}
	return &models.PendingAuth{CodeVerifier: v}, nil
}

// SavePendingAuth overwrites any stored verifier.
func (r *SessionRepository) SavePendingAuth(ctx context.Context, p models.PendingAuth) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return upsert(ctx, tx, KeyCodeVerifier, p.CodeVerifier)
	})
}

// ClearPendingAuth discards the stored verifier.
func (r *SessionRepository) ClearPendingAuth(ctx context.Context) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return remove(ctx, tx, KeyCodeVerifier)
	})
}
