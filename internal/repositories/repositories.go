// package repositories provides persistence layer implementations for session state.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Storage keys in the session_store table.
const (
	KeyAccessToken  = "token"
	KeyTokenExpiry  = "tokenExpiry"
	KeyRefreshToken = "refresh_token"
	KeyCodeVerifier = "code_verifier"
)

// tokenKeys is the set written and cleared together.
var tokenKeys = []string{KeyAccessToken, KeyTokenExpiry, KeyRefreshToken}

// withTx runs fn inside a transaction, committing when fn returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// readKeys returns the stored values for keys. Missing keys are absent from the map.
func readKeys(ctx context.Context, db *sql.DB, keys ...string) (map[string]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := db.QueryContext(ctx, "SELECT key, value FROM session_store WHERE key IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session store: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		values[k] = v
	}
	return values, rows.Err()
}

func upsert(ctx context.Context, tx *sql.Tx, key, value string) error {
	query := `
		INSERT INTO session_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func remove(ctx context.Context, tx *sql.Tx, key string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM session_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
