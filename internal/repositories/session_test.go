package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func countKeys(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM session_store").Scan(&n); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	expiry := time.UnixMilli(1_700_000_360_000)

	t.Run("LoadToken Empty", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		token, err := repo.LoadToken(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != nil {
			t.Errorf("expected nil token, got %+v", token)
		}
	})

	t.Run("SaveToken And LoadToken", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)

		want := models.Token{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: expiry}
		if err := repo.SaveToken(ctx, want); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		got, err := repo.LoadToken(ctx)
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}
		if got.AccessToken != "access" || got.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", got)
		}
		if !got.ExpiresAt.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, got.ExpiresAt)
		}

		var raw string
		if err := db.QueryRow("SELECT value FROM session_store WHERE key = ?", KeyTokenExpiry).Scan(&raw); err != nil {
			t.Fatalf("failed to read expiry row: %v", err)
		}
		if raw != "1700000360000" {
			t.Errorf("expected expiry stored as epoch ms string, got %q", raw)
		}
	})

	t.Run("SaveToken Overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)

		_ = repo.SaveToken(ctx, models.Token{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: expiry})
		_ = repo.SaveToken(ctx, models.Token{AccessToken: "a2", RefreshToken: "r1", ExpiresAt: expiry.Add(time.Hour)})

		got, err := repo.LoadToken(ctx)
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}
		if got.AccessToken != "a2" {
			t.Errorf("expected a2, got %s", got.AccessToken)
		}
		if countKeys(t, db) != 3 {
			t.Errorf("expected exactly three token rows, got %d", countKeys(t, db))
		}
	})

	t.Run("ClearToken Removes All Three Keys", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)

		_ = repo.SaveToken(ctx, models.Token{AccessToken: "a", RefreshToken: "r", ExpiresAt: expiry})
		_ = repo.SavePendingAuth(ctx, models.PendingAuth{CodeVerifier: "v"})

		if err := repo.ClearToken(ctx); err != nil {
			t.Fatalf("failed to clear token: %v", err)
		}

		token, err := repo.LoadToken(ctx)
		if err != nil || token != nil {
			t.Errorf("expected no token after clear, got %+v, %v", token, err)
		}
		if countKeys(t, db) != 1 {
			t.Errorf("expected only the verifier row to remain, got %d rows", countKeys(t, db))
		}
	})

	t.Run("Invalid Expiry", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)

		if _, err := db.Exec("INSERT INTO session_store (key, value) VALUES (?, 'a'), (?, 'soon')", KeyAccessToken, KeyTokenExpiry); err != nil {
			t.Fatalf("failed to seed rows: %v", err)
		}
		if _, err := repo.LoadToken(ctx); err == nil {
			t.Error("expected error for non-numeric expiry")
		}
	})

	t.Run("PendingAuth Lifecycle", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if p, err := repo.LoadPendingAuth(ctx); err != nil || p != nil {
			t.Fatalf("expected no pending auth, got %+v, %v", p, err)
		}

		_ = repo.SavePendingAuth(ctx, models.PendingAuth{CodeVerifier: "first"})
		_ = repo.SavePendingAuth(ctx, models.PendingAuth{CodeVerifier: "second"})

		p, err := repo.LoadPendingAuth(ctx)
		if err != nil {
			t.Fatalf("failed to load pending auth: %v", err)
		}
		if p.CodeVerifier != "second" {
			t.Errorf("expected second verifier to overwrite first, got %s", p.CodeVerifier)
		}

		if err := repo.ClearPendingAuth(ctx); err != nil {
			t.Fatalf("failed to clear pending auth: %v", err)
		}
		if p, _ := repo.LoadPendingAuth(ctx); p != nil {
			t.Errorf("expected pending auth to be discarded, got %+v", p)
		}
	})
}
