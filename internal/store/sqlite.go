package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single-writer engine; keep the pool at one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// RegisterOrTouch inserts the user with auto_sit enabled, or refreshes
// chat_id and last_seen_at when the row already exists. The opt-in flag is
// never reset by a touch.
func (r *SQLiteRepo) RegisterOrTouch(ctx context.Context, userID, chatID int64) error {
	now := time.Now().UTC().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, chat_id, last_seen_at, auto_sit)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(user_id) DO UPDATE SET
			chat_id      = excluded.chat_id,
			last_seen_at = excluded.last_seen_at`,
		userID, chatID, now,
	)
	return err
}

// Get returns a registered user or ErrNotFound.
func (r *SQLiteRepo) Get(ctx context.Context, userID int64) (*RegisteredUser, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, chat_id, last_seen_at, auto_sit
		FROM users
		WHERE user_id = ?`,
		userID,
	)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListAll returns every registered user, order unspecified.
func (r *SQLiteRepo) ListAll(ctx context.Context) ([]RegisteredUser, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, chat_id, last_seen_at, auto_sit
		FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []RegisteredUser
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// SetAutoSit toggles participation in the morning auto-sit sweep.
func (r *SQLiteRepo) SetAutoSit(ctx context.Context, userID int64, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET auto_sit = ?
		WHERE user_id = ?`,
		boolToInt(enabled), userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(scan func(dest ...any) error) (*RegisteredUser, error) {
	var (
		userID   int64
		chatID   int64
		lastSeen int64
		autoSit  int
	)
	if err := scan(&userID, &chatID, &lastSeen, &autoSit); err != nil {
		return nil, err
	}
	return &RegisteredUser{
		UserID:     userID,
		ChatID:     chatID,
		LastSeenAt: time.Unix(lastSeen, 0).UTC(),
		AutoSit:    autoSit != 0,
	}, nil
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
