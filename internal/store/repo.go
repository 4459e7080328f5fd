package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a user has never interacted with the bot.
var ErrNotFound = errors.New("user not registered")

// RegisteredUser is the durable record consulted by the workday sweep.
type RegisteredUser struct {
	UserID     int64
	ChatID     int64
	LastSeenAt time.Time
	AutoSit    bool
}

// Repo defines registry storage. Callers treat write failures as non-fatal:
// the in-memory session state stays authoritative for the process lifetime.
type Repo interface {
	// RegisterOrTouch creates the user with auto-sit enabled on first
	// contact, or refreshes chat destination and last-seen time.
	RegisterOrTouch(ctx context.Context, userID, chatID int64) error
	Get(ctx context.Context, userID int64) (*RegisteredUser, error)
	ListAll(ctx context.Context) ([]RegisteredUser, error)
	SetAutoSit(ctx context.Context, userID int64, enabled bool) error
	Close() error
}
