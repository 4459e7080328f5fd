package session

import (
	"errors"
	"sync"
	"time"

	"github.com/123hi123/tg-standup-bot/internal/clock"
	"github.com/123hi123/tg-standup-bot/internal/domain"
)

// ErrExists is returned by Create when the user already has an active session.
var ErrExists = errors.New("session already exists")

// Store owns the authoritative user→session map and the per-user settings.
// A single mutex serializes all mutation; Update runs its mutator under that
// lock so each call is one atomic merge.
type Store struct {
	mu       sync.Mutex
	clk      clock.Clock
	defaults domain.Settings
	sessions map[int64]*Session
	settings map[int64]domain.Settings
}

// NewStore creates an empty store. Sessions created later seed their
// durations from defaults unless the user has set their own.
func NewStore(clk clock.Clock, defaults domain.Settings) *Store {
	return &Store{
		clk:      clk,
		defaults: defaults,
		sessions: make(map[int64]*Session),
		settings: make(map[int64]domain.Settings),
	}
}

// Create makes a fresh idle session for the user, seeded from current
// settings. It fails with ErrExists when an active (non-idle) session is
// present; an idle leftover is replaced.
func (st *Store) Create(userID, chatID int64) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if prev, ok := st.sessions[userID]; ok {
		if prev.Status.Active() {
			return Session{}, ErrExists
		}
		prev.stopAllTimers()
	}

	set := st.settingsLocked(userID)
	s := &Session{
		UserID:       userID,
		ChatID:       chatID,
		Status:       domain.StatusIdle,
		SitMinutes:   set.SitMinutes,
		StandMinutes: set.StandMinutes,
	}
	st.sessions[userID] = s
	return *s, nil
}

// Get returns a copy of the user's session.
func (st *Store) Get(userID int64) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Update applies mutate to the live session under the store lock and returns
// the resulting state. The mutator must not call back into the store.
func (st *Store) Update(userID int64, mutate func(*Session)) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		return Session{}, false
	}
	mutate(s)
	return *s, true
}

// Delete stops all of the session's timers and removes it. Stopped timers
// never fire after removal; a callback already in flight finds its status
// check failing instead.
func (st *Store) Delete(userID int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		return false
	}
	s.stopAllTimers()
	delete(st.sessions, userID)
	return true
}

// Snapshot returns copies of all sessions. The slice is safe to iterate while
// the store keeps mutating.
func (st *Store) Snapshot() []Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, *s)
	}
	return out
}

// ElapsedMinutes is floor(now - LastActionTime) in minutes, 0 when the
// session has no recorded action yet. It takes no lock and is safe to call
// from inside an Update mutator.
func (st *Store) ElapsedMinutes(s Session) int {
	if s.LastActionTime.IsZero() {
		return 0
	}
	elapsed := st.clk.Now().Sub(s.LastActionTime)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}

// Len returns the number of sessions, idle ones included.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// SettingsFor returns the user's effective durations.
func (st *Store) SettingsFor(userID int64) domain.Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.settingsLocked(userID)
}

// SetSettings stores new durations for the user and live-updates any
// existing session. Running timers are left untouched; the new durations
// apply from the next transition.
func (st *Store) SetSettings(userID int64, sitMinutes, standMinutes int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.settings[userID] = domain.Settings{SitMinutes: sitMinutes, StandMinutes: standMinutes}
	if s, ok := st.sessions[userID]; ok {
		s.SitMinutes = sitMinutes
		s.StandMinutes = standMinutes
	}
}

// StopAll stops every session's timers. Called on shutdown.
func (st *Store) StopAll() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, s := range st.sessions {
		s.stopAllTimers()
	}
}

func (st *Store) settingsLocked(userID int64) domain.Settings {
	if set, ok := st.settings[userID]; ok {
		return set
	}
	return st.defaults
}
