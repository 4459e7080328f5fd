package session

import (
	"time"

	"github.com/123hi123/tg-standup-bot/internal/clock"
	"github.com/123hi123/tg-standup-bot/internal/domain"
)

// Session is the ephemeral per-user sit/stand record. It lives only for the
// process lifetime and is owned by the Store; all mutation happens inside
// Store.Update so concurrent actions on the same user serialize.
//
// The three timer handles are unexported on purpose: callers arm and stop
// them through the Set*/Stop* methods, which guarantee at most one live
// handle per slot by stopping the previous one first.
type Session struct {
	UserID int64
	ChatID int64
	Status domain.Status

	// Effective durations, seeded from settings at creation and updated in
	// place on a live settings change.
	SitMinutes   int
	StandMinutes int

	// LastActionTime is set by every state-entering transition; elapsed time
	// is always measured against it.
	LastActionTime time.Time

	// LastMessageID is the most recently delivered notification, used for
	// in-place status edits. Zero means nothing delivered yet.
	LastMessageID int

	// IsManualStandup marks a user-triggered early stand, which runs on a
	// fixed override duration instead of StandMinutes.
	IsManualStandup bool

	// NagCount is how many reminder ticks have fired since the current
	// unacknowledged stand-due notification.
	NagCount int

	primary       clock.Timer // one-shot: next scheduled transition
	reminder      clock.Timer // repeating: escalating stand-due nag
	statusUpdater clock.Timer // repeating: live elapsed-time message edit
}

// SetPrimary arms the one-shot transition timer, stopping any previous one.
func (s *Session) SetPrimary(t clock.Timer) {
	s.StopPrimary()
	s.primary = t
}

// StopPrimary stops the one-shot transition timer if armed.
func (s *Session) StopPrimary() {
	if s.primary != nil {
		s.primary.Stop()
		s.primary = nil
	}
}

// SetReminder arms the repeating nag timer, stopping any previous one.
func (s *Session) SetReminder(t clock.Timer) {
	s.StopReminder()
	s.reminder = t
}

// ReminderArmed reports whether a nag timer is live, i.e. a stand-due
// notification is still unacknowledged.
func (s *Session) ReminderArmed() bool {
	return s.reminder != nil
}

// StopReminder stops the repeating nag timer if armed.
func (s *Session) StopReminder() {
	if s.reminder != nil {
		s.reminder.Stop()
		s.reminder = nil
	}
}

// SetStatusUpdater arms the repeating status-edit timer, stopping any
// previous one.
func (s *Session) SetStatusUpdater(t clock.Timer) {
	s.StopStatusUpdater()
	s.statusUpdater = t
}

// StopStatusUpdater stops the repeating status-edit timer if armed.
func (s *Session) StopStatusUpdater() {
	if s.statusUpdater != nil {
		s.statusUpdater.Stop()
		s.statusUpdater = nil
	}
}

func (s *Session) stopAllTimers() {
	s.StopPrimary()
	s.StopReminder()
	s.StopStatusUpdater()
}
