package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/123hi123/tg-standup-bot/internal/clock"
	"github.com/123hi123/tg-standup-bot/internal/domain"
	"github.com/123hi123/tg-standup-bot/internal/metrics"
	"github.com/123hi123/tg-standup-bot/internal/session"
	"github.com/123hi123/tg-standup-bot/internal/store"
)

const (
	// A manual early stand is assumed to be a short break; the configured
	// stand duration does not apply to it.
	manualStandDuration = 10 * time.Minute
	// How long a sit-due notification may go unanswered before the cycle is
	// forced back to sitting.
	sitGraceWindow = 5 * time.Minute

	nagInterval        = time.Minute
	statusRefreshEvery = time.Minute
)

var (
	ErrNotStarted    = errors.New("timer not started")
	ErrAlreadyActive = errors.New("timer already running")
)

// Tracker is the sit/stand state machine engine. Every inbound action and
// every timer firing funnels through it; per-user serialization comes from
// the session store's atomic updates.
type Tracker struct {
	log      *zap.Logger
	clk      clock.Clock
	sessions *session.Store
	registry store.Repo
	notifier Notifier
	metrics  *metrics.Metrics
}

func New(log *zap.Logger, clk clock.Clock, sessions *session.Store, registry store.Repo, notifier Notifier, m *metrics.Metrics) *Tracker {
	return &Tracker{
		log:      log,
		clk:      clk,
		sessions: sessions,
		registry: registry,
		notifier: notifier,
		metrics:  m,
	}
}

// Start begins a sitting stretch for a manual /start. Returns
// ErrAlreadyActive when a cycle is already running.
func (t *Tracker) Start(ctx context.Context, userID, chatID int64) error {
	if _, err := t.sessions.Create(userID, chatID); err != nil {
		return ErrAlreadyActive
	}
	t.touchRegistry(ctx, userID, chatID)
	t.syncGauge()

	s, entered := t.enterSitting(userID, func(st domain.Status) bool { return st == domain.StatusIdle })
	if !entered {
		return ErrAlreadyActive
	}
	t.metrics.Transitions.WithLabelValues("start").Inc()
	t.deliver("start", userID, s.ChatID, fmt.Sprintf(startFmt, s.SitMinutes), standEarlyButtons())
	return nil
}

// AutoStart is the morning sweep's start action: create a session when
// absent and enter Sitting unless the user already sits. Already-sitting
// users are left alone with no notification.
func (t *Tracker) AutoStart(ctx context.Context, userID, chatID int64) error {
	if s, ok := t.sessions.Get(userID); ok && s.Status == domain.StatusSitting {
		return nil
	}
	if _, ok := t.sessions.Get(userID); !ok {
		if _, err := t.sessions.Create(userID, chatID); err != nil {
			return err
		}
	}
	t.touchRegistry(ctx, userID, chatID)
	t.syncGauge()

	s, entered := t.enterSitting(userID, func(st domain.Status) bool { return st != domain.StatusSitting })
	if !entered {
		return nil
	}
	t.metrics.Transitions.WithLabelValues("auto_start").Inc()
	t.deliver("auto_start", userID, s.ChatID, fmt.Sprintf(autoStartFmt, s.SitMinutes), standEarlyButtons())
	return nil
}

// StandEarly handles the stand-up button pressed before the sit timer is
// due. The stand runs on the fixed override duration, not the configured
// stand minutes.
func (t *Tracker) StandEarly(userID int64) error {
	moved := false
	elapsed := 0
	s, ok := t.sessions.Update(userID, func(s *session.Session) {
		if s.Status != domain.StatusSitting {
			return
		}
		moved = true
		elapsed = t.sessions.ElapsedMinutes(*s)
		s.StopReminder()
		s.Status = domain.StatusStanding
		s.LastActionTime = t.clk.Now()
		s.IsManualStandup = true
		s.NagCount = 0
		s.SetPrimary(t.clk.AfterFunc(manualStandDuration, func() { t.onStandDue(userID) }))
		s.SetStatusUpdater(t.clk.Every(statusRefreshEvery, func() { t.refreshStatus(userID) }))
	})
	if !ok || !moved {
		return ErrNotStarted
	}
	t.metrics.Transitions.WithLabelValues("stand_early").Inc()
	t.deliver("stand_early", userID, s.ChatID,
		fmt.Sprintf(manualStandFmt, elapsed, int(manualStandDuration/time.Minute)), sitDownButtons())
	return nil
}

// AckStand handles the stand-up acknowledgement on a stand-due notification:
// the nag stops and the configured stand stretch begins.
func (t *Tracker) AckStand(userID int64) error {
	acked := false
	s, ok := t.sessions.Update(userID, func(s *session.Session) {
		if s.Status != domain.StatusStanding {
			return
		}
		acked = true
		s.StopReminder()
		s.LastActionTime = t.clk.Now()
		s.IsManualStandup = false
		s.NagCount = 0
		s.SetPrimary(t.clk.AfterFunc(time.Duration(s.StandMinutes)*time.Minute, func() { t.onStandDue(userID) }))
		s.SetStatusUpdater(t.clk.Every(statusRefreshEvery, func() { t.refreshStatus(userID) }))
	})
	if !ok || !acked {
		return ErrNotStarted
	}
	t.metrics.Transitions.WithLabelValues("stand_ack").Inc()
	t.deliver("stand_ack", userID, s.ChatID,
		fmt.Sprintf(standAckFmt, s.SitMinutes, s.StandMinutes), sitDownButtons())
	return nil
}

// SitDown handles the sit-down button while standing.
func (t *Tracker) SitDown(userID int64) error {
	s, entered := t.enterSitting(userID, func(st domain.Status) bool { return st == domain.StatusStanding })
	if !entered {
		return ErrNotStarted
	}
	t.metrics.Transitions.WithLabelValues("sit_down").Inc()
	t.deliver("sit_down", userID, s.ChatID, fmt.Sprintf(startFmt, s.SitMinutes), standEarlyButtons())
	return nil
}

// Stop ends the cycle and removes the session with all its timers.
func (t *Tracker) Stop(userID int64) error {
	s, ok := t.sessions.Get(userID)
	if !ok || !s.Status.Active() {
		return ErrNotStarted
	}
	// Delete decides who ends the session when a stop races the end-of-day
	// sweep; only the winner notifies.
	if !t.sessions.Delete(userID) {
		return ErrNotStarted
	}
	t.syncGauge()
	t.metrics.Transitions.WithLabelValues("stop").Inc()
	t.send("stopped", userID, s.ChatID, stoppedText, nil)
	return nil
}

// ForceStop is the end-of-day sweep's stop. Reports whether a session was
// actually ended.
func (t *Tracker) ForceStop(userID int64) bool {
	s, ok := t.sessions.Get(userID)
	if !ok || !s.Status.Active() {
		return false
	}
	if !t.sessions.Delete(userID) {
		return false
	}
	t.syncGauge()
	t.metrics.Transitions.WithLabelValues("forced_stop").Inc()
	t.send("workday_over", userID, s.ChatID, workdayOverText, nil)
	return true
}

// Status returns the current state and elapsed minutes since the last
// state-entering action.
func (t *Tracker) Status(userID int64) (domain.Status, int, error) {
	s, ok := t.sessions.Get(userID)
	if !ok || !s.Status.Active() {
		return domain.StatusIdle, 0, ErrNotStarted
	}
	return s.Status, t.sessions.ElapsedMinutes(s), nil
}

// UpdateSettings validates and stores new durations. A live session picks
// them up in place; the currently running timer keeps its schedule and the
// new durations apply from the next transition.
func (t *Tracker) UpdateSettings(userID int64, sitMinutes, standMinutes int) error {
	if sitMinutes < 1 || standMinutes < 1 {
		return domain.ErrInvalidSettings
	}
	t.sessions.SetSettings(userID, sitMinutes, standMinutes)
	return nil
}

// Settings returns the user's effective durations.
func (t *Tracker) Settings(userID int64) domain.Settings {
	return t.sessions.SettingsFor(userID)
}

// Shutdown stops every session's timers without notifying users.
func (t *Tracker) Shutdown() {
	t.sessions.StopAll()
}

// enterSitting performs the Sitting transition when the gate admits the
// current status: stale timers stopped, action clock reset, sit-due one-shot
// and live status updater armed.
func (t *Tracker) enterSitting(userID int64, gate func(domain.Status) bool) (session.Session, bool) {
	entered := false
	s, ok := t.sessions.Update(userID, func(s *session.Session) {
		if !gate(s.Status) {
			return
		}
		entered = true
		s.StopReminder()
		s.Status = domain.StatusSitting
		s.LastActionTime = t.clk.Now()
		s.IsManualStandup = false
		s.NagCount = 0
		s.SetPrimary(t.clk.AfterFunc(time.Duration(s.SitMinutes)*time.Minute, func() { t.onSitDue(userID) }))
		s.SetStatusUpdater(t.clk.Every(statusRefreshEvery, func() { t.refreshStatus(userID) }))
	})
	return s, ok && entered
}

// onSitDue fires when the sit stretch is used up: move to Standing and nag
// every minute until the user acknowledges.
func (t *Tracker) onSitDue(userID int64) {
	due := false
	sat := 0
	s, ok := t.sessions.Update(userID, func(s *session.Session) {
		if s.Status != domain.StatusSitting {
			return
		}
		due = true
		sat = s.SitMinutes
		s.StopPrimary()
		s.StopStatusUpdater()
		s.Status = domain.StatusStanding
		s.LastActionTime = t.clk.Now()
		s.IsManualStandup = false
		s.NagCount = 0
		s.SetReminder(t.clk.Every(nagInterval, func() { t.onNag(userID) }))
	})
	if !ok || !due {
		return
	}
	t.metrics.Transitions.WithLabelValues("stand_due").Inc()
	t.deliver("stand_due", userID, s.ChatID, fmt.Sprintf(timeToStandFmt, sat), standAckButtons())
}

// onNag is one tick of the unacknowledged stand-due reminder.
func (t *Tracker) onNag(userID int64) {
	count := 0
	s, ok := t.sessions.Update(userID, func(s *session.Session) {
		if s.Status != domain.StatusStanding || !s.ReminderArmed() {
			return
		}
		s.NagCount++
		count = s.NagCount
	})
	if !ok || count == 0 {
		return
	}
	t.deliver("nag", userID, s.ChatID, fmt.Sprintf(nagFmt, count), standAckButtons())
}

// onStandDue fires when the stand stretch is over: ask the user to sit and
// arm the grace fallback so nobody is left standing forever.
func (t *Tracker) onStandDue(userID int64) {
	due := false
	stood := 0
	s, ok := t.sessions.Update(userID, func(s *session.Session) {
		if s.Status != domain.StatusStanding {
			return
		}
		due = true
		stood = t.sessions.ElapsedMinutes(*s)
		s.SetPrimary(t.clk.AfterFunc(sitGraceWindow, func() { t.onSitGrace(userID) }))
	})
	if !ok || !due {
		return
	}
	t.metrics.Transitions.WithLabelValues("sit_due").Inc()
	t.deliver("sit_due", userID, s.ChatID, fmt.Sprintf(timeToSitFmt, stood), sitDownButtons())
}

// onSitGrace fires when a sit-due notification went unanswered for the whole
// grace window: re-enter Sitting without user input.
func (t *Tracker) onSitGrace(userID int64) {
	s, entered := t.enterSitting(userID, func(st domain.Status) bool { return st == domain.StatusStanding })
	if !entered {
		return
	}
	t.metrics.Transitions.WithLabelValues("forced_sit").Inc()
	t.deliver("forced_sit", userID, s.ChatID, fmt.Sprintf(graceSitFmt, s.SitMinutes), standEarlyButtons())
}

// refreshStatus edits the last notification in place with live elapsed time.
func (t *Tracker) refreshStatus(userID int64) {
	s, ok := t.sessions.Get(userID)
	if !ok || s.LastMessageID == 0 {
		return
	}
	elapsed := t.sessions.ElapsedMinutes(s)
	var text string
	var buttons []Button
	switch s.Status {
	case domain.StatusSitting:
		text = fmt.Sprintf(sittingLiveFmt, elapsed)
		buttons = standEarlyButtons()
	case domain.StatusStanding:
		text = fmt.Sprintf(standingLiveFmt, elapsed)
		buttons = sitDownButtons()
	default:
		return
	}
	if err := t.notifier.Edit(s.ChatID, s.LastMessageID, text, buttons); err != nil {
		t.log.Debug("status edit failed", zap.Int64("userID", userID), zap.Error(err))
		t.metrics.Notifications.WithLabelValues("status_edit", "error").Inc()
		return
	}
	t.metrics.Notifications.WithLabelValues("status_edit", "ok").Inc()
}

// deliver sends a notification and records its message id on the session for
// later in-place edits. Delivery failures are logged and swallowed; the
// state transition is already committed and the next timer fires on
// schedule regardless.
func (t *Tracker) deliver(kind string, userID, chatID int64, text string, buttons []Button) {
	id, err := t.notifier.Send(chatID, text, buttons)
	if err != nil {
		t.log.Warn("notification send failed",
			zap.String("kind", kind), zap.Int64("userID", userID), zap.Error(err))
		t.metrics.Notifications.WithLabelValues(kind, "error").Inc()
		return
	}
	t.metrics.Notifications.WithLabelValues(kind, "ok").Inc()
	t.sessions.Update(userID, func(s *session.Session) { s.LastMessageID = id })
}

// send is deliver without the message-id bookkeeping, for messages sent as
// the session goes away.
func (t *Tracker) send(kind string, userID, chatID int64, text string, buttons []Button) {
	if _, err := t.notifier.Send(chatID, text, buttons); err != nil {
		t.log.Warn("notification send failed",
			zap.String("kind", kind), zap.Int64("userID", userID), zap.Error(err))
		t.metrics.Notifications.WithLabelValues(kind, "error").Inc()
		return
	}
	t.metrics.Notifications.WithLabelValues(kind, "ok").Inc()
}

func (t *Tracker) touchRegistry(ctx context.Context, userID, chatID int64) {
	if err := t.registry.RegisterOrTouch(ctx, userID, chatID); err != nil {
		t.log.Warn("registry update failed", zap.Int64("userID", userID), zap.Error(err))
	}
}

func (t *Tracker) syncGauge() {
	t.metrics.ActiveSessions.Set(float64(t.sessions.Len()))
}
