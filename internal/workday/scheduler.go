package workday

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/123hi123/tg-standup-bot/internal/clock"
	"github.com/123hi123/tg-standup-bot/internal/domain"
	"github.com/123hi123/tg-standup-bot/internal/metrics"
	"github.com/123hi123/tg-standup-bot/internal/session"
	"github.com/123hi123/tg-standup-bot/internal/store"
	"github.com/123hi123/tg-standup-bot/internal/tracker"
)

// Scheduler fires two weekday triggers at fixed local wall-clock times: a
// morning sweep that auto-starts sitting for opted-in users, and an
// end-of-day sweep that force-stops every running session. Each trigger is a
// one-shot chain on the injected clock, so a trigger fires exactly once per
// scheduled instant.
type Scheduler struct {
	log      *zap.Logger
	clk      clock.Clock
	trk      *tracker.Tracker
	registry store.Repo
	sessions *session.Store
	metrics  *metrics.Metrics

	loc          *time.Location
	startMinute  int // minutes since midnight, local
	endMinute    int
	sweepTimeout time.Duration

	mu      sync.Mutex
	stopped bool
	morning clock.Timer
	evening clock.Timer
}

func New(log *zap.Logger, clk clock.Clock, trk *tracker.Tracker, registry store.Repo, sessions *session.Store, m *metrics.Metrics, loc *time.Location, startMinute, endMinute int) *Scheduler {
	return &Scheduler{
		log:          log,
		clk:          clk,
		trk:          trk,
		registry:     registry,
		sessions:     sessions,
		metrics:      m,
		loc:          loc,
		startMinute:  startMinute,
		endMinute:    endMinute,
		sweepTimeout: 30 * time.Second,
	}
}

// Start arms both trigger chains.
func (s *Scheduler) Start() {
	s.armMorning()
	s.armEvening()
	s.log.Info("workday scheduler armed",
		zap.String("tz", s.loc.String()),
		zap.String("start", domain.FormatMinutes(s.startMinute)),
		zap.String("end", domain.FormatMinutes(s.endMinute)),
	)
}

// Stop cancels both chains. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.morning != nil {
		s.morning.Stop()
		s.morning = nil
	}
	if s.evening != nil {
		s.evening.Stop()
		s.evening = nil
	}
}

func (s *Scheduler) armMorning() {
	s.arm(&s.morning, s.startMinute, func() {
		s.morningSweep()
		s.armMorning()
	})
}

func (s *Scheduler) armEvening() {
	s.arm(&s.evening, s.endMinute, func() {
		s.eveningSweep()
		s.armEvening()
	})
}

func (s *Scheduler) arm(slot *clock.Timer, minuteOfDay int, fire func()) {
	now := s.clk.Now().In(s.loc)
	next := domain.NextWeekday(now, minuteOfDay)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	*slot = s.clk.AfterFunc(next.Sub(now), fire)
}

// morningSweep force-starts sitting for every registered user that opted in
// and is not already sitting. The user list is a snapshot; the notifier is
// reached through the tracker with no registry or session lock held.
func (s *Scheduler) morningSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.sweepTimeout)
	defer cancel()

	s.metrics.SweepRuns.WithLabelValues("morning").Inc()
	users, err := s.registry.ListAll(ctx)
	if err != nil {
		s.log.Error("morning sweep: list users failed", zap.Error(err))
		return
	}

	started := 0
	for _, u := range users {
		if !u.AutoSit {
			continue
		}
		if sess, ok := s.sessions.Get(u.UserID); ok && sess.Status == domain.StatusSitting {
			continue
		}
		if err := s.trk.AutoStart(ctx, u.UserID, u.ChatID); err != nil {
			s.log.Warn("morning sweep: auto-start failed",
				zap.Int64("userID", u.UserID), zap.Error(err))
			continue
		}
		started++
	}
	s.log.Info("morning sweep done", zap.Int("users", len(users)), zap.Int("started", started))
}

// eveningSweep force-stops every running session, opted in or not. No timer
// survives past the configured end of day.
func (s *Scheduler) eveningSweep() {
	s.metrics.SweepRuns.WithLabelValues("evening").Inc()

	stopped := 0
	for _, sess := range s.sessions.Snapshot() {
		if !sess.Status.Active() {
			continue
		}
		if s.trk.ForceStop(sess.UserID) {
			stopped++
		}
	}
	s.log.Info("evening sweep done", zap.Int("stopped", stopped))
}
