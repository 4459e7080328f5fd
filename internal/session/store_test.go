package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/123hi123/tg-standup-bot/internal/clock"
	"github.com/123hi123/tg-standup-bot/internal/domain"
)

var testDefaults = domain.Settings{SitMinutes: 45, StandMinutes: 5}

func newTestStore(t *testing.T) (*Store, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC))
	return NewStore(clk, testDefaults), clk
}

func TestCreateSeedsDefaults(t *testing.T) {
	st, _ := newTestStore(t)

	s, err := st.Create(1, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIdle, s.Status)
	assert.Equal(t, 45, s.SitMinutes)
	assert.Equal(t, 5, s.StandMinutes)
	assert.Equal(t, int64(100), s.ChatID)
}

func TestCreateSeedsUserSettings(t *testing.T) {
	st, _ := newTestStore(t)
	st.SetSettings(1, 20, 10)

	s, err := st.Create(1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, s.SitMinutes)
	assert.Equal(t, 10, s.StandMinutes)
}

func TestCreateRejectsActiveSession(t *testing.T) {
	st, _ := newTestStore(t)
	_, err := st.Create(1, 100)
	require.NoError(t, err)
	st.Update(1, func(s *Session) { s.Status = domain.StatusSitting })

	_, err = st.Create(1, 100)
	assert.ErrorIs(t, err, ErrExists)
}

func TestCreateReplacesIdleSession(t *testing.T) {
	st, _ := newTestStore(t)
	_, err := st.Create(1, 100)
	require.NoError(t, err)

	_, err = st.Create(1, 200)
	require.NoError(t, err)
	s, ok := st.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(200), s.ChatID)
}

func TestUpdateIsAtomicMerge(t *testing.T) {
	st, clk := newTestStore(t)
	_, err := st.Create(1, 100)
	require.NoError(t, err)

	now := clk.Now()
	s, ok := st.Update(1, func(s *Session) {
		s.Status = domain.StatusSitting
		s.LastActionTime = now
	})
	require.True(t, ok)
	assert.Equal(t, domain.StatusSitting, s.Status)
	assert.Equal(t, now, s.LastActionTime)

	// Fields not touched by a later merge stay put.
	s, _ = st.Update(1, func(s *Session) { s.LastMessageID = 7 })
	assert.Equal(t, domain.StatusSitting, s.Status)
	assert.Equal(t, 7, s.LastMessageID)
}

func TestUpdateMissingUser(t *testing.T) {
	st, _ := newTestStore(t)
	_, ok := st.Update(42, func(s *Session) { s.Status = domain.StatusSitting })
	assert.False(t, ok)
}

func TestDeleteStopsTimers(t *testing.T) {
	st, clk := newTestStore(t)
	_, err := st.Create(1, 100)
	require.NoError(t, err)

	fired := 0
	st.Update(1, func(s *Session) {
		s.SetPrimary(clk.AfterFunc(10*time.Minute, func() { fired++ }))
		s.SetReminder(clk.Every(time.Minute, func() { fired++ }))
		s.SetStatusUpdater(clk.Every(time.Minute, func() { fired++ }))
	})

	require.True(t, st.Delete(1))
	clk.Advance(time.Hour)
	assert.Equal(t, 0, fired, "no timer may fire after deletion")
	assert.False(t, st.Delete(1))
}

func TestTimerSlotsReplaceOldHandle(t *testing.T) {
	st, clk := newTestStore(t)
	_, err := st.Create(1, 100)
	require.NoError(t, err)

	firstFired, secondFired := 0, 0
	st.Update(1, func(s *Session) {
		s.SetPrimary(clk.AfterFunc(time.Minute, func() { firstFired++ }))
	})
	st.Update(1, func(s *Session) {
		s.SetPrimary(clk.AfterFunc(2*time.Minute, func() { secondFired++ }))
	})

	clk.Advance(5 * time.Minute)
	assert.Equal(t, 0, firstFired, "replaced handle must not fire")
	assert.Equal(t, 1, secondFired)
}

func TestElapsedMinutes(t *testing.T) {
	st, clk := newTestStore(t)
	_, err := st.Create(1, 100)
	require.NoError(t, err)

	s, _ := st.Get(1)
	assert.Equal(t, 0, st.ElapsedMinutes(s), "unset lastActionTime reads as zero")

	s, _ = st.Update(1, func(s *Session) { s.LastActionTime = clk.Now() })
	assert.Equal(t, 0, st.ElapsedMinutes(s))

	clk.Advance(90 * time.Second)
	assert.Equal(t, 1, st.ElapsedMinutes(s), "floor semantics")

	clk.Advance(30 * time.Second)
	assert.Equal(t, 2, st.ElapsedMinutes(s))

	// Reset on a new state-entering action.
	s, _ = st.Update(1, func(s *Session) { s.LastActionTime = clk.Now() })
	assert.Equal(t, 0, st.ElapsedMinutes(s))
}

func TestSnapshotIsSafeToMutateDuring(t *testing.T) {
	st, _ := newTestStore(t)
	for id := int64(1); id <= 5; id++ {
		_, err := st.Create(id, id*100)
		require.NoError(t, err)
	}

	snap := st.Snapshot()
	assert.Len(t, snap, 5)
	for _, s := range snap {
		// Re-entrant mutation while holding the snapshot must not deadlock.
		st.Update(s.UserID, func(live *Session) { live.Status = domain.StatusSitting })
	}
	for _, s := range snap {
		assert.Equal(t, domain.StatusIdle, s.Status, "snapshot copies are not live")
	}
}

func TestSetSettingsLiveUpdatesSession(t *testing.T) {
	st, clk := newTestStore(t)
	_, err := st.Create(1, 100)
	require.NoError(t, err)

	fired := 0
	st.Update(1, func(s *Session) {
		s.SetPrimary(clk.AfterFunc(45*time.Minute, func() { fired++ }))
	})

	st.SetSettings(1, 20, 10)
	s, _ := st.Get(1)
	assert.Equal(t, 20, s.SitMinutes)
	assert.Equal(t, 10, s.StandMinutes)

	// The running timer keeps its original schedule.
	clk.Advance(44 * time.Minute)
	assert.Equal(t, 0, fired)
	clk.Advance(time.Minute)
	assert.Equal(t, 1, fired)
}

func TestStopAll(t *testing.T) {
	st, clk := newTestStore(t)
	fired := 0
	for id := int64(1); id <= 3; id++ {
		_, err := st.Create(id, id)
		require.NoError(t, err)
		st.Update(id, func(s *Session) {
			s.SetPrimary(clk.AfterFunc(time.Minute, func() { fired++ }))
		})
	}

	st.StopAll()
	clk.Advance(time.Hour)
	assert.Equal(t, 0, fired)
}
