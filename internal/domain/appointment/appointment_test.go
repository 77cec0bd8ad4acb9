package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusMissed, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusMissed, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusMissed, StatusCompleted, false},
		{StatusMissed, StatusCancelled, false},
	}

	for _, tc := range cases {
		a := &Appointment{Status: tc.from}
		assert.Equal(t, tc.want, a.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusScheduled.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusMissed.IsTerminal())
}

func TestOverdueAt(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	past := &Appointment{Status: StatusScheduled, ScheduledAt: now.Add(-time.Minute)}
	assert.True(t, past.OverdueAt(now))

	future := &Appointment{Status: StatusScheduled, ScheduledAt: now.Add(time.Minute)}
	assert.False(t, future.OverdueAt(now))

	// An appointment starting exactly now has not yet been missed.
	boundary := &Appointment{Status: StatusScheduled, ScheduledAt: now}
	assert.False(t, boundary.OverdueAt(now))

	// Terminal states are never overdue, no matter how old.
	for _, st := range []Status{StatusCompleted, StatusCancelled, StatusMissed} {
		a := &Appointment{Status: st, ScheduledAt: now.Add(-24 * time.Hour)}
		assert.False(t, a.OverdueAt(now), "status %s", st)
	}
}

func TestComplete(t *testing.T) {
	at := time.Now()

	a := &Appointment{Status: StatusScheduled}
	require.NoError(t, a.Complete("flu", "rest and fluids", at))
	assert.Equal(t, StatusCompleted, a.Status)
	assert.Equal(t, "flu", a.Diagnosis)
	assert.Equal(t, "rest and fluids", a.Prescription)
	require.NotNil(t, a.CompletedAt)
	assert.Equal(t, at, *a.CompletedAt)

	for _, st := range []Status{StatusCompleted, StatusCancelled, StatusMissed} {
		a := &Appointment{Status: st}
		assert.ErrorIs(t, a.Complete("x", "", at), ErrInvalidStatusTransition, "status %s", st)
	}
}

func TestCancel(t *testing.T) {
	at := time.Now()
	by := uuid.New()

	a := &Appointment{Status: StatusScheduled}
	require.NoError(t, a.Cancel(by, at))
	assert.Equal(t, StatusCancelled, a.Status)
	require.NotNil(t, a.CancelledBy)
	assert.Equal(t, by, *a.CancelledBy)
	require.NotNil(t, a.CancelledAt)

	for _, st := range []Status{StatusCompleted, StatusCancelled, StatusMissed} {
		a := &Appointment{Status: st}
		assert.ErrorIs(t, a.Cancel(by, at), ErrInvalidStatusTransition, "status %s", st)
	}
}

func TestRated(t *testing.T) {
	a := &Appointment{}
	assert.False(t, a.Rated())

	r := 4
	a.Rating = &r
	assert.True(t, a.Rated())
}
