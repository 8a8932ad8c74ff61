package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	noteID := uuid.New()

	job := NewReminderJob(noteID, now.Add(time.Hour), now)
	require.Equal(t, JobStatePending, job.State)
	assert.Equal(t, noteID.String(), job.Payload.NoteID)
	assert.False(t, job.IsRecurring())

	require.NoError(t, job.Start(now))
	assert.Equal(t, JobStateRunning, job.State)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.LockedAt)

	require.NoError(t, job.Complete(now.Add(time.Second)))
	assert.Equal(t, JobStateCompleted, job.State)
	assert.Nil(t, job.LockedAt)
	require.NotNil(t, job.FinishedAt)

	err := job.Start(now)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestJobFailIsTerminal(t *testing.T) {
	now := time.Now()
	job := NewReminderJob(uuid.New(), now, now)

	// pending jobs cannot fail without running first
	assert.Error(t, job.Fail(now, errors.New("boom")))

	require.NoError(t, job.Start(now))
	require.NoError(t, job.Fail(now, errors.New("boom")))
	assert.Equal(t, JobStateFailed, job.State)
	require.NotNil(t, job.LastError)
	assert.Equal(t, "boom", *job.LastError)
	assert.True(t, job.State.Terminal())
	assert.Error(t, job.Complete(now))
}

func TestJobRunningCanBeReclaimed(t *testing.T) {
	now := time.Now()
	job := NewRecurringJob("cleanup", "@every 1h", now, now)
	require.NoError(t, job.Start(now))
	require.NoError(t, job.Start(now.Add(time.Minute)))
	assert.Equal(t, 2, job.Attempts)
}

func TestNextOccurrence(t *testing.T) {
	now := time.Now()
	job := NewRecurringJob("cleanup", "@every 1h", now, now)

	_, err := job.NextOccurrence(now.Add(time.Hour), now)
	require.Error(t, err, "pending instance has no next occurrence yet")

	require.NoError(t, job.Start(now))
	require.NoError(t, job.Complete(now))

	next, err := job.NextOccurrence(now.Add(time.Hour), now)
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, next.ID)
	assert.Equal(t, JobStatePending, next.State)
	assert.Equal(t, "@every 1h", next.RepeatInterval)
	assert.Equal(t, JobStateCompleted, job.State, "finished instance is not mutated")

	oneOff := NewReminderJob(uuid.New(), now, now)
	require.NoError(t, oneOff.Start(now))
	require.NoError(t, oneOff.Complete(now))
	_, err = oneOff.NextOccurrence(now, now)
	assert.Error(t, err)
}

func TestJobPayloadRoundTripThroughDriver(t *testing.T) {
	p := JobPayload{NoteID: "abc"}
	v, err := p.Value()
	require.NoError(t, err)

	var out JobPayload
	require.NoError(t, out.Scan(v))
	assert.Equal(t, p, out)

	require.NoError(t, out.Scan(nil))
	assert.Equal(t, JobPayload{}, out)
	assert.Error(t, out.Scan(42))
}
