package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReminderJobName is the name shared by every one-off note reminder job
const ReminderJobName = "sendInkMindNoteReminderJob"

type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// ActiveJobStates are the states in which a job still counts as scheduled
var ActiveJobStates = []JobState{JobStatePending, JobStateRunning}

// running -> running is a re-claim after an expired lock.
var jobTransitions = map[JobState][]JobState{
	JobStatePending: {JobStateRunning},
	JobStateRunning: {JobStateRunning, JobStateCompleted, JobStateFailed},
}

// CanTransition reports whether a job may move from one state to another
func (s JobState) CanTransition(to JobState) bool {
	for _, next := range jobTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s JobState) Terminal() bool {
	return len(jobTransitions[s]) == 0
}

// JobPayload is the arbitrary data attached to a job. Reminder jobs carry the
// owning note id; recurring jobs carry nothing.
type JobPayload struct {
	NoteID string `json:"noteId,omitempty"`
}

// Value implements driver.Valuer for JSONB columns
func (p JobPayload) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan implements sql.Scanner for JSONB columns
func (p *JobPayload) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = JobPayload{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported payload type %T", src)
	}
}

// Job is a scheduled unit of work in the job store
type Job struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Payload        JobPayload `json:"payload" db:"payload"`
	RunAt          time.Time  `json:"runAt" db:"run_at"`
	State          JobState   `json:"state" db:"state"`
	RepeatInterval string     `json:"repeatInterval,omitempty" db:"repeat_interval"`
	Attempts       int        `json:"attempts" db:"attempts"`
	LastError      *string    `json:"lastError,omitempty" db:"last_error"`
	LockedAt       *time.Time `json:"lockedAt,omitempty" db:"locked_at"`
	LastRunAt      *time.Time `json:"lastRunAt,omitempty" db:"last_run_at"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty" db:"finished_at"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// NewReminderJob creates a pending one-off reminder for a note
func NewReminderJob(noteID uuid.UUID, runAt, now time.Time) *Job {
	return &Job{
		ID:        uuid.New(),
		Name:      ReminderJobName,
		Payload:   JobPayload{NoteID: noteID.String()},
		RunAt:     runAt,
		State:     JobStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewRecurringJob creates a pending instance of a recurring job
func NewRecurringJob(name, interval string, runAt, now time.Time) *Job {
	return &Job{
		ID:             uuid.New(),
		Name:           name,
		RunAt:          runAt,
		State:          JobStatePending,
		RepeatInterval: interval,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsRecurring reports whether the instance was created from a recurrence
func (j *Job) IsRecurring() bool {
	return j.RepeatInterval != ""
}

func (j *Job) transition(to JobState, now time.Time) error {
	if !j.State.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s (job %s)", ErrInvalidTransition, j.State, to, j.ID)
	}
	j.State = to
	j.UpdatedAt = now
	return nil
}

// Start claims the job for execution
func (j *Job) Start(now time.Time) error {
	if err := j.transition(JobStateRunning, now); err != nil {
		return err
	}
	j.Attempts++
	j.LockedAt = &now
	j.LastRunAt = &now
	return nil
}

// Complete records a successful run
func (j *Job) Complete(now time.Time) error {
	if err := j.transition(JobStateCompleted, now); err != nil {
		return err
	}
	j.LockedAt = nil
	j.FinishedAt = &now
	j.LastError = nil
	return nil
}

// Fail records a failed run. Failure is terminal for this instance.
func (j *Job) Fail(now time.Time, cause error) error {
	if err := j.transition(JobStateFailed, now); err != nil {
		return err
	}
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	j.LockedAt = nil
	j.FinishedAt = &now
	j.LastError = &msg
	return nil
}

// NextOccurrence returns a freshly scheduled pending instance following a
// finished recurring instance. The finished instance itself is left as is.
func (j *Job) NextOccurrence(runAt, now time.Time) (*Job, error) {
	if !j.IsRecurring() {
		return nil, fmt.Errorf("job %s (%s) is not recurring", j.ID, j.Name)
	}
	if !j.State.Terminal() {
		return nil, fmt.Errorf("%w: job %s is still %s", ErrInvalidTransition, j.ID, j.State)
	}
	return NewRecurringJob(j.Name, j.RepeatInterval, runAt, now), nil
}
