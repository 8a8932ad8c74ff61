package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/metrics"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// ErrSchedulerMisuse marks calls that can never succeed, such as scheduling
// a note without an id.
var ErrSchedulerMisuse = errors.New("invalid reminder scheduler call")

// Outcome classifies a best-effort scheduler operation
type Outcome int

const (
	// OutcomeApplied means the job store was changed as requested
	OutcomeApplied Outcome = iota
	// OutcomeNoop means there was nothing to do
	OutcomeNoop
	// OutcomeDegraded means the store failed; the caller should carry on
	OutcomeDegraded
	// OutcomeFatal means the call itself was wrong; the caller should fail
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNoop:
		return "noop"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeFatal:
		return "fatal"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// ScheduleResult reports what a Schedule or Cancel call did
type ScheduleResult struct {
	Outcome Outcome
	// Removed counts reminder jobs deleted, including stale duplicates
	Removed int
	// JobID is set when a new job was created
	JobID uuid.UUID
	Err   error
}

// ShouldFailRequest reports whether the note mutation that triggered the
// call must fail. Store outages only degrade the reminder.
func (r ScheduleResult) ShouldFailRequest() bool {
	return r.Outcome == OutcomeFatal
}

// Scheduler keeps at most one reminder job per note
type Scheduler interface {
	Schedule(ctx context.Context, note *entities.Note) ScheduleResult
	Cancel(ctx context.Context, noteID uuid.UUID) ScheduleResult
}

// ReminderScheduler creates and cancels one-off reminder jobs keyed by note id
type ReminderScheduler struct {
	jobs    ports.JobRepository
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

var _ Scheduler = (*ReminderScheduler)(nil)

// NewReminderScheduler creates a scheduler over the given job store. metrics may be nil.
func NewReminderScheduler(jobs ports.JobRepository, log *logger.Logger, m *metrics.Metrics) *ReminderScheduler {
	return &ReminderScheduler{
		jobs:    jobs,
		logger:  log.WithComponent("scheduler"),
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the time source
func (s *ReminderScheduler) WithClock(now func() time.Time) *ReminderScheduler {
	s.now = now
	return s
}

func reminderJobsFor(noteID uuid.UUID) ports.JobQuery {
	return ports.JobQuery{
		Names:  []string{entities.ReminderJobName},
		NoteID: noteID.String(),
	}
}

// Schedule replaces any reminder job of the note with a single job at its
// reminder time. Cancel and insert are separate store calls, so two
// concurrent calls for one note may briefly leave a duplicate; the next
// Schedule or Cancel removes it and the handler guards make a stray run
// harmless.
func (s *ReminderScheduler) Schedule(ctx context.Context, note *entities.Note) ScheduleResult {
	if note == nil || note.ID == uuid.Nil {
		return s.done(opSchedule, ScheduleResult{
			Outcome: OutcomeFatal,
			Err:     fmt.Errorf("%w: schedule requires a persisted note", ErrSchedulerMisuse),
		})
	}

	now := s.now()
	if !note.HasFutureReminder(now) {
		s.logger.Debugw("No future reminder to schedule", "note_id", note.ID.String())
		return s.done(opSchedule, ScheduleResult{Outcome: OutcomeNoop})
	}

	removed, err := s.jobs.Cancel(ctx, reminderJobsFor(note.ID))
	if err != nil {
		s.logger.Errorw("Failed to clear existing reminder jobs", "note_id", note.ID.String(), "error", err)
		return s.done(opSchedule, ScheduleResult{Outcome: OutcomeDegraded, Err: fmt.Errorf("cancel existing reminders: %w", err)})
	}
	if removed > 0 {
		s.logger.Infow("Removed existing reminder jobs before scheduling", "note_id", note.ID.String(), "count", removed)
		s.metrics.RemindersCancelled(removed)
	}

	job := entities.NewReminderJob(note.ID, *note.ReminderAt, now)
	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.Errorw("Failed to schedule reminder", "note_id", note.ID.String(), "error", err)
		return s.done(opSchedule, ScheduleResult{Outcome: OutcomeDegraded, Removed: removed, Err: fmt.Errorf("create reminder job: %w", err)})
	}

	s.logger.Infow("Reminder scheduled",
		"note_id", note.ID.String(),
		"job_id", job.ID.String(),
		"run_at", job.RunAt.Format(time.RFC3339),
	)
	return s.done(opSchedule, ScheduleResult{Outcome: OutcomeApplied, Removed: removed, JobID: job.ID})
}

// Cancel removes every reminder job of the note. No matching job is a no-op.
func (s *ReminderScheduler) Cancel(ctx context.Context, noteID uuid.UUID) ScheduleResult {
	if noteID == uuid.Nil {
		return s.done(opCancel, ScheduleResult{
			Outcome: OutcomeFatal,
			Err:     fmt.Errorf("%w: cancel requires a note id", ErrSchedulerMisuse),
		})
	}

	removed, err := s.jobs.Cancel(ctx, reminderJobsFor(noteID))
	if err != nil {
		s.logger.Errorw("Failed to cancel reminder jobs", "note_id", noteID.String(), "error", err)
		return s.done(opCancel, ScheduleResult{Outcome: OutcomeDegraded, Err: fmt.Errorf("cancel reminders: %w", err)})
	}
	if removed == 0 {
		return s.done(opCancel, ScheduleResult{Outcome: OutcomeNoop})
	}

	s.logger.Infow("Reminder jobs cancelled", "note_id", noteID.String(), "count", removed)
	s.metrics.RemindersCancelled(removed)
	return s.done(opCancel, ScheduleResult{Outcome: OutcomeApplied, Removed: removed})
}

const (
	opSchedule = "schedule"
	opCancel   = "cancel"
)

func (s *ReminderScheduler) done(op string, r ScheduleResult) ScheduleResult {
	s.metrics.ReminderOperation(op, r.Outcome.String())
	return r
}
