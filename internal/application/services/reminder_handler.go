package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// DefaultPrematureTolerance is how far ahead of a note's reminder a job may
// fire before it is treated as premature
const DefaultPrematureTolerance = 5 * time.Minute

// ReminderHandler runs reminder jobs. It re-reads the note because the
// note may have changed since the job was scheduled.
type ReminderHandler struct {
	notes     ports.NoteRepository
	notifier  ports.Notifier
	tolerance time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

func NewReminderHandler(notes ports.NoteRepository, notifier ports.Notifier, tolerance time.Duration, log *logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		notes:     notes,
		notifier:  notifier,
		tolerance: tolerance,
		logger:    log.WithComponent("reminder"),
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (h *ReminderHandler) WithClock(now func() time.Time) *ReminderHandler {
	h.now = now
	return h
}

// Handle delivers the reminder for the job's note. Stale jobs (note gone,
// archived, reminder cleared or moved well into the future) succeed without
// delivering. Lookup and delivery failures are returned so the job is
// recorded as failed.
func (h *ReminderHandler) Handle(ctx context.Context, job *entities.Job) error {
	if job == nil {
		return fmt.Errorf("%w: reminder handler needs a job", ErrSchedulerMisuse)
	}

	noteID, err := entities.ParseID(job.Payload.NoteID)
	if err != nil {
		return fmt.Errorf("reminder job %s: %w", job.ID, err)
	}
	log := h.logger.WithFields("note_id", noteID.String(), "job_id", job.ID.String())

	note, err := h.notes.GetByID(ctx, noteID)
	if errors.Is(err, entities.ErrNoteNotFound) {
		log.Infow("Skipping reminder: note no longer exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load note %s: %w", noteID, err)
	}

	switch {
	case note.IsArchived:
		log.Infow("Skipping reminder: note is archived")
		return nil
	case note.ReminderAt == nil:
		log.Infow("Skipping reminder: reminder was cleared")
		return nil
	}

	now := h.now()
	if note.ReminderAt.Sub(now) > h.tolerance {
		log.Warnw("Skipping premature reminder",
			"reminder_at", note.ReminderAt.Format(time.RFC3339),
			"now", now.Format(time.RFC3339),
		)
		return nil
	}

	err = h.notifier.NotifyReminder(ctx, ports.ReminderNotification{
		NoteID:     note.ID,
		Title:      note.Title,
		Excerpt:    note.Excerpt(),
		ReminderAt: *note.ReminderAt,
	})
	if err != nil {
		return fmt.Errorf("deliver reminder for note %s: %w", noteID, err)
	}

	log.Infow("Reminder delivered")
	return nil
}
