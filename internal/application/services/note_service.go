package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// NoteService handles note operations and keeps reminder jobs in step with
// every note mutation
type NoteService struct {
	notes     ports.NoteRepository
	scheduler Scheduler
	cache     ports.CacheRepository
	cacheTTL  time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

var _ ports.NoteService = (*NoteService)(nil)

// NewNoteService creates a new note service
func NewNoteService(notes ports.NoteRepository, scheduler Scheduler, log *logger.Logger) *NoteService {
	return &NoteService{
		notes:     notes,
		scheduler: scheduler,
		logger:    log.WithComponent("notes"),
		now:       time.Now,
	}
}

// WithCache enables read-through caching of single notes
func (s *NoteService) WithCache(c ports.CacheRepository, ttl time.Duration) *NoteService {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// WithClock replaces the time source
func (s *NoteService) WithClock(now func() time.Time) *NoteService {
	s.now = now
	return s
}

// CreateNote creates a note and schedules its reminder when one is due later
func (s *NoteService) CreateNote(ctx context.Context, req ports.CreateNoteRequest) (*entities.Note, error) {
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return nil, err
	}
	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}
	category := req.Category
	if category == "" {
		category = entities.CategoryGeneral
	}
	if !category.Valid() {
		return nil, invalidCategory(category)
	}

	now := s.now()
	note := &entities.Note{
		ID:         uuid.New(),
		Title:      title,
		Content:    content,
		Category:   category,
		IsPinned:   req.IsPinned != nil && *req.IsPinned,
		ReminderAt: req.ReminderAt,
		DueDate:    req.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.notes.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	if note.HasFutureReminder(now) {
		if err := s.apply(s.scheduler.Schedule(ctx, note), "schedule", note.ID); err != nil {
			return nil, err
		}
	}

	s.logger.Infow("Note created", "note_id", note.ID.String(), "title", note.Title)
	return note, nil
}

// GetNote retrieves a note by ID
func (s *NoteService) GetNote(ctx context.Context, id uuid.UUID) (*entities.Note, error) {
	if s.cache != nil {
		var cached entities.Note
		err := s.cache.Get(ctx, ports.NoteCacheKey(id), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, ports.ErrCacheMiss) {
			s.logger.Warnw("Note cache read failed", "note_id", id.String(), "error", err)
		}
	}

	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, ports.NoteCacheKey(id), note, s.cacheTTL); err != nil {
			s.logger.Warnw("Note cache write failed", "note_id", id.String(), "error", err)
		}
	}
	return note, nil
}

// ListNotes returns one page of notes and the total for the same filter
func (s *NoteService) ListNotes(ctx context.Context, q *query.NoteQuery) (*ports.NoteList, error) {
	notes, err := s.notes.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	total, err := s.notes.Count(ctx, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	return &ports.NoteList{
		Notes:      notes,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: q.TotalPages(total),
		Fields:     q.Fields,
	}, nil
}

// UpdateNote applies a partial update. When the payload names reminderAt,
// the old reminder is always cancelled and a new one scheduled if the new
// time is in the future.
func (s *NoteService) UpdateNote(ctx context.Context, id uuid.UUID, req ports.UpdateNoteRequest) (*entities.Note, error) {
	if req.IsArchived != nil {
		return nil, entities.NewValidationError("isArchived", "use the archive and restore endpoints")
	}
	if req.IsPinned != nil {
		return nil, entities.NewValidationError("isPinned", "use the pin and unpin endpoints")
	}
	if req.Empty() {
		return nil, entities.NewValidationError("", "no updatable fields provided")
	}

	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if note.Title, err = normalizeTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Content != nil {
		if note.Content, err = normalizeContent(*req.Content); err != nil {
			return nil, err
		}
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, invalidCategory(*req.Category)
		}
		note.Category = *req.Category
	}
	if req.ReminderAt.Set {
		note.ReminderAt = req.ReminderAt.Time
	}
	if req.DueDate.Set {
		note.DueDate = req.DueDate.Time
	}

	now := s.now()
	note.UpdatedAt = now
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	s.invalidate(ctx, id)

	if req.ReminderAt.Set {
		if err := s.apply(s.scheduler.Cancel(ctx, id), "cancel", id); err != nil {
			return nil, err
		}
		if note.HasFutureReminder(now) {
			if err := s.apply(s.scheduler.Schedule(ctx, note), "schedule", id); err != nil {
				return nil, err
			}
		}
	}

	s.logger.Infow("Note updated", "note_id", id.String())
	return note, nil
}

// ArchiveNote hides a note and drops its reminder
func (s *NoteService) ArchiveNote(ctx context.Context, id uuid.UUID) (*entities.Note, error) {
	note, err := s.notes.SetArchived(ctx, id, true)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	if err := s.apply(s.scheduler.Cancel(ctx, id), "cancel", id); err != nil {
		return nil, err
	}

	s.logger.Infow("Note archived", "note_id", id.String())
	return note, nil
}

// RestoreNote unarchives a note and re-schedules a reminder that is still ahead
func (s *NoteService) RestoreNote(ctx context.Context, id uuid.UUID) (*entities.Note, error) {
	note, err := s.notes.SetArchived(ctx, id, false)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	if note.HasFutureReminder(s.now()) {
		if err := s.apply(s.scheduler.Schedule(ctx, note), "schedule", id); err != nil {
			return nil, err
		}
	}

	s.logger.Infow("Note restored", "note_id", id.String())
	return note, nil
}

func (s *NoteService) PinNote(ctx context.Context, id uuid.UUID) (*entities.Note, error) {
	return s.setPinned(ctx, id, true)
}

func (s *NoteService) UnpinNote(ctx context.Context, id uuid.UUID) (*entities.Note, error) {
	return s.setPinned(ctx, id, false)
}

func (s *NoteService) setPinned(ctx context.Context, id uuid.UUID, pinned bool) (*entities.Note, error) {
	note, err := s.notes.SetPinned(ctx, id, pinned)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return note, nil
}

// DeleteNote permanently removes a note and its reminder
func (s *NoteService) DeleteNote(ctx context.Context, id uuid.UUID) error {
	if err := s.notes.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	if err := s.apply(s.scheduler.Cancel(ctx, id), "cancel", id); err != nil {
		return err
	}

	s.logger.Infow("Note deleted", "note_id", id.String())
	return nil
}

// apply turns a scheduler result into a request error only when the result
// says the request must fail
func (s *NoteService) apply(res ScheduleResult, op string, id uuid.UUID) error {
	switch {
	case res.ShouldFailRequest():
		return fmt.Errorf("%s reminder for note %s: %w", op, id, res.Err)
	case res.Outcome == OutcomeDegraded:
		s.logger.Warnw("Reminder bookkeeping degraded, request continues",
			"note_id", id.String(),
			"op", op,
			"error", res.Err,
		)
	}
	return nil
}

func (s *NoteService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, ports.NoteCacheKey(id)); err != nil {
		s.logger.Warnw("Note cache invalidation failed", "note_id", id.String(), "error", err)
	}
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(title)
	if n == 0 {
		return "", entities.NewValidationError("title", "a note must have a title")
	}
	if n > entities.NoteTitleMaxLength {
		return "", entities.NewValidationError("title",
			fmt.Sprintf("must be at most %d characters", entities.NoteTitleMaxLength))
	}
	return title, nil
}

func normalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", entities.NewValidationError("content", "a note must have content")
	}
	return content, nil
}

func invalidCategory(c entities.Category) error {
	return entities.NewValidationError("category",
		fmt.Sprintf("%q is not one of General, Work, Personal, Ideas, Urgent", string(c)))
}
