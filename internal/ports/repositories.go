package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
)

// ErrCacheMiss is returned by CacheRepository.Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// NoteRepository defines the interface for note data operations
type NoteRepository interface {
	Create(ctx context.Context, note *entities.Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Note, error)
	// Update persists every mutable field of note and bumps its version
	Update(ctx context.Context, note *entities.Note) error
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) (*entities.Note, error)
	SetPinned(ctx context.Context, id uuid.UUID, pinned bool) (*entities.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *query.NoteQuery) ([]*entities.Note, error)
	Count(ctx context.Context, filter query.Filter) (int64, error)
}

// JobQuery selects jobs. Set fields are combined with AND; an empty query
// is rejected rather than matching every job.
type JobQuery struct {
	IDs    []uuid.UUID
	Names  []string
	NoteID string
	States []entities.JobState
}

// Empty reports whether the query has no criteria
func (q JobQuery) Empty() bool {
	return len(q.IDs) == 0 && len(q.Names) == 0 && q.NoteID == "" && len(q.States) == 0
}

// ErrEmptyJobQuery guards against unscoped cancels
var ErrEmptyJobQuery = entities.NewValidationError("jobs", "job query has no criteria")

// JobRepository defines the interface for the job store
type JobRepository interface {
	Create(ctx context.Context, job *entities.Job) error
	Find(ctx context.Context, q JobQuery) ([]*entities.Job, error)
	// Cancel deletes matching jobs and reports how many were removed
	Cancel(ctx context.Context, q JobQuery) (int, error)
	// ClaimDue moves up to limit due jobs to running. Pending jobs are due
	// once run_at has passed; running jobs are reclaimed once their lock is
	// older than lockLifetime.
	ClaimDue(ctx context.Context, now time.Time, limit int, lockLifetime time.Duration) ([]*entities.Job, error)
	// Save persists state, attempts, error and timestamps of an existing job
	Save(ctx context.Context, job *entities.Job) error
	// PurgeFinished deletes completed and failed jobs finished before the cutoff
	PurgeFinished(ctx context.Context, before time.Time) (int, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}

// NoteCacheKey is the cache key of a single note
func NoteCacheKey(id uuid.UUID) string {
	return "note:" + id.String()
}

// ReminderNotification is what gets delivered when a reminder fires
type ReminderNotification struct {
	NoteID     uuid.UUID
	Title      string
	Excerpt    string
	ReminderAt time.Time
}

// Notifier delivers reminder notifications
type Notifier interface {
	NotifyReminder(ctx context.Context, n ReminderNotification) error
}
