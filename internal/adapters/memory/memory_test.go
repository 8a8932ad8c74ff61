package memory

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func seedNotes(t *testing.T, s *NoteStore, notes ...*entities.Note) {
	t.Helper()
	for i, n := range notes {
		n.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		n.UpdatedAt = n.CreatedAt
		if n.Category == "" {
			n.Category = entities.CategoryGeneral
		}
		require.NoError(t, s.Create(context.Background(), n))
	}
}

func list(t *testing.T, s *NoteStore, raw string) ([]*entities.Note, int64) {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := query.NewNoteTranslator().WithClock(func() time.Time { return now }).Translate(values)
	require.NoError(t, err)

	notes, err := s.List(context.Background(), q)
	require.NoError(t, err)
	total, err := s.Count(context.Background(), q.Filter)
	require.NoError(t, err)
	return notes, total
}

func titles(notes []*entities.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Title
	}
	return out
}

func TestNoteStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewNoteStore().WithClock(func() time.Time { return now })

	n := &entities.Note{Title: "a", Content: "b", Category: entities.CategoryWork}
	require.NoError(t, s.Create(ctx, n))
	require.NotEqual(t, uuid.Nil, n.ID)

	got, err := s.GetByID(ctx, n.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := s.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Title, "store returns copies")

	again.Content = "changed"
	require.NoError(t, s.Update(ctx, again))
	assert.Equal(t, 1, again.Version)

	archived, err := s.SetArchived(ctx, n.ID, true)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)
	assert.Equal(t, 2, archived.Version)
	assert.Equal(t, now, archived.UpdatedAt)

	require.NoError(t, s.Delete(ctx, n.ID))
	assert.ErrorIs(t, s.Delete(ctx, n.ID), entities.ErrNoteNotFound)
	_, err = s.GetByID(ctx, n.ID)
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)
	_, err = s.SetPinned(ctx, n.ID, true)
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)
	assert.ErrorIs(t, s.Update(ctx, n), entities.ErrNoteNotFound)
}

func TestNoteStoreListFiltersAndSorts(t *testing.T) {
	s := NewNoteStore()
	seedNotes(t, s,
		&entities.Note{Title: "old", Content: "x"},
		&entities.Note{Title: "pinned", Content: "x", IsPinned: true},
		&entities.Note{Title: "archived", Content: "x", IsArchived: true},
		&entities.Note{Title: "reminder", Content: "x", ReminderAt: at(time.Hour)},
		&entities.Note{Title: "overdue", Content: "x", DueDate: at(-time.Hour)},
		&entities.Note{Title: "due later", Content: "x", DueDate: at(time.Hour)},
	)

	notes, total := list(t, s, "")
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{"pinned", "due later", "overdue", "reminder", "old"}, titles(notes))

	notes, _ = list(t, s, "archived=true")
	assert.Equal(t, []string{"archived"}, titles(notes))

	_, total = list(t, s, "archived=all")
	assert.Equal(t, int64(6), total)

	notes, _ = list(t, s, "hasReminder=true")
	assert.Equal(t, []string{"reminder"}, titles(notes))

	_, total = list(t, s, "hasReminder=false")
	assert.Equal(t, int64(4), total)

	notes, _ = list(t, s, "isOverdue=true")
	assert.Equal(t, []string{"overdue"}, titles(notes))

	notes, _ = list(t, s, "isOverdue=false&sort=title")
	assert.Equal(t, []string{"due later", "old", "pinned", "reminder"}, titles(notes))

	notes, _ = list(t, s, "sort=dueDate")
	assert.Equal(t, []string{"overdue", "due later"}, titles(notes)[:2], "missing values sort last")
}

func TestNoteStorePagination(t *testing.T) {
	s := NewNoteStore()
	for i := 0; i < 12; i++ {
		seedNotes(t, s, &entities.Note{Title: "n", Content: "x"})
	}

	notes, total := list(t, s, "page=2&limit=5")
	assert.Len(t, notes, 5)
	assert.Equal(t, int64(12), total)

	notes, _ = list(t, s, "page=3&limit=5")
	assert.Len(t, notes, 2)

	notes, _ = list(t, s, "page=9")
	assert.Empty(t, notes)
}

func TestJobStoreCancelByNote(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()
	noteA, noteB := uuid.New(), uuid.New()

	require.NoError(t, s.Create(ctx, entities.NewReminderJob(noteA, now, now)))
	require.NoError(t, s.Create(ctx, entities.NewReminderJob(noteA, now, now)))
	require.NoError(t, s.Create(ctx, entities.NewReminderJob(noteB, now, now)))

	n, err := s.Cancel(ctx, ports.JobQuery{Names: []string{entities.ReminderJobName}, NoteID: noteA.String()})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, s.Len())

	n, err = s.Cancel(ctx, ports.JobQuery{NoteID: noteA.String()})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Cancel(ctx, ports.JobQuery{})
	assert.ErrorIs(t, err, entities.ErrValidation)
	assert.Equal(t, 1, s.Len())
}

func TestJobStoreClaimDue(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()

	due := entities.NewReminderJob(uuid.New(), now.Add(-time.Minute), now)
	later := entities.NewReminderJob(uuid.New(), now.Add(time.Hour), now)
	require.NoError(t, s.Create(ctx, due))
	require.NoError(t, s.Create(ctx, later))

	claimed, err := s.ClaimDue(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, due.ID, claimed[0].ID)
	assert.Equal(t, entities.JobStateRunning, claimed[0].State)
	assert.Equal(t, 1, claimed[0].Attempts)

	claimed, err = s.ClaimDue(ctx, now.Add(30*time.Second), 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, claimed, "lock still held")

	claimed, err = s.ClaimDue(ctx, now.Add(2*time.Minute), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1, "expired lock is reclaimed")
	assert.Equal(t, 2, claimed[0].Attempts)
}

func TestJobStoreSaveAndPurge(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()

	job := entities.NewRecurringJob("cleanup", "@every 1h", now, now)
	require.NoError(t, s.Create(ctx, job))
	claimed, err := s.ClaimDue(ctx, now, 1, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	finished := claimed[0]
	require.NoError(t, finished.Complete(now))
	require.NoError(t, s.Save(ctx, finished))

	n, err := s.PurgeFinished(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n, "finished exactly at cutoff is kept")

	n, err = s.PurgeFinished(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, s.Save(ctx, finished), entities.ErrJobNotFound)
}

func TestJobStoreFailNext(t *testing.T) {
	s := NewJobStore()
	boom := errors.New("store unreachable")
	s.FailNext = boom

	_, err := s.Find(context.Background(), ports.JobQuery{})
	assert.ErrorIs(t, err, boom)

	_, err = s.Find(context.Background(), ports.JobQuery{})
	assert.NoError(t, err)
}
