package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// NoteStore is a mutex-guarded note repository. Every read and write copies
// the note so callers never share state with the store.
type NoteStore struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]*entities.Note
	now   func() time.Time
}

var _ ports.NoteRepository = (*NoteStore)(nil)

func NewNoteStore() *NoteStore {
	return &NoteStore{
		notes: make(map[uuid.UUID]*entities.Note),
		now:   time.Now,
	}
}

// WithClock sets the time used for archive and pin updates
func (s *NoteStore) WithClock(now func() time.Time) *NoteStore {
	s.now = now
	return s
}

func (s *NoteStore) Create(_ context.Context, note *entities.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	note.Version = 0
	s.notes[note.ID] = cloneNote(note)
	return nil
}

func (s *NoteStore) GetByID(_ context.Context, id uuid.UUID) (*entities.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, entities.ErrNoteNotFound
	}
	return cloneNote(n), nil
}

func (s *NoteStore) Update(_ context.Context, note *entities.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.notes[note.ID]
	if !ok {
		return entities.ErrNoteNotFound
	}
	note.CreatedAt = current.CreatedAt
	note.Version = current.Version + 1
	s.notes[note.ID] = cloneNote(note)
	return nil
}

func (s *NoteStore) SetArchived(_ context.Context, id uuid.UUID, archived bool) (*entities.Note, error) {
	return s.mutate(id, func(n *entities.Note) { n.IsArchived = archived })
}

func (s *NoteStore) SetPinned(_ context.Context, id uuid.UUID, pinned bool) (*entities.Note, error) {
	return s.mutate(id, func(n *entities.Note) { n.IsPinned = pinned })
}

func (s *NoteStore) mutate(id uuid.UUID, fn func(*entities.Note)) (*entities.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, entities.ErrNoteNotFound
	}
	fn(n)
	n.UpdatedAt = s.now()
	n.Version++
	return cloneNote(n), nil
}

func (s *NoteStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return entities.ErrNoteNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *NoteStore) List(_ context.Context, q *query.NoteQuery) ([]*entities.Note, error) {
	s.mu.RLock()
	matched := s.filter(q.Filter)
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return lessBySort(matched[i], matched[j], q.Sort)
	})

	skip := q.Skip()
	if skip >= len(matched) {
		return []*entities.Note{}, nil
	}
	end := len(matched)
	if q.Limit > 0 && skip+q.Limit < end {
		end = skip + q.Limit
	}
	return matched[skip:end], nil
}

func (s *NoteStore) Count(_ context.Context, filter query.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.filter(filter))), nil
}

// filter must be called with the lock held
func (s *NoteStore) filter(f query.Filter) []*entities.Note {
	out := make([]*entities.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if matches(n, f) {
			out = append(out, cloneNote(n))
		}
	}
	return out
}

func cloneNote(n *entities.Note) *entities.Note {
	c := *n
	c.ReminderAt = cloneTime(n.ReminderAt)
	c.DueDate = cloneTime(n.DueDate)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
