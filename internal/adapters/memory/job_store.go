package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// JobStore is an in-process job store with the same claim semantics as the
// Postgres one.
type JobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entities.Job

	// FailNext makes the next call to any method return this error. Tests use
	// it to simulate an unreachable store.
	FailNext error
}

var _ ports.JobRepository = (*JobStore)(nil)

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[uuid.UUID]*entities.Job)}
}

func (s *JobStore) injected() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

func (s *JobStore) Create(_ context.Context, job *entities.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected(); err != nil {
		return err
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *JobStore) Find(_ context.Context, q ports.JobQuery) ([]*entities.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected(); err != nil {
		return nil, err
	}
	out := []*entities.Job{}
	for _, j := range s.jobs {
		if jobMatches(j, q) {
			out = append(out, cloneJob(j))
		}
	}
	sortJobs(out)
	return out, nil
}

func (s *JobStore) Cancel(_ context.Context, q ports.JobQuery) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected(); err != nil {
		return 0, err
	}
	if q.Empty() {
		return 0, ports.ErrEmptyJobQuery
	}
	removed := 0
	for id, j := range s.jobs {
		if jobMatches(j, q) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (s *JobStore) ClaimDue(_ context.Context, now time.Time, limit int, lockLifetime time.Duration) ([]*entities.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	staleBefore := now.Add(-lockLifetime)
	var due []*entities.Job
	for _, j := range s.jobs {
		switch {
		case j.State == entities.JobStatePending && !j.RunAt.After(now):
			due = append(due, j)
		case j.State == entities.JobStateRunning && j.LockedAt != nil && j.LockedAt.Before(staleBefore):
			due = append(due, j)
		}
	}
	sortJobs(due)
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*entities.Job, 0, len(due))
	for _, j := range due {
		if err := j.Start(now); err != nil {
			return nil, err
		}
		claimed = append(claimed, cloneJob(j))
	}
	return claimed, nil
}

func (s *JobStore) Save(_ context.Context, job *entities.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected(); err != nil {
		return err
	}
	if _, ok := s.jobs[job.ID]; !ok {
		return entities.ErrJobNotFound
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *JobStore) PurgeFinished(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected(); err != nil {
		return 0, err
	}
	removed := 0
	for id, j := range s.jobs {
		if j.State.Terminal() && j.FinishedAt != nil && j.FinishedAt.Before(before) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

// Len is the number of stored jobs in any state
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func jobMatches(j *entities.Job, q ports.JobQuery) bool {
	if len(q.IDs) > 0 && !containsID(q.IDs, j.ID) {
		return false
	}
	if len(q.Names) > 0 && !containsString(q.Names, j.Name) {
		return false
	}
	if q.NoteID != "" && j.Payload.NoteID != q.NoteID {
		return false
	}
	if len(q.States) > 0 && !containsState(q.States, j.State) {
		return false
	}
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func containsState(states []entities.JobState, s entities.JobState) bool {
	for _, v := range states {
		if v == s {
			return true
		}
	}
	return false
}

func sortJobs(jobs []*entities.Job) {
	sort.Slice(jobs, func(i, k int) bool {
		if !jobs[i].RunAt.Equal(jobs[k].RunAt) {
			return jobs[i].RunAt.Before(jobs[k].RunAt)
		}
		return jobs[i].ID.String() < jobs[k].ID.String()
	})
}

func cloneJob(j *entities.Job) *entities.Job {
	c := *j
	c.LockedAt = cloneTime(j.LockedAt)
	c.LastRunAt = cloneTime(j.LastRunAt)
	c.FinishedAt = cloneTime(j.FinishedAt)
	if j.LastError != nil {
		msg := *j.LastError
		c.LastError = &msg
	}
	return &c
}
