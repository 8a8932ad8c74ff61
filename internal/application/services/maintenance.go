package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/domain/query"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/metrics"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// Recurring maintenance job names
const (
	CleanupFinishedJobsName = "cleanup-finished-jobs"
	OverdueNotesDigestName  = "overdue-notes-digest"
)

// Maintenance holds the recurring housekeeping jobs. Both functions accept
// a nil job, which is how startup runs invoke them.
type Maintenance struct {
	notes     ports.NoteRepository
	jobs      ports.JobRepository
	retention time.Duration
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewMaintenance(notes ports.NoteRepository, jobs ports.JobRepository, retention time.Duration, log *logger.Logger, m *metrics.Metrics) *Maintenance {
	return &Maintenance{
		notes:     notes,
		jobs:      jobs,
		retention: retention,
		logger:    log.WithComponent("maintenance"),
		metrics:   m,
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (m *Maintenance) WithClock(now func() time.Time) *Maintenance {
	m.now = now
	return m
}

// CleanupFinishedJobs purges completed and failed jobs older than the retention
func (m *Maintenance) CleanupFinishedJobs(ctx context.Context, _ *entities.Job) error {
	cutoff := m.now().Add(-m.retention)
	removed, err := m.jobs.PurgeFinished(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge finished jobs: %w", err)
	}

	m.logger.Infow("Finished jobs purged", "count", removed, "cutoff", cutoff.Format(time.RFC3339))
	return nil
}

// OverdueFilter matches visible notes whose due date has passed
func OverdueFilter(now time.Time) query.Filter {
	var f query.Filter
	f.Where("isArchived", query.OpEq, false).
		Where("dueDate", query.OpNotNull, nil).
		Where("dueDate", query.OpLt, now)
	return f
}

// OverdueNotesDigest counts overdue notes and publishes the gauge
func (m *Maintenance) OverdueNotesDigest(ctx context.Context, _ *entities.Job) error {
	count, err := m.notes.Count(ctx, OverdueFilter(m.now()))
	if err != nil {
		return fmt.Errorf("count overdue notes: %w", err)
	}

	m.metrics.SetOverdueNotes(count)
	m.logger.Infow("Overdue notes digest", "overdue", count)
	return nil
}
