package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

const jobColumns = `id, name, payload, run_at, state, repeat_interval, attempts,
	last_error, locked_at, last_run_at, finished_at, created_at, updated_at`

// JobRepositoryImpl is the Postgres job store
type JobRepositoryImpl struct {
	db *sqlx.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *sqlx.DB) ports.JobRepository {
	return &JobRepositoryImpl{db: db}
}

func (r *JobRepositoryImpl) Create(ctx context.Context, job *entities.Job) error {
	query := `
		INSERT INTO jobs (id, name, payload, run_at, state, repeat_interval, attempts,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.Name, job.Payload, job.RunAt, job.State, job.RepeatInterval,
		job.Attempts, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	return nil
}

func (r *JobRepositoryImpl) Find(ctx context.Context, q ports.JobQuery) ([]*entities.Job, error) {
	args := &sqlArgs{}
	where := renderJobQuery(q, args)

	jobs := []*entities.Job{}
	stmt := fmt.Sprintf("SELECT %s FROM jobs %s ORDER BY run_at ASC, id ASC", jobColumns, where)
	if err := r.db.SelectContext(ctx, &jobs, stmt, args.values...); err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}

	return jobs, nil
}

func (r *JobRepositoryImpl) Cancel(ctx context.Context, q ports.JobQuery) (int, error) {
	if q.Empty() {
		return 0, ports.ErrEmptyJobQuery
	}

	args := &sqlArgs{}
	result, err := r.db.ExecContext(ctx, "DELETE FROM jobs "+renderJobQuery(q, args), args.values...)
	if err != nil {
		return 0, fmt.Errorf("cancel jobs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel jobs: %w", err)
	}

	return int(rows), nil
}

// ClaimDue locks and claims due jobs in one statement. SKIP LOCKED keeps
// concurrent claimers from picking the same rows.
func (r *JobRepositoryImpl) ClaimDue(ctx context.Context, now time.Time, limit int, lockLifetime time.Duration) ([]*entities.Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		UPDATE jobs
		SET state = 'running', attempts = attempts + 1,
			locked_at = $1, last_run_at = $1, updated_at = $1
		WHERE id IN (
			SELECT id FROM jobs
			WHERE (state = 'pending' AND run_at <= $1)
				OR (state = 'running' AND locked_at < $2)
			ORDER BY run_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	jobs := []*entities.Job{}
	if err := r.db.SelectContext(ctx, &jobs, query, now, now.Add(-lockLifetime), limit); err != nil {
		return nil, fmt.Errorf("claim due jobs: %w", err)
	}

	return jobs, nil
}

func (r *JobRepositoryImpl) Save(ctx context.Context, job *entities.Job) error {
	query := `
		UPDATE jobs
		SET state = $2, run_at = $3, attempts = $4, last_error = $5, locked_at = $6,
			last_run_at = $7, finished_at = $8, updated_at = $9
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		job.ID, job.State, job.RunAt, job.Attempts, job.LastError, job.LockedAt,
		job.LastRunAt, job.FinishedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	if rows == 0 {
		return entities.ErrJobNotFound
	}

	return nil
}

func (r *JobRepositoryImpl) PurgeFinished(ctx context.Context, before time.Time) (int, error) {
	query := `
		DELETE FROM jobs
		WHERE state IN ('completed', 'failed') AND finished_at < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("purge finished jobs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge finished jobs: %w", err)
	}

	return int(rows), nil
}

func renderJobQuery(q ports.JobQuery, args *sqlArgs) string {
	var parts []string
	if len(q.IDs) > 0 {
		ids := make([]string, len(q.IDs))
		for i, id := range q.IDs {
			ids[i] = id.String()
		}
		parts = append(parts, "id = ANY("+args.add(pq.Array(ids))+"::uuid[])")
	}
	if len(q.Names) > 0 {
		parts = append(parts, "name = ANY("+args.add(pq.Array(q.Names))+")")
	}
	if q.NoteID != "" {
		parts = append(parts, "note_id = "+args.add(q.NoteID))
	}
	if len(q.States) > 0 {
		states := make([]string, len(q.States))
		for i, s := range q.States {
			states[i] = string(s)
		}
		parts = append(parts, "state = ANY("+args.add(pq.Array(states))+")")
	}
	if len(parts) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(parts, " AND ")
}
