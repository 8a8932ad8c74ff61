package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/config"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/metrics"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// ErrNoHandler is recorded on jobs whose name has no defined handler
var ErrNoHandler = errors.New("no handler defined for job")

// Handler runs one job. Returning an error marks the job failed.
type Handler func(ctx context.Context, job *entities.Job) error

// Options tune the polling loop
type Options struct {
	ProcessEvery   time.Duration
	MaxConcurrency int
	LockLifetime   time.Duration
}

// OptionsFromConfig maps the scheduler config section to runner options
func OptionsFromConfig(cfg config.SchedulerConfig) Options {
	return Options{
		ProcessEvery:   cfg.ProcessEvery,
		MaxConcurrency: cfg.MaxConcurrency,
		LockLifetime:   cfg.LockLifetime,
	}
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule accepts a cron expression, a descriptor such as "@every 1h"
// or "@daily", or a bare duration like "90s".
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("schedule required")
	}
	sched, err := scheduleParser.Parse(spec)
	if err == nil {
		return sched, nil
	}
	if d, derr := time.ParseDuration(spec); derr == nil && d > 0 {
		return cron.Every(d), nil
	}
	return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
}

// Runner polls the job store for due jobs and dispatches them to handlers
// registered by job name.
type Runner struct {
	store   ports.JobRepository
	opts    Options
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.RWMutex
	handlers map[string]Handler
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRunner creates a job runner. metrics may be nil.
func NewRunner(store ports.JobRepository, opts Options, log *logger.Logger, m *metrics.Metrics) *Runner {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.ProcessEvery <= 0 {
		opts.ProcessEvery = 30 * time.Second
	}
	return &Runner{
		store:    store,
		opts:     opts,
		logger:   log.WithComponent("runner"),
		metrics:  m,
		now:      time.Now,
		handlers: make(map[string]Handler),
	}
}

// WithClock replaces the time source
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Define registers the handler for a job name, replacing any previous one
func (r *Runner) Define(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

func (r *Runner) handler(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Every schedules the first pending instance of a recurring job. Later
// instances are created by the runner as each one finishes.
func (r *Runner) Every(ctx context.Context, name, spec string) (*entities.Job, error) {
	if _, ok := r.handler(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, name)
	}
	sched, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}

	now := r.now()
	job := entities.NewRecurringJob(name, spec, sched.Next(now), now)
	if err := r.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create recurring job %s: %w", name, err)
	}

	r.logger.Infow("Recurring job scheduled",
		"job", name,
		"schedule", spec,
		"next_run", job.RunAt.Format(time.RFC3339),
	)
	return job, nil
}

// Start runs the polling loop in the background until Stop is called or ctx
// is cancelled. Calling Start on a running runner does nothing.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)

	r.logger.Infow("Job runner started",
		"process_every", r.opts.ProcessEvery.String(),
		"max_concurrency", r.opts.MaxConcurrency,
	)
}

// Stop cancels the polling loop and waits for in-flight jobs or ctx
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		r.logger.Info("Job runner stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.opts.ProcessEvery)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if _, err := r.ProcessDue(ctx); err != nil && ctx.Err() == nil {
		r.logger.Errorw("Failed to process due jobs", "error", err)
	}
}

// ProcessDue claims due jobs and runs them with bounded concurrency. It
// returns once every claimed job has finished.
func (r *Runner) ProcessDue(ctx context.Context) (int, error) {
	claimed, err := r.store.ClaimDue(ctx, r.now(), r.opts.MaxConcurrency, r.opts.LockLifetime)
	if err != nil {
		return 0, fmt.Errorf("claim due jobs: %w", err)
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	var g errgroup.Group
	g.SetLimit(r.opts.MaxConcurrency)
	for _, job := range claimed {
		job := job
		g.Go(func() error {
			r.execute(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return len(claimed), nil
}

func (r *Runner) execute(ctx context.Context, job *entities.Job) {
	start := time.Now()

	var runErr error
	if h, ok := r.handler(job.Name); ok {
		runErr = invoke(ctx, h, job)
	} else {
		runErr = fmt.Errorf("%w: %s", ErrNoHandler, job.Name)
	}

	r.logger.LogJobRun(job.Name, job.ID.String(), time.Since(start), runErr)

	// bookkeeping must land even when the loop is shutting down
	r.finish(context.WithoutCancel(ctx), job, runErr)
}

// invoke runs h and turns a panic into an error. job is nil for startup runs.
func invoke(ctx context.Context, h Handler, job *entities.Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			name := "startup run"
			if job != nil {
				name = job.Name
			}
			err = fmt.Errorf("job %s panicked: %v", name, p)
		}
	}()
	return h(ctx, job)
}

// finish records the terminal state. A failed one-off job is not retried. A
// recurring instance is replaced by its next occurrence whatever the outcome,
// and the finished instance is removed.
func (r *Runner) finish(ctx context.Context, job *entities.Job, runErr error) {
	now := r.now()
	log := r.logger.WithFields("job", job.Name, "job_id", job.ID.String())

	outcome := "completed"
	var err error
	if runErr != nil {
		outcome = "failed"
		err = job.Fail(now, runErr)
	} else {
		err = job.Complete(now)
	}
	if err != nil {
		log.Errorw("Invalid job state transition", "error", err)
		return
	}
	r.metrics.JobExecuted(job.Name, outcome)

	if !job.IsRecurring() {
		if err := r.store.Save(ctx, job); err != nil && !errors.Is(err, entities.ErrJobNotFound) {
			log.Errorw("Failed to record job result", "state", string(job.State), "error", err)
		}
		return
	}

	if err := r.scheduleNext(ctx, job, now); err != nil {
		log.Errorw("Failed to schedule next occurrence", "error", err)
		// keep the finished instance so the failure stays visible
		if err := r.store.Save(ctx, job); err != nil && !errors.Is(err, entities.ErrJobNotFound) {
			log.Errorw("Failed to record job result", "state", string(job.State), "error", err)
		}
		return
	}
	if _, err := r.store.Cancel(ctx, ports.JobQuery{IDs: []uuid.UUID{job.ID}}); err != nil {
		log.Errorw("Failed to remove finished recurring instance", "error", err)
	}
}

func (r *Runner) scheduleNext(ctx context.Context, job *entities.Job, now time.Time) error {
	sched, err := ParseSchedule(job.RepeatInterval)
	if err != nil {
		return err
	}
	next, err := job.NextOccurrence(sched.Next(now), now)
	if err != nil {
		return err
	}
	if err := r.store.Create(ctx, next); err != nil {
		return err
	}
	r.logger.Debugw("Next occurrence scheduled", "job", job.Name, "run_at", next.RunAt.Format(time.RFC3339))
	return nil
}
