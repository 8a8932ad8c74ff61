package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobson-okosun/InkMind-API/internal/adapters/memory"
	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/config"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

func activeJobs(t *testing.T, store ports.JobRepository, name string) []*entities.Job {
	t.Helper()
	jobs, err := store.Find(context.Background(), ports.JobQuery{
		Names:  []string{name},
		States: entities.ActiveJobStates,
	})
	require.NoError(t, err)
	return jobs
}

func TestRegisterIsIdempotentAcrossRestarts(t *testing.T) {
	store := memory.NewJobStore()

	startupRuns := 0
	defs := []Definition{
		{Name: "cleanup", Schedule: "@every 1h", Enabled: true, Handler: func(context.Context, *entities.Job) error { return nil }},
		{Name: "digest", Schedule: "@every 15m", Enabled: true, RunOnStartup: true, Handler: func(_ context.Context, job *entities.Job) error {
			assert.Nil(t, job)
			startupRuns++
			return nil
		}},
	}

	// two processes booting one after the other against the same store
	for i := 0; i < 2; i++ {
		r, _ := newTestRunner(store, nil)
		require.NoError(t, NewRegistrar(r, logger.NewNop()).Register(context.Background(), defs))
	}

	assert.Len(t, activeJobs(t, store, "cleanup"), 1)
	assert.Len(t, activeJobs(t, store, "digest"), 1)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 2, startupRuns)

	digest := activeJobs(t, store, "digest")[0]
	assert.Equal(t, fixedNow.Add(15*time.Minute), digest.RunAt)
}

func TestRegisterLeavesReminderJobsAlone(t *testing.T) {
	store := memory.NewJobStore()
	dueReminder(t, store)

	r, _ := newTestRunner(store, nil)
	require.NoError(t, NewRegistrar(r, logger.NewNop()).Register(context.Background(), []Definition{
		{Name: "cleanup", Schedule: "@every 1h", Enabled: true, Handler: func(context.Context, *entities.Job) error { return nil }},
	}))

	assert.Len(t, activeJobs(t, store, entities.ReminderJobName), 1)
}

func TestRegisterDisabledJobRemovesStaleInstances(t *testing.T) {
	store := memory.NewJobStore()
	require.NoError(t, store.Create(context.Background(),
		entities.NewRecurringJob("digest", "@every 15m", fixedNow, fixedNow)))

	r, _ := newTestRunner(store, nil)
	called := false
	require.NoError(t, NewRegistrar(r, logger.NewNop()).Register(context.Background(), []Definition{
		{Name: "digest", Schedule: "@every 15m", Enabled: false, RunOnStartup: true, Handler: func(context.Context, *entities.Job) error {
			called = true
			return nil
		}},
	}))

	assert.Zero(t, store.Len())
	assert.False(t, called)
	_, ok := r.handler("digest")
	assert.False(t, ok)
}

func TestRegisterStartupFailureDoesNotAbort(t *testing.T) {
	store := memory.NewJobStore()
	r, _ := newTestRunner(store, nil)

	err := NewRegistrar(r, logger.NewNop()).Register(context.Background(), []Definition{
		{Name: "digest", Schedule: "@every 15m", Enabled: true, RunOnStartup: true, Handler: func(context.Context, *entities.Job) error {
			return errors.New("notes store unavailable")
		}},
		{Name: "panicky", Schedule: "@every 15m", Enabled: true, RunOnStartup: true, Handler: func(context.Context, *entities.Job) error {
			panic("boom")
		}},
	})
	require.NoError(t, err)
	assert.Len(t, activeJobs(t, store, "digest"), 1)
	assert.Len(t, activeJobs(t, store, "panicky"), 1)
}

func TestRegisterRejectsBadDefinitions(t *testing.T) {
	noop := func(context.Context, *entities.Job) error { return nil }
	tests := []struct {
		name string
		def  Definition
	}{
		{"no name", Definition{Schedule: "@every 1h", Enabled: true, Handler: noop}},
		{"no handler", Definition{Name: "x", Schedule: "@every 1h", Enabled: true}},
		{"bad schedule", Definition{Name: "x", Schedule: "often", Enabled: true, Handler: noop}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewJobStore()
			r, _ := newTestRunner(store, nil)
			assert.Error(t, NewRegistrar(r, logger.NewNop()).Register(context.Background(), []Definition{tt.def}))
			assert.Zero(t, store.Len())
		})
	}
}

func TestRegisterStoreFailure(t *testing.T) {
	store := memory.NewJobStore()
	store.FailNext = errors.New("db down")
	r, _ := newTestRunner(store, nil)

	err := NewRegistrar(r, logger.NewNop()).Register(context.Background(), []Definition{
		{Name: "cleanup", Schedule: "@every 1h", Enabled: true, Handler: func(context.Context, *entities.Job) error { return nil }},
	})
	assert.ErrorContains(t, err, "db down")
}

func TestFromConfig(t *testing.T) {
	h := func(context.Context, *entities.Job) error { return nil }
	def := FromConfig("digest", config.RecurringJobConfig{Enabled: true, Schedule: "@every 15m", RunOnStartup: true}, h)

	assert.Equal(t, "digest", def.Name)
	assert.Equal(t, "@every 15m", def.Schedule)
	assert.True(t, def.Enabled)
	assert.True(t, def.RunOnStartup)
	assert.NotNil(t, def.Handler)
}
