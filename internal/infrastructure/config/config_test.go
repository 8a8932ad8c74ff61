package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "InkMind", cfg.App.Name)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.ProcessEvery)
	assert.Equal(t, 20, cfg.Scheduler.MaxConcurrency)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.PrematureTolerance)
	assert.Equal(t, "@every 1h", cfg.Scheduler.CleanupJobs.Schedule)
	assert.True(t, cfg.Scheduler.OverdueDigest.RunOnStartup)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.App.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "production")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SCHEDULER_PROCESS_EVERY", "5s")
	t.Setenv("SCHEDULER_MAX_CONCURRENCY", "3")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.ProcessEvery)
	assert.Equal(t, 3, cfg.Scheduler.MaxConcurrency)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "mongo"}},
		{name: "unknown environment", env: map[string]string{"APP_ENVIRONMENT": "staging"}},
		{name: "bad port", env: map[string]string{"SERVER_PORT": "70000"}},
		{name: "zero concurrency", env: map[string]string{"SCHEDULER_MAX_CONCURRENCY": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestValidateRequiresDatabaseForPostgres(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	cfg.Database.Name = ""
	assert.Error(t, validateConfig(cfg))

	cfg.Storage.Driver = StorageDriverMemory
	assert.NoError(t, validateConfig(cfg))
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "ink", Password: "secret", Name: "notes", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=ink password=secret dbname=notes sslmode=disable", cfg.GetDSN())
}
