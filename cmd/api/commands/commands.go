package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/jobson-okosun/InkMind-API/internal/adapters/cache"
	"github.com/jobson-okosun/InkMind-API/internal/adapters/notify"
	"github.com/jobson-okosun/InkMind-API/internal/application/jobs"
	"github.com/jobson-okosun/InkMind-API/internal/application/services"
	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/config"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/database"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/metrics"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/server"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// Version is set at build time with -ldflags
var Version = "dev"

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the InkMind API server",
		Long:  "Start the InkMind API server together with the reminder job runner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewJobsCommand creates the job store inspection command
func NewJobsCommand() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect scheduled jobs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in the job store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			noteID, _ := cmd.Flags().GetString("note")
			states, _ := cmd.Flags().GetStringSlice("state")
			return listJobs(cmd.Context(), name, noteID, states)
		},
	}
	listCmd.Flags().String("name", "", "Job name (default: every job)")
	listCmd.Flags().String("note", "", "Only reminder jobs for this note id")
	listCmd.Flags().StringSlice("state", []string{"pending", "running"}, "Job states (pending, running, completed, failed)")

	jobsCmd.AddCommand(listCmd)
	return jobsCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print InkMind version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("InkMind API %s\n", Version)
		},
	}
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, appLogger, nil
}

func runServer(ctx context.Context) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Close()

	st, err := openStores(cfg, appLogger)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()
	checks := map[string]server.HealthCheck{}
	var poolStats func() map[string]interface{}
	if st.db != nil {
		checks["database"] = st.db.HealthCheck
		poolStats = st.db.GetConnectionInfo
	}

	scheduler := services.NewReminderScheduler(st.jobs, appLogger, m)
	noteService := services.NewNoteService(st.notes, scheduler, appLogger)

	if cfg.Redis.Enabled {
		redisCache, err := cache.Connect(ctx, cfg.Redis, appLogger)
		if err != nil {
			appLogger.Warnw("Note cache disabled", "error", err)
		} else {
			defer redisCache.Close()
			noteService.WithCache(redisCache, cfg.Redis.NoteTTL)
			checks["redis"] = redisCache.Ping
		}
	}

	runner := jobs.NewRunner(st.jobs, jobs.OptionsFromConfig(cfg.Scheduler), appLogger, m)
	if cfg.Scheduler.Enabled {
		if err := startRunner(ctx, cfg, st, runner, appLogger, m); err != nil {
			return err
		}
	} else {
		appLogger.Warnw("Job runner disabled; reminders are stored but not delivered")
	}

	srv := server.New(cfg, server.Dependencies{
		Notes:     noteService,
		Metrics:   m,
		Checks:    checks,
		PoolStats: poolStats,
	}, appLogger)

	appLogger.Infow("Starting InkMind API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Info("Shutdown signal received")
	case err := <-serverErr:
		appLogger.Errorw("Server failed", "error", err)
		runner.Stop(context.Background())
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Server forced to shutdown", "error", err)
	}
	if err := runner.Stop(shutdownCtx); err != nil {
		appLogger.Warnw("Job runner did not stop in time", "error", err)
	}

	appLogger.Info("Server exited")
	return nil
}

// startRunner defines the reminder handler, registers the maintenance jobs
// and starts polling
func startRunner(ctx context.Context, cfg *config.Config, st *stores, runner *jobs.Runner, log *logger.Logger, m *metrics.Metrics) error {
	reminders := services.NewReminderHandler(st.notes, notify.NewLogNotifier(log), cfg.Scheduler.PrematureTolerance, log)
	runner.Define(entities.ReminderJobName, reminders.Handle)

	maintenance := services.NewMaintenance(st.notes, st.jobs, cfg.Scheduler.JobRetention, log, m)
	registrar := jobs.NewRegistrar(runner, log)
	err := registrar.Register(ctx, []jobs.Definition{
		jobs.FromConfig(services.CleanupFinishedJobsName, cfg.Scheduler.CleanupJobs, maintenance.CleanupFinishedJobs),
		jobs.FromConfig(services.OverdueNotesDigestName, cfg.Scheduler.OverdueDigest, maintenance.OverdueNotesDigest),
	})
	if err != nil {
		return fmt.Errorf("failed to register recurring jobs: %w", err)
	}

	runner.Start(ctx)
	return nil
}

func openDatabase() (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func runMigration(direction string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.Migrator()
	if err != nil {
		return err
	}
	defer m.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Migration %s completed successfully\n", direction)
	return nil
}

func showMigrationVersion() error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.Migrator()
	if err != nil {
		return err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
	return nil
}

func listJobs(ctx context.Context, name, noteID string, states []string) error {
	q, err := jobQuery(name, noteID, states)
	if err != nil {
		return err
	}

	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Close()

	st, err := openStores(cfg, appLogger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	found, err := st.jobs.Find(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(found)
}

// jobQuery builds the store query for the jobs list flags. --note only
// matches reminder jobs, so it cannot be combined with another job name.
func jobQuery(name, noteID string, states []string) (ports.JobQuery, error) {
	q := ports.JobQuery{NoteID: noteID}
	if noteID != "" {
		if _, err := entities.ParseID(noteID); err != nil {
			return q, fmt.Errorf("invalid note id %q: %w", noteID, err)
		}
		if name != "" && name != entities.ReminderJobName {
			return q, fmt.Errorf("--note lists %q jobs and cannot be combined with --name %q", entities.ReminderJobName, name)
		}
		name = entities.ReminderJobName
	}
	if name != "" {
		q.Names = []string{name}
	}
	for _, s := range states {
		state := entities.JobState(s)
		switch state {
		case entities.JobStatePending, entities.JobStateRunning, entities.JobStateCompleted, entities.JobStateFailed:
		default:
			return q, fmt.Errorf("unknown job state %q", s)
		}
		q.States = append(q.States, state)
	}
	return q, nil
}
