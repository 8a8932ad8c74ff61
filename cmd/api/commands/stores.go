package commands

import (
	"fmt"

	"github.com/jobson-okosun/InkMind-API/internal/adapters/memory"
	"github.com/jobson-okosun/InkMind-API/internal/adapters/repository"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/config"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/database"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// stores holds the note and job stores for the configured driver. db is nil
// for the memory driver.
type stores struct {
	db    *database.DB
	notes ports.NoteRepository
	jobs  ports.JobRepository
}

func openStores(cfg *config.Config, log *logger.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warnw("Using in-memory storage; notes and jobs are lost on restart")
		return &stores{
			notes: memory.NewNoteStore(),
			jobs:  memory.NewJobStore(),
		}, nil

	case config.StorageDriverPostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		log.Infow("Database connected",
			"host", cfg.Database.Host,
			"database", cfg.Database.Name,
		)

		if cfg.Database.AutoMigrate {
			if err := db.MigrateUp(); err != nil {
				db.Close()
				return nil, err
			}
			log.Info("Database migrations applied")
		}

		return &stores{
			db:    db,
			notes: repository.NewNoteRepository(db.DB),
			jobs:  repository.NewJobRepository(db.DB),
		}, nil
	}

	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

func (s *stores) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
