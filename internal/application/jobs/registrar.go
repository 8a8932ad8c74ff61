package jobs

import (
	"context"
	"fmt"

	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/config"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// Definition declares a recurring job
type Definition struct {
	Name         string
	Schedule     string
	Enabled      bool
	RunOnStartup bool
	Handler      Handler
}

// FromConfig builds a definition from its config section
func FromConfig(name string, cfg config.RecurringJobConfig, h Handler) Definition {
	return Definition{
		Name:         name,
		Schedule:     cfg.Schedule,
		Enabled:      cfg.Enabled,
		RunOnStartup: cfg.RunOnStartup,
		Handler:      h,
	}
}

// Registrar installs the declared recurring jobs on the runner. Running it
// again replaces whatever a previous process left behind.
type Registrar struct {
	runner *Runner
	logger *logger.Logger
}

func NewRegistrar(runner *Runner, log *logger.Logger) *Registrar {
	return &Registrar{
		runner: runner,
		logger: log.WithComponent("registrar"),
	}
}

// Register cancels every stored instance of the declared names, disabled
// ones included, then defines and schedules each enabled job. A failing
// startup run is logged and does not stop registration.
func (g *Registrar) Register(ctx context.Context, defs []Definition) error {
	if len(defs) == 0 {
		return nil
	}

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return fmt.Errorf("recurring job without a name")
		}
		if def.Enabled && def.Handler == nil {
			return fmt.Errorf("recurring job %s has no handler", def.Name)
		}
		if def.Enabled {
			if _, err := ParseSchedule(def.Schedule); err != nil {
				return fmt.Errorf("recurring job %s: %w", def.Name, err)
			}
		}
		names = append(names, def.Name)
	}

	removed, err := g.runner.store.Cancel(ctx, ports.JobQuery{Names: names})
	if err != nil {
		return fmt.Errorf("cancel stale recurring jobs: %w", err)
	}
	if removed > 0 {
		g.logger.Infow("Removed stale recurring jobs", "count", removed)
	}

	for _, def := range defs {
		if !def.Enabled {
			g.logger.Infow("Recurring job disabled", "job", def.Name)
			continue
		}

		g.runner.Define(def.Name, def.Handler)

		if def.RunOnStartup {
			if err := invoke(ctx, def.Handler, nil); err != nil {
				g.logger.Errorw("Startup run failed", "job", def.Name, "error", err)
			} else {
				g.logger.Infow("Startup run completed", "job", def.Name)
			}
		}

		if _, err := g.runner.Every(ctx, def.Name, def.Schedule); err != nil {
			return err
		}
	}
	return nil
}
