package cmd

import (
	"context"
	"fmt"

	"jobward/internal/config"
	"jobward/internal/store"
	"jobward/internal/store/postgres"
	"jobward/internal/store/sqlite"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "jobward",
	Short: "Jobward supervises OS worker processes for scheduled jobs",
	Long: `jobward is a process supervisor for background jobs.

A single supervisor process polls the job store for due work, spawns one
isolated OS process per job up to a concurrency cap, and reaps finished
workers. On SIGINT/SIGTERM/SIGQUIT the supervisor terminates running
workers and requeues their jobs so the next run picks them up again
(at-least-once execution).

Common workflows:

  Run database migrations:
    jobward migrate

  Start the supervisor:
    jobward serve

  Enqueue a job:
    jobward enqueue --name shell --payload '{"command":["echo","hello"]}'

  Enqueue a recurring job:
    jobward enqueue --name shell --payload '{"command":["backup.sh"]}' --cron "0 3 * * *"

Configuration:
  Settings come from a YAML file (--config) overridden by JOBWARD_*
  environment variables:
    JOBWARD_DATABASE_URL          Postgres URL or sqlite file path (required)
    JOBWARD_STORE_DRIVER          postgres or sqlite (default: postgres)
    JOBWARD_POLLING_INTERVAL      supervisor poll interval (default: 5s)
    JOBWARD_MAX_CONCURRENT_JOBS   worker process cap (default: 4)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
}

// backend is the store plus the raw handle the migrate command needs.
type backend interface {
	store.Store
	Migrate() error
}

type postgresBackend struct{ *postgres.Store }

func (b postgresBackend) Migrate() error { return postgres.Migrate(b.DB()) }

type sqliteBackend struct{ *sqlite.Store }

func (b sqliteBackend) Migrate() error { return sqlite.Migrate(b.DB()) }

func openStore(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.StoreDriver {
	case "postgres":
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return postgresBackend{s}, nil
	case "sqlite":
		s, err := sqlite.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return sqliteBackend{s}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
