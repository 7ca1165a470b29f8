// Package jobs runs background maintenance work on a River queue backed by
// the main Postgres pool.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/zerolog"
)

// SessionCleanupInterval is how often abandoned sessions are swept.
const SessionCleanupInterval = time.Hour

// NewWorkers registers every background worker.
func NewWorkers(sessions SessionStore, logger zerolog.Logger) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker[SessionCleanupArgs](workers, SessionCleanupWorker{Sessions: sessions, Logger: logger})
	return workers
}

// NewPeriodicJobs builds the recurring schedule. Session cleanup runs hourly
// and once at startup.
func NewPeriodicJobs() []*river.PeriodicJob {
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(SessionCleanupInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return SessionCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}

// NewClient creates a River client on the pgx v5 driver.
func NewClient(pool *pgxpool.Pool, workers *river.Workers, periodicJobs []*river.PeriodicJob) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), &river.Config{
		Workers:      workers,
		PeriodicJobs: periodicJobs,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
	})
}

// Migrate applies River's own schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("river migrations: %w", err)
	}
	return nil
}
