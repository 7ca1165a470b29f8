package jobs

import (
	"context"
	"fmt"

	"github.com/growthcompass/server/internal/metrics"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

const JobKindSessionCleanup = "session_cleanup"

type SessionCleanupArgs struct{}

func (SessionCleanupArgs) Kind() string { return JobKindSessionCleanup }

// SessionStore is the slice of the session repository the cleanup worker needs.
type SessionStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionCleanupWorker deletes expired session rows. Validation already drops
// expired sessions on contact; this sweep catches abandoned ones.
type SessionCleanupWorker struct {
	river.WorkerDefaults[SessionCleanupArgs]
	Sessions SessionStore
	Logger   zerolog.Logger
}

func (SessionCleanupWorker) Kind() string { return JobKindSessionCleanup }

func (w SessionCleanupWorker) Work(ctx context.Context, job *river.Job[SessionCleanupArgs]) error {
	if w.Sessions == nil {
		return fmt.Errorf("session store not configured")
	}

	deleted, err := w.Sessions.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	if deleted > 0 {
		metrics.SessionsCleaned.Add(float64(deleted))
		w.Logger.Info().Int64("deleted", deleted).Msg("expired sessions cleaned")
	}
	return nil
}
