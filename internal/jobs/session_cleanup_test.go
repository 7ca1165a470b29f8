package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

type fakeSessionStore struct {
	deleted int64
	err     error
	calls   int
}

func (f *fakeSessionStore) DeleteExpired(context.Context) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

func TestSessionCleanupArgsKind(t *testing.T) {
	if got := (SessionCleanupArgs{}).Kind(); got != JobKindSessionCleanup {
		t.Errorf("SessionCleanupArgs.Kind() = %q, want %q", got, JobKindSessionCleanup)
	}
	if got := (SessionCleanupWorker{}).Kind(); got != JobKindSessionCleanup {
		t.Errorf("SessionCleanupWorker.Kind() = %q, want %q", got, JobKindSessionCleanup)
	}
}

func TestSessionCleanupWorkerDeletesExpired(t *testing.T) {
	store := &fakeSessionStore{deleted: 3}
	worker := SessionCleanupWorker{Sessions: store, Logger: zerolog.Nop()}

	if err := worker.Work(context.Background(), &river.Job[SessionCleanupArgs]{}); err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if store.calls != 1 {
		t.Errorf("DeleteExpired calls = %d, want 1", store.calls)
	}
}

func TestSessionCleanupWorkerPropagatesError(t *testing.T) {
	store := &fakeSessionStore{err: errors.New("connection reset")}
	worker := SessionCleanupWorker{Sessions: store, Logger: zerolog.Nop()}

	if err := worker.Work(context.Background(), &river.Job[SessionCleanupArgs]{}); err == nil {
		t.Error("Work() expected error, got nil")
	}
}

func TestSessionCleanupWorkerRequiresStore(t *testing.T) {
	worker := SessionCleanupWorker{Logger: zerolog.Nop()}

	if err := worker.Work(context.Background(), &river.Job[SessionCleanupArgs]{}); err == nil {
		t.Error("Work() expected error for missing store, got nil")
	}
}

func TestNewPeriodicJobs(t *testing.T) {
	periodic := NewPeriodicJobs()
	if len(periodic) != 1 {
		t.Fatalf("NewPeriodicJobs() returned %d jobs, want 1", len(periodic))
	}
}
