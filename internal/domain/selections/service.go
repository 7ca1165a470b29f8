package selections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/growthcompass/server/internal/sanitize"
)

var (
	ErrInvalidViewpoint = errors.New("unknown viewpoint")
	ErrInvalidStep      = errors.New("step must be between 1 and 4")
)

// Selection is one member's self-assessment for a single viewpoint.
type Selection struct {
	UserID    string
	Viewpoint string
	Step      int
	Memo      string
	UpdatedAt time.Time
}

// Repository is the persistence surface for selections. Upsert is keyed on
// (user_id, viewpoint); Delete is idempotent.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Selection, error)
	Upsert(ctx context.Context, selection Selection) error
	Delete(ctx context.Context, userID, viewpoint string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns all of the caller's selections, at most one per viewpoint.
func (s *Service) Get(ctx context.Context, userID string) ([]Selection, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return items, nil
}

// Set validates and upserts a selection. Setting the same (user, viewpoint)
// twice overwrites the previous step and memo.
func (s *Service) Set(ctx context.Context, userID, viewpoint string, step int, memo string) (Selection, error) {
	if !IsValidViewpoint(viewpoint) {
		return Selection{}, ErrInvalidViewpoint
	}
	if !IsValidStep(step) {
		return Selection{}, ErrInvalidStep
	}

	selection := Selection{
		UserID:    userID,
		Viewpoint: viewpoint,
		Step:      step,
		Memo:      sanitize.Text(memo),
	}
	if err := s.repo.Upsert(ctx, selection); err != nil {
		return Selection{}, fmt.Errorf("upsert selection: %w", err)
	}
	return selection, nil
}

// Delete removes the caller's selection for a viewpoint. Deleting a selection
// that does not exist is not an error.
func (s *Service) Delete(ctx context.Context, userID, viewpoint string) error {
	if !IsValidViewpoint(viewpoint) {
		return ErrInvalidViewpoint
	}
	if err := s.repo.Delete(ctx, userID, viewpoint); err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}
	return nil
}
