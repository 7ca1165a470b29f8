package postgres

import (
	"fmt"

	"github.com/growthcompass/server/internal/auth"
	"github.com/growthcompass/server/internal/domain/events"
	"github.com/growthcompass/server/internal/domain/selections"
	"github.com/growthcompass/server/internal/domain/users"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{pool: r.pool}
}

func (r *Repository) Selections() selections.Repository {
	return &SelectionRepository{pool: r.pool}
}

func (r *Repository) Events() events.Repository {
	return &EventRepository{pool: r.pool}
}

func (r *Repository) Sessions() auth.SessionStore {
	return &SessionRepository{pool: r.pool}
}

type UserRepository struct {
	pool *pgxpool.Pool
}

type SelectionRepository struct {
	pool *pgxpool.Pool
}

type EventRepository struct {
	pool *pgxpool.Pool
}

type SessionRepository struct {
	pool *pgxpool.Pool
}
