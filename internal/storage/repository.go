package storage

import (
	"github.com/growthcompass/server/internal/auth"
	"github.com/growthcompass/server/internal/domain/events"
	"github.com/growthcompass/server/internal/domain/selections"
	"github.com/growthcompass/server/internal/domain/users"
)

// Repository groups data access by domain. Every write is a single statement
// whose atomicity the store guarantees, so there is no transaction helper.
type Repository interface {
	Users() users.Repository
	Selections() selections.Repository
	Events() events.Repository
	Sessions() auth.SessionStore
}
