package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/growthcompass/server/internal/api/problem"
	"github.com/growthcompass/server/internal/auth"
	"github.com/growthcompass/server/internal/domain/users"
)

type contextKey string

const (
	userContextKey    contextKey = "authenticatedUser"
	sessionContextKey contextKey = "authenticatedSession"
)

// UserFromContext returns the authenticated user, if the request passed
// through RequireUser.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(userContextKey).(*users.User)
	return user, ok
}

// SessionFromContext returns the session backing the request.
func SessionFromContext(ctx context.Context) (*auth.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*auth.Session)
	return session, ok
}

// ContextWithUser returns ctx carrying the user and session, the same way
// RequireUser populates it.
func ContextWithUser(ctx context.Context, user *users.User, session *auth.Session) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	if session != nil {
		ctx = context.WithValue(ctx, sessionContextKey, session)
	}
	return ctx
}

// Authenticator resolves bearer tokens to users for the protected routes.
type Authenticator struct {
	sessions auth.SessionStore
	users    *users.Service
	env      string
}

func NewAuthenticator(sessions auth.SessionStore, usersService *users.Service, env string) *Authenticator {
	return &Authenticator{sessions: sessions, users: usersService, env: env}
}

// RequireUser rejects requests without a valid, unexpired session and puts
// the user and session on the context.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := auth.ValidateSession(r.Context(), a.sessions, r.Header.Get("Authorization"))
		if err != nil {
			title := "Unauthorized"
			if errors.Is(err, auth.ErrSessionExpired) {
				title = "Session Expired"
			}
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, title, err, a.env)
			return
		}

		user, err := a.users.GetByID(r.Context(), session.UserID)
		if err != nil {
			// The user can be deleted while the session row still exists.
			if errors.Is(err, users.ErrNotFound) {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, a.env)
				return
			}
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, a.env)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user, session)))
	})
}

// RequireAdmin layers the admin role check on top of RequireUser.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return a.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || user.Role != auth.RoleAdmin {
			problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", errors.New("admin role required"), a.env)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
