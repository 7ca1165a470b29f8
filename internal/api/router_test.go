package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/growthcompass/server/internal/auth"
	"github.com/growthcompass/server/internal/config"
	"github.com/growthcompass/server/internal/domain/events"
	"github.com/growthcompass/server/internal/domain/selections"
	"github.com/growthcompass/server/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "1f6d9c2e8a4b7d3f5c1e9a8b7d6f4e2c1a3b5d7f9e8c6a4b2d1f3e5c7a9b8d6f"

type stubStore struct {
	admin users.User
}

func (s *stubStore) Users() users.Repository           { return stubUsers{admin: s.admin} }
func (s *stubStore) Selections() selections.Repository { return stubSelections{} }
func (s *stubStore) Events() events.Repository         { return stubEvents{} }
func (s *stubStore) Sessions() auth.SessionStore       { return stubSessions{userID: s.admin.ID} }

type stubSessions struct{ userID string }

func (s stubSessions) Create(context.Context, auth.Session) error { return nil }
func (s stubSessions) Get(_ context.Context, token string) (*auth.Session, error) {
	if token != adminToken {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Session{Token: token, UserID: s.userID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}
func (s stubSessions) Delete(context.Context, string) error { return nil }

type stubUsers struct{ admin users.User }

func (s stubUsers) Create(_ context.Context, user users.User) (users.User, error) {
	user.ID = "ignored"
	return user, nil
}
func (s stubUsers) GetByID(_ context.Context, id string) (*users.User, error) {
	if id != s.admin.ID {
		return nil, users.ErrNotFound
	}
	admin := s.admin
	return &admin, nil
}
func (s stubUsers) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, users.ErrNotFound
}
func (s stubUsers) ListWithSelections(context.Context) ([]users.MemberRow, error) { return nil, nil }
func (s stubUsers) UpdateRole(context.Context, string, string) error { return users.ErrNotFound }
func (s stubUsers) Delete(context.Context, string) error             { return users.ErrNotFound }

type stubSelections struct{}

func (stubSelections) ListByUser(context.Context, string) ([]selections.Selection, error) {
	return nil, nil
}
func (stubSelections) Upsert(context.Context, selections.Selection) error { return nil }
func (stubSelections) Delete(context.Context, string, string) error       { return nil }

type stubEvents struct{}

func (stubEvents) Create(_ context.Context, event events.Event) (events.Event, error) {
	event.ID = "event-1"
	event.CreatedAt = time.Now()
	return event, nil
}
func (stubEvents) GetByULID(context.Context, string) (*events.Event, error) {
	return nil, events.ErrNotFound
}
func (stubEvents) GetByCode(context.Context, string) (*events.Event, error) {
	return nil, events.ErrNotFound
}
func (stubEvents) List(context.Context, bool) ([]events.Event, error)  { return nil, nil }
func (stubEvents) SetActive(context.Context, string, bool) error       { return events.ErrNotFound }
func (stubEvents) AddAttendance(context.Context, string, string) error { return nil }
func (stubEvents) ListAttendees(context.Context, string) ([]events.AttendeeRow, error) {
	return nil, nil
}
func (stubEvents) CreateQuestion(_ context.Context, q events.Question) (events.Question, error) {
	return q, nil
}
func (stubEvents) ListQuestions(context.Context, string) ([]events.Question, error) {
	return nil, nil
}
func (stubEvents) UpsertSurveyAnswer(context.Context, events.SurveyAnswer) error { return nil }
func (stubEvents) UpsertCustomAnswer(context.Context, events.CustomAnswer) error { return nil }
func (stubEvents) ListCustomAnswers(context.Context, string) ([]events.CustomAnswer, error) {
	return nil, nil
}

func testRouter() http.Handler {
	cfg := config.Config{
		Environment: "test",
		Auth:        config.AuthConfig{SessionExpiry: time.Hour, MinPasswordLength: 8},
	}
	store := &stubStore{admin: users.User{ID: "admin-1", Name: "Admin", Role: auth.RoleAdmin}}
	return NewRouter(cfg, zerolog.Nop(), nil, store)
}

// Request bodies on member and public routes are capped well below the admin
// cap; a two megabyte payload must pass the admin route and fail the public
// one.
func TestBodySizeTiers(t *testing.T) {
	router := testRouter()
	padding := strings.Repeat("x", 2<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"name":"A","email":"a@example.com","password":"secret123","notes":"`+padding+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "oversized public body")

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/events",
		strings.NewReader(`{"title":"Workshop","starts_at":"2026-10-01T10:00:00Z","notes":"`+padding+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.Len())
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/auth/register", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))
}

func TestRouterRequiresAuth(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/selections", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/members", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
