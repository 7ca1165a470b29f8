package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/growthcompass/server/internal/api/middleware"
	"github.com/growthcompass/server/internal/audit"
	"github.com/growthcompass/server/internal/auth"
	"github.com/growthcompass/server/internal/domain/events"
	"github.com/growthcompass/server/internal/domain/selections"
	"github.com/growthcompass/server/internal/domain/users"
	"github.com/rs/zerolog"
)

type fakeSessions struct {
	sessions map[string]auth.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]auth.Session)}
}

func (f *fakeSessions) Create(_ context.Context, session auth.Session) error {
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeSessions) Get(_ context.Context, token string) (*auth.Session, error) {
	session, ok := f.sessions[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &session, nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

type fakeUserRepo struct {
	users map[string]users.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]users.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user users.User) (users.User, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return users.User{}, users.ErrEmailTaken
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, users.ErrNotFound
}

func (f *fakeUserRepo) ListWithSelections(_ context.Context) ([]users.MemberRow, error) {
	var rows []users.MemberRow
	for _, user := range f.users {
		rows = append(rows, users.MemberRow{User: user})
	}
	return rows, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, id, role string) error {
	user, ok := f.users[id]
	if !ok {
		return users.ErrNotFound
	}
	user.Role = role
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return users.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type selectionKey struct {
	userID    string
	viewpoint string
}

type fakeSelectionRepo struct {
	items map[selectionKey]selections.Selection
}

func newFakeSelectionRepo() *fakeSelectionRepo {
	return &fakeSelectionRepo{items: make(map[selectionKey]selections.Selection)}
}

func (f *fakeSelectionRepo) ListByUser(_ context.Context, userID string) ([]selections.Selection, error) {
	var result []selections.Selection
	for key, item := range f.items {
		if key.userID == userID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (f *fakeSelectionRepo) Upsert(_ context.Context, selection selections.Selection) error {
	selection.UpdatedAt = time.Now()
	f.items[selectionKey{selection.UserID, selection.Viewpoint}] = selection
	return nil
}

func (f *fakeSelectionRepo) Delete(_ context.Context, userID, viewpoint string) error {
	delete(f.items, selectionKey{userID, viewpoint})
	return nil
}

type fakeEventRepo struct {
	events      map[string]events.Event
	attendances map[string]map[string]time.Time
	questions   map[string][]events.Question
	surveys     map[string]events.SurveyAnswer
	answers     map[string]events.CustomAnswer
	nextID      int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:      make(map[string]events.Event),
		attendances: make(map[string]map[string]time.Time),
		questions:   make(map[string][]events.Question),
		surveys:     make(map[string]events.SurveyAnswer),
		answers:     make(map[string]events.CustomAnswer),
	}
}

func (f *fakeEventRepo) Create(_ context.Context, event events.Event) (events.Event, error) {
	f.nextID++
	event.ID = fmt.Sprintf("evt%d", f.nextID)
	event.CreatedAt = time.Now()
	f.events[event.ID] = event
	return event, nil
}

func (f *fakeEventRepo) GetByULID(_ context.Context, ulid string) (*events.Event, error) {
	for _, event := range f.events {
		if event.ULID == ulid {
			return &event, nil
		}
	}
	return nil, events.ErrNotFound
}

func (f *fakeEventRepo) GetByCode(_ context.Context, code string) (*events.Event, error) {
	for _, event := range f.events {
		if event.Code == code {
			return &event, nil
		}
	}
	return nil, events.ErrNotFound
}

func (f *fakeEventRepo) List(_ context.Context, includeInactive bool) ([]events.Event, error) {
	var result []events.Event
	for _, event := range f.events {
		if event.IsActive || includeInactive {
			result = append(result, event)
		}
	}
	return result, nil
}

func (f *fakeEventRepo) SetActive(_ context.Context, eventID string, active bool) error {
	event, ok := f.events[eventID]
	if !ok {
		return events.ErrNotFound
	}
	event.IsActive = active
	f.events[eventID] = event
	return nil
}

func (f *fakeEventRepo) AddAttendance(_ context.Context, eventID, userID string) error {
	if f.attendances[eventID] == nil {
		f.attendances[eventID] = make(map[string]time.Time)
	}
	if _, ok := f.attendances[eventID][userID]; !ok {
		f.attendances[eventID][userID] = time.Now()
	}
	return nil
}

func (f *fakeEventRepo) ListAttendees(_ context.Context, eventID string) ([]events.AttendeeRow, error) {
	var result []events.AttendeeRow
	for userID, at := range f.attendances[eventID] {
		row := events.AttendeeRow{UserID: userID, AttendedAt: at}
		if answer, ok := f.surveys[eventID+":"+userID]; ok {
			satisfaction := answer.Satisfaction
			comment := answer.Comment
			row.Satisfaction = &satisfaction
			row.Comment = &comment
		}
		result = append(result, row)
	}
	return result, nil
}

func (f *fakeEventRepo) CreateQuestion(_ context.Context, question events.Question) (events.Question, error) {
	f.nextID++
	question.ID = fmt.Sprintf("q%d", f.nextID)
	f.questions[question.EventID] = append(f.questions[question.EventID], question)
	return question, nil
}

func (f *fakeEventRepo) ListQuestions(_ context.Context, eventID string) ([]events.Question, error) {
	return f.questions[eventID], nil
}

func (f *fakeEventRepo) UpsertSurveyAnswer(_ context.Context, answer events.SurveyAnswer) error {
	f.surveys[answer.EventID+":"+answer.UserID] = answer
	return nil
}

func (f *fakeEventRepo) UpsertCustomAnswer(_ context.Context, answer events.CustomAnswer) error {
	f.answers[answer.QuestionID+":"+answer.UserID] = answer
	return nil
}

func (f *fakeEventRepo) ListCustomAnswers(_ context.Context, eventID string) ([]events.CustomAnswer, error) {
	var result []events.CustomAnswer
	for _, answer := range f.answers {
		if answer.EventID == eventID {
			result = append(result, answer)
		}
	}
	return result, nil
}

func testUsersService(repo users.Repository, sessions auth.SessionStore) *users.Service {
	return users.NewService(repo, sessions, time.Hour, 8, zerolog.Nop())
}

func testAudit() *audit.Logger {
	return audit.NewLogger(zerolog.Nop())
}

// asUser attaches an authenticated user the way the middleware would.
func asUser(r *http.Request, user *users.User, session *auth.Session) *http.Request {
	return r.WithContext(middleware.ContextWithUser(r.Context(), user, session))
}

func req(t *testing.T) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, "/", nil)
}

func userFixture(name, email string) users.User {
	return users.User{Name: name, Email: email, Role: auth.RoleMember}
}

func jsonRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
