package events

import (
	"context"
	"time"
)

// Event is a gathering members can check in to.
type Event struct {
	ID          string
	ULID        string
	Title       string
	Description string
	StartsAt    time.Time
	Code        string
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
}

// Question kinds. Rating answers must parse as an integer 1..5; choice
// answers must match one of the question's choices; free text is sanitized.
const (
	KindFreeText = "free_text"
	KindChoice   = "choice"
	KindRating   = "rating"
)

// Question is an admin-defined per-event survey question.
type Question struct {
	ID       string
	EventID  string
	Prompt   string
	Kind     string
	Choices  []string
	Position int
}

// Attendance records a user's check-in; at most one per (event, user).
type Attendance struct {
	EventID   string
	UserID    string
	CreatedAt time.Time
}

// SurveyAnswer is the fixed satisfaction survey; one per (event, user).
type SurveyAnswer struct {
	EventID      string
	UserID       string
	Satisfaction int
	Comment      string
}

// CustomAnswer is a response to an admin-defined question.
type CustomAnswer struct {
	EventID    string
	UserID     string
	QuestionID string
	Value      string
}

// AttendeeRow joins an attendance with the user and their survey answer, if
// any. Used for the per-event export.
type AttendeeRow struct {
	UserID       string
	Name         string
	Email        string
	AttendedAt   time.Time
	Satisfaction *int
	Comment      *string
}

// Repository is the persistence surface for events and everything hanging off
// them. Inserts that can race rely on the uniqueness constraints:
// AddAttendance ignores conflicts, the answer upserts overwrite on conflict,
// and Create reports ErrCodeTaken when the generated code collides.
type Repository interface {
	Create(ctx context.Context, event Event) (Event, error)
	GetByULID(ctx context.Context, ulid string) (*Event, error)
	GetByCode(ctx context.Context, code string) (*Event, error)
	List(ctx context.Context, includeInactive bool) ([]Event, error)
	SetActive(ctx context.Context, eventID string, active bool) error

	AddAttendance(ctx context.Context, eventID, userID string) error
	ListAttendees(ctx context.Context, eventID string) ([]AttendeeRow, error)

	CreateQuestion(ctx context.Context, question Question) (Question, error)
	ListQuestions(ctx context.Context, eventID string) ([]Question, error)

	UpsertSurveyAnswer(ctx context.Context, answer SurveyAnswer) error
	UpsertCustomAnswer(ctx context.Context, answer CustomAnswer) error
	ListCustomAnswers(ctx context.Context, eventID string) ([]CustomAnswer, error)
}
