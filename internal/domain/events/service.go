// Package events implements event creation with check-in codes, idempotent
// attendance, the fixed satisfaction survey, and per-event custom questions.
package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/growthcompass/server/internal/domain/ids"
	"github.com/growthcompass/server/internal/sanitize"
)

var (
	ErrNotFound            = errors.New("event not found")
	ErrCodeTaken           = errors.New("event code already in use")
	ErrInvalidCode         = errors.New("unknown check-in code")
	ErrEventInactive       = errors.New("event is not active")
	ErrMissingTitle        = errors.New("title is required")
	ErrInvalidSatisfaction = errors.New("satisfaction must be between 1 and 5")
	ErrNotAttending        = errors.New("user has not checked in to this event")
	ErrQuestionNotFound    = errors.New("question does not belong to this event")
	ErrInvalidQuestionKind = errors.New("unknown question kind")
	ErrInvalidAnswer       = errors.New("answer does not fit the question")
)

// codeRetries bounds collision retries when minting check-in codes. The space
// is 31^8; more than a couple of retries means something is wrong.
const codeRetries = 5

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateParams carries the admin event-creation payload.
type CreateParams struct {
	Title       string
	Description string
	StartsAt    time.Time
	CreatedBy   string
}

// Create mints a ULID and a unique check-in code and stores the event. Code
// collisions are retried against the unique constraint.
func (s *Service) Create(ctx context.Context, params CreateParams) (Event, error) {
	title := sanitize.Text(params.Title)
	if title == "" {
		return Event{}, ErrMissingTitle
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return Event{}, fmt.Errorf("mint event ulid: %w", err)
	}

	event := Event{
		ULID:        ulid,
		Title:       title,
		Description: sanitize.Text(params.Description),
		StartsAt:    params.StartsAt,
		IsActive:    true,
		CreatedBy:   params.CreatedBy,
	}

	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := NewCode()
		if err != nil {
			return Event{}, err
		}
		event.Code = code

		created, err := s.repo.Create(ctx, event)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return Event{}, fmt.Errorf("create event: %w", err)
		}
	}
	return Event{}, fmt.Errorf("create event: %w", ErrCodeTaken)
}

// List returns events, active only unless includeInactive is set.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]Event, error) {
	items, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return items, nil
}

// GetByULID returns a single event by its public identifier.
func (s *Service) GetByULID(ctx context.Context, ulid string) (*Event, error) {
	return s.repo.GetByULID(ctx, ulid)
}

// SetActive opens or closes an event for check-in. History (attendances,
// answers) is kept either way; closed events reject new check-ins.
func (s *Service) SetActive(ctx context.Context, eventULID string, active bool) (*Event, error) {
	event, err := s.repo.GetByULID(ctx, eventULID)
	if err != nil {
		return nil, err
	}
	if event.IsActive == active {
		return event, nil
	}
	if err := s.repo.SetActive(ctx, event.ID, active); err != nil {
		return nil, fmt.Errorf("set event active: %w", err)
	}
	event.IsActive = active
	return event, nil
}

// CheckIn records attendance for the event matching the code. Checking in
// twice is not an error; the duplicate insert is ignored.
func (s *Service) CheckIn(ctx context.Context, code, userID string) (*Event, error) {
	event, err := s.repo.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("lookup event by code: %w", err)
	}
	if !event.IsActive {
		return nil, ErrEventInactive
	}

	if err := s.repo.AddAttendance(ctx, event.ID, userID); err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}
	return event, nil
}

// SubmitSurvey upserts the fixed satisfaction survey answer for an attendee.
func (s *Service) SubmitSurvey(ctx context.Context, eventULID, userID string, satisfaction int, comment string) error {
	if satisfaction < 1 || satisfaction > 5 {
		return ErrInvalidSatisfaction
	}

	event, err := s.repo.GetByULID(ctx, eventULID)
	if err != nil {
		return err
	}

	if err := s.requireAttendance(ctx, event.ID, userID); err != nil {
		return err
	}

	answer := SurveyAnswer{
		EventID:      event.ID,
		UserID:       userID,
		Satisfaction: satisfaction,
		Comment:      sanitize.Text(comment),
	}
	if err := s.repo.UpsertSurveyAnswer(ctx, answer); err != nil {
		return fmt.Errorf("upsert survey answer: %w", err)
	}
	return nil
}

// AddQuestion creates an admin-defined question for an event.
func (s *Service) AddQuestion(ctx context.Context, eventULID, prompt, kind string, choices []string, position int) (Question, error) {
	switch kind {
	case KindFreeText, KindRating:
		choices = nil
	case KindChoice:
		choices = sanitize.TextSlice(choices)
		if len(choices) < 2 {
			return Question{}, fmt.Errorf("%w: choice questions need at least two choices", ErrInvalidAnswer)
		}
	default:
		return Question{}, ErrInvalidQuestionKind
	}

	prompt = sanitize.Text(prompt)
	if prompt == "" {
		return Question{}, fmt.Errorf("%w: prompt is required", ErrInvalidAnswer)
	}

	event, err := s.repo.GetByULID(ctx, eventULID)
	if err != nil {
		return Question{}, err
	}

	question, err := s.repo.CreateQuestion(ctx, Question{
		EventID:  event.ID,
		Prompt:   prompt,
		Kind:     kind,
		Choices:  choices,
		Position: position,
	})
	if err != nil {
		return Question{}, fmt.Errorf("create question: %w", err)
	}
	return question, nil
}

// Questions lists an event's custom questions in position order.
func (s *Service) Questions(ctx context.Context, eventULID string) ([]Question, error) {
	event, err := s.repo.GetByULID(ctx, eventULID)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// AnswerInput is one custom answer in a submission.
type AnswerInput struct {
	QuestionID string
	Value      string
}

// SubmitAnswers validates each answer against its question and upserts them
// one by one, keyed on (event, user, question).
func (s *Service) SubmitAnswers(ctx context.Context, eventULID, userID string, inputs []AnswerInput) error {
	event, err := s.repo.GetByULID(ctx, eventULID)
	if err != nil {
		return err
	}

	if err := s.requireAttendance(ctx, event.ID, userID); err != nil {
		return err
	}

	questions, err := s.repo.ListQuestions(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	for _, input := range inputs {
		question, ok := byID[input.QuestionID]
		if !ok {
			return ErrQuestionNotFound
		}
		value, err := validateAnswer(question, input.Value)
		if err != nil {
			return err
		}
		answer := CustomAnswer{
			EventID:    event.ID,
			UserID:     userID,
			QuestionID: question.ID,
			Value:      value,
		}
		if err := s.repo.UpsertCustomAnswer(ctx, answer); err != nil {
			return fmt.Errorf("upsert custom answer: %w", err)
		}
	}
	return nil
}

// ExportData bundles everything the attendee CSV needs.
type ExportData struct {
	Event     *Event
	Attendees []AttendeeRow
	Questions []Question
	Answers   []CustomAnswer
}

// Export collects attendees, questions, and custom answers for one event.
func (s *Service) Export(ctx context.Context, eventULID string) (*ExportData, error) {
	event, err := s.repo.GetByULID(ctx, eventULID)
	if err != nil {
		return nil, err
	}

	attendees, err := s.repo.ListAttendees(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	questions, err := s.repo.ListQuestions(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.repo.ListCustomAnswers(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list custom answers: %w", err)
	}

	return &ExportData{
		Event:     event,
		Attendees: attendees,
		Questions: questions,
		Answers:   answers,
	}, nil
}

func (s *Service) requireAttendance(ctx context.Context, eventID, userID string) error {
	attendees, err := s.repo.ListAttendees(ctx, eventID)
	if err != nil {
		return fmt.Errorf("list attendees: %w", err)
	}
	for _, attendee := range attendees {
		if attendee.UserID == userID {
			return nil
		}
	}
	return ErrNotAttending
}

func validateAnswer(question Question, value string) (string, error) {
	switch question.Kind {
	case KindFreeText:
		return sanitize.Text(value), nil
	case KindChoice:
		value = strings.TrimSpace(value)
		for _, choice := range question.Choices {
			if choice == value {
				return value, nil
			}
		}
		return "", fmt.Errorf("%w: %q is not one of the choices", ErrInvalidAnswer, value)
	case KindRating:
		rating, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || rating < 1 || rating > 5 {
			return "", fmt.Errorf("%w: rating must be an integer between 1 and 5", ErrInvalidAnswer)
		}
		return strconv.Itoa(rating), nil
	default:
		return "", ErrInvalidQuestionKind
	}
}
