package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/growthcompass/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
)

func (r *EventRepository) Create(ctx context.Context, event events.Event) (events.Event, error) {
	query := `
		INSERT INTO events (public_id, title, description, starts_at, code, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		event.ULID, event.Title, event.Description, event.StartsAt,
		event.Code, event.IsActive, event.CreatedBy,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		if uniqueViolation(err, "events_code_key") {
			return events.Event{}, events.ErrCodeTaken
		}
		return events.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

const eventColumns = `id, public_id, title, description, starts_at, code, is_active, created_by, created_at`

func (r *EventRepository) GetByULID(ctx context.Context, ulid string) (*events.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE public_id = $1`
	return r.scanEvent(r.pool.QueryRow(ctx, query, ulid))
}

func (r *EventRepository) GetByCode(ctx context.Context, code string) (*events.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE code = $1`
	return r.scanEvent(r.pool.QueryRow(ctx, query, code))
}

func (r *EventRepository) scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	err := row.Scan(
		&event.ID, &event.ULID, &event.Title, &event.Description,
		&event.StartsAt, &event.Code, &event.IsActive, &event.CreatedBy, &event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &event, nil
}

func (r *EventRepository) List(ctx context.Context, includeInactive bool) ([]events.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY starts_at DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var result []events.Event
	for rows.Next() {
		var event events.Event
		err := rows.Scan(
			&event.ID, &event.ULID, &event.Title, &event.Description,
			&event.StartsAt, &event.Code, &event.IsActive, &event.CreatedBy, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

func (r *EventRepository) SetActive(ctx context.Context, eventID string, active bool) error {
	query := `UPDATE events SET is_active = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, eventID, active)
	if err != nil {
		return fmt.Errorf("update event active flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

// AddAttendance inserts the check-in, ignoring the conflict when the user is
// already checked in.
func (r *EventRepository) AddAttendance(ctx context.Context, eventID, userID string) error {
	query := `
		INSERT INTO attendances (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, eventID, userID); err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

func (r *EventRepository) ListAttendees(ctx context.Context, eventID string) ([]events.AttendeeRow, error) {
	query := `
		SELECT u.id, u.name, u.email, a.created_at, sa.satisfaction, sa.comment
		FROM attendances a
		JOIN users u ON u.id = a.user_id
		LEFT JOIN survey_answers sa ON sa.event_id = a.event_id AND sa.user_id = a.user_id
		WHERE a.event_id = $1
		ORDER BY a.created_at, u.id`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var result []events.AttendeeRow
	for rows.Next() {
		var row events.AttendeeRow
		err := rows.Scan(&row.UserID, &row.Name, &row.Email, &row.AttendedAt, &row.Satisfaction, &row.Comment)
		if err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *EventRepository) CreateQuestion(ctx context.Context, question events.Question) (events.Question, error) {
	query := `
		INSERT INTO survey_questions (event_id, prompt, kind, choices, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		question.EventID, question.Prompt, question.Kind, question.Choices, question.Position,
	).Scan(&question.ID)
	if err != nil {
		return events.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return question, nil
}

func (r *EventRepository) ListQuestions(ctx context.Context, eventID string) ([]events.Question, error) {
	query := `
		SELECT id, event_id, prompt, kind, choices, position
		FROM survey_questions
		WHERE event_id = $1
		ORDER BY position, id`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var result []events.Question
	for rows.Next() {
		var q events.Question
		if err := rows.Scan(&q.ID, &q.EventID, &q.Prompt, &q.Kind, &q.Choices, &q.Position); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

// UpsertSurveyAnswer overwrites the (event, user) satisfaction answer so a
// resubmitted survey replaces the earlier one.
func (r *EventRepository) UpsertSurveyAnswer(ctx context.Context, answer events.SurveyAnswer) error {
	query := `
		INSERT INTO survey_answers (event_id, user_id, satisfaction, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, user_id)
		DO UPDATE SET satisfaction = EXCLUDED.satisfaction, comment = EXCLUDED.comment, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query,
		answer.EventID, answer.UserID, answer.Satisfaction, answer.Comment,
	); err != nil {
		return fmt.Errorf("upsert survey answer: %w", err)
	}
	return nil
}

func (r *EventRepository) UpsertCustomAnswer(ctx context.Context, answer events.CustomAnswer) error {
	query := `
		INSERT INTO custom_answers (event_id, user_id, question_id, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (question_id, user_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query,
		answer.EventID, answer.UserID, answer.QuestionID, answer.Value,
	); err != nil {
		return fmt.Errorf("upsert custom answer: %w", err)
	}
	return nil
}

func (r *EventRepository) ListCustomAnswers(ctx context.Context, eventID string) ([]events.CustomAnswer, error) {
	query := `
		SELECT event_id, user_id, question_id, value
		FROM custom_answers
		WHERE event_id = $1
		ORDER BY user_id, question_id`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list custom answers: %w", err)
	}
	defer rows.Close()

	var result []events.CustomAnswer
	for rows.Next() {
		var a events.CustomAnswer
		if err := rows.Scan(&a.EventID, &a.UserID, &a.QuestionID, &a.Value); err != nil {
			return nil, fmt.Errorf("scan custom answer: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
