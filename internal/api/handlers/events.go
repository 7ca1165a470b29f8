package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/growthcompass/server/internal/api/middleware"
	"github.com/growthcompass/server/internal/api/problem"
	"github.com/growthcompass/server/internal/audit"
	"github.com/growthcompass/server/internal/auth"
	"github.com/growthcompass/server/internal/domain/events"
	"github.com/growthcompass/server/internal/domain/ids"
	"github.com/growthcompass/server/internal/export"
	"github.com/growthcompass/server/internal/metrics"
)

// EventsHandler serves event listing, admin creation, check-in, surveys,
// custom questions, and the per-event attendee export.
type EventsHandler struct {
	Service *events.Service
	Audit   *audit.Logger
	Env     string
}

func NewEventsHandler(service *events.Service, auditLogger *audit.Logger, env string) *EventsHandler {
	return &EventsHandler{Service: service, Audit: auditLogger, Env: env}
}

type createEventRequest struct {
	Title       string    `json:"title" validate:"required,max=300"`
	Description string    `json:"description" validate:"max=5000"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
}

type eventPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartsAt    string `json:"starts_at"`
	IsActive    bool   `json:"is_active"`
	Code        string `json:"code,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Create makes a new event with a freshly minted check-in code. Admin only;
// the code is included in the response so it can be announced at the event.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFromContext(r.Context())

	var req createEventRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	event, err := h.Service.Create(r.Context(), events.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		CreatedBy:   actorID(actor),
	})
	if err != nil {
		h.Audit.LogFailure("event.create", actorID(actor), map[string]string{"error": err.Error()})
		switch {
		case errors.Is(err, events.ErrMissingTitle):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Error", err, h.Env)
		case errors.Is(err, events.ErrCodeTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Could Not Assign Check-In Code", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		}
		return
	}

	h.Audit.LogSuccess("event.create", actorID(actor), "event", event.ULID, map[string]string{"title": event.Title})
	writeJSON(w, http.StatusCreated, map[string]any{"event": toEventPayload(event, true)})
}

// List returns active events. Admins can pass ?all=true to include inactive
// ones; event codes only appear for admin callers.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	isAdmin := user != nil && user.Role == auth.RoleAdmin
	includeInactive := isAdmin && r.URL.Query().Get("all") == "true"

	items, err := h.Service.List(r.Context(), includeInactive)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		return
	}

	payload := make([]eventPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, toEventPayload(item, isAdmin))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": payload})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ulid, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	event, err := h.Service.GetByULID(r.Context(), ulid)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	user, _ := middleware.UserFromContext(r.Context())
	isAdmin := user != nil && user.Role == auth.RoleAdmin
	writeJSON(w, http.StatusOK, map[string]any{"event": toEventPayload(*event, isAdmin)})
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SetActive opens or closes an event for check-in. Admin only. Attendance
// and answer history survives either way.
func (h *EventsHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFromContext(r.Context())

	ulid, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	var req setActiveRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	event, err := h.Service.SetActive(r.Context(), ulid, *req.IsActive)
	if err != nil {
		h.Audit.LogFailure("event.set_active", actorID(actor), map[string]string{"event": ulid, "error": err.Error()})
		h.writeEventError(w, r, err)
		return
	}

	h.Audit.LogSuccess("event.set_active", actorID(actor), "event", event.ULID, map[string]string{
		"is_active": strconv.FormatBool(event.IsActive),
	})
	writeJSON(w, http.StatusOK, map[string]any{"event": toEventPayload(*event, true)})
}

type checkInRequest struct {
	Code string `json:"code" validate:"required"`
}

// CheckIn records attendance for the event matching the submitted code.
// Repeating a check-in returns the same success response.
func (h *EventsHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, h.Env)
		return
	}

	var req checkInRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	event, err := h.Service.CheckIn(r.Context(), req.Code, user.ID)
	if err != nil {
		metrics.CheckinsTotal.WithLabelValues("rejected").Inc()
		switch {
		case errors.Is(err, events.ErrInvalidCode):
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Unknown Check-In Code", err, h.Env)
		case errors.Is(err, events.ErrEventInactive):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Event Not Active", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		}
		return
	}

	metrics.CheckinsTotal.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"event": toEventPayload(*event, false)})
}

type surveyRequest struct {
	Satisfaction int    `json:"satisfaction" validate:"required"`
	Comment      string `json:"comment" validate:"max=5000"`
}

// SubmitSurvey upserts the caller's satisfaction answer for an event they
// attended.
func (h *EventsHandler) SubmitSurvey(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, h.Env)
		return
	}
	ulid, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	var req surveyRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	if err := h.Service.SubmitSurvey(r.Context(), ulid, user.ID, req.Satisfaction, req.Comment); err != nil {
		switch {
		case errors.Is(err, events.ErrInvalidSatisfaction):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Error", err, h.Env)
		case errors.Is(err, events.ErrNotAttending):
			problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Check-In Required", err, h.Env)
		default:
			h.writeEventError(w, r, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addQuestionRequest struct {
	Prompt   string   `json:"prompt" validate:"required,max=500"`
	Kind     string   `json:"kind" validate:"required"`
	Choices  []string `json:"choices" validate:"max=20,dive,max=200"`
	Position int      `json:"position" validate:"min=0"`
}

type questionPayload struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Kind     string   `json:"kind"`
	Choices  []string `json:"choices,omitempty"`
	Position int      `json:"position"`
}

// AddQuestion creates an admin-defined question for an event.
func (h *EventsHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFromContext(r.Context())
	ulid, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	var req addQuestionRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	question, err := h.Service.AddQuestion(r.Context(), ulid, req.Prompt, req.Kind, req.Choices, req.Position)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrInvalidQuestionKind), errors.Is(err, events.ErrInvalidAnswer):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Error", err, h.Env)
		default:
			h.writeEventError(w, r, err)
		}
		return
	}

	h.Audit.LogSuccess("event.add_question", actorID(actor), "question", question.ID, map[string]string{"event": ulid})
	writeJSON(w, http.StatusCreated, map[string]any{"question": toQuestionPayload(question)})
}

// ListQuestions returns an event's custom questions in position order.
func (h *EventsHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	ulid, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	questions, err := h.Service.Questions(r.Context(), ulid)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	payload := make([]questionPayload, 0, len(questions))
	for _, question := range questions {
		payload = append(payload, toQuestionPayload(question))
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": payload})
}

type submitAnswersRequest struct {
	Answers []answerInput `json:"answers" validate:"required,min=1,dive"`
}

type answerInput struct {
	QuestionID string `json:"question_id" validate:"required"`
	Value      string `json:"value" validate:"required,max=5000"`
}

// SubmitAnswers upserts the caller's answers to an event's custom questions.
func (h *EventsHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, h.Env)
		return
	}
	ulid, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	var req submitAnswersRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	inputs := make([]events.AnswerInput, 0, len(req.Answers))
	for _, answer := range req.Answers {
		inputs = append(inputs, events.AnswerInput{QuestionID: answer.QuestionID, Value: answer.Value})
	}

	if err := h.Service.SubmitAnswers(r.Context(), ulid, user.ID, inputs); err != nil {
		switch {
		case errors.Is(err, events.ErrNotAttending):
			problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Check-In Required", err, h.Env)
		case errors.Is(err, events.ErrQuestionNotFound), errors.Is(err, events.ErrInvalidAnswer), errors.Is(err, events.ErrInvalidQuestionKind):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Error", err, h.Env)
		default:
			h.writeEventError(w, r, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCSV streams the attendee list with survey and custom answers.
func (h *EventsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ulid, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	data, err := h.Service.Export(r.Context(), ulid)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	filename := "event-" + ulid + "-attendees.csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_ = export.EventAttendees(w, data.Attendees, data.Questions, data.Answers)
}

func (h *EventsHandler) eventULID(w http.ResponseWriter, r *http.Request) (string, bool) {
	value := pathParam(r, "id")
	if err := ids.ValidateULID(value); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid Event ID", err, h.Env)
		return "", false
	}
	return value, true
}

func (h *EventsHandler) writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, events.ErrNotFound) {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event Not Found", err, h.Env)
		return
	}
	problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
}

func toEventPayload(event events.Event, includeCode bool) eventPayload {
	payload := eventPayload{
		ID:          event.ULID,
		Title:       event.Title,
		Description: event.Description,
		StartsAt:    event.StartsAt.UTC().Format(time.RFC3339),
		IsActive:    event.IsActive,
	}
	if includeCode {
		payload.Code = event.Code
	}
	if !event.CreatedAt.IsZero() {
		payload.CreatedAt = event.CreatedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func toQuestionPayload(question events.Question) questionPayload {
	return questionPayload{
		ID:       question.ID,
		Prompt:   question.Prompt,
		Kind:     question.Kind,
		Choices:  question.Choices,
		Position: question.Position,
	}
}
