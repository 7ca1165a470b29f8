package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/growthcompass/server/internal/api/middleware"
	"github.com/growthcompass/server/internal/api/problem"
	"github.com/growthcompass/server/internal/auth"
	"github.com/growthcompass/server/internal/domain/selections"
)

// SelectionsHandler serves the caller's viewpoint selections.
type SelectionsHandler struct {
	Service *selections.Service
	Env     string
}

func NewSelectionsHandler(service *selections.Service, env string) *SelectionsHandler {
	return &SelectionsHandler{Service: service, Env: env}
}

type setSelectionRequest struct {
	Viewpoint string `json:"viewpoint" validate:"required"`
	Step      int    `json:"step" validate:"required"`
	Memo      string `json:"memo" validate:"max=2000"`
}

type selectionPayload struct {
	Viewpoint string `json:"viewpoint"`
	Step      int    `json:"step"`
	StepLabel string `json:"step_label"`
	Memo      string `json:"memo"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (h *SelectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, h.Env)
		return
	}

	items, err := h.Service.Get(r.Context(), user.ID)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		return
	}

	payload := make([]selectionPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, toSelectionPayload(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"selections": payload})
}

// Set upserts one viewpoint selection. Saving the same viewpoint again
// overwrites the previous step and memo.
func (h *SelectionsHandler) Set(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, h.Env)
		return
	}

	var req setSelectionRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	selection, err := h.Service.Set(r.Context(), user.ID, req.Viewpoint, req.Step, req.Memo)
	if err != nil {
		if errors.Is(err, selections.ErrInvalidViewpoint) || errors.Is(err, selections.ErrInvalidStep) {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Error", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"selection": toSelectionPayload(selection)})
}

func (h *SelectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, h.Env)
		return
	}

	viewpoint := pathParam(r, "viewpoint")
	if err := h.Service.Delete(r.Context(), user.ID, viewpoint); err != nil {
		if errors.Is(err, selections.ErrInvalidViewpoint) {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Error", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toSelectionPayload(selection selections.Selection) selectionPayload {
	payload := selectionPayload{
		Viewpoint: selection.Viewpoint,
		Step:      selection.Step,
		StepLabel: selections.StepLabel(selection.Step),
		Memo:      selection.Memo,
	}
	if !selection.UpdatedAt.IsZero() {
		payload.UpdatedAt = selection.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return payload
}
