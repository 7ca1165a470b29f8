package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/growthcompass/server/internal/api/middleware"
	"github.com/growthcompass/server/internal/api/problem"
	"github.com/growthcompass/server/internal/audit"
	"github.com/growthcompass/server/internal/domain/selections"
	"github.com/growthcompass/server/internal/domain/users"
	"github.com/growthcompass/server/internal/export"
)

// AdminMembersHandler serves the admin member list, role changes, member
// deletion, and the member CSV export.
type AdminMembersHandler struct {
	Users *users.Service
	Audit *audit.Logger
	Env   string
}

func NewAdminMembersHandler(usersService *users.Service, auditLogger *audit.Logger, env string) *AdminMembersHandler {
	return &AdminMembersHandler{Users: usersService, Audit: auditLogger, Env: env}
}

type memberPayload struct {
	User       userPayload                `json:"user"`
	Selections map[string]selectionDetail `json:"selections"`
}

type selectionDetail struct {
	Step      int    `json:"step"`
	StepLabel string `json:"step_label"`
	Memo      string `json:"memo"`
}

func (h *AdminMembersHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.Users.ListMembers(r.Context())
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		return
	}

	payload := make([]memberPayload, 0, len(members))
	for _, member := range members {
		entry := memberPayload{
			User:       toUserPayload(member.User),
			Selections: make(map[string]selectionDetail, len(member.Selections)),
		}
		for viewpoint, selection := range member.Selections {
			entry.Selections[viewpoint] = selectionDetail{
				Step:      selection.Step,
				StepLabel: selections.StepLabel(selection.Step),
				Memo:      selection.Memo,
			}
		}
		payload = append(payload, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": payload})
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *AdminMembersHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFromContext(r.Context())
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	var req changeRoleRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	if err := h.Users.ChangeRole(r.Context(), memberID, req.Role); err != nil {
		h.Audit.LogFailure("member.change_role", actorID(actor), map[string]string{
			"member_id": memberID,
			"role":      req.Role,
			"error":     err.Error(),
		})
		switch {
		case errors.Is(err, users.ErrNotFound):
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Member Not Found", err, h.Env)
		case errors.Is(err, users.ErrInvalidRole):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Error", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		}
		return
	}

	h.Audit.LogSuccess("member.change_role", actorID(actor), "user", memberID, map[string]string{"role": req.Role})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminMembersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFromContext(r.Context())
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	if err := h.Users.Delete(r.Context(), memberID, actorID(actor)); err != nil {
		h.Audit.LogFailure("member.delete", actorID(actor), map[string]string{
			"member_id": memberID,
			"error":     err.Error(),
		})
		switch {
		case errors.Is(err, users.ErrNotFound):
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Member Not Found", err, h.Env)
		case errors.Is(err, users.ErrSelfDeletion):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Cannot Delete Own Account", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		}
		return
	}

	h.Audit.LogSuccess("member.delete", actorID(actor), "user", memberID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// ExportCSV streams the member list as a CSV download.
func (h *AdminMembersHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	members, err := h.Users.ListMembers(r.Context())
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		return
	}

	filename := "members-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.Members(w, members); err != nil {
		// Headers are gone at this point; the truncated body is all we can do.
		return
	}
}

// memberID validates the {id} path segment before it reaches a UUID column.
func (h *AdminMembersHandler) memberID(w http.ResponseWriter, r *http.Request) (string, bool) {
	value := pathParam(r, "id")
	if _, err := uuid.Parse(value); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid Member ID", err, h.Env)
		return "", false
	}
	return value, true
}

func actorID(actor *users.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
