package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/growthcompass/server/internal/api/middleware"
	"github.com/growthcompass/server/internal/api/problem"
	"github.com/growthcompass/server/internal/auth"
	"github.com/growthcompass/server/internal/domain/users"
	"github.com/growthcompass/server/internal/metrics"
)

// AuthHandler serves registration, login, logout, and the current-user view.
type AuthHandler struct {
	Users *users.Service
	Env   string
}

func NewAuthHandler(usersService *users.Service, env string) *AuthHandler {
	return &AuthHandler{Users: usersService, Env: env}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

type sessionPayload struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type authResponse struct {
	User    userPayload    `json:"user"`
	Session sessionPayload `json:"session"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	user, session, err := h.Users.Register(r.Context(), users.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Email Already Registered", err, h.Env)
		case errors.Is(err, users.ErrMissingField), errors.Is(err, users.ErrPasswordTooShort):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Error", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		}
		return
	}

	metrics.RegistrationsTotal.Inc()
	writeJSON(w, http.StatusCreated, authResponse{
		User:    toUserPayload(user),
		Session: toSessionPayload(session),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	user, session, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid Credentials", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		User:    toUserPayload(user),
		Session: toSessionPayload(session),
	})
}

// Logout invalidates the session backing the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, h.Env)
		return
	}

	if err := h.Users.Logout(r.Context(), session.Token); err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserPayload(*user)})
}

func toUserPayload(user users.User) userPayload {
	payload := userPayload{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	if !user.CreatedAt.IsZero() {
		payload.CreatedAt = user.CreatedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func toSessionPayload(session *auth.Session) sessionPayload {
	if session == nil {
		return sessionPayload{}
	}
	return sessionPayload{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
