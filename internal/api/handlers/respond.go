package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/growthcompass/server/internal/api/problem"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON parses and validates a request body into dst. On failure it
// writes the problem response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, env string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid Request Body", err, env)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make(map[string]any, len(fieldErrs))
			for _, fieldErr := range fieldErrs {
				details[fieldErr.Field()] = fieldErr.Tag()
			}
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Error", err, env,
				problem.WithErrors(details))
			return false
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation Error", err, env)
		return false
	}
	return true
}

func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}
