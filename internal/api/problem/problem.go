// Package problem writes RFC 7807 problem+json error responses and logs them
// through the request-scoped logger.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

// Problem type URIs used across the API.
const (
	TypeValidation   = "https://growthcompass.dev/problems/validation-error"
	TypeUnauthorized = "https://growthcompass.dev/problems/unauthorized"
	TypeForbidden    = "https://growthcompass.dev/problems/forbidden"
	TypeNotFound     = "https://growthcompass.dev/problems/not-found"
	TypeConflict     = "https://growthcompass.dev/problems/conflict"
	TypeInternal     = "about:blank"
)

type Details struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*Details)

func WithDetail(detail string) Option {
	return func(p *Details) {
		p.Detail = detail
	}
}

func WithErrors(errs map[string]any) Option {
	return func(p *Details) {
		p.Errors = errs
	}
}

// Write emits the problem response. The underlying error goes to the log, not
// the client, unless the environment is development or test.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	p := Details{
		Type:   typ,
		Title:  title,
		Status: status,
	}
	for _, opt := range opts {
		opt(&p)
	}

	if p.Detail == "" && err != nil {
		if env == "development" || env == "test" {
			p.Detail = err.Error()
		} else {
			p.Detail = http.StatusText(status)
		}
	}
	if p.Instance == "" && r != nil {
		p.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("type", typ).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	writeDetails(w, p)
}

func writeDetails(w http.ResponseWriter, p Details) {
	payload, err := json.Marshal(p)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"about:blank","title":"Internal Server Error","status":500}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(p.Status)
	_, _ = w.Write(payload)
}
