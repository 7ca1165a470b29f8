// Package audit records admin mutations (role changes, member deletion, event
// creation) as structured log entries so operators can reconstruct who did
// what after the fact.
package audit

import (
	"time"

	"github.com/rs/zerolog"
)

// Entry is a single audit record.
type Entry struct {
	Action       string
	Actor        string
	ResourceType string
	ResourceID   string
	Status       string
	Details      map[string]string
}

// Logger writes audit entries through zerolog so they share the process log
// pipeline and format.
type Logger struct {
	logger zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("component", "audit").Logger()}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	event := l.logger.Info().
		Time("timestamp", time.Now().UTC()).
		Str("action", entry.Action).
		Str("actor", entry.Actor).
		Str("status", entry.Status)
	if entry.ResourceType != "" {
		event = event.Str("resource_type", entry.ResourceType)
	}
	if entry.ResourceID != "" {
		event = event.Str("resource_id", entry.ResourceID)
	}
	for key, value := range entry.Details {
		event = event.Str("detail_"+key, value)
	}
	event.Msg("audit")
}

// LogSuccess records a successful admin operation.
func (l *Logger) LogSuccess(action, actor, resourceType, resourceID string, details map[string]string) {
	l.Log(Entry{
		Action:       action,
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       "success",
		Details:      details,
	})
}

// LogFailure records a rejected or failed admin operation.
func (l *Logger) LogFailure(action, actor string, details map[string]string) {
	l.Log(Entry{
		Action:  action,
		Actor:   actor,
		Status:  "failure",
		Details: details,
	})
}
