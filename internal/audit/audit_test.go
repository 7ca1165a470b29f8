package audit

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.LogSuccess("member.role_changed", "admin@example.com", "user", "abc-123", map[string]string{
		"role": "admin",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "member.role_changed", entry["action"])
	assert.Equal(t, "admin@example.com", entry["actor"])
	assert.Equal(t, "success", entry["status"])
	assert.Equal(t, "user", entry["resource_type"])
	assert.Equal(t, "abc-123", entry["resource_id"])
	assert.Equal(t, "admin", entry["detail_role"])
	assert.Equal(t, "audit", entry["component"])
}

func TestLogFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.LogFailure("member.delete", "admin@example.com", map[string]string{"reason": "self-deletion"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "failure", entry["status"])
	assert.Equal(t, "self-deletion", entry["detail_reason"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.LogSuccess("noop", "nobody", "", "", nil)
}
