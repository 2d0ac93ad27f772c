package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	Setup(Options{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Initialize("info", "text") })

	ctx := WithRequest(context.Background(), "req-1", "POST", "/api/v1/donations")
	ErrorContext(ctx, "Failed to create donation", "error", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "/api/v1/donations", entry["path"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "ERROR", entry["level"])
}

func TestExternalServiceResult(t *testing.T) {
	var buf bytes.Buffer
	Setup(Options{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { Initialize("info", "text") })

	ExternalServiceResult("paystack", "initializeTransaction", nil)
	assert.Empty(t, buf.String())

	ExternalServiceResult("paystack", "initializeTransaction", errors.New("timeout"))
	assert.Contains(t, buf.String(), `"service":"paystack"`)
	assert.Contains(t, buf.String(), `"error":"timeout"`)
}
