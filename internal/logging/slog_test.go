package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_EmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf)

	l.Info(context.Background(), "hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])
	assert.Equal(t, "INFO", rec["level"])
}

func TestSlogLogger_WithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf).With("component", "sync")

	l.Warn(context.Background(), "slow")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "sync", rec["component"])
	assert.Equal(t, "WARN", rec["level"])
}
