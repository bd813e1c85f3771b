package devslog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelDebug)

	require.NotNil(t, l)
	l.Debug("preview rendered", "html_len", 42)

	assert.Contains(t, buf.String(), "preview rendered")
	assert.Contains(t, buf.String(), "html_len")
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo)

	l.Debug("hidden")

	assert.NotContains(t, buf.String(), "hidden")
	assert.True(t, l.Enabled(t.Context(), slog.LevelInfo))
}
