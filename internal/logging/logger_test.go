package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditocr/internal/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("verbose"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, "creditocr", "info", "json")

	log.Debug("hidden")
	log.Info("extraction.ok", "schema", "legal_business_name")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "extraction.ok", entry["msg"])
	assert.Equal(t, "creditocr", entry["service"])
	assert.Equal(t, "legal_business_name", entry["schema"])
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, "creditocr", "debug", "text")

	log.Debug("admission.ok")

	assert.Contains(t, buf.String(), "msg=admission.ok")
	assert.Contains(t, buf.String(), "service=creditocr")
}
