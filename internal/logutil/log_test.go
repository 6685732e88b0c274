package logutil

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")
	logger.Info().Msg("dropped")
	logger.Warn().Str("component", "auth").Msg("kept")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "kept" || entry["component"] != "auth" || entry["level"] != "warn" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger := New(&bytes.Buffer{}, "loud", "json")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", logger.GetLevel())
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "json")
	ctx := WithLogger(context.Background(), logger)
	l := GetOrDefault(ctx)
	l.Debug().Msg("from context")
	if !bytes.Contains(buf.Bytes(), []byte("from context")) {
		t.Errorf("context logger not used: %q", buf.String())
	}

	// No logger in context: the global one is returned and must be usable.
	global := GetOrDefault(context.Background())
	global.Debug().Msg("global")
}
