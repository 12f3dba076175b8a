package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_LevelsAndAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")
	ctx := context.Background()

	log.Debug(ctx, "derive", "ms", 12)
	log.Info(ctx, "vault opened", "entries", 3)
	log.Warn(ctx, "operation failed", "kind", "wrong_password")
	log.Error(ctx, "write failed", "path", "/tmp/a.vault")

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG", "msg=derive", "ms=12",
		"level=INFO", `msg="vault opened"`, "entries=3",
		"level=WARN", "kind=wrong_password",
		"level=ERROR", "path=/tmp/a.vault",
	} {
		assert.Contains(t, out, want)
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")
	ctx := context.Background()

	log.Info(ctx, "hidden")
	log.Warn(ctx, "shown", "vault", "test.vault")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "vault=test.vault")
}

func TestWith_AddsModule(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info").With("module", "session")

	log.Info(context.Background(), "vault locked", "fingerprint", "ab12")

	assert.Contains(t, buf.String(), "module=session")
	assert.Contains(t, buf.String(), "fingerprint=ab12")
}

func TestNew_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info").With("master_key", "0011")

	log.Info(context.Background(), "oops", "password", "hunter2", "Secret", "x", "title", "Mail")

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "0011")
	assert.Contains(t, out, "password="+Redacted)
	assert.Contains(t, out, "Secret="+Redacted)
	assert.Contains(t, out, "title=Mail")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		" INFO ":   slog.LevelInfo,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"nonsense": slog.LevelInfo,
		"":         slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().With("module", "test").Error(context.Background(), "discarded")
	})
}
