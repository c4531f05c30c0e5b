package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggers(t *testing.T) {
	t.Parallel()

	t.Run("routes info and error to separate writers", func(t *testing.T) {
		t.Parallel()

		var infoBuf, errBuf bytes.Buffer
		loggers, err := NewLoggers("info", &infoBuf, &errBuf)
		if err != nil {
			t.Fatalf("NewLoggers: %v", err)
		}

		loggers.InfoLogger.Info("started", "port", 8080)
		loggers.ErrorLogger.Error("failed")

		if !strings.Contains(infoBuf.String(), `"msg":"started"`) {
			t.Errorf("info output missing message: %s", infoBuf.String())
		}
		if !strings.Contains(errBuf.String(), `"msg":"failed"`) {
			t.Errorf("error output missing message: %s", errBuf.String())
		}
	})

	t.Run("level filters debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		loggers, err := NewLoggers("warn", &buf, &buf)
		if err != nil {
			t.Fatalf("NewLoggers: %v", err)
		}
		loggers.InfoLogger.Info("hidden")
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %s", buf.String())
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		t.Parallel()

		if _, err := NewLoggers("loud", &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
			t.Error("expected error for unknown level")
		}
	})
}
