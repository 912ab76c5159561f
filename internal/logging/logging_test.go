package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestDefaultReturnsProvidedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got := Default(logger)
	got.Info("hello")

	if buf.Len() == 0 {
		t.Fatal("expected provided logger to be used, got no output")
	}
}

func TestDefaultFallsBackToDiscard(t *testing.T) {
	got := Default(nil)
	got.Info("should not panic or write anywhere")
}

func TestDiscardDropsRecords(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("discard logger should never be enabled")
	}
}
