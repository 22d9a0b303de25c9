package observability

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ecanbay/sendgate/internal/domain"
)

func TestNewLogger_LevelMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		level        string
		debugEnabled bool
	}{
		{name: "debug level", level: "debug", debugEnabled: true},
		{name: "info level", level: "info", debugEnabled: false},
		{name: "empty level defaults to info", level: "", debugEnabled: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger, err := NewLogger(tc.level)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logger == nil {
				t.Fatal("logger should not be nil")
			}

			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tc.debugEnabled {
				t.Fatalf("debug enabled=%v, want=%v", got, tc.debugEnabled)
			}
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("not-a-level")
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
	if logger != nil {
		t.Fatal("expected nil logger for invalid level")
	}
}

func TestWithMessage(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	baseLogger := zap.New(core)

	msg := &domain.OutgoingMessage{
		Nonce:       42,
		Text:        "hello",
		Sender:      "alice",
		Destination: "#general",
		State:       domain.StateQueued,
	}

	WithMessage(baseLogger, msg).Info("message queued")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d, want=1", len(entries))
	}

	fields := entries[0].ContextMap()
	if got := fields["nonce"]; got != int64(42) {
		t.Fatalf("nonce=%v, want=42", got)
	}
	if got := fields["destination"]; got != "#general" {
		t.Fatalf("destination=%v, want=#general", got)
	}
	if got := fields["sender"]; got != "alice" {
		t.Fatalf("sender=%v, want=alice", got)
	}
}

func TestWithMessage_RejectedMessageOmitsNonce(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	baseLogger := zap.New(core)

	msg := &domain.OutgoingMessage{
		Text:   "way too long",
		Sender: "alice",
		State:  domain.StateFailed,
	}

	WithMessage(baseLogger, msg).Warn("message rejected")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d, want=1", len(entries))
	}

	if _, ok := entries[0].ContextMap()["nonce"]; ok {
		t.Fatal("expected nonce field to be absent for rejected message")
	}
}

func TestWithMessage_NilSafety(t *testing.T) {
	t.Parallel()

	if got := WithMessage(nil, &domain.OutgoingMessage{}); got != nil {
		t.Fatal("expected nil logger")
	}

	logger := zap.NewNop()
	if got := WithMessage(logger, nil); got != logger {
		t.Fatal("expected same logger for nil message")
	}
}
