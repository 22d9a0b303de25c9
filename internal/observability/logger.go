package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ecanbay/sendgate/internal/domain"
)

func NewLogger(level string) (*zap.Logger, error) {
	parsedLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsedLevel)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	var parsed zapcore.Level
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "" {
		normalized = "info"
	}

	if err := parsed.UnmarshalText([]byte(normalized)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return parsed, nil
}

// WithMessage attaches the identifying fields of an outgoing message to a
// logger so every entry about the same message carries the same context.
func WithMessage(logger *zap.Logger, msg *domain.OutgoingMessage) *zap.Logger {
	if logger == nil {
		return nil
	}
	if msg == nil {
		return logger
	}

	fields := make([]zap.Field, 0, 3)
	if msg.Nonce != 0 {
		fields = append(fields, zap.Int64("nonce", msg.Nonce))
	}
	if msg.Destination != "" {
		fields = append(fields, zap.String("destination", msg.Destination))
	}
	if msg.Sender != "" {
		fields = append(fields, zap.String("sender", msg.Sender))
	}

	return logger.With(fields...)
}
