package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	TransportURL        string `env:"TRANSPORT_URL,required=true"`
	AMQPQueue           string `env:"AMQP_QUEUE,default=outgoing"`
	SenderIdentity      string `env:"SENDER_IDENTITY,required=true"`
	Channels            string `env:"CHANNELS"`
	MessagesPerPeriod   int    `env:"MESSAGES_PER_PERIOD,default=20"`
	PeriodSeconds       int    `env:"PERIOD_SECONDS,default=30"`
	DrainIntervalMillis int    `env:"DRAIN_INTERVAL_MS,default=250"`
	MinMessageLength    int    `env:"MIN_MESSAGE_LENGTH,default=1"`
	MaxMessageLength    int    `env:"MAX_MESSAGE_LENGTH,default=500"`
	ThrottleRawMessages bool   `env:"THROTTLE_RAW_MESSAGES,default=false"`
	RedisURL            string `env:"REDIS_URL"`
	MetricsPort         int    `env:"METRICS_PORT,default=9090"`
	LogLevel            string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MessagesPerPeriod <= 0 {
		return fmt.Errorf("MESSAGES_PER_PERIOD must be positive, got %d", c.MessagesPerPeriod)
	}
	if c.PeriodSeconds <= 0 {
		return fmt.Errorf("PERIOD_SECONDS must be positive, got %d", c.PeriodSeconds)
	}
	if c.DrainIntervalMillis <= 0 {
		return fmt.Errorf("DRAIN_INTERVAL_MS must be positive, got %d", c.DrainIntervalMillis)
	}
	return nil
}

func (c *Config) Period() time.Duration {
	return time.Duration(c.PeriodSeconds) * time.Second
}

func (c *Config) DrainInterval() time.Duration {
	return time.Duration(c.DrainIntervalMillis) * time.Millisecond
}

// MaxLength returns the configured upper length bound, or nil when the
// bound is disabled (zero or negative MAX_MESSAGE_LENGTH).
func (c *Config) MaxLength() *int {
	if c.MaxMessageLength <= 0 {
		return nil
	}
	max := c.MaxMessageLength
	return &max
}

// ChannelList splits the comma-separated CHANNELS value, preserving order.
func (c *Config) ChannelList() []string {
	if strings.TrimSpace(c.Channels) == "" {
		return nil
	}

	parts := strings.Split(c.Channels, ",")
	channels := make([]string, 0, len(parts))
	for _, part := range parts {
		channel := strings.TrimSpace(part)
		if channel == "" {
			continue
		}
		channels = append(channels, channel)
	}
	return channels
}
