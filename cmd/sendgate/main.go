package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecanbay/sendgate/internal/client"
	"github.com/ecanbay/sendgate/internal/config"
	"github.com/ecanbay/sendgate/internal/domain"
	"github.com/ecanbay/sendgate/internal/observability"
	"github.com/ecanbay/sendgate/internal/quota"
	"github.com/ecanbay/sendgate/internal/throttle"
	"github.com/ecanbay/sendgate/internal/transport"
)

const dialTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger = logger.With(zap.String("sessionId", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, err := buildTransport(ctx, cfg)
	if err != nil {
		logger.Fatal("transport initialization failed", zap.Error(err))
	}
	defer tr.Close()

	var counter quota.Counter
	if cfg.RedisURL != "" {
		rdb, err := quota.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis initialization failed", zap.Error(err))
		}
		defer rdb.Close()

		counter, err = quota.NewRedisCounter(rdb, cfg.SenderIdentity, 2*cfg.Period())
		if err != nil {
			logger.Fatal("quota counter initialization failed", zap.Error(err))
		}
	}

	session := client.NewSession(cfg.SenderIdentity)
	for _, channel := range cfg.ChannelList() {
		session.Join(channel)
	}

	engine, err := throttle.NewEngine(tr, session, counter, throttle.Options{
		Limit:               cfg.MessagesPerPeriod,
		Period:              cfg.Period(),
		DrainInterval:       cfg.DrainInterval(),
		MinLength:           cfg.MinMessageLength,
		MaxLength:           cfg.MaxLength(),
		ThrottleRawMessages: cfg.ThrottleRawMessages,
	}, logger)
	if err != nil {
		logger.Fatal("engine initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	engine.SetMetrics(metrics)
	engine.OnThrottled(func(msg domain.OutgoingMessage, kind domain.ViolationKind) {
		logger.Warn("message throttled",
			zap.String("kind", kind.String()),
			zap.Int("length", domain.ContentLength(msg.Text)),
		)
	})

	go serveMetrics(cfg.MetricsPort, metrics, logger)

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- engine.Start(ctx)
	}()

	logger.Info("sendgate started",
		zap.String("transport", cfg.TransportURL),
		zap.Int("limit", cfg.MessagesPerPeriod),
		zap.Duration("period", cfg.Period()),
	)

	go readInput(ctx, engine, session, logger)

	<-ctx.Done()
	engine.Stop()
	if err := <-engineDone; err != nil {
		logger.Error("engine exited with error", zap.Error(err))
	}

	logger.Info("sendgate stopped")
}

func buildTransport(ctx context.Context, cfg *config.Config) (transport.Transport, error) {
	parsed, err := url.Parse(cfg.TransportURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport url: %w", err)
	}

	switch parsed.Scheme {
	case "ws", "wss":
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		return transport.DialWebsocket(dialCtx, cfg.TransportURL)
	case "amqp", "amqps":
		return transport.DialAMQP(cfg.TransportURL, cfg.AMQPQueue)
	case "http", "https":
		return transport.NewWebhookTransport(cfg.TransportURL)
	default:
		return nil, fmt.Errorf("unsupported transport scheme %q", parsed.Scheme)
	}
}

// readInput feeds stdin lines into the engine. Lines starting with a
// command prefix manage the session; everything else is a chat message.
func readInput(ctx context.Context, engine *throttle.Engine, session *client.Session, logger *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/join "):
			session.Join(strings.TrimPrefix(line, "/join "))
		case strings.HasPrefix(line, "/part "):
			session.Part(strings.TrimPrefix(line, "/part "))
		case strings.HasPrefix(line, "/raw "):
			if err := engine.SubmitRaw(ctx, strings.TrimPrefix(line, "/raw ")); err != nil {
				logger.Error("raw send failed", zap.Error(err))
			}
		default:
			msg := engine.Submit(line)
			logger.Debug("message submitted",
				zap.String("state", msg.State.String()),
				zap.Int("pending", engine.PendingCount()),
			)
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Error("stdin read failed", zap.Error(err))
	}
}

func serveMetrics(port int, metrics *observability.Metrics, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
