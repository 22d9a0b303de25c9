// Package throttle implements the rate-limited outgoing-message engine:
// admission by length policy, a deduplicated FIFO pending queue, a
// periodic quota reset, and a drain loop releasing messages to the
// transport while the window quota has headroom.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecanbay/sendgate/internal/domain"
	"github.com/ecanbay/sendgate/internal/observability"
	"github.com/ecanbay/sendgate/internal/quota"
	"github.com/ecanbay/sendgate/internal/transport"
)

const (
	defaultLimit         = 20
	defaultPeriod        = 30 * time.Second
	defaultDrainInterval = 250 * time.Millisecond
)

// ErrAlreadyRunning is returned by Start when the loops are live.
var ErrAlreadyRunning = errors.New("throttle engine is already running")

// Session exposes the chat-client state the engine reads at enqueue
// time: the sending identity and the default destination channel.
type Session interface {
	Identity() string
	Destination() (string, bool)
}

// ThrottleListener receives admission rejections. Listeners run
// synchronously inside Submit, so they must return quickly.
type ThrottleListener func(msg domain.OutgoingMessage, kind domain.ViolationKind)

type Options struct {
	// Limit is the number of messages allowed per period.
	Limit int
	// Period is the quota window length.
	Period time.Duration
	// DrainInterval is how often the drain loop checks for headroom.
	DrainInterval time.Duration
	// MinLength and MaxLength bound admitted message lengths; nil
	// MaxLength means unbounded (see Policy).
	MinLength int
	MaxLength *int
	// ThrottleRawMessages routes SubmitRaw through the pending queue.
	ThrottleRawMessages bool
}

type Engine struct {
	transport transport.Transport
	session   Session
	counter   quota.Counter
	store     *pendingStore
	logger    *zap.Logger
	metrics   *observability.Metrics
	nextNonce func() int64

	mu            sync.Mutex
	limit         int64
	period        time.Duration
	drainInterval time.Duration
	minLength     int
	maxLength     *int
	throttleRaw   bool
	listeners     []ThrottleListener
	cancel        context.CancelFunc
	running       bool
}

func NewEngine(
	tr transport.Transport,
	session Session,
	counter quota.Counter,
	opts Options,
	logger *zap.Logger,
) (*Engine, error) {
	if tr == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if counter == nil {
		counter = quota.NewWindow()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.Period <= 0 {
		opts.Period = defaultPeriod
	}
	if opts.DrainInterval <= 0 {
		opts.DrainInterval = defaultDrainInterval
	}

	nonces := newNonceSource()

	return &Engine{
		transport:     tr,
		session:       session,
		counter:       counter,
		store:         newPendingStore(),
		logger:        logger,
		nextNonce:     nonces.Next,
		limit:         int64(opts.Limit),
		period:        opts.Period,
		drainInterval: opts.DrainInterval,
		minLength:     opts.MinLength,
		maxLength:     opts.MaxLength,
		throttleRaw:   opts.ThrottleRawMessages,
	}, nil
}

func (e *Engine) SetMetrics(metrics *observability.Metrics) {
	if e == nil {
		return
	}
	e.metrics = metrics
}

// OnThrottled registers a listener for admission rejections.
func (e *Engine) OnThrottled(listener ThrottleListener) {
	if listener == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// Submit runs the admission policy on text and, on acceptance, queues
// the message for the drain loop. It never blocks on the background
// loops, and a policy rejection is a Failed result plus a listener
// notification, not an error.
func (e *Engine) Submit(text string) *domain.OutgoingMessage {
	msg := e.newMessage(text)

	if violation := e.policy().Evaluate(text); violation != nil {
		msg.State = domain.StateFailed
		e.metrics.IncMessageRejected(violation.Kind.String())
		observability.WithMessage(e.logger, msg).Warn("message rejected at admission",
			zap.String("kind", violation.Kind.String()),
			zap.Int("length", violation.Length),
			zap.Int("bound", violation.Bound),
		)
		e.notifyThrottled(*msg, violation.Kind)
		return msg
	}

	return e.enqueue(msg)
}

// SubmitRaw sends text outside the length policy. With raw throttling
// enabled the message joins the pending queue like any other; otherwise
// it goes straight to the transport.
func (e *Engine) SubmitRaw(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if !e.throttleRawEnabled() {
		return e.transport.Dispatch(ctx, text)
	}

	msg := e.enqueue(e.newMessage(text))
	if msg.State == domain.StateFailed {
		return domain.ErrDuplicateNonce
	}
	return nil
}

// Clear drops every queued message and empties the dedup index. A
// message already dequeued by the drain loop may still be dispatched;
// the queue and the index are not cleared atomically.
func (e *Engine) Clear() {
	e.store.clear()
	e.metrics.SetPendingMessages(0)
}

func (e *Engine) PendingCount() int {
	return e.store.size()
}

// SentCount reports how many messages were sent in the current window.
func (e *Engine) SentCount() int64 {
	value, err := e.counter.Value(context.Background())
	if err != nil {
		e.logger.Error("failed to read quota counter", zap.Error(err))
		return 0
	}
	return value
}

func (e *Engine) SetLimit(limit int) {
	if limit <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.limit = int64(limit)
}

func (e *Engine) SetMinLength(min int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.minLength = min
}

func (e *Engine) SetMaxLength(max int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxLength = &max
}

// DisableMaxLength removes the upper length bound. The lower bound has
// no equivalent switch; see Policy.
func (e *Engine) DisableMaxLength() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxLength = nil
}

func (e *Engine) SetThrottleRawMessages(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.throttleRaw = enabled
}

// Start launches the reset and drain loops and blocks until both exit,
// which happens when ctx is canceled or Stop is called. Cancellation is
// the expected termination path and returns nil.
func (e *Engine) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	period := e.period
	interval := e.drainInterval
	e.mu.Unlock()

	e.logger.Info("throttle engine started",
		zap.Duration("period", period),
		zap.Duration("drainInterval", interval),
	)

	g, groupCtx := errgroup.WithContext(runCtx)
	g.Go(func() error { return e.resetLoop(groupCtx, period) })
	g.Go(func() error { return e.drainLoop(groupCtx, interval) })
	err := g.Wait()

	e.mu.Lock()
	e.running = false
	e.cancel = nil
	e.mu.Unlock()
	cancel()

	e.logger.Info("throttle engine stopped")
	return err
}

// Stop signals both loops to exit and clears pending state. It does not
// wait for an in-flight dispatch to finish, and calling it again after
// completion is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.Clear()
}

func (e *Engine) resetLoop(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := e.counter.Reset(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				e.logger.Error("quota reset failed", zap.Error(err))
				continue
			}
			e.metrics.IncQuotaReset()
		}
	}
}

func (e *Engine) drainLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.drain(ctx)
		}
	}
}

// drain dispatches queued messages until quota headroom runs out or the
// queue empties. The quota check and the dequeue are deliberately not
// joined in one critical section: a reset landing mid-drain can let the
// boundary window run slightly over or under the limit.
func (e *Engine) drain(ctx context.Context) {
	limit := e.limitSnapshot()

	for ctx.Err() == nil {
		value, err := e.counter.Value(ctx)
		if err != nil {
			if ctx.Err() == nil {
				e.logger.Error("failed to read quota counter", zap.Error(err))
			}
			return
		}
		if value >= limit {
			return
		}

		msg, ok := e.store.pop()
		if !ok {
			return
		}

		// Reserve the quota slot before dispatching. A failed send still
		// consumes it, so a broken message cannot burn the whole window
		// through rapid retries.
		if _, err := e.counter.Add(ctx); err != nil {
			msg.State = domain.StateFailed
			e.store.release(msg.Nonce)
			if ctx.Err() == nil {
				observability.WithMessage(e.logger, msg).Error("failed to reserve quota slot", zap.Error(err))
			}
			return
		}

		if !e.store.release(msg.Nonce) {
			// Already released, e.g. by a clear racing this pop.
			continue
		}

		e.dispatch(ctx, msg)
	}
}

func (e *Engine) dispatch(ctx context.Context, msg *domain.OutgoingMessage) {
	start := time.Now()
	err := e.transport.Dispatch(ctx, msg.Text)
	e.metrics.ObserveDispatchDuration(time.Since(start))
	e.metrics.SetPendingMessages(e.store.size())

	if err != nil {
		msg.State = domain.StateFailed
		e.metrics.IncDispatchFailed(failureReason(err))
		observability.WithMessage(e.logger, msg).Error("dispatch failed", zap.Error(err))
		return
	}

	msg.State = domain.StateSent
	e.metrics.IncMessageSent()
	observability.WithMessage(e.logger, msg).Debug("message dispatched")
}

func (e *Engine) newMessage(text string) *domain.OutgoingMessage {
	destination, _ := e.session.Destination()
	return &domain.OutgoingMessage{
		Text:        text,
		Sender:      e.session.Identity(),
		Destination: destination,
	}
}

func (e *Engine) enqueue(msg *domain.OutgoingMessage) *domain.OutgoingMessage {
	msg.Nonce = e.nextNonce()

	if !e.store.register(msg) {
		msg.Nonce = 0
		msg.State = domain.StateFailed
		observability.WithMessage(e.logger, msg).Warn("dropping message", zap.Error(domain.ErrDuplicateNonce))
		return msg
	}

	msg.State = domain.StateQueued
	e.store.push(msg)
	e.metrics.SetPendingMessages(e.store.size())
	return msg
}

func (e *Engine) notifyThrottled(msg domain.OutgoingMessage, kind domain.ViolationKind) {
	e.mu.Lock()
	listeners := make([]ThrottleListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, listener := range listeners {
		listener(msg, kind)
	}
}

func (e *Engine) policy() Policy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Policy{MinLength: e.minLength, MaxLength: e.maxLength}
}

func (e *Engine) limitSnapshot() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.limit
}

func (e *Engine) throttleRawEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.throttleRaw
}

func failureReason(err error) string {
	if transport.IsTransient(err) {
		return "transient"
	}
	return "permanent"
}
