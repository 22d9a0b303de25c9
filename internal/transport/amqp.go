package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var _ Transport = (*AMQPTransport)(nil)

// AMQPTransport publishes each message to a durable broker queue, for
// setups where a separate relay drains the queue toward the chat service.
type AMQPTransport struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func DialAMQP(url, queue string) (*AMQPTransport, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("amqp url is required")
	}
	if strings.TrimSpace(queue) == "" {
		return nil, fmt.Errorf("amqp queue name is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	return &AMQPTransport{conn: conn, ch: ch, queue: queue}, nil
}

func (t *AMQPTransport) Dispatch(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ch == nil {
		return &Error{Message: "amqp channel is closed"}
	}

	err := t.ch.PublishWithContext(ctx, "", t.queue, false, false, amqp.Publishing{
		ContentType:  "text/plain",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         []byte(text),
	})
	if err != nil {
		return &Error{
			Message:   fmt.Sprintf("amqp publish to %q failed", t.queue),
			Transient: true,
			Cause:     err,
		}
	}

	return nil
}

func (t *AMQPTransport) Close() error {
	t.mu.Lock()
	ch := t.ch
	conn := t.conn
	t.ch = nil
	t.conn = nil
	t.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}
	if conn == nil || conn.IsClosed() {
		return nil
	}

	return conn.Close()
}
