package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/websocket"
)

var _ Transport = (*WebsocketTransport)(nil)

// WebsocketTransport writes each message as one text frame on a single
// long-lived connection to the chat server.
type WebsocketTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
	url  string
}

func DialWebsocket(ctx context.Context, rawURL string) (*WebsocketTransport, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	conn, _, err := websocket.Dial(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket %q: %w", rawURL, err)
	}

	return &WebsocketTransport{conn: conn, url: rawURL}, nil
}

func (t *WebsocketTransport) Dispatch(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return &Error{Message: "websocket connection is closed"}
	}

	if err := t.conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
		return &Error{
			Message:   fmt.Sprintf("websocket write to %s failed", t.url),
			Transient: true,
			Cause:     err,
		}
	}

	return nil
}

func (t *WebsocketTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	return conn.Close(websocket.StatusNormalClosure, "")
}
