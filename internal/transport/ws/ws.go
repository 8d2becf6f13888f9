// Package ws implements the frame transport on a WebSocket connection.
package ws

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/simplexbot/simplexbot/internal/transport"
)

// DefaultHandshakeTimeout bounds the WebSocket dial handshake.
const DefaultHandshakeTimeout = 10 * time.Second

// Transport is a frame transport over one WebSocket connection. Frames are
// sent and received as text messages, matching the chat CLI's JSON wire
// format.
type Transport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	mu      sync.Mutex
	closed  bool
}

// Dial connects to the given WebSocket URL and returns the transport. The
// context bounds the dial; the handshake itself is additionally capped by
// DefaultHandshakeTimeout.
func Dial(ctx context.Context, url string) (*Transport, error) {
	return DialWithDialer(ctx, &websocket.Dialer{
		HandshakeTimeout: DefaultHandshakeTimeout,
	}, url)
}

// DialWithDialer is Dial with a caller-supplied dialer, for custom TLS
// configuration, proxies, or handshake timeouts.
func DialWithDialer(ctx context.Context, dialer *websocket.Dialer, url string) (*Transport, error) {
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	return &Transport{conn: conn}, nil
}

// Read blocks until one inbound frame is available and returns its payload.
// It returns transport.ErrClosed after Close, and a wrapped read error on
// connection loss.
func (t *Transport) Read() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		if t.isClosed() {
			return nil, transport.ErrClosed
		}
		return nil, fmt.Errorf("websocket read: %w", err)
	}
	return data, nil
}

// Write sends one outbound frame. Concurrent writers are serialized.
func (t *Transport) Write(data []byte) error {
	if t.isClosed() {
		return transport.ErrClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		if t.isClosed() {
			return transport.ErrClosed
		}
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// Close releases the connection. Any blocked Read or Write fails with
// transport.ErrClosed. Close is idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	// Best-effort close frame before tearing down the connection.
	deadline := time.Now().Add(time.Second)
	t.writeMu.Lock()
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	t.writeMu.Unlock()

	return t.conn.Close()
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// ensure the interface is satisfied
var _ transport.Transport = (*Transport)(nil)

// ServerURL normalizes a chat server address into a WebSocket URL. A bare
// host or host:port becomes ws://host[:port]; ws:// and wss:// URLs pass
// through unchanged.
func ServerURL(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return "ws://" + addr
}
