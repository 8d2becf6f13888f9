// Package client provides the high-level client for the SimpleX chat CLI
// WebSocket API: connect, send typed commands, and consume server events.
//
// One client owns one connection. Any number of goroutines may send commands
// concurrently; responses are correlated back to their callers. Unsolicited
// server events are delivered on the Events channel in server-send order.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/simplexbot/simplexbot/internal/dispatch"
	"github.com/simplexbot/simplexbot/internal/transport/ws"
	"github.com/simplexbot/simplexbot/pkg/protocol"
	"github.com/simplexbot/simplexbot/pkg/queue"
)

var (
	// ErrNotConnected is returned by operations that need a live connection.
	ErrNotConnected = errors.New("client: not connected")

	// ErrCommandTimeout is returned when a command got no response within
	// its timeout. Other in-flight commands are unaffected.
	ErrCommandTimeout = dispatch.ErrCommandTimeout

	// ErrDisconnected is returned to pending commands when the client shuts
	// down or the connection is lost.
	ErrDisconnected = dispatch.ErrDisconnected
)

const (
	// DefaultTimeout is the per-command response timeout unless overridden.
	DefaultTimeout = 10 * time.Second

	// DefaultQueueSize is the event queue capacity. The queue bounds memory
	// under a fast-pushing server; a full queue stalls the read pump, so the
	// capacity should absorb normal event bursts.
	DefaultQueueSize = 100

	// DefaultStallTimeout bounds how long the read pump waits on a full
	// event queue, and how long Close waits for an absent event consumer.
	DefaultStallTimeout = 30 * time.Second
)

// Client is a SimpleX chat client over one WebSocket connection.
type Client struct {
	addr string
	opts options
	log  zerolog.Logger

	mu         sync.RWMutex
	tr         *ws.Transport
	dispatcher *dispatch.Dispatcher
	events     chan protocol.Response
	stop       chan struct{}
	stopOnce   *sync.Once

	wg sync.WaitGroup
}

type options struct {
	timeout      time.Duration
	queueSize    int
	stallTimeout time.Duration
	logger       zerolog.Logger
	dialer       *websocket.Dialer
}

// Option configures a Client.
type Option func(*options)

// WithTimeout sets the default per-command response timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithQueueSize sets the event queue capacity.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// WithStallTimeout bounds how long the read pump waits on a full event
// queue before dropping an event.
func WithStallTimeout(d time.Duration) Option {
	return func(o *options) { o.stallTimeout = d }
}

// WithLogger sets the client's logger. Logging is off by default.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDialer sets a custom WebSocket dialer, for TLS configuration or
// proxies.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// New creates a client for the given server address. The address may be a
// ws:// or wss:// URL or a bare host:port. New does not connect.
func New(addr string, opts ...Option) *Client {
	o := options{
		timeout:      DefaultTimeout,
		queueSize:    DefaultQueueSize,
		stallTimeout: DefaultStallTimeout,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Client{
		addr: addr,
		opts: o,
		log:  o.logger.With().Str("client", uuid.NewString()[:8]).Logger(),
	}
}

// Connect dials the server and starts the read pump. It fails if the client
// is already connected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dispatcher != nil {
		return fmt.Errorf("client: already connected to %s", c.addr)
	}

	var tr *ws.Transport
	var err error
	if c.opts.dialer != nil {
		tr, err = ws.DialWithDialer(ctx, c.opts.dialer, ws.ServerURL(c.addr))
	} else {
		tr, err = ws.Dial(ctx, ws.ServerURL(c.addr))
	}
	if err != nil {
		return err
	}

	c.tr = tr
	c.dispatcher = dispatch.New(dispatch.Config{
		Transport:    tr,
		QueueSize:    c.opts.queueSize,
		StallTimeout: c.opts.stallTimeout,
		Logger:       c.log,
	})
	c.events = make(chan protocol.Response)
	c.stop = make(chan struct{})
	c.stopOnce = &sync.Once{}

	c.wg.Add(1)
	go c.forwardEvents(c.dispatcher, c.events, c.stop)

	c.log.Debug().Str("addr", c.addr).Msg("connected")
	return nil
}

// Close shuts the client down: the connection is closed, every pending
// command fails with ErrDisconnected, and the Events channel is closed once
// queued events are delivered. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	d := c.dispatcher
	stop, once := c.stop, c.stopOnce
	c.mu.Unlock()

	if d == nil {
		return nil
	}
	once.Do(func() { close(stop) })
	d.Shutdown()
	c.wg.Wait()

	c.mu.Lock()
	c.dispatcher = nil
	c.tr = nil
	c.mu.Unlock()
	return nil
}

// Connected reports whether the client has a live connection.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.dispatcher == nil {
		return false
	}
	select {
	case <-c.dispatcher.Done():
		return false
	default:
		return true
	}
}

// SendCommand sends cmd and waits for its response using the client's
// default timeout. A chatCmdError response is returned as a value, not an
// error; the typed helpers convert it.
func (c *Client) SendCommand(ctx context.Context, cmd protocol.ChatCommand) (protocol.Response, error) {
	return c.SendCommandWithTimeout(ctx, cmd, c.opts.timeout)
}

// SendCommandWithTimeout is SendCommand with a per-call timeout.
func (c *Client) SendCommandWithTimeout(ctx context.Context, cmd protocol.ChatCommand, timeout time.Duration) (protocol.Response, error) {
	return c.sendRaw(ctx, cmd.CmdString(), timeout)
}

// SendRaw sends a raw protocol string (e.g. "/u") with the default timeout
// and returns the decoded response.
func (c *Client) SendRaw(ctx context.Context, cmd string) (protocol.Response, error) {
	return c.sendRaw(ctx, cmd, c.opts.timeout)
}

func (c *Client) sendRaw(ctx context.Context, cmd string, timeout time.Duration) (protocol.Response, error) {
	c.mu.RLock()
	d := c.dispatcher
	c.mu.RUnlock()

	if d == nil {
		return nil, ErrNotConnected
	}

	env, err := d.Send(ctx, cmd, timeout)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeResponse(env.Resp)
}

// Events returns the channel of unsolicited server events. The channel is
// shared: with multiple receivers each event is delivered to exactly one of
// them. It is closed after Close, once queued events are drained. Before
// Connect there is no event stream, so a closed channel is returned.
func (c *Client) Events() <-chan protocol.Response {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.events == nil {
		closed := make(chan protocol.Response)
		close(closed)
		return closed
	}
	return c.events
}

// MetricsRegistry exposes the client's diagnostic counters for scraping.
// It is nil before the first Connect.
func (c *Client) MetricsRegistry() *prometheus.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.dispatcher == nil {
		return nil
	}
	return c.dispatcher.Metrics().Registry()
}

// forwardEvents drains the dispatcher's event queue into the public events
// channel, decoding each body. Close does not discard queued events: an
// active consumer receives the whole backlog before the channel closes.
// Only when no receiver takes an event within the stall timeout after Close
// is the remaining backlog discarded.
func (c *Client) forwardEvents(d *dispatch.Dispatcher, out chan<- protocol.Response, stop <-chan struct{}) {
	defer c.wg.Done()
	defer close(out)

	for {
		env, err := d.Events().Dequeue(context.Background())
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) {
				c.log.Warn().Err(err).Msg("event dequeue failed")
			}
			return
		}
		resp, err := protocol.DecodeResponse(env.Resp)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping undecodable event")
			continue
		}
		select {
		case out <- resp:
			continue
		case <-stop:
		}
		// Close is in progress. Keep delivering so the backlog reaches a
		// consumer that is still ranging over Events; give up only when
		// nobody receives within the stall timeout.
		timer := time.NewTimer(c.opts.stallTimeout)
		select {
		case out <- resp:
			timer.Stop()
		case <-timer.C:
			c.log.Warn().Msg("no event receiver on close, discarding queued events")
			return
		}
	}
}

// sendTyped sends cmd and converts a chatCmdError response into a Go error.
func (c *Client) sendTyped(ctx context.Context, cmd protocol.ChatCommand) (protocol.Response, error) {
	resp, err := c.SendCommand(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if cmdErr, ok := resp.(*protocol.CRChatCmdError); ok {
		return nil, cmdErr
	}
	return resp, nil
}
