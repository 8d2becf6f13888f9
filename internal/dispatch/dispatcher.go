// Package dispatch multiplexes many concurrent request/response commands and
// a stream of unsolicited events over one duplex transport. A single pump
// goroutine reads every inbound envelope and routes it by correlation ID:
// matched responses resolve their pending command, everything without a
// correlation ID goes to the bounded event queue.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/simplexbot/simplexbot/internal/transport"
	"github.com/simplexbot/simplexbot/pkg/protocol"
	"github.com/simplexbot/simplexbot/pkg/queue"
)

var (
	// ErrCommandTimeout is returned by Send when no response arrived within
	// the caller's timeout. The failure is local to that call.
	ErrCommandTimeout = errors.New("dispatch: command timed out")

	// ErrDisconnected is returned to every pending Send when the dispatcher
	// shuts down, on explicit Shutdown or fatal transport error.
	ErrDisconnected = errors.New("dispatch: disconnected")
)

// result is the single-resolution cell a pending command waits on. The
// channel is buffered so the pump never blocks handing it over.
type result struct {
	resp protocol.ChatSrvResponse
	err  error
}

// Dispatcher owns the pending-command registry, the event queue, and the
// transport. All registry mutation happens inside one mutex held only for
// map operations, never across I/O; that makes caller-timeout removal and
// pump resolution mutually exclusive.
type Dispatcher struct {
	tr      transport.Transport
	events  *queue.Queue[protocol.ChatSrvResponse]
	metrics *Metrics
	log     zerolog.Logger

	// stallTimeout bounds how long the pump waits on a full event queue
	// before dropping the event. Because the one pump both resolves command
	// responses and enqueues events, a consumer that stops draining stalls
	// response delivery for at most this long per stuck event.
	stallTimeout time.Duration

	nextID atomic.Uint64

	mu      sync.Mutex
	pending map[string]chan result
	closed  bool

	done     chan struct{}
	shutOnce sync.Once
	wg       sync.WaitGroup
}

// Config carries the dispatcher's construction parameters.
type Config struct {
	Transport    transport.Transport
	QueueSize    int
	StallTimeout time.Duration
	Logger       zerolog.Logger
	Metrics      *Metrics
}

// New creates a dispatcher and starts its pump.
func New(cfg Config) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = 30 * time.Second
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}

	d := &Dispatcher{
		tr:           cfg.Transport,
		events:       queue.New[protocol.ChatSrvResponse](cfg.QueueSize),
		metrics:      cfg.Metrics,
		log:          cfg.Logger,
		stallTimeout: cfg.StallTimeout,
		pending:      make(map[string]chan result),
		done:         make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// Send writes cmd with a fresh correlation ID and waits for the matching
// response up to timeout. The correlation ID comes from a monotonic counter,
// so it cannot collide with any ID still pending. On timeout the pending
// entry is removed before returning; a response racing in after that loses
// the registry lookup and is dropped by the pump.
func (d *Dispatcher) Send(ctx context.Context, cmd string, timeout time.Duration) (protocol.ChatSrvResponse, error) {
	corrID := strconv.FormatUint(d.nextID.Add(1), 10)
	ch := make(chan result, 1)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return protocol.ChatSrvResponse{}, ErrDisconnected
	}
	d.pending[corrID] = ch
	d.mu.Unlock()

	req := protocol.ChatSrvRequest{CorrID: corrID, Cmd: cmd}
	data, err := req.Encode()
	if err != nil {
		d.unregister(corrID)
		return protocol.ChatSrvResponse{}, err
	}
	if err := d.tr.Write(data); err != nil {
		d.unregister(corrID)
		return protocol.ChatSrvResponse{}, fmt.Errorf("failed to send command: %w", err)
	}
	d.metrics.CommandsSent.Inc()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-timer.C:
		if d.resolveLate(corrID, ch) {
			r := <-ch
			return r.resp, r.err
		}
		d.metrics.CommandsTimedOut.Inc()
		return protocol.ChatSrvResponse{}, ErrCommandTimeout
	case <-ctx.Done():
		if d.resolveLate(corrID, ch) {
			r := <-ch
			return r.resp, r.err
		}
		return protocol.ChatSrvResponse{}, ctx.Err()
	}
}

// resolveLate removes corrID from the registry. It reports true when the
// entry was already gone, which means a resolution was delivered (or is
// being delivered) to ch and must win over the timeout.
func (d *Dispatcher) resolveLate(corrID string, ch chan result) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pending[corrID]; ok {
		delete(d.pending, corrID)
		return false
	}
	return true
}

func (d *Dispatcher) unregister(corrID string) {
	d.mu.Lock()
	delete(d.pending, corrID)
	d.mu.Unlock()
}

// Events returns the queue of unsolicited server events. It is closed by
// Shutdown; consumers drain remaining events and then see queue.ErrClosed.
func (d *Dispatcher) Events() *queue.Queue[protocol.ChatSrvResponse] {
	return d.events
}

// Metrics returns the dispatcher's diagnostic counters.
func (d *Dispatcher) Metrics() *Metrics { return d.metrics }

// PendingCount reports the number of in-flight commands.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// run is the pump: the single reader of the transport. A transport error
// is fatal and triggers Shutdown so every waiter is released.
func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		data, err := d.tr.Read()
		if err != nil {
			if !errors.Is(err, transport.ErrClosed) {
				d.log.Error().Err(err).Msg("transport read failed, shutting down")
			}
			go d.Shutdown()
			return
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			d.log.Warn().Err(err).Msg("dropping malformed envelope")
			continue
		}

		if env.CorrID != "" {
			d.resolve(env)
			continue
		}
		d.deliverEvent(env)
	}
}

func (d *Dispatcher) resolve(env protocol.ChatSrvResponse) {
	d.mu.Lock()
	ch, ok := d.pending[env.CorrID]
	if ok {
		delete(d.pending, env.CorrID)
	}
	d.mu.Unlock()

	if !ok {
		// Stale (timed out) or duplicate correlation ID. A protocol
		// violation, not a fatal condition: count it and drop the envelope.
		// It is not an event, so it never reaches the event queue.
		d.metrics.ResponsesUnmatched.Inc()
		d.log.Debug().Str("corrId", env.CorrID).Msg("dropping unmatched response")
		return
	}

	ch <- result{resp: env}
	d.metrics.ResponsesMatched.Inc()
}

func (d *Dispatcher) deliverEvent(env protocol.ChatSrvResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), d.stallTimeout)
	defer cancel()

	err := d.events.Enqueue(ctx, env)
	switch {
	case err == nil:
		d.metrics.EventsQueued.Inc()
	case errors.Is(err, context.DeadlineExceeded):
		d.metrics.EventsDropped.Inc()
		d.log.Warn().
			Dur("stallTimeout", d.stallTimeout).
			Msg("event queue full past stall timeout, dropping event")
	case errors.Is(err, queue.ErrClosed):
		// Shutdown in progress; the pump will observe the transport close.
	default:
		d.log.Warn().Err(err).Msg("failed to queue event")
	}
}

// Shutdown closes the event queue and the transport, and resolves every
// still-pending command with ErrDisconnected so no caller blocks forever.
// It runs exactly once; later calls wait for the first to finish.
func (d *Dispatcher) Shutdown() {
	d.shutOnce.Do(func() {
		close(d.done)

		d.mu.Lock()
		d.closed = true
		pending := d.pending
		d.pending = make(map[string]chan result)
		d.mu.Unlock()

		for _, ch := range pending {
			ch <- result{err: ErrDisconnected}
		}

		d.events.Close()
		if err := d.tr.Close(); err != nil {
			d.log.Debug().Err(err).Msg("transport close")
		}
	})
	d.wg.Wait()
}

// Done is closed when the dispatcher has begun shutting down.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }
