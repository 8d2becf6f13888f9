package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/simplexbot/simplexbot/internal/transport"
	"github.com/simplexbot/simplexbot/pkg/protocol"
	"github.com/simplexbot/simplexbot/pkg/queue"
)

// fakeTransport is an in-memory transport the test controls: frames written
// by the dispatcher land in sent, frames pushed via deliver are read by the
// pump.
type fakeTransport struct {
	sent    chan []byte
	inbound chan []byte
	mu      sync.Mutex
	closed  bool
	done    chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		sent:    make(chan []byte, 64),
		inbound: make(chan []byte, 64),
		done:    make(chan struct{}),
	}
}

func (f *fakeTransport) Read() ([]byte, error) {
	select {
	case data := <-f.inbound:
		return data, nil
	case <-f.done:
		return nil, transport.ErrClosed
	}
}

func (f *fakeTransport) Write(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return transport.ErrClosed
	}
	f.sent <- data
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

func (f *fakeTransport) deliver(frame string) {
	f.inbound <- []byte(frame)
}

// lastSent waits for the next frame the dispatcher wrote and returns its
// envelope.
func (f *fakeTransport) lastSent(t *testing.T) protocol.ChatSrvRequest {
	t.Helper()
	select {
	case data := <-f.sent:
		var req protocol.ChatSrvRequest
		if err := json.Unmarshal(data, &req); err != nil {
			t.Fatalf("Sent frame is not a request envelope: %v", err)
		}
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for sent frame")
		return protocol.ChatSrvRequest{}
	}
}

func newTestDispatcher(tr transport.Transport, qsize int) *Dispatcher {
	return New(Config{
		Transport: tr,
		QueueSize: qsize,
		Logger:    zerolog.Nop(),
	})
}

func TestSendReceivesMatchingResponse(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)
	defer d.Shutdown()

	got := make(chan protocol.ChatSrvResponse, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := d.Send(context.Background(), "/u", time.Second)
		got <- resp
		errCh <- err
	}()

	req := ft.lastSent(t)
	if req.Cmd != "/u" {
		t.Errorf("Expected cmd '/u', got '%s'", req.Cmd)
	}
	ft.deliver(fmt.Sprintf(`{"corrId":%q,"resp":{"type":"cmdOk"}}`, req.CorrID))

	resp := <-got
	if err := <-errCh; err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if resp.CorrID != req.CorrID {
		t.Errorf("Response corrId %q does not match request %q", resp.CorrID, req.CorrID)
	}
}

func TestConcurrentSendsEachGetTheirResponse(t *testing.T) {
	const n = 50
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)
	defer d.Shutdown()

	// Responder echoes each request's corrId back with a body carrying it,
	// out of order half the time.
	go func() {
		var batch []protocol.ChatSrvRequest
		for i := 0; i < n; i++ {
			data := <-ft.sent
			var req protocol.ChatSrvRequest
			json.Unmarshal(data, &req)
			batch = append(batch, req)
			if len(batch) == 2 {
				ft.deliver(fmt.Sprintf(`{"corrId":%q,"resp":{"type":"echo","cmd":%q}}`, batch[1].CorrID, batch[1].Cmd))
				ft.deliver(fmt.Sprintf(`{"corrId":%q,"resp":{"type":"echo","cmd":%q}}`, batch[0].CorrID, batch[0].Cmd))
				batch = nil
			}
		}
		for _, req := range batch {
			ft.deliver(fmt.Sprintf(`{"corrId":%q,"resp":{"type":"echo","cmd":%q}}`, req.CorrID, req.Cmd))
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := fmt.Sprintf("/cmd-%d", i)
			resp, err := d.Send(context.Background(), cmd, 5*time.Second)
			if err != nil {
				t.Errorf("Send %d failed: %v", i, err)
				return
			}
			var body struct {
				Cmd string `json:"cmd"`
			}
			if err := json.Unmarshal(resp.Resp, &body); err != nil {
				t.Errorf("Send %d: bad body: %v", i, err)
				return
			}
			if body.Cmd != cmd {
				t.Errorf("Send %d got response for %q", i, body.Cmd)
			}
		}(i)
	}
	wg.Wait()

	if n := d.PendingCount(); n != 0 {
		t.Errorf("Expected empty registry after all responses, got %d pending", n)
	}
}

func TestSendTimeoutRemovesPendingEntry(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)
	defer d.Shutdown()

	_, err := d.Send(context.Background(), "/u", 10*time.Millisecond)
	if !errors.Is(err, ErrCommandTimeout) {
		t.Fatalf("Expected ErrCommandTimeout, got %v", err)
	}
	if n := d.PendingCount(); n != 0 {
		t.Errorf("Registry entry not removed on timeout, %d pending", n)
	}
}

func TestLateResponseAfterTimeoutIsDropped(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)
	defer d.Shutdown()

	_, err := d.Send(context.Background(), "/u", 10*time.Millisecond)
	if !errors.Is(err, ErrCommandTimeout) {
		t.Fatalf("Expected ErrCommandTimeout, got %v", err)
	}
	req := ft.lastSent(t)

	// The response arrives after the caller gave up.
	ft.deliver(fmt.Sprintf(`{"corrId":%q,"resp":{"type":"cmdOk"}}`, req.CorrID))
	time.Sleep(50 * time.Millisecond)

	// It must not surface as an event.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := d.Events().Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Late response leaked into the event queue (err = %v)", err)
	}

	if got := counterValue(t, d.Metrics().ResponsesUnmatched); got != 1 {
		t.Errorf("Expected 1 unmatched response counted, got %v", got)
	}
}

func TestDuplicateCorrelationIDSecondDropped(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)
	defer d.Shutdown()

	done := make(chan error, 1)
	go func() {
		_, err := d.Send(context.Background(), "/u", time.Second)
		done <- err
	}()

	req := ft.lastSent(t)
	ft.deliver(fmt.Sprintf(`{"corrId":%q,"resp":{"type":"cmdOk"}}`, req.CorrID))
	ft.deliver(fmt.Sprintf(`{"corrId":%q,"resp":{"type":"cmdOk"}}`, req.CorrID))

	if err := <-done; err != nil {
		t.Fatalf("First response should resolve the call, got %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if got := counterValue(t, d.Metrics().ResponsesUnmatched); got != 1 {
		t.Errorf("Expected duplicate counted as unmatched, got %v", got)
	}
	if d.Events().Len() != 0 {
		t.Error("Duplicate response must not be queued as an event")
	}
}

func TestEventWithoutCorrIDGoesToQueue(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)
	defer d.Shutdown()

	ft.deliver(`{"resp":{"type":"newChatItems","chatItems":[]}}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env, err := d.Events().Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if env.CorrID != "" {
		t.Errorf("Event should have no corrId, got %q", env.CorrID)
	}

	resp, err := protocol.DecodeResponse(env.Resp)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if resp.ResponseType() != "newChatItems" {
		t.Errorf("Expected newChatItems event, got %s", resp.ResponseType())
	}
}

func TestEventsPreserveOrder(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)
	defer d.Shutdown()

	for i := 0; i < 5; i++ {
		ft.deliver(fmt.Sprintf(`{"resp":{"type":"ev","seq":%d}}`, i))
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		env, err := d.Events().Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue %d failed: %v", i, err)
		}
		var body struct {
			Seq int `json:"seq"`
		}
		json.Unmarshal(env.Resp, &body)
		if body.Seq != i {
			t.Errorf("Expected event %d, got %d", i, body.Seq)
		}
	}
}

func TestShutdownResolvesAllPendingWithDisconnected(t *testing.T) {
	const m = 5
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)

	errs := make(chan error, m)
	for i := 0; i < m; i++ {
		go func() {
			_, err := d.Send(context.Background(), "/u", time.Minute)
			errs <- err
		}()
	}
	for i := 0; i < m; i++ {
		ft.lastSent(t)
	}

	d.Shutdown()

	for i := 0; i < m; i++ {
		select {
		case err := <-errs:
			if !errors.Is(err, ErrDisconnected) {
				t.Errorf("Expected ErrDisconnected, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Pending Send blocked past Shutdown")
		}
	}

	if !d.Events().Closed() {
		t.Error("Event queue should be closed after Shutdown")
	}
}

func TestSendAfterShutdownFails(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)
	d.Shutdown()

	_, err := d.Send(context.Background(), "/u", time.Second)
	if !errors.Is(err, ErrDisconnected) {
		t.Errorf("Expected ErrDisconnected, got %v", err)
	}
}

func TestTransportFailureTriggersShutdown(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)

	pending := make(chan error, 1)
	go func() {
		_, err := d.Send(context.Background(), "/u", time.Minute)
		pending <- err
	}()
	ft.lastSent(t)

	// Simulate connection loss: the pump's next Read fails.
	ft.Close()

	select {
	case err := <-pending:
		if !errors.Is(err, ErrDisconnected) {
			t.Errorf("Expected ErrDisconnected on transport loss, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked past transport failure")
	}

	ctx := context.Background()
	if _, err := d.Events().Dequeue(ctx); !errors.Is(err, queue.ErrClosed) {
		t.Errorf("Expected closed event queue, got %v", err)
	}
}

func TestBackpressureBlocksPumpUntilConsumerDrains(t *testing.T) {
	ft := newFakeTransport()
	d := New(Config{
		Transport:    ft,
		QueueSize:    2,
		StallTimeout: 5 * time.Second,
		Logger:       zerolog.Nop(),
	})
	defer d.Shutdown()

	for i := 0; i < 3; i++ {
		ft.deliver(fmt.Sprintf(`{"resp":{"type":"ev","seq":%d}}`, i))
	}

	// With capacity 2 the pump is blocked on the third event.
	time.Sleep(100 * time.Millisecond)
	if got := d.Events().Len(); got != 2 {
		t.Errorf("Expected 2 queued events while pump is blocked, got %d", got)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		env, err := d.Events().Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue %d failed: %v", i, err)
		}
		var body struct {
			Seq int `json:"seq"`
		}
		json.Unmarshal(env.Resp, &body)
		if body.Seq != i {
			t.Errorf("Expected event %d, got %d", i, body.Seq)
		}
	}
}

func TestFullQueuePastStallTimeoutDropsEvent(t *testing.T) {
	ft := newFakeTransport()
	d := New(Config{
		Transport:    ft,
		QueueSize:    1,
		StallTimeout: 20 * time.Millisecond,
		Logger:       zerolog.Nop(),
	})
	defer d.Shutdown()

	ft.deliver(`{"resp":{"type":"ev","seq":0}}`)
	ft.deliver(`{"resp":{"type":"ev","seq":1}}`)

	// Nobody drains: the second event exceeds the stall timeout.
	time.Sleep(200 * time.Millisecond)

	if got := counterValue(t, d.Metrics().EventsDropped); got != 1 {
		t.Errorf("Expected 1 dropped event, got %v", got)
	}
}

func TestMalformedFrameIsSkipped(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)
	defer d.Shutdown()

	ft.deliver(`not json at all`)
	ft.deliver(`{"resp":{"type":"ev"}}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := d.Events().Dequeue(ctx); err != nil {
		t.Fatalf("Pump should survive a malformed frame: %v", err)
	}
}

func TestCorrelationIDsUniqueWhilePending(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDispatcher(ft, 10)
	defer d.Shutdown()

	const n = 20
	for i := 0; i < n; i++ {
		go d.Send(context.Background(), "/u", time.Minute)
	}

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		req := ft.lastSent(t)
		if seen[req.CorrID] {
			t.Fatalf("Correlation ID %q reused while pending", req.CorrID)
		}
		seen[req.CorrID] = true
	}
}

// counterValue reads a prometheus counter without a full scrape.
func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	return testutil.ToFloat64(c)
}
