package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xpanvictor/intervox/pkg/protocol"
)

const waitTimeout = 2 * time.Second

type testServer struct {
	srv       *httptest.Server
	conns     chan *websocket.Conn
	received  chan protocol.Message
	binary    chan []byte
	closes    chan int
	reject    int32
	onConnect func(conn *websocket.Conn)
}

func newTestServer(t *testing.T, onConnect func(conn *websocket.Conn)) *testServer {
	t.Helper()
	ts := &testServer{
		onConnect: onConnect,
		conns:     make(chan *websocket.Conn, 8),
		received:  make(chan protocol.Message, 64),
		binary:    make(chan []byte, 64),
		closes:    make(chan int, 8),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code := atomic.LoadInt32(&ts.reject); code != 0 {
			http.Error(w, "rejected", int(code))
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.conns <- conn
		if ts.onConnect != nil {
			ts.onConnect(conn)
		}
		go func() {
			for {
				mt, data, err := conn.ReadMessage()
				if err != nil {
					var ce *websocket.CloseError
					if errors.As(err, &ce) {
						ts.closes <- ce.Code
					}
					return
				}
				if mt == websocket.BinaryMessage {
					ts.binary <- data
					continue
				}
				msg, err := protocol.Decode(data)
				if err == nil && msg.Type != protocol.TypePing {
					ts.received <- msg
				}
			}
		}()
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) URL() string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http")
}

func (ts *testServer) nextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-ts.conns:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("server saw no connection")
		return nil
	}
}

type recorder struct {
	states chan State
	errs   chan error
	msgs   chan protocol.Message
}

func newRecorder() *recorder {
	return &recorder{
		states: make(chan State, 64),
		errs:   make(chan error, 16),
		msgs:   make(chan protocol.Message, 64),
	}
}

func (r *recorder) HandleMessage(m protocol.Message) { r.msgs <- m }
func (r *recorder) HandleState(s State)              { r.states <- s }
func (r *recorder) HandleError(err error)            { r.errs <- err }

func (r *recorder) waitState(t *testing.T, want State) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case s := <-r.states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func (r *recorder) waitErr(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.errs:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for error")
		return nil
	}
}

type countingDialer struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	failAll   bool
}

func (d *countingDialer) DialContext(ctx context.Context, u string, h http.Header) (*websocket.Conn, *http.Response, error) {
	d.mu.Lock()
	d.calls++
	n := d.calls
	d.mu.Unlock()
	if d.failAll || n <= d.failFirst {
		return nil, nil, errors.New("dial tcp: connection refused")
	}
	return websocket.DefaultDialer.DialContext(ctx, u, h)
}

func (d *countingDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newChannel(t *testing.T, url string, l Listener, opts ...Option) *Channel {
	t.Helper()
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.SessionID = "session-1"
	cfg.Token = "tok"
	ch, err := New(cfg, l, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { ch.Close() })
	return ch
}

func TestBuildURL(t *testing.T) {
	u, err := buildURL(Config{URL: "http://example.com/base", SessionID: "abc", Token: "t 1"})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}
	if u != "ws://example.com/base/ws/interview/abc?token=t+1" {
		t.Errorf("unexpected url %s", u)
	}
	if _, err := buildURL(Config{URL: "ftp://x", SessionID: "abc"}); err == nil {
		t.Error("expected unsupported scheme error")
	}
	if _, err := buildURL(Config{URL: "ws://x"}); err == nil {
		t.Error("expected missing session error")
	}
}

func TestPendingFlushedInOrderAfterReconnect(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := newRecorder()
	release := make(chan struct{})
	sleep := func(ctx context.Context, d time.Duration) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	ch := newChannel(t, ts.URL(), rec, WithSleep(sleep))

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	rec.waitState(t, StateConnected)

	// drop the link without a close frame
	ts.nextConn(t).Close()
	rec.waitState(t, StateReconnecting)

	for _, text := range []string{"m1", "m2", "m3"} {
		if err := ch.Send(protocol.Message{Type: protocol.TypeStartRecording, Text: text}); err != nil {
			t.Fatalf("Send %s: %v", text, err)
		}
	}
	if ch.Pending() != 3 {
		t.Fatalf("expected 3 pending, got %d", ch.Pending())
	}

	close(release)
	rec.waitState(t, StateConnected)

	for _, want := range []string{"m1", "m2", "m3"} {
		select {
		case m := <-ts.received:
			if m.Text != want {
				t.Fatalf("expected %s, got %s", want, m.Text)
			}
		case <-time.After(waitTimeout):
			t.Fatalf("did not receive %s", want)
		}
	}
	select {
	case m := <-ts.received:
		t.Fatalf("unexpected duplicate delivery: %+v", m)
	case <-time.After(100 * time.Millisecond):
	}
	if ch.Pending() != 0 {
		t.Errorf("pending queue not cleared: %d", ch.Pending())
	}
}

func TestSendWhileConnectedIsImmediate(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := newRecorder()
	ch := newChannel(t, ts.URL(), rec)

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	rec.waitState(t, StateConnected)

	ch.Send(protocol.Control(protocol.TypeAnswerComplete))
	select {
	case m := <-ts.received:
		if m.Type != protocol.TypeAnswerComplete {
			t.Errorf("unexpected message %s", m.Type)
		}
	case <-time.After(waitTimeout):
		t.Fatal("message not delivered")
	}
}

func TestReconnectStopsAtMaxAttempts(t *testing.T) {
	rec := newRecorder()
	dialer := &countingDialer{failAll: true}

	var mu sync.Mutex
	var delays []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		return nil
	}

	cfg := Config{URL: "ws://127.0.0.1:1", SessionID: "s", BaseDelay: time.Second, Factor: 2, MaxDelay: time.Minute, MaxAttempts: 5}
	ch, err := New(cfg, rec, WithDialer(dialer), WithSleep(sleep))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ch.Close()

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect should schedule retries, got %v", err)
	}

	if err := rec.waitErr(t); !errors.Is(err, ErrReconnectExhausted) {
		t.Fatalf("expected ErrReconnectExhausted, got %v", err)
	}
	if ch.State() != StateClosed {
		t.Errorf("expected closed state, got %s", ch.State())
	}

	time.Sleep(50 * time.Millisecond)
	if got := dialer.Calls(); got != 6 {
		t.Errorf("expected initial dial plus 5 retries, got %d dials", got)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("wait %d: got %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestSuccessfulReconnectResetsCounter(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := newRecorder()
	dialer := &countingDialer{failFirst: 2}
	noWait := func(context.Context, time.Duration) error { return nil }
	ch := newChannel(t, ts.URL(), rec, WithDialer(dialer), WithSleep(noWait))

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	rec.waitState(t, StateConnected)

	if dialer.Calls() != 3 {
		t.Errorf("expected 3 dials, got %d", dialer.Calls())
	}
	if n := ch.GetStats()["reconnect_count"].(int); n != 0 {
		t.Errorf("expected counter reset on connect, got %d", n)
	}
}

func TestHandshakeUnauthorizedIsTerminal(t *testing.T) {
	ts := newTestServer(t, nil)
	atomic.StoreInt32(&ts.reject, http.StatusUnauthorized)
	rec := newRecorder()
	dialer := &countingDialer{}
	ch := newChannel(t, ts.URL(), rec, WithDialer(dialer))

	err := ch.Connect(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if dialer.Calls() != 1 {
		t.Errorf("auth failure must not be retried, got %d dials", dialer.Calls())
	}
	if ch.State() != StateClosed {
		t.Errorf("expected closed, got %s", ch.State())
	}
}

func TestAuthCloseCodeIsTerminal(t *testing.T) {
	ts := newTestServer(t, func(conn *websocket.Conn) {
		msg := websocket.FormatCloseMessage(protocol.CloseUnauthorized, "invalid token")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	})
	rec := newRecorder()
	dialer := &countingDialer{}
	ch := newChannel(t, ts.URL(), rec, WithDialer(dialer))

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := rec.waitErr(t); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if dialer.Calls() != 1 {
		t.Errorf("expected no reconnect, got %d dials", dialer.Calls())
	}
}

func TestUserCloseIsNormalAndFinal(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := newRecorder()
	dialer := &countingDialer{}
	ch := newChannel(t, ts.URL(), rec, WithDialer(dialer))

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	rec.waitState(t, StateConnected)
	ch.Close()

	select {
	case code := <-ts.closes:
		if code != websocket.CloseNormalClosure {
			t.Errorf("expected close code 1000, got %d", code)
		}
	case <-time.After(waitTimeout):
		t.Fatal("server did not see a close frame")
	}
	time.Sleep(50 * time.Millisecond)
	if dialer.Calls() != 1 {
		t.Errorf("normal close must not reconnect, got %d dials", dialer.Calls())
	}
	if err := ch.Send(protocol.Control(protocol.TypePing)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
	if err := ch.Connect(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on reconnect after Close, got %v", err)
	}
}

func TestSendBinary(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := newRecorder()
	ch := newChannel(t, ts.URL(), rec)

	if err := ch.SendBinary([]byte{1, 2}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected before connect, got %v", err)
	}
	if ch.Pending() != 0 {
		t.Error("audio must not be queued")
	}

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	rec.waitState(t, StateConnected)
	if err := ch.SendBinary([]byte{1, 2, 3}); err != nil {
		t.Fatalf("SendBinary: %v", err)
	}
	select {
	case b := <-ts.binary:
		if len(b) != 3 {
			t.Errorf("unexpected frame %v", b)
		}
	case <-time.After(waitTimeout):
		t.Fatal("binary frame not delivered")
	}
}

func TestMalformedFramesAreDropped(t *testing.T) {
	ts := newTestServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("garbage"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pong"}`))
	})
	rec := newRecorder()
	ch := newChannel(t, ts.URL(), rec)

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	select {
	case m := <-rec.msgs:
		if m.Type != protocol.TypePong {
			t.Errorf("expected pong, got %s", m.Type)
		}
	case <-time.After(waitTimeout):
		t.Fatal("valid message after garbage was not delivered")
	}
	if ch.State() != StateConnected {
		t.Errorf("malformed frame tore down the connection: %s", ch.State())
	}
}

func TestLivenessWarningKeepsConnection(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := newRecorder()
	clock := &fakeClock{t: time.Now()}
	ch := newChannel(t, ts.URL(), rec, WithClock(clock.Now))

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	rec.waitState(t, StateConnected)

	ch.checkLiveness()
	select {
	case err := <-rec.errs:
		t.Fatalf("unexpected warning while fresh: %v", err)
	default:
	}

	clock.Advance(DefaultConfig().InactivityTimeout + time.Second)
	ch.checkLiveness()
	if err := rec.waitErr(t); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	ch.checkLiveness()
	select {
	case err := <-rec.errs:
		t.Errorf("warning repeated without new activity: %v", err)
	default:
	}
	if ch.State() != StateConnected {
		t.Errorf("stale warning must not close the connection, state %s", ch.State())
	}
}

func TestKeepaliveSendsPing(t *testing.T) {
	pings := make(chan struct{}, 4)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if m, err := protocol.Decode(data); err == nil && m.Type == protocol.TypePing {
				pings <- struct{}{}
			}
		}
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = "ws" + strings.TrimPrefix(srv.URL, "http")
	cfg.SessionID = "s"
	cfg.HeartbeatInterval = 20 * time.Millisecond
	ch, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ch.Close()
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case <-pings:
	case <-time.After(waitTimeout):
		t.Fatal("no heartbeat received")
	}
}

func TestZeroMaxAttemptsUsesDefault(t *testing.T) {
	ch, err := New(Config{URL: "ws://127.0.0.1:1", SessionID: "s"}, newRecorder())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ch.Close()
	if got := ch.GetStats()["max_attempts"].(int); got != DefaultConfig().MaxAttempts {
		t.Errorf("max attempts = %d, want %d", got, DefaultConfig().MaxAttempts)
	}

	off, err := New(Config{URL: "ws://127.0.0.1:1", SessionID: "s", MaxAttempts: -1}, newRecorder())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer off.Close()
	if got := off.GetStats()["max_attempts"].(int); got != 0 {
		t.Errorf("max attempts = %d, want 0 when disabled", got)
	}
}

func TestFullQueueRejectsNewMessages(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "ws://127.0.0.1:1"
	cfg.SessionID = "s"
	cfg.MaxPending = 2
	ch, err := New(cfg, newRecorder())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ch.Close()

	for _, typ := range []protocol.MessageType{protocol.TypeStartRecording, protocol.TypeStopRecording} {
		if err := ch.Send(protocol.Control(typ)); err != nil {
			t.Fatalf("Send %s: %v", typ, err)
		}
	}
	if err := ch.Send(protocol.Control(protocol.TypeAnswerComplete)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("third send = %v, want ErrQueueFull", err)
	}
	if ch.Pending() != 2 {
		t.Errorf("pending = %d, want 2", ch.Pending())
	}
	if got := ch.GetStats()["rejected"].(int); got != 1 {
		t.Errorf("rejected = %d, want 1", got)
	}
}
