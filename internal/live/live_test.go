package live_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"taskdesk/internal/live"
	"taskdesk/internal/logging"
)

func TestBus_OnOffDispatch(t *testing.T) {
	bus := live.NewBus()

	var got []string
	first := bus.On(live.TaskCreated, func(p json.RawMessage) { got = append(got, "first:"+string(p)) })
	bus.On(live.TaskCreated, func(p json.RawMessage) { got = append(got, "second:"+string(p)) })
	bus.On(live.TaskDeleted, func(p json.RawMessage) { got = append(got, "deleted") })

	bus.Dispatch(live.TaskCreated, json.RawMessage(`1`))
	if strings.Join(got, ",") != "first:1,second:1" {
		t.Errorf("unexpected deliveries %v", got)
	}

	bus.Off(first)
	bus.Off(first)
	got = nil
	bus.Dispatch(live.TaskCreated, json.RawMessage(`2`))
	if strings.Join(got, ",") != "second:2" {
		t.Errorf("unexpected deliveries after Off %v", got)
	}
	if bus.Count(live.TaskCreated) != 1 {
		t.Errorf("expected 1 subscription, got %d", bus.Count(live.TaskCreated))
	}
}

func TestBus_HandlerMayUnsubscribe(t *testing.T) {
	bus := live.NewBus()
	calls := 0
	var sub live.Subscription
	sub = bus.On(live.TaskUpdated, func(json.RawMessage) {
		calls++
		bus.Off(sub)
	})

	bus.Dispatch(live.TaskUpdated, nil)
	bus.Dispatch(live.TaskUpdated, nil)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestLoopback_EchoesToOwnHandlers(t *testing.T) {
	lb := live.NewLoopback()
	var got json.RawMessage
	lb.On(live.TaskCreated, func(p json.RawMessage) { got = p })

	if err := lb.Emit(context.Background(), live.TaskCreated, map[string]string{"_id": "2"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if string(got) != `{"_id":"2"}` {
		t.Errorf("unexpected echo %s", got)
	}
	emitted := lb.Emitted()
	if len(emitted) != 1 || emitted[0].Event != live.TaskCreated {
		t.Errorf("unexpected emitted %v", emitted)
	}

	lb.Err = errors.New("down")
	if err := lb.Emit(context.Background(), live.TaskCreated, nil); err == nil {
		t.Error("expected injected error")
	}
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:4000", "ws://localhost:4000/socket.io/?EIO=4&transport=websocket"},
		{"https://api.example.com/", "wss://api.example.com/socket.io/?EIO=4&transport=websocket"},
	}
	for _, tt := range tests {
		got, err := live.SocketURL(tt.in)
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.in, tt.want, got)
		}
	}
	if _, err := live.SocketURL("ftp://x"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

// fakeIO is a minimal Socket.IO server: it completes the handshake, answers
// pongs, and rebroadcasts every event a client emits to that client.
type fakeIO struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	received []string
	pong     chan struct{}
	ready    chan struct{}
}

func newFakeIO(t *testing.T) (*fakeIO, *httptest.Server) {
	f := &fakeIO{t: t, pong: make(chan struct{}, 1), ready: make(chan struct{})}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeIO) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/socket.io/" || r.URL.Query().Get("EIO") != "4" {
		http.NotFound(w, r)
		return
	}
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_ = conn.WriteMessage(websocket.TextMessage, []byte(`0{"sid":"abc","pingInterval":25000,"pingTimeout":20000}`))
	_, msg, err := conn.ReadMessage()
	if err != nil || string(msg) != "40" {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"xyz"}`))

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	close(f.ready)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s := string(msg)
		switch {
		case s == "3":
			f.pong <- struct{}{}
		case strings.HasPrefix(s, "42"):
			f.mu.Lock()
			f.received = append(f.received, s)
			f.mu.Unlock()
			_ = conn.WriteMessage(websocket.TextMessage, msg)
		}
	}
}

func (f *fakeIO) send(frame string) {
	<-f.ready
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = f.conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func dialFake(t *testing.T, srv *httptest.Server) *live.Socket {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sock, err := live.Dial(ctx, srv.URL, logging.Discard())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { sock.Close() })
	return sock
}

func waitPayload(t *testing.T, ch <-chan json.RawMessage) json.RawMessage {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSocket_ReceivesEvents(t *testing.T) {
	fake, srv := newFakeIO(t)
	sock := dialFake(t, srv)

	ch := make(chan json.RawMessage, 4)
	sock.On(live.TaskUpdated, func(p json.RawMessage) { ch <- p })

	fake.send(`42["task-updated",{"_id":"1","progresion":50}]`)
	if got := waitPayload(t, ch); string(got) != `{"_id":"1","progresion":50}` {
		t.Errorf("unexpected payload %s", got)
	}

	// Ack ids are skipped.
	fake.send(`4217["task-updated",{"_id":"2"}]`)
	if got := waitPayload(t, ch); string(got) != `{"_id":"2"}` {
		t.Errorf("unexpected payload %s", got)
	}
}

func TestSocket_AnswersPing(t *testing.T) {
	fake, srv := newFakeIO(t)
	dialFake(t, srv)

	fake.send("2")
	select {
	case <-fake.pong:
	case <-time.After(5 * time.Second):
		t.Fatal("no pong")
	}
}

func TestSocket_EmitRoundTrip(t *testing.T) {
	fake, srv := newFakeIO(t)
	sock := dialFake(t, srv)
	<-fake.ready

	ch := make(chan json.RawMessage, 1)
	sock.On(live.TaskCreated, func(p json.RawMessage) { ch <- p })

	if err := sock.Emit(context.Background(), live.TaskCreated, map[string]string{"_id": "2"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got := waitPayload(t, ch); string(got) != `{"_id":"2"}` {
		t.Errorf("unexpected echo %s", got)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.received) != 1 || fake.received[0] != `42["task-created",{"_id":"2"}]` {
		t.Errorf("unexpected frames %v", fake.received)
	}
}

func TestSocket_ServerDisconnect(t *testing.T) {
	fake, srv := newFakeIO(t)
	sock := dialFake(t, srv)

	fake.send("41")
	select {
	case <-sock.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("socket did not stop")
	}
	if err := sock.Emit(context.Background(), live.TaskCreated, nil); !errors.Is(err, live.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestDial_ConnectRefused(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`0{"sid":"abc","pingInterval":25000,"pingTimeout":20000}`))
		_, _, _ = conn.ReadMessage()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`44{"message":"unauthorized"}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	_, err := live.Dial(context.Background(), srv.URL, logging.Discard())
	if err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Errorf("expected connect refusal, got %v", err)
	}
}

func TestLoopback_Close(t *testing.T) {
	lb := live.NewLoopback()
	lb.Close()
	lb.Close()

	select {
	case <-lb.Done():
	default:
		t.Fatal("expected Done closed")
	}
	if err := lb.Emit(context.Background(), live.TaskCreated, nil); !errors.Is(err, live.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
