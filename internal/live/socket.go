package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Engine.IO v4 packet types (first byte of each text frame).
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
)

// Socket.IO v5 packet types (second byte of an Engine.IO message).
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// ErrClosed is returned by Emit after the channel has closed.
var ErrClosed = errors.New("live channel closed")

var _ Conn = (*Socket)(nil)

type openPacket struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// Socket is a Socket.IO client on the default namespace over the websocket
// transport. It does not reconnect: once Done is closed the socket is spent.
type Socket struct {
	*Bus

	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	// readDeadline is pingInterval + pingTimeout from the open packet.
	readDeadline time.Duration

	done      chan struct{}
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// SocketURL derives the Engine.IO websocket endpoint from the REST base URL.
func SocketURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	return u.String(), nil
}

// Dial connects to server (the REST base URL) and completes the Engine.IO and
// Socket.IO handshakes before returning.
func Dial(ctx context.Context, server string, logger *slog.Logger) (*Socket, error) {
	endpoint, err := SocketURL(server)
	if err != nil {
		return nil, err
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = handshakeTimeout
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("live channel: %w", err)
	}

	s := &Socket{
		Bus:    NewBus(),
		conn:   conn,
		logger: logger,
		done:   make(chan struct{}),
	}
	if err := s.handshake(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("live channel: %w", err)
	}

	go s.readLoop()
	return s, nil
}

func (s *Socket) handshake(ctx context.Context) error {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetReadDeadline(deadline)

	data, err := s.readText()
	if err != nil {
		return err
	}
	if len(data) == 0 || data[0] != eioOpen {
		return fmt.Errorf("expected open packet, got %q", data)
	}
	var open openPacket
	if err := json.Unmarshal(data[1:], &open); err != nil {
		return fmt.Errorf("invalid open packet: %w", err)
	}
	if open.PingInterval > 0 {
		s.readDeadline = time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
	}

	if err := s.write([]byte{eioMessage, sioConnect}); err != nil {
		return err
	}

	for {
		data, err := s.readText()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			continue
		}
		switch {
		case data[0] == eioPing:
			if err := s.write([]byte{eioPong}); err != nil {
				return err
			}
		case len(data) >= 2 && data[0] == eioMessage && data[1] == sioConnect:
			s.logger.Debug("live channel connected", "sid", open.SID)
			_ = s.conn.SetReadDeadline(time.Time{})
			return nil
		case len(data) >= 2 && data[0] == eioMessage && data[1] == sioConnectError:
			return fmt.Errorf("connect refused: %s", data[2:])
		default:
			return fmt.Errorf("unexpected packet during handshake: %q", data)
		}
	}
}

func (s *Socket) readText() ([]byte, error) {
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage {
			return data, nil
		}
	}
}

func (s *Socket) readLoop() {
	for {
		if s.readDeadline > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.readDeadline))
		}
		data, err := s.readText()
		if err != nil {
			s.finish(err)
			return
		}
		if stop := s.handle(data); stop {
			s.finish(nil)
			return
		}
	}
}

// handle processes one packet and reports whether the session ended.
func (s *Socket) handle(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	switch data[0] {
	case eioPing:
		if err := s.write([]byte{eioPong}); err != nil {
			s.logger.Error("live channel pong", "err", err)
		}
	case eioClose:
		return true
	case eioMessage:
		if len(data) < 2 {
			return false
		}
		switch data[1] {
		case sioEvent:
			event, payload, err := parseEvent(data[2:])
			if err != nil {
				s.logger.Error("live channel event", "err", err)
				return false
			}
			s.Dispatch(event, payload)
		case sioDisconnect:
			return true
		}
	}
	return false
}

// parseEvent decodes `[<ns>,][<ack id>]["name", payload]`.
func parseEvent(body []byte) (string, json.RawMessage, error) {
	if len(body) > 0 && body[0] == '/' {
		i := bytes.IndexByte(body, ',')
		if i < 0 {
			return "", nil, fmt.Errorf("malformed namespace in %q", body)
		}
		body = body[i+1:]
	}
	for len(body) > 0 && body[0] >= '0' && body[0] <= '9' {
		body = body[1:]
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return "", nil, fmt.Errorf("malformed event %q: %w", body, err)
	}
	if len(parts) == 0 {
		return "", nil, errors.New("event without a name")
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("event name: %w", err)
	}
	payload := json.RawMessage("null")
	if len(parts) > 1 {
		payload = parts[1]
	}
	return name, payload, nil
}

// Emit implements Channel.
func (s *Socket) Emit(ctx context.Context, event string, payload any) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal([]any{event, payload})
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	frame := append([]byte{eioMessage, sioEvent}, body...)
	return s.writeContext(ctx, frame)
}

func (s *Socket) write(frame []byte) error {
	return s.writeContext(context.Background(), frame)
}

func (s *Socket) writeContext(ctx context.Context, frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetWriteDeadline(deadline)
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *Socket) finish(err error) {
	s.closeOnce.Do(func() {
		if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, websocket.ErrCloseSent) {
			s.errMu.Lock()
			s.err = err
			s.errMu.Unlock()
			s.logger.Error("live channel closed", "err", err)
		}
		s.conn.Close()
		close(s.done)
	})
}

// Done is closed when the socket stops delivering events.
func (s *Socket) Done() <-chan struct{} { return s.done }

// Err returns the error that ended the socket, if any.
func (s *Socket) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close disconnects from the namespace and closes the connection.
func (s *Socket) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	_ = s.write([]byte{eioMessage, sioDisconnect})
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	s.finish(nil)
	return nil
}
