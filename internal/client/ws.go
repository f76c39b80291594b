package client

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second

	defaultBaseDelay = 1 * time.Second
	defaultMaxDelay  = 30 * time.Second
)

// ErrNotConnected is returned when the session has no open connection.
var ErrNotConnected = errors.New("not connected")

// ConnState is the lifecycle state of a Session.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the subset of *websocket.Conn a Session drives. Tests substitute
// an in-memory implementation (see clienttest).
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// DialFunc opens a connection to endpoint.
type DialFunc func(ctx context.Context, endpoint string) (Conn, error)

// DialWebsocket dials endpoint with the default gorilla dialer.
func DialWebsocket(ctx context.Context, endpoint string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Sender is the outbound half of a session, as seen by widgets.
type Sender interface {
	Send(e Envelope) error
}

// FrameError reports an inbound frame that could not be decoded. The
// connection stays usable.
type FrameError struct {
	Raw []byte
	Err error
}

func (e *FrameError) Error() string { return fmt.Sprintf("drop frame: %v", e.Err) }
func (e *FrameError) Unwrap() error { return e.Err }

// Session owns one connection to the panel endpoint. A widget creates it at
// mount and closes it at unmount; it is never shared between widgets.
type Session struct {
	id        string
	endpoint  string
	dial      DialFunc
	handshake []Envelope
	baseDelay time.Duration
	maxDelay  time.Duration

	mu         sync.Mutex
	writeMu    sync.Mutex // serialises all conn writes (ping, send)
	conn       Conn
	state      ConnState
	shut       bool
	pingCancel context.CancelFunc // cancels the active ping goroutine
}

// Option configures a Session.
type Option func(*Session)

// WithDialer replaces the websocket dialer.
func WithDialer(d DialFunc) Option {
	return func(s *Session) { s.dial = d }
}

// WithHandshake appends envelopes written right after register on every open.
func WithHandshake(envs ...Envelope) Option {
	return func(s *Session) { s.handshake = append(s.handshake, envs...) }
}

// WithBackoff sets the reconnect delay bounds used by Listen.
func WithBackoff(base, max time.Duration) Option {
	return func(s *Session) {
		if base > 0 {
			s.baseDelay = base
		}
		if max >= base && max > 0 {
			s.maxDelay = max
		}
	}
}

// NewSession creates a session for endpoint. Nothing is dialed until Open or Listen.
func NewSession(endpoint string, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		endpoint:  endpoint,
		dial:      DialWebsocket,
		baseDelay: defaultBaseDelay,
		maxDelay:  defaultMaxDelay,
		state:     StateConnecting,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Bubble Tea messages ---

// ConnectedMsg is sent when the session opened and the handshake was written.
type ConnectedMsg struct{ SessionID string }

// DisconnectedMsg is sent when the connection drops.
type DisconnectedMsg struct{ Err error }

// DroppedMsg reports an inbound frame that was ignored.
type DroppedMsg struct {
	Raw []byte
	Err error
}

// SentMsg reports the outcome of an outbound envelope.
type SentMsg struct {
	Envelope Envelope
	Err      error
}

// SendCmd writes e immediately, preserving the order of sends issued from
// Update, and returns a command that reports the outcome as a SentMsg.
func SendCmd(s Sender, e Envelope) tea.Cmd {
	err := s.Send(e)
	return func() tea.Msg { return SentMsg{Envelope: e, Err: err} }
}

// ID returns the session's log correlation id.
func (s *Session) ID() string { return s.id }

// Endpoint returns the URL the session dials.
func (s *Session) Endpoint() string { return s.endpoint }

// State returns the current connection state.
func (s *Session) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open dials the endpoint and writes register followed by the configured
// handshake envelopes. No other frame can be written before Open returns.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.shut {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.state = StateConnecting
	s.mu.Unlock()

	conn, err := s.dial(ctx, s.endpoint)
	if err != nil {
		s.setState(StateClosed)
		return fmt.Errorf("dial %s: %w", s.endpoint, err)
	}

	// The connection isn't shared yet, so no write mutex is needed.
	for _, e := range append([]Envelope{Register{}}, s.handshake...) {
		if err := writeEnvelope(conn, e); err != nil {
			conn.Close()
			s.setState(StateClosed)
			return fmt.Errorf("handshake %s: %w", e.Kind(), err)
		}
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	conn.SetReadDeadline(time.Now().Add(pongTimeout))

	s.mu.Lock()
	if s.shut {
		s.mu.Unlock()
		conn.Close()
		return ErrNotConnected
	}
	if s.pingCancel != nil {
		s.pingCancel()
	}
	pingCtx, pingCancel := context.WithCancel(ctx)
	old := s.conn
	s.conn = conn
	s.state = StateOpen
	s.pingCancel = pingCancel
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	go s.pingLoop(pingCtx, conn)

	log.Printf("session %s: open %s", s.id, s.endpoint)
	return nil
}

// Send writes an envelope as a JSON text frame. There is no acknowledgement.
func (s *Session) Send(e Envelope) error {
	s.mu.Lock()
	conn := s.conn
	state := s.state
	s.mu.Unlock()
	if conn == nil || state != StateOpen {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := writeEnvelope(conn, e); err != nil {
		return fmt.Errorf("send %s: %w", e.Kind(), err)
	}
	return nil
}

func writeEnvelope(conn Conn, e Envelope) error {
	data, err := Encode(e)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// ReadEnvelope blocks for one inbound frame. An undecodable frame yields a
// *FrameError; any other error means the connection is gone.
func (s *Session) ReadEnvelope() (Envelope, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		s.drop(conn)
		return nil, err
	}
	conn.SetReadDeadline(time.Now().Add(pongTimeout))

	e, err := Decode(data)
	if err != nil {
		return nil, &FrameError{Raw: data, Err: err}
	}
	return e, nil
}

// Next blocks for the next decodable envelope, skipping malformed and
// unknown frames.
func (s *Session) Next() (Envelope, error) {
	for {
		e, err := s.ReadEnvelope()
		var fe *FrameError
		if errors.As(err, &fe) {
			log.Printf("session %s: %v", s.id, fe)
			continue
		}
		return e, err
	}
}

// Envelopes yields decoded envelopes until the connection ends.
func (s *Session) Envelopes() iter.Seq[Envelope] {
	return func(yield func(Envelope) bool) {
		for {
			e, err := s.Next()
			if err != nil {
				return
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Close tears the session down. Listen will not reconnect afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.shut = true
	s.state = StateClosed
	if s.pingCancel != nil {
		s.pingCancel()
		s.pingCancel = nil
	}
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// drop forgets conn after a read failure, unless a newer connection replaced it.
func (s *Session) drop(conn Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
		if !s.shut {
			s.state = StateClosed
		}
		if s.pingCancel != nil {
			s.pingCancel()
			s.pingCancel = nil
		}
	}
	s.mu.Unlock()
	conn.Close()
}

func (s *Session) setState(st ConnState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// pingLoop sends periodic pings on the given connection. It exits when the
// context is cancelled or the connection changes.
func (s *Session) pingLoop(ctx context.Context, conn Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			cc := s.conn
			s.mu.Unlock()
			if cc != conn {
				return
			}
			s.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Listen returns a Bubble Tea command that opens the session, retrying with
// exponential backoff until it succeeds or ctx ends.
func (s *Session) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := s.baseDelay
		for {
			if ctx.Err() != nil {
				return nil
			}
			err := s.Open(ctx)
			if err == nil {
				return ConnectedMsg{SessionID: s.id}
			}
			if errors.Is(err, ErrNotConnected) {
				return nil
			}
			log.Printf("session %s: %v (retry in %v)", s.id, err, delay)
			s.setState(StateConnecting)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, s.maxDelay)
		}
	}
}

// ReadLoop returns a Bubble Tea command that reads the next inbound frame.
// The envelope itself is the resulting message. It should be re-issued after
// every envelope or DroppedMsg.
func (s *Session) ReadLoop() tea.Cmd {
	return func() tea.Msg {
		e, err := s.ReadEnvelope()
		var fe *FrameError
		switch {
		case errors.As(err, &fe):
			return DroppedMsg{Raw: fe.Raw, Err: fe.Err}
		case err != nil:
			return DisconnectedMsg{Err: err}
		}
		return e
	}
}
