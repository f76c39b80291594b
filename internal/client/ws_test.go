package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/newm-panel/tui/internal/client"
	"github.com/newm-panel/tui/internal/client/clienttest"
)

func openSession(t *testing.T, opts ...client.Option) (*client.Session, *clienttest.Pipe) {
	t.Helper()
	pipe := clienttest.NewPipe()
	opts = append([]client.Option{client.WithDialer(pipe.Dialer())}, opts...)
	s := client.NewSession("ws://test", opts...)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, pipe
}

func TestOpenSendsRegisterFirst(t *testing.T) {
	s, pipe := openSession(t, client.WithHandshake(client.AuthRegister{}))

	if err := s.Send(client.AuthChooseUser{User: "jonas"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := []client.Envelope{
		client.Register{},
		client.AuthRegister{},
		client.AuthChooseUser{User: "jonas"},
	}
	if got := pipe.Sent(); !reflect.DeepEqual(got, want) {
		t.Errorf("sent = %#v, want %#v", got, want)
	}
	if s.State() != client.StateOpen {
		t.Errorf("state = %v, want open", s.State())
	}
}

func TestSendBeforeOpen(t *testing.T) {
	s := client.NewSession("ws://test")
	if s.State() != client.StateConnecting {
		t.Errorf("initial state = %v, want connecting", s.State())
	}
	if err := s.Send(client.LaunchApp{App: "nautilus"}); !errors.Is(err, client.ErrNotConnected) {
		t.Errorf("Send before open = %v, want ErrNotConnected", err)
	}
}

func TestHandshakeWriteFailure(t *testing.T) {
	pipe := clienttest.NewPipe()
	pipe.FailWrites(errors.New("boom"))
	s := client.NewSession("ws://test", client.WithDialer(pipe.Dialer()))

	if err := s.Open(context.Background()); err == nil {
		t.Fatal("Open should fail when register cannot be written")
	}
	if s.State() != client.StateClosed {
		t.Errorf("state = %v, want closed", s.State())
	}
	if !pipe.Closed() {
		t.Error("conn should be closed after failed handshake")
	}
}

func TestNextSkipsUndecodableFrames(t *testing.T) {
	s, pipe := openSession(t)

	pipe.PushRaw([]byte("Hello"))
	pipe.PushRaw([]byte(`{"value": 1}`))
	pipe.PushRaw([]byte(`{"kind": "keyPressed", "keyPressed": "a"}`))
	pipe.Push(client.ActivateLauncher{Value: 0.5})

	e, err := s.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got, ok := e.(client.ActivateLauncher); !ok || got.Value != 0.5 {
		t.Errorf("Next = %#v, want ActivateLauncher{0.5}", e)
	}
}

func TestReadLoopMessages(t *testing.T) {
	s, pipe := openSession(t)

	pipe.PushRaw([]byte("not json"))
	if msg, ok := s.ReadLoop()().(client.DroppedMsg); !ok || string(msg.Raw) != "not json" {
		t.Errorf("ReadLoop on garbage = %#v, want DroppedMsg", msg)
	}

	pipe.Push(client.AuthRequestUser{Users: []string{"a", "b"}})
	if msg, ok := s.ReadLoop()().(client.AuthRequestUser); !ok || len(msg.Users) != 2 {
		t.Errorf("ReadLoop = %#v, want AuthRequestUser", msg)
	}

	pipe.Close()
	if _, ok := s.ReadLoop()().(client.DisconnectedMsg); !ok {
		t.Error("ReadLoop after close should yield DisconnectedMsg")
	}
	if s.State() != client.StateClosed {
		t.Errorf("state = %v, want closed", s.State())
	}
	if err := s.Send(client.Register{}); !errors.Is(err, client.ErrNotConnected) {
		t.Errorf("Send after disconnect = %v, want ErrNotConnected", err)
	}
}

func TestEnvelopesEndsWithConnection(t *testing.T) {
	s, pipe := openSession(t)
	pipe.Push(client.ActivateLauncher{Value: 0.1})
	pipe.PushRaw([]byte("{"))
	pipe.Push(client.ActivateLauncher{Value: 0.2})

	var got []float64
	for e := range s.Envelopes() {
		got = append(got, e.(client.ActivateLauncher).Value)
		if len(got) == 2 {
			pipe.Close()
		}
	}
	if !reflect.DeepEqual(got, []float64{0.1, 0.2}) {
		t.Errorf("envelopes = %v, want [0.1 0.2]", got)
	}
}

func TestCloseStopsListen(t *testing.T) {
	s, pipe := openSession(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if !pipe.Closed() {
		t.Error("Close should close the conn")
	}
	if msg := s.Listen(context.Background())(); msg != nil {
		t.Errorf("Listen after Close = %#v, want nil", msg)
	}
}

func TestCloseDuringDial(t *testing.T) {
	pipe := clienttest.NewPipe()
	var s *client.Session
	s = client.NewSession("ws://test", client.WithDialer(func(context.Context, string) (client.Conn, error) {
		s.Close()
		return pipe, nil
	}))

	if err := s.Open(context.Background()); !errors.Is(err, client.ErrNotConnected) {
		t.Fatalf("Open = %v, want ErrNotConnected", err)
	}
	if !pipe.Closed() {
		t.Error("conn dialed after Close should be closed")
	}
	if st := s.State(); st != client.StateClosed {
		t.Errorf("State = %v, want closed", st)
	}
}

func TestListenRetriesWithBackoff(t *testing.T) {
	pipe := clienttest.NewPipe()
	attempts := 0
	dial := func(ctx context.Context, endpoint string) (client.Conn, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return pipe, nil
	}
	s := client.NewSession("ws://test", client.WithDialer(dial), client.WithBackoff(time.Millisecond, 2*time.Millisecond))
	defer s.Close()

	msg := s.Listen(context.Background())()
	if _, ok := msg.(client.ConnectedMsg); !ok {
		t.Fatalf("Listen = %#v, want ConnectedMsg", msg)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if got := pipe.Sent(); len(got) != 1 || got[0].Kind() != client.KindRegister {
		t.Errorf("sent = %#v, want only register", got)
	}
}

func TestListenCancelled(t *testing.T) {
	dial := func(ctx context.Context, endpoint string) (client.Conn, error) {
		return nil, errors.New("connection refused")
	}
	s := client.NewSession("ws://test", client.WithDialer(dial), client.WithBackoff(time.Hour, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan any)
	go func() { done <- s.Listen(ctx)() }()
	cancel()

	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("Listen after cancel = %#v, want nil", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

func TestSessionOverWebsocket(t *testing.T) {
	frames := make(chan []byte, 8)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 2; i++ {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frames <- data
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"kind":"activate_launcher","value":1.4}`))
		conn.ReadMessage()
	}))
	defer srv.Close()

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := client.NewSession(endpoint, client.WithHandshake(client.AuthRegister{}))
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	for _, want := range []string{`{"kind":"register"}`, `{"kind":"auth_register"}`} {
		select {
		case got := <-frames:
			if string(got) != want {
				t.Errorf("frame = %s, want %s", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	e, err := s.ReadEnvelope()
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if got, ok := e.(client.ActivateLauncher); !ok || got.Value != 1.4 {
		t.Errorf("ReadEnvelope = %#v, want ActivateLauncher{1.4}", e)
	}
}
