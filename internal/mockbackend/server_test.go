package mockbackend

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/newm-panel/tui/internal/client"
)

func startServer(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	s := New(opts...)
	srv := httptest.NewServer(s)
	t.Cleanup(func() {
		s.Close()
		srv.Close()
	})
	return s, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, endpoint string, handshake ...client.Envelope) *client.Session {
	t.Helper()
	sess := client.NewSession(endpoint, client.WithHandshake(handshake...))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sess.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func next(t *testing.T, sess *client.Session) client.Envelope {
	t.Helper()
	type result struct {
		e   client.Envelope
		err error
	}
	ch := make(chan result, 1)
	go func() {
		e, err := sess.Next()
		ch <- result{e, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			t.Fatalf("Next: %v", r.err)
		}
		return r.e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return nil
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRegisterJoinsGeneral(t *testing.T) {
	s, url := startServer(t)
	sess := dial(t, url)
	waitFor(t, "register", func() bool { return s.Peers(ChannelGeneral) == 1 })

	if n := s.ActivateLauncher(0.75); n != 1 {
		t.Fatalf("ActivateLauncher reached %d peers, want 1", n)
	}
	if got := next(t, sess); got != (client.ActivateLauncher{Value: 0.75}) {
		t.Errorf("got %#v", got)
	}

	s.Indicator(client.IndicatorVolume, 0.3)
	got, ok := next(t, sess).(client.SysBackend)
	if !ok {
		t.Fatalf("got %T, want SysBackend", got)
	}
	if ind, v, _ := got.Reading(); ind != client.IndicatorVolume || v != 0.3 {
		t.Errorf("reading = %s %v", ind, v)
	}
}

func TestGeneralPeersNotOnAuth(t *testing.T) {
	s, url := startServer(t)
	dial(t, url)
	waitFor(t, "register", func() bool { return s.Peers(ChannelGeneral) == 1 })
	if n := s.RequestUsers(); n != 0 {
		t.Errorf("RequestUsers reached %d peers without auth_register", n)
	}
}

func TestUnregisteredPeerGetsNoBroadcast(t *testing.T) {
	s, url := startServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, "peer", func() bool { return s.hub.size() == 1 && s.Peers(ChannelGeneral) == 0 })
	if n := s.ActivateLauncher(1); n != 0 {
		t.Errorf("broadcast reached %d unregistered peers", n)
	}
}

func TestAuthFlow(t *testing.T) {
	authed := make(chan string, 1)
	s, url := startServer(t, WithCredentials(map[string]string{"bob": "pw2", "alice": "pw1"}))
	s.OnAuthenticated = func(u string) { authed <- u }

	sess := dial(t, url, client.AuthRegister{})

	users, ok := next(t, sess).(client.AuthRequestUser)
	if !ok || len(users.Users) != 2 || users.Users[0] != "alice" || users.Users[1] != "bob" {
		t.Fatalf("first envelope = %#v, want sorted user list", users)
	}

	if err := sess.Send(client.AuthChooseUser{User: "alice"}); err != nil {
		t.Fatal(err)
	}
	if got := next(t, sess); got != (client.AuthRequestCred{User: "alice", Message: promptCredential}) {
		t.Fatalf("after choose: %#v", got)
	}

	if err := sess.Send(client.AuthEnterCred{Cred: "wrong"}); err != nil {
		t.Fatal(err)
	}
	if got := next(t, sess); got != (client.AuthRequestCred{User: "alice", Message: promptRetry}) {
		t.Fatalf("after wrong credential: %#v", got)
	}

	if err := sess.Send(client.AuthEnterCred{Cred: "pw1"}); err != nil {
		t.Fatal(err)
	}
	select {
	case u := <-authed:
		if u != "alice" {
			t.Errorf("authenticated %q, want alice", u)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnAuthenticated not called")
	}
}

func TestChooseUnknownUserRestartsFlow(t *testing.T) {
	_, url := startServer(t)
	sess := dial(t, url, client.AuthRegister{})
	next(t, sess)

	if err := sess.Send(client.AuthChooseUser{User: "mallory"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := next(t, sess).(client.AuthRequestUser); !ok {
		t.Error("unknown user should get the user list again")
	}
}

func TestLaunchRecorded(t *testing.T) {
	s, url := startServer(t)
	sess := dial(t, url)

	if err := sess.Send(client.LaunchApp{App: "alacritty"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "launch", func() bool { return len(s.Launched()) == 1 })
	if got := s.Launched()[0]; got != "alacritty" {
		t.Errorf("launched %q", got)
	}
}

func TestMalformedFrameIgnored(t *testing.T) {
	s, url := startServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"kind":"bogus"}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"kind":"register"}`))
	waitFor(t, "register after garbage", func() bool { return s.Peers(ChannelGeneral) == 1 })
}

func TestDisconnectRemovesPeer(t *testing.T) {
	s, url := startServer(t)
	sess := dial(t, url)
	waitFor(t, "register", func() bool { return s.Peers(ChannelGeneral) == 1 })

	sess.Close()
	waitFor(t, "removal", func() bool { return s.Peers(ChannelGeneral) == 0 })
}

func TestRunDemoStopsOnCancel(t *testing.T) {
	s, url := startServer(t)
	sess := dial(t, url)
	waitFor(t, "register", func() bool { return s.Peers(ChannelGeneral) == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunDemo(ctx, s, time.Millisecond) }()

	if got := next(t, sess); got != (client.ActivateLauncher{Value: firstDemoValue(t)}) {
		t.Errorf("first demo envelope = %#v", got)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunDemo = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunDemo did not stop")
	}
}

func firstDemoValue(t *testing.T) float64 {
	t.Helper()
	if DemoScript()[0].Name != "activate_launcher" {
		t.Fatal("demo should open with a launcher swipe")
	}
	return 0.2
}
