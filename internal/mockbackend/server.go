package mockbackend

import (
	"log"
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/newm-panel/tui/internal/client"
)

const (
	promptCredential = "Password?"
	promptRetry      = "Wrong credential, try again"
)

// Server is an http.Handler serving the panel protocol at any path.
type Server struct {
	hub      *hub
	upgrader websocket.Upgrader

	users []string
	creds map[string]string

	mu       sync.Mutex
	launched []string

	// OnAuthenticated, if set, is called after a correct credential.
	OnAuthenticated func(user string)
}

// Option configures a Server.
type Option func(*Server)

// WithCredentials sets the user→credential table. Users are offered in
// sorted order.
func WithCredentials(creds map[string]string) Option {
	return func(s *Server) {
		s.creds = creds
		s.users = make([]string, 0, len(creds))
		for u := range creds {
			s.users = append(s.users, u)
		}
		slices.Sort(s.users)
	}
}

// New creates a mock backend.
func New(opts ...Option) *Server {
	s := &Server{hub: newHub()}
	WithCredentials(map[string]string{"guest": "guest"})(s)
	for _, o := range opts {
		o(s)
	}
	return s
}

// Users returns the user list offered to lock screens.
func (s *Server) Users() []string { return slices.Clone(s.users) }

// ServeHTTP upgrades the request and serves the peer until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("mock backend: upgrade: %v", err)
		return
	}

	p := s.hub.add(conn)
	log.Printf("mock backend: peer %s connected from %s", p.id, r.RemoteAddr)
	defer func() {
		s.hub.remove(p)
		log.Printf("mock backend: peer %s disconnected", p.id)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		e, err := client.Decode(data)
		if err != nil {
			log.Printf("mock backend: peer %s: %v", p.id, err)
			continue
		}
		s.handle(p, e)
	}
}

func (s *Server) handle(p *peer, e client.Envelope) {
	switch e := e.(type) {
	case client.Register:
		p.join(ChannelGeneral)

	case client.AuthRegister:
		p.join(ChannelAuth)
		s.reply(p, client.AuthRequestUser{Users: s.Users()})

	case client.LaunchApp:
		s.mu.Lock()
		s.launched = append(s.launched, e.App)
		s.mu.Unlock()
		log.Printf("mock backend: launch %q (not executed)", e.App)

	case client.AuthChooseUser:
		if _, ok := s.creds[e.User]; !ok {
			s.reply(p, client.AuthRequestUser{Users: s.Users()})
			return
		}
		p.setUser(e.User)
		s.reply(p, client.AuthRequestCred{User: e.User, Message: promptCredential})

	case client.AuthEnterCred:
		user := p.chosenUser()
		want, ok := s.creds[user]
		if !ok {
			s.reply(p, client.AuthRequestUser{Users: s.Users()})
			return
		}
		if e.Cred != want {
			s.reply(p, client.AuthRequestCred{User: user, Message: promptRetry})
			return
		}
		log.Printf("mock backend: %s authenticated", user)
		if s.OnAuthenticated != nil {
			s.OnAuthenticated(user)
		}

	default:
		log.Printf("mock backend: peer %s sent backend-only kind %s", p.id, e.Kind())
	}
}

func (s *Server) reply(p *peer, e client.Envelope) {
	data, err := client.Encode(e)
	if err != nil {
		log.Printf("mock backend: encode %s: %v", e.Kind(), err)
		return
	}
	s.hub.deliver(p, data)
}

// Broadcast sends e to every peer on c and returns how many were reached.
func (s *Server) Broadcast(c Channel, e client.Envelope) int {
	return s.hub.broadcast(c, e)
}

// ActivateLauncher pushes a launcher activation value.
func (s *Server) ActivateLauncher(v float64) int {
	return s.Broadcast(ChannelGeneral, client.ActivateLauncher{Value: v})
}

// Indicator pushes a single indicator reading.
func (s *Server) Indicator(ind client.Indicator, v float64) int {
	return s.Broadcast(ChannelGeneral, client.NewSysBackend(ind, v))
}

// RequestUsers restarts the auth flow on every lock screen.
func (s *Server) RequestUsers() int {
	return s.Broadcast(ChannelAuth, client.AuthRequestUser{Users: s.Users()})
}

// Launched returns the recorded launch commands.
func (s *Server) Launched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.launched)
}

// Peers returns how many connected peers joined c.
func (s *Server) Peers(c Channel) int { return s.hub.count(c) }

// Close disconnects every peer.
func (s *Server) Close() { s.hub.closeAll() }
