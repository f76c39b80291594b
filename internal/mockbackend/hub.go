// Package mockbackend is a development stand-in for the system-control
// backend. It speaks the panel protocol over a websocket, answers the auth
// flow from a fixed credential table and lets callers push launcher and
// indicator updates. Launch requests are recorded, never executed.
package mockbackend

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/newm-panel/tui/internal/client"
)

const writeTimeout = 10 * time.Second

// Channel is a broadcast group a peer joins through its handshake.
type Channel int

const (
	// ChannelGeneral is joined by register.
	ChannelGeneral Channel = iota
	// ChannelAuth is joined by auth_register.
	ChannelAuth
)

func (c Channel) String() string {
	switch c {
	case ChannelGeneral:
		return "general"
	case ChannelAuth:
		return "auth"
	default:
		return "unknown"
	}
}

type peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu       sync.Mutex
	channels map[Channel]bool
	user     string
}

func newPeer(conn *websocket.Conn) *peer {
	p := &peer{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, 64),
		channels: make(map[Channel]bool),
	}
	go p.writePump()
	return p
}

func (p *peer) writePump() {
	defer p.conn.Close()
	for msg := range p.send {
		p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (p *peer) join(c Channel) {
	p.mu.Lock()
	p.channels[c] = true
	p.mu.Unlock()
}

func (p *peer) in(c Channel) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels[c]
}

func (p *peer) setUser(u string) {
	p.mu.Lock()
	p.user = u
	p.mu.Unlock()
}

func (p *peer) chosenUser() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user
}

// hub tracks connected peers.
type hub struct {
	mu    sync.RWMutex
	peers map[*peer]bool
}

func newHub() *hub {
	return &hub{peers: make(map[*peer]bool)}
}

func (h *hub) add(conn *websocket.Conn) *peer {
	p := newPeer(conn)
	h.mu.Lock()
	h.peers[p] = true
	h.mu.Unlock()
	return p
}

func (h *hub) remove(p *peer) {
	h.mu.Lock()
	if _, ok := h.peers[p]; ok {
		delete(h.peers, p)
		close(p.send)
	}
	h.mu.Unlock()
}

// deliver queues data for p, disconnecting it if its buffer is full.
func (h *hub) deliver(p *peer, data []byte) bool {
	h.mu.RLock()
	_, ok := h.peers[p]
	if ok {
		select {
		case p.send <- data:
		default:
			ok = false
		}
	}
	h.mu.RUnlock()
	if !ok {
		log.Printf("mock backend: peer %s too slow or gone, disconnecting", p.id)
		h.remove(p)
	}
	return ok
}

func (h *hub) broadcast(c Channel, e client.Envelope) int {
	data, err := client.Encode(e)
	if err != nil {
		log.Printf("mock backend: encode %s: %v", e.Kind(), err)
		return 0
	}

	h.mu.RLock()
	targets := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		if p.in(c) {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()

	n := 0
	for _, p := range targets {
		if h.deliver(p, data) {
			n++
		}
	}
	return n
}

func (h *hub) count(c Channel) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for p := range h.peers {
		if p.in(c) {
			n++
		}
	}
	return n
}

func (h *hub) size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	for p := range h.peers {
		delete(h.peers, p)
		close(p.send)
	}
	h.mu.Unlock()
}
