// Package clienttest provides an in-memory transport and a recording sender
// so widgets and sessions can be exercised without a live socket.
package clienttest

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/newm-panel/tui/internal/client"
)

// Pipe is an in-memory client.Conn. Frames pushed with Push or PushRaw are
// returned by ReadMessage in order; frames written by the session are kept.
type Pipe struct {
	inbound chan []byte

	mu       sync.Mutex
	written  [][]byte
	closed   bool
	done     chan struct{}
	writeErr error
}

// NewPipe creates an open pipe.
func NewPipe() *Pipe {
	return &Pipe{
		inbound: make(chan []byte, 64),
		done:    make(chan struct{}),
	}
}

// Dialer returns a DialFunc that hands out p on every dial.
func (p *Pipe) Dialer() client.DialFunc {
	return func(context.Context, string) (client.Conn, error) {
		return p, nil
	}
}

// Push encodes e and queues it for the reader.
func (p *Pipe) Push(e client.Envelope) {
	data, err := client.Encode(e)
	if err != nil {
		panic(err)
	}
	p.PushRaw(data)
}

// PushRaw queues a raw frame for the reader.
func (p *Pipe) PushRaw(data []byte) {
	select {
	case p.inbound <- data:
	case <-p.done:
	}
}

// FailWrites makes every subsequent write return err.
func (p *Pipe) FailWrites(err error) {
	p.mu.Lock()
	p.writeErr = err
	p.mu.Unlock()
}

// Written returns copies of all text frames written so far.
func (p *Pipe) Written() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.written))
	copy(out, p.written)
	return out
}

// Sent decodes every written frame. Frames that fail to decode are skipped.
func (p *Pipe) Sent() []client.Envelope {
	var out []client.Envelope
	for _, data := range p.Written() {
		if e, err := client.Decode(data); err == nil {
			out = append(out, e)
		}
	}
	return out
}

// Closed reports whether Close was called.
func (p *Pipe) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ReadMessage returns queued frames before reporting a close.
func (p *Pipe) ReadMessage() (int, []byte, error) {
	select {
	case data := <-p.inbound:
		return websocket.TextMessage, data, nil
	default:
	}
	select {
	case data := <-p.inbound:
		return websocket.TextMessage, data, nil
	case <-p.done:
		return 0, nil, io.EOF
	}
}

func (p *Pipe) WriteMessage(messageType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("write on closed pipe")
	}
	if p.writeErr != nil {
		return p.writeErr
	}
	if messageType == websocket.TextMessage {
		p.written = append(p.written, append([]byte(nil), data...))
	}
	return nil
}

func (p *Pipe) SetReadDeadline(time.Time) error   { return nil }
func (p *Pipe) SetWriteDeadline(time.Time) error  { return nil }
func (p *Pipe) SetPongHandler(func(string) error) {}

func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.done)
	}
	return nil
}

// Recorder is a Sender that keeps every envelope it is given.
type Recorder struct {
	mu   sync.Mutex
	sent []client.Envelope
	Err  error
}

// Send records e and returns r.Err.
func (r *Recorder) Send(e client.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, e)
	return r.Err
}

// Sent returns the recorded envelopes in order.
func (r *Recorder) Sent() []client.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]client.Envelope, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent envelope, or nil.
func (r *Recorder) Last() client.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return nil
	}
	return r.sent[len(r.sent)-1]
}
