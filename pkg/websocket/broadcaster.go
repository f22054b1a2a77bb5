package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// DefaultSendTimeout bounds a single send during a broadcast.
const DefaultSendTimeout = 5 * time.Second

// Result is the outcome of one Broadcast.
type Result struct {
	Delivered int
	// Failed maps the id of every removed connection to its send error.
	Failed map[string]error
}

// Broadcaster holds the set of live connections.
type Broadcaster struct {
	mu          sync.RWMutex
	conns       map[string]Conn
	closed      bool
	sendTimeout time.Duration
	onChange    func(size int)
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithSendTimeout overrides DefaultSendTimeout.
func WithSendTimeout(d time.Duration) BroadcasterOption {
	return func(b *Broadcaster) { b.sendTimeout = d }
}

// WithSizeHook registers fn to be called with the new size after every
// membership change.
func WithSizeHook(fn func(size int)) BroadcasterOption {
	return func(b *Broadcaster) { b.onChange = fn }
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster(opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		conns:       make(map[string]Conn),
		sendTimeout: DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds conn to the live set. After Shutdown it returns
// ErrBroadcasterClosed and leaves conn to the caller.
func (b *Broadcaster) Register(conn Conn) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBroadcasterClosed
	}
	b.conns[conn.ID()] = conn
	n := len(b.conns)
	b.mu.Unlock()
	b.notify(n)
	return nil
}

// Unregister removes conn. Removing an unknown connection is a no-op and
// returns false.
func (b *Broadcaster) Unregister(conn Conn) bool {
	return b.remove(conn.ID())
}

func (b *Broadcaster) remove(ids ...string) bool {
	b.mu.Lock()
	removed := false
	for _, id := range ids {
		if _, ok := b.conns[id]; ok {
			delete(b.conns, id)
			removed = true
		}
	}
	n := len(b.conns)
	b.mu.Unlock()

	if removed {
		b.notify(n)
	}
	return removed
}

func (b *Broadcaster) notify(n int) {
	if b.onChange != nil {
		b.onChange(n)
	}
}

// Size returns the number of live connections.
func (b *Broadcaster) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.conns)
}

func (b *Broadcaster) snapshot() []Conn {
	b.mu.RLock()
	defer b.mu.RUnlock()

	conns := make([]Conn, 0, len(b.conns))
	for _, c := range b.conns {
		conns = append(conns, c)
	}
	return conns
}

// Encode turns a broadcast message into a frame. Strings are sent as text
// as-is, byte slices as binary, and anything else as JSON text.
func Encode(msg any) (MessageType, []byte, error) {
	switch v := msg.(type) {
	case string:
		return MessageText, []byte(v), nil
	case []byte:
		return MessageBinary, v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return 0, nil, fmt.Errorf("encode broadcast message: %w", err)
		}
		return MessageText, data, nil
	}
}

// Broadcast sends msg to every connection registered when the call starts.
// Connections whose send fails are removed after all sends were attempted.
func (b *Broadcaster) Broadcast(ctx context.Context, msg any) (Result, error) {
	msgType, data, err := Encode(msg)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, c := range b.snapshot() {
		sendCtx, cancel := context.WithTimeout(ctx, b.sendTimeout)
		err := c.Send(sendCtx, msgType, data)
		cancel()

		if err != nil {
			if res.Failed == nil {
				res.Failed = make(map[string]error)
			}
			res.Failed[c.ID()] = err
			continue
		}
		res.Delivered++
	}

	if len(res.Failed) > 0 {
		ids := make([]string, 0, len(res.Failed))
		for id := range res.Failed {
			ids = append(ids, id)
		}
		b.remove(ids...)
	}
	return res, nil
}

// CloseAll closes and removes every connection. Receive loops blocked on
// these connections return.
func (b *Broadcaster) CloseAll(code CloseCode, reason string) int {
	return b.closeAll(code, reason, false)
}

// Shutdown closes every connection like CloseAll and refuses new
// registrations until Open is called.
func (b *Broadcaster) Shutdown(code CloseCode, reason string) int {
	return b.closeAll(code, reason, true)
}

// Open accepts registrations again after Shutdown.
func (b *Broadcaster) Open() {
	b.mu.Lock()
	b.closed = false
	b.mu.Unlock()
}

func (b *Broadcaster) closeAll(code CloseCode, reason string, shutdown bool) int {
	b.mu.Lock()
	conns := b.conns
	b.conns = make(map[string]Conn)
	if shutdown {
		b.closed = true
	}
	b.mu.Unlock()

	for _, c := range conns {
		_ = c.Close(code, reason)
	}
	if len(conns) > 0 {
		b.notify(0)
	}
	return len(conns)
}
