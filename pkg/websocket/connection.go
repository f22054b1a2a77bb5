package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"
	"github.com/google/uuid"
)

// MessageType is the frame type of a message.
type MessageType int

// Message types.
const (
	MessageText MessageType = iota + 1
	MessageBinary
)

// CloseCode is a WebSocket close status code.
type CloseCode int

// Close codes used by simuserver.
const (
	CloseNormalClosure   CloseCode = 1000
	CloseGoingAway       CloseCode = 1001
	CloseUnsupportedData CloseCode = 1003
	CloseInternalError   CloseCode = 1011
)

// Conn is a registered peer of the Broadcaster.
type Conn interface {
	ID() string
	Send(ctx context.Context, msgType MessageType, data []byte) error
	Close(code CloseCode, reason string) error
}

// Connection is a Conn backed by a coder/websocket connection.
type Connection struct {
	id          string
	conn        *ws.Conn
	remoteAddr  string
	connectedAt time.Time

	messagesSent atomic.Int64
	messagesRecv atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	sendMu sync.Mutex
	closed atomic.Bool
}

// Accept upgrades the request and wraps the resulting connection. Origin
// checks are skipped so browser clients on any host can connect.
func Accept(w http.ResponseWriter, r *http.Request) (*Connection, error) {
	wsConn, err := ws.Accept(w, r, &ws.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    ws.CompressionDisabled,
	})
	if err != nil {
		return nil, err
	}
	return NewConnection(wsConn, r.RemoteAddr), nil
}

// NewConnection wraps an accepted websocket connection.
func NewConnection(wsConn *ws.Conn, remoteAddr string) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		id:          "conn-" + uuid.NewString(),
		conn:        wsConn,
		remoteAddr:  remoteAddr,
		connectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (c *Connection) ID() string              { return c.id }
func (c *Connection) RemoteAddr() string      { return c.remoteAddr }
func (c *Connection) ConnectedAt() time.Time  { return c.connectedAt }
func (c *Connection) MessagesSent() int64     { return c.messagesSent.Load() }
func (c *Connection) MessagesReceived() int64 { return c.messagesRecv.Load() }

// IsClosed returns whether the connection is closed.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// Send writes one frame. It fails once the connection is closed.
func (c *Connection) Send(ctx context.Context, msgType MessageType, data []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed.Load() {
		return ErrConnectionClosed
	}

	wsType := ws.MessageText
	if msgType == MessageBinary {
		wsType = ws.MessageBinary
	}
	if err := c.conn.Write(ctx, wsType, data); err != nil {
		return err
	}
	c.messagesSent.Add(1)
	return nil
}

// Read blocks for the next frame. It returns when the peer sends, the
// connection fails, or Close is called.
func (c *Connection) Read() (MessageType, []byte, error) {
	if c.closed.Load() {
		return 0, nil, ErrConnectionClosed
	}

	wsType, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return 0, nil, err
	}
	c.messagesRecv.Add(1)

	if wsType == ws.MessageBinary {
		return MessageBinary, data, nil
	}
	return MessageText, data, nil
}

// Close closes the connection with the given code and reason. A Read blocked
// in another goroutine returns once the close handshake ends. Closing twice
// returns ErrConnectionClosed.
func (c *Connection) Close(code CloseCode, reason string) error {
	if c.closed.Swap(true) {
		return ErrConnectionClosed
	}
	defer c.cancel()
	return c.conn.Close(ws.StatusCode(code), reason)
}
