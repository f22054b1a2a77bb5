package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"

	"github.com/qumplus/simuserver/pkg/logging"
)

// Channel names passed to the message hook.
const (
	ChannelEcho = "echo"
	ChannelChat = "chat"
)

// EchoPrefix is prepended to rebroadcast echo messages.
const EchoPrefix = "Echo: "

// DefaultChatUser is used when a chat message carries no user.
const DefaultChatUser = "Anonymous"

// ChatMessage is the frame broadcast on the chat channel.
type ChatMessage struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler serves the echo and chat channels.
type Handler struct {
	broadcaster *Broadcaster
	log         *slog.Logger
	onMessage   func(channel string)
	now         func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// WithMessageHook registers fn to be called for every inbound message.
func WithMessageHook(fn func(channel string)) Option {
	return func(h *Handler) { h.onMessage = fn }
}

// NewHandler creates a Handler that broadcasts through b.
func NewHandler(b *Broadcaster, opts ...Option) *Handler {
	h := &Handler{
		broadcaster: b,
		log:         logging.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With("component", "websocket")
	return h
}

// Echo returns the handler for the echo channel.
func (h *Handler) Echo() http.Handler {
	return h.serve(ChannelEcho, func(data []byte) (any, error) {
		return EchoPrefix + string(data), nil
	})
}

// Chat returns the handler for the chat channel. A frame that is not a JSON
// object closes the connection with 1003.
func (h *Handler) Chat() http.Handler {
	return h.serve(ChannelChat, func(data []byte) (any, error) {
		return h.chatMessage(data)
	})
}

func (h *Handler) chatMessage(data []byte) (ChatMessage, error) {
	var in map[string]any
	if err := json.Unmarshal(data, &in); err != nil || in == nil {
		return ChatMessage{}, ErrInvalidChatMessage
	}

	now := h.now()
	msg := ChatMessage{
		ID:        now.UnixMilli(),
		User:      DefaultChatUser,
		Timestamp: now,
	}
	if u, ok := in["user"]; ok && u != nil {
		msg.User = stringify(u)
	}
	if m, ok := in["message"]; ok && m != nil {
		msg.Message = stringify(m)
	}
	return msg, nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// transform turns an inbound frame into the message to broadcast.
type transform func(data []byte) (any, error)

func (h *Handler) serve(channel string, fn transform) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Accept(w, r)
		if err != nil {
			h.log.Warn("websocket upgrade failed", "channel", channel, "error", err)
			return
		}

		if err := h.broadcaster.Register(conn); err != nil {
			_ = conn.Close(CloseGoingAway, "server shutting down")
			return
		}
		h.log.Info("websocket connected", "channel", channel, "id", conn.ID(), "remote", conn.RemoteAddr())

		err = h.receive(r.Context(), conn, channel, fn)

		h.broadcaster.Unregister(conn)
		h.log.Info("websocket disconnected", "channel", channel, "id", conn.ID(), "reason", disconnectReason(err))
	})
}

func (h *Handler) receive(ctx context.Context, conn *Connection, channel string, fn transform) error {
	for {
		_, data, err := conn.Read()
		if err != nil {
			return err
		}
		if h.onMessage != nil {
			h.onMessage(channel)
		}

		out, err := fn(data)
		if err != nil {
			_ = conn.Close(CloseUnsupportedData, err.Error())
			return err
		}

		res, err := h.broadcaster.Broadcast(ctx, out)
		if err != nil {
			h.log.Error("broadcast failed", "channel", channel, "error", err)
			continue
		}
		for id, sendErr := range res.Failed {
			h.log.Debug("dropped websocket peer", "id", id, "error", sendErr)
		}
	}
}

func disconnectReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, ErrConnectionClosed):
		return "closed by server"
	default:
		if status := ws.CloseStatus(err); status != -1 {
			return fmt.Sprintf("closed by peer (%d)", status)
		}
		return err.Error()
	}
}
