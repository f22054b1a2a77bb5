package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/qumplus/simuserver/pkg/cli/internal/output"
	"github.com/qumplus/simuserver/pkg/cli/internal/parse"
)

type wsFlags struct {
	chat    bool
	send    []string
	count   int
	timeout time.Duration
	headers []string
}

func newWSCommand(opts *rootOptions) *cobra.Command {
	f := &wsFlags{}

	cmd := &cobra.Command{
		Use:   "ws [url]",
		Short: "Connect to a WebSocket channel and print incoming messages",
		Long: `Connect to a WebSocket channel, send the --send messages, and print every
message received until interrupted or until --count messages arrived.

Without a URL the channel of the configured server is used (/ws, or /ws/chat
with --chat).`,
		Example: `  # Watch the echo channel of the local server
  simuserver ws

  # Send a chat message and wait for the broadcast
  simuserver ws --chat --send '{"user":"bob","message":"hi"}' --count 1

  # Connect to another host
  simuserver ws ws://10.0.0.5:8000/ws -H "X-Client: cli"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := ""
			if len(args) == 1 {
				url = args[0]
			} else {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				path := "/ws"
				if f.chat {
					path = "/ws/chat"
				}
				url = "ws://" + net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)) + path
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWS(ctx, cmd.OutOrStdout(), url, f, opts.jsonOutput)
		},
	}

	fl := cmd.Flags()
	fl.BoolVar(&f.chat, "chat", false, "Use the chat channel when no URL is given")
	fl.StringArrayVarP(&f.send, "send", "s", nil, "Message to send after connecting (repeatable)")
	fl.IntVarP(&f.count, "count", "n", 0, "Exit after receiving this many messages (0 = until interrupted)")
	fl.DurationVarP(&f.timeout, "timeout", "t", 10*time.Second, "Handshake timeout")
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "Custom header (key:value), repeatable")
	return cmd
}

// wsEvent is one line of --json output.
type wsEvent struct {
	Direction string    `json:"direction"`
	Type      string    `json:"type"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func messageTypeString(t int) string {
	switch t {
	case websocket.TextMessage:
		return "text"
	case websocket.BinaryMessage:
		return "binary"
	default:
		return "unknown"
	}
}

func runWS(ctx context.Context, w io.Writer, url string, f *wsFlags, jsonOutput bool) error {
	header, err := parse.Header(f.headers)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: f.timeout}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection to %s failed: %w (HTTP %d)", url, err, resp.StatusCode)
		}
		return fmt.Errorf("connection to %s failed: %w", url, err)
	}
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	emit := func(ev wsEvent) {
		if jsonOutput {
			_ = output.JSON(w, ev)
			return
		}
		marker := "<"
		if ev.Direction == "sent" {
			marker = ">"
		}
		fmt.Fprintf(w, "%s %s\n", marker, ev.Data)
	}

	if !jsonOutput {
		fmt.Fprintf(w, "Connected to %s\n", url)
	}
	for _, msg := range f.send {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return fmt.Errorf("send error: %w", err)
		}
		emit(wsEvent{Direction: "sent", Type: "text", Data: msg, Timestamp: time.Now()})
	}

	// Unblock ReadMessage on interrupt.
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-finished:
		}
	}()

	received := 0
	for f.count <= 0 || received < f.count {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				if !jsonOutput {
					fmt.Fprintln(w, "Connection closed by server")
				}
				return nil
			default:
				return fmt.Errorf("read error: %w", err)
			}
		}
		received++
		emit(wsEvent{Direction: "received", Type: messageTypeString(msgType), Data: string(data), Timestamp: time.Now()})
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return nil
}
