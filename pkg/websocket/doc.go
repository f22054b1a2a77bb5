// Package websocket provides the live WebSocket channels of simuserver.
//
// A Broadcaster tracks every open connection and fans messages out to all of
// them. Sends are attempted independently per connection; connections whose
// send fails are removed once the pass is over.
//
// Two channels ride on the Broadcaster:
//
//   - echo: every inbound text frame is rebroadcast as "Echo: <text>".
//   - chat: every inbound JSON object {user, message} is enriched with an id
//     and timestamp and broadcast to all connections, including the sender.
//
// Usage:
//
//	b := websocket.NewBroadcaster()
//	h := websocket.NewHandler(b, websocket.WithLogger(log))
//	mux.Handle("/ws", h.Echo())
//	mux.Handle("/ws/chat", h.Chat())
package websocket
