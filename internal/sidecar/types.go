// Package sidecar implements the two-thread control-plane loop (§4.4,
// §5): a network thread doing blocking WebSocket I/O, and a main-loop tick
// driven by the DAW's UI thread, connected by two bounded channels.
// Grounded on net.rs/main_loop.rs in
// original_source/reaper_gojira_dll/src, translated from the Rust
// crossbeam-channel + ws crate pair into Go channels + gorilla/websocket.
package sidecar

import (
	"net"

	"github.com/tonebridge/reaper-sidecar/internal/protocol"
)

// ChannelCapacity bounds both the inbound and outbound channels (§5).
const ChannelCapacity = 256

// InboundMsg is anything the network thread hands to the main loop.
type InboundMsg interface{ isInboundMsg() }

// ClientConnected announces a new WebSocket session accepted by the network
// thread; the main loop adopts session_token as the active session.
type ClientConnected struct {
	SocketAddr   net.Addr
	SessionToken string
}

// ClientDisconnected announces the active client dropped its connection.
type ClientDisconnected struct{}

// CommandMsg carries one decoded, not-yet-authorized client command.
type CommandMsg struct {
	Cmd protocol.ClientCommand
}

func (ClientConnected) isInboundMsg()    {}
func (ClientDisconnected) isInboundMsg() {}
func (CommandMsg) isInboundMsg()         {}

// OutboundMsg is anything the main loop hands to the network thread to send
// to the currently active client, if any.
type OutboundMsg struct {
	Msg protocol.ServerMessage
}
