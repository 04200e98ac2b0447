package sidecar

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tonebridge/reaper-sidecar/internal/logger"
	"github.com/tonebridge/reaper-sidecar/internal/metrics"
	"github.com/tonebridge/reaper-sidecar/internal/protocol"
)

const (
	readTimeout  = 30 * time.Millisecond
	writeTimeout = 200 * time.Millisecond
	pumpInterval = 50 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// activeClient is the single connection the network thread currently holds,
// mirroring net.rs's ActiveClient.
type activeClient struct {
	conn         *websocket.Conn
	sessionToken string
	socketAddr   net.Addr
}

// Network is the WebSocket transport half of the bridge (§4.4, §5): it
// accepts exactly one client at a time, authorizes every inbound command
// against the active session token, and best-effort pumps outbound messages
// to whichever client is currently active.
type Network struct {
	inbound  chan InboundMsg
	outbound chan OutboundMsg
	shutdown chan struct{}

	mu     sync.Mutex
	active *activeClient

	wg      sync.WaitGroup
	metrics metricsSink
}

// SetMetrics wires optional operational-counter exporters; call once before
// Run. Safe to leave unset, in which case recording is a no-op.
func (n *Network) SetMetrics(cw *metrics.Client, sentry *metrics.SentryMetrics) {
	n.metrics = metricsSink{cw: cw, sentry: sentry}
}

// NewNetwork builds a Network with bounded inbound/outbound channels (§5).
// Call Run to start its outbound pump goroutine.
func NewNetwork() *Network {
	return &Network{
		inbound:  make(chan InboundMsg, ChannelCapacity),
		outbound: make(chan OutboundMsg, ChannelCapacity),
		shutdown: make(chan struct{}),
	}
}

// Run starts the outbound pump goroutine; it returns once Shutdown is
// called. Tests that want to inspect raw outbound traffic without a live
// WebSocket connection can read Outbound() directly instead of calling Run.
func (n *Network) Run() {
	n.wg.Add(1)
	go n.outboundPump()
}

// Outbound returns the channel the pump drains; exposed so tests and the
// ops surface can observe outbound traffic without a live connection.
func (n *Network) Outbound() <-chan OutboundMsg { return n.outbound }

// Inbound returns the channel the main loop drains every tick.
func (n *Network) Inbound() <-chan InboundMsg { return n.inbound }

// Send enqueues an outbound message best-effort; if the outbound channel is
// full the message is dropped (ProjectChanged notifications are acceptable
// to drop, per main_loop.rs's send() comment; Acks and Errors are sent from
// a tick that just drained the channel so this should not happen in
// practice).
func (n *Network) Send(msg protocol.ServerMessage) {
	select {
	case n.outbound <- OutboundMsg{Msg: msg}:
	default:
		logger.Warn("outbound channel full, dropping message", nil)
	}
}

// Shutdown stops the outbound pump and closes the active connection, if any.
func (n *Network) Shutdown() {
	close(n.shutdown)
	n.mu.Lock()
	if n.active != nil {
		_ = n.active.conn.Close()
		n.active = nil
	}
	n.mu.Unlock()
	n.wg.Wait()
}

// ServeHTTP upgrades one incoming request to a WebSocket connection and runs
// its read loop until it closes. Only one connection is ever active: a new
// connection displaces whatever was previously active (§4.4 "single-client
// policy"), matching net.rs's on_open behavior of closing the prior client
// with CloseAway.
func (n *Network) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.Fields{"error": err.Error()})
		return
	}

	token, err := newSessionToken()
	if err != nil {
		_ = conn.Close()
		logger.Error("failed to generate session token", err, nil)
		return
	}

	client := &activeClient{conn: conn, sessionToken: token, socketAddr: conn.RemoteAddr()}

	n.mu.Lock()
	prev := n.active
	n.active = client
	n.mu.Unlock()

	if prev != nil {
		_ = prev.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "superseded"),
			time.Now().Add(writeTimeout))
		_ = prev.conn.Close()
	}

	select {
	case n.inbound <- ClientConnected{SocketAddr: client.socketAddr, SessionToken: token}:
		n.metrics.recordSessionEvent("connected", token)
	default:
		n.metrics.recordBusyRejection(client.socketAddr.String())
		n.sendError(client, protocol.ErrBusy, "server busy")
		_ = conn.Close()
		return
	}

	n.readLoop(client)
}

func (n *Network) readLoop(client *activeClient) {
	defer func() {
		n.mu.Lock()
		if n.active == client {
			n.active = nil
			select {
			case n.inbound <- ClientDisconnected{}:
			default:
			}
		}
		n.mu.Unlock()
		n.metrics.recordSessionEvent("closed", client.sessionToken)
		_ = client.conn.Close()
	}()

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		cmd, err := protocol.ParseClientCommand(data)
		if err != nil {
			n.sendError(client, protocol.ErrInvalidCommand, "invalid json")
			continue
		}

		n.mu.Lock()
		isActive := n.active == client
		n.mu.Unlock()
		if !isActive || protocol.SessionToken(cmd) != client.sessionToken {
			n.sendError(client, protocol.ErrUnauthorized, "unauthorized")
			continue
		}

		select {
		case n.inbound <- CommandMsg{Cmd: cmd}:
		default:
			// Flood policy (net.rs): refresh_instances coalesces/drops
			// silently; everything else rejects with Busy.
			if _, ok := cmd.(protocol.RefreshInstancesCmd); ok {
				continue
			}
			logger.Warn("inbound channel full; rejecting command", logger.Fields{
				"socket_addr": client.socketAddr.String(),
			})
			n.metrics.recordBusyRejection(client.socketAddr.String())
			n.sendError(client, protocol.ErrBusy, "server busy")
		}
	}
}

func (n *Network) sendError(client *activeClient, code protocol.ErrorCode, msg string) {
	payload, err := json.Marshal(protocol.NewError(code, msg))
	if err != nil {
		return
	}
	_ = client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = client.conn.WriteMessage(websocket.TextMessage, payload)
}

func (n *Network) outboundPump() {
	defer n.wg.Done()
	ticker := time.NewTicker(pumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.shutdown:
			return
		case out := <-n.outbound:
			n.deliver(out.Msg)
		case <-ticker.C:
		}
	}
}

func (n *Network) deliver(msg protocol.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to serialize outbound message", err, nil)
		return
	}

	n.mu.Lock()
	client := n.active
	n.mu.Unlock()
	if client == nil {
		return
	}

	_ = client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = client.conn.WriteMessage(websocket.TextMessage, payload)
}

// sessionTokenAlphabet matches the original's rand::distributions::Alphanumeric,
// a uniform [A-Za-z0-9] sample rather than a base64 encoding of raw bytes.
const sessionTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const sessionTokenLength = 32

func newSessionToken() (string, error) {
	alphabetSize := big.NewInt(int64(len(sessionTokenAlphabet)))
	buf := make([]byte, sessionTokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		buf[i] = sessionTokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
