package sidecar

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonebridge/reaper-sidecar/internal/protocol"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestNetwork_ConnectEmitsClientConnected(t *testing.T) {
	n := NewNetwork()
	srv := httptest.NewServer(n)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn := dial(t, url)
	defer conn.Close()

	select {
	case msg := <-n.inbound:
		_, ok := msg.(ClientConnected)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ClientConnected")
	}
}

func TestNetwork_UnauthorizedCommandRejected(t *testing.T) {
	n := NewNetwork()
	srv := httptest.NewServer(n)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn := dial(t, url)
	defer conn.Close()

	<-n.inbound // ClientConnected

	require.NoError(t, conn.WriteJSON(protocol.SetToneCmd{
		Type: protocol.TypeSetTone, SessionToken: "wrong-token", CommandID: "c1",
	}))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), string(protocol.ErrUnauthorized))
}

func TestNetwork_NewConnectionSupersedesPrevious(t *testing.T) {
	n := NewNetwork()
	srv := httptest.NewServer(n)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	first := dial(t, url)
	defer first.Close()
	<-n.inbound // ClientConnected for first

	second := dial(t, url)
	defer second.Close()
	<-n.inbound // ClientConnected for second

	first.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := first.ReadMessage()
	assert.Error(t, err) // first connection was closed on supersession
}

func TestNetwork_SendDeliversToActiveClient(t *testing.T) {
	n := NewNetwork()
	n.Run()
	defer n.Shutdown()
	srv := httptest.NewServer(n)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn := dial(t, url)
	defer conn.Close()
	<-n.inbound // ClientConnected

	n.Send(protocol.NewProjectChanged())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), protocol.TypeProjectChanged)
}

func TestNetwork_MalformedJSONGetsInvalidCommandError(t *testing.T) {
	n := NewNetwork()
	srv := httptest.NewServer(n)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn := dial(t, url)
	defer conn.Close()
	<-n.inbound

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), string(protocol.ErrInvalidCommand))
}
