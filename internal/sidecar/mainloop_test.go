package sidecar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonebridge/reaper-sidecar/internal/daw"
	"github.com/tonebridge/reaper-sidecar/internal/models"
	"github.com/tonebridge/reaper-sidecar/internal/probe"
	"github.com/tonebridge/reaper-sidecar/internal/protocol"
)

func buildCapability() *daw.MockCapability {
	m := daw.NewMockCapability()
	m.Projects[0].Tracks = []daw.MockTrack{
		{
			GUID: "{T1}",
			Name: "Guitar",
			FX: []daw.MockFX{
				{GUID: "{FX1}", Name: "Archetype: Gojira", Params: []daw.MockParam{
					{Name: "Input Gain", Value: 0.5},
					{Name: "Drive", Value: 0.3},
				}},
			},
		},
	}
	return m
}

func recvOutbound(t *testing.T, n *Network) protocol.ServerMessage {
	t.Helper()
	select {
	case msg := <-n.outbound:
		return msg.Msg
	default:
		t.Fatal("expected an outbound message, got none")
		return nil
	}
}

func TestMainLoop_HandshakeOnConnect(t *testing.T) {
	api := buildCapability()
	net := NewNetwork()
	loop := NewMainLoop(net, DefaultTarget, nil)

	net.inbound <- ClientConnected{SessionToken: "tok-1"}
	loop.Tick(api)

	msg := recvOutbound(t, net)
	hs, ok := msg.(protocol.HandshakeMsg)
	require.True(t, ok)
	assert.Equal(t, "tok-1", hs.SessionToken)
	assert.Len(t, hs.Instances, 1)
	assert.Equal(t, "{FX1}", hs.Instances[0].FxGUID)
	assert.Equal(t, stateHandshaking, loop.state)
}

func TestMainLoop_HandshakeAckMovesToReady(t *testing.T) {
	api := buildCapability()
	net := NewNetwork()
	loop := NewMainLoop(net, DefaultTarget, nil)

	net.inbound <- ClientConnected{SessionToken: "tok-1"}
	loop.Tick(api)
	recvOutbound(t, net)

	net.inbound <- CommandMsg{Cmd: protocol.HandshakeAckCmd{Type: protocol.TypeHandshakeAck, SessionToken: "tok-1"}}
	loop.Tick(api)

	assert.Equal(t, stateReady, loop.state)
}

func TestMainLoop_SetToneBeforeReadyIsNotReady(t *testing.T) {
	api := buildCapability()
	net := NewNetwork()
	loop := NewMainLoop(net, DefaultTarget, nil)

	net.inbound <- ClientConnected{SessionToken: "tok-1"}
	loop.Tick(api)
	recvOutbound(t, net)

	net.inbound <- CommandMsg{Cmd: protocol.SetToneCmd{
		Type: protocol.TypeSetTone, SessionToken: "tok-1", CommandID: "c1",
		TargetFxGUID: "{FX1}", Mode: models.MergeModeMerge,
		Params: []models.ParamChange{{Index: 0, Value: 0.9}},
	}}
	loop.Tick(api)

	msg := recvOutbound(t, net)
	errMsg, ok := msg.(protocol.ErrorMsg)
	require.True(t, ok)
	assert.Equal(t, protocol.ErrNotReady, errMsg.Code)
}

func TestMainLoop_SetToneAppliesAndAcks(t *testing.T) {
	api := buildCapability()
	net := NewNetwork()
	loop := NewMainLoop(net, DefaultTarget, nil)

	net.inbound <- ClientConnected{SessionToken: "tok-1"}
	loop.Tick(api)
	recvOutbound(t, net)

	net.inbound <- CommandMsg{Cmd: protocol.HandshakeAckCmd{Type: protocol.TypeHandshakeAck, SessionToken: "tok-1"}}
	loop.Tick(api)

	net.inbound <- CommandMsg{Cmd: protocol.SetToneCmd{
		Type: protocol.TypeSetTone, SessionToken: "tok-1", CommandID: "c1",
		TargetFxGUID: "{FX1}", Mode: models.MergeModeMerge,
		Params: []models.ParamChange{{Index: 0, Value: 0.9}},
	}}
	loop.Tick(api)

	msg := recvOutbound(t, net)
	ack, ok := msg.(protocol.AckMsg)
	require.True(t, ok)
	assert.Equal(t, "c1", ack.CommandID)
	require.Len(t, ack.AppliedParams, 1)
	assert.Equal(t, 0, ack.AppliedParams[0].Index)
	assert.InDelta(t, 0.9, ack.AppliedParams[0].Applied, 1e-9)

	track, ok := api.GetTrack(0, 0)
	require.True(t, ok)
	v, ok := api.TrackFXGetParam(track, 0, 0)
	require.True(t, ok)
	assert.InDelta(t, 0.9, float64(v), 1e-6)
}

func TestMainLoop_SetToneUnknownFxGuidFails(t *testing.T) {
	api := buildCapability()
	net := NewNetwork()
	loop := NewMainLoop(net, DefaultTarget, nil)

	net.inbound <- ClientConnected{SessionToken: "tok-1"}
	loop.Tick(api)
	recvOutbound(t, net)
	net.inbound <- CommandMsg{Cmd: protocol.HandshakeAckCmd{Type: protocol.TypeHandshakeAck, SessionToken: "tok-1"}}
	loop.Tick(api)

	net.inbound <- CommandMsg{Cmd: protocol.SetToneCmd{
		Type: protocol.TypeSetTone, SessionToken: "tok-1", CommandID: "c1",
		TargetFxGUID: "{NOPE}", Mode: models.MergeModeMerge,
		Params: []models.ParamChange{{Index: 0, Value: 0.9}},
	}}
	loop.Tick(api)

	msg := recvOutbound(t, net)
	errMsg, ok := msg.(protocol.ErrorMsg)
	require.True(t, ok)
	assert.Equal(t, protocol.ErrTargetNotFound, errMsg.Code)
}

func TestMainLoop_DisconnectResetsState(t *testing.T) {
	api := buildCapability()
	net := NewNetwork()
	loop := NewMainLoop(net, DefaultTarget, nil)

	net.inbound <- ClientConnected{SessionToken: "tok-1"}
	loop.Tick(api)
	recvOutbound(t, net)

	net.inbound <- ClientDisconnected{}
	loop.Tick(api)

	assert.Equal(t, stateClosed, loop.state)
	assert.Empty(t, loop.sessionToken)
}

func TestMainLoop_WatchdogBroadcastsProjectChanged(t *testing.T) {
	api := buildCapability()
	net := NewNetwork()
	loop := NewMainLoop(net, DefaultTarget, nil)

	net.inbound <- ClientConnected{SessionToken: "tok-1"}
	loop.Tick(api)
	recvOutbound(t, net)

	api.Bump()
	api.Projects[0].Tracks = append(api.Projects[0].Tracks, daw.MockTrack{
		GUID: "{T2}", Name: "Bass",
	})
	loop.Tick(api)

	msg := recvOutbound(t, net)
	_, ok := msg.(protocol.ProjectChangedMsg)
	require.True(t, ok)
}

func TestMainLoop_ValidateUsesAnchors(t *testing.T) {
	api := buildCapability()
	net := NewNetwork()
	anchors := []probe.AnchorSpec{
		{Key: "input_gain", Index: 0, NameContains: []string{"gain"}},
		{Key: "drive", Index: 1, NameContains: []string{"bogus"}},
	}
	loop := NewMainLoop(net, DefaultTarget, anchors)

	net.inbound <- ClientConnected{SessionToken: "tok-1"}
	loop.Tick(api)

	msg := recvOutbound(t, net)
	hs, ok := msg.(protocol.HandshakeMsg)
	require.True(t, ok)
	assert.Equal(t, "ok", hs.ValidationReport["input_gain"])
	assert.Equal(t, "drifted", hs.ValidationReport["drive"])
}
