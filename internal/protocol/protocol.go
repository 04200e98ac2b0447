// Package protocol defines the WebSocket wire envelope (§6.2), grounded on
// gojira_protocol/src/lib.rs's ServerMessage/ClientCommand tagged enums,
// translated from Rust's serde tag="type" sum types into Go structs
// discriminated by a Type field, the way the teacher's internal/llm request
// types use a single field to select behavior rather than base-class
// polymorphism (spec §9 explicitly asks for a sum type here).
package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tonebridge/reaper-sidecar/internal/models"
)

// Message type discriminants, serialized as the wire "type" field.
const (
	TypeHandshake       = "handshake"
	TypeProjectChanged  = "project_changed"
	TypeAck             = "ack"
	TypeError           = "error"
	TypeHandshakeAck    = "handshake_ack"
	TypeRefreshInstance = "refresh_instances"
	TypeSetTone         = "set_tone"
)

// ErrorCode mirrors internal/bridgeerr.Code as its wire spelling.
type ErrorCode string

const (
	ErrUnauthorized   ErrorCode = "unauthorized"
	ErrBusy           ErrorCode = "busy"
	ErrTargetNotFound ErrorCode = "target_not_found"
	ErrInvalidValue   ErrorCode = "invalid_value"
	ErrInvalidCommand ErrorCode = "invalid_command"
	ErrNotReady       ErrorCode = "not_ready"
	ErrInternalError  ErrorCode = "internal_error"
)

// IntKeyMap marshals as a JSON object with decimal-string keys and
// unmarshals either string or numeric JSON keys back into int, tolerating
// both per §9's "integer map keys are encoded as string keys" rule.
type IntKeyMap[V any] map[int]V

func (m IntKeyMap[V]) MarshalJSON() ([]byte, error) {
	raw := make(map[string]V, len(m))
	for k, v := range m {
		raw[strconv.Itoa(k)] = v
	}
	return json.Marshal(raw)
}

func (m *IntKeyMap[V]) UnmarshalJSON(data []byte) error {
	var raw map[string]V
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(IntKeyMap[V], len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("invalid param index key %q: %w", k, err)
		}
		out[idx] = v
	}
	*m = out
	return nil
}

// HandshakeMsg is the sole server message sent on session start (§4.4).
type HandshakeMsg struct {
	Type               string                          `json:"type"`
	SessionToken       string                          `json:"session_token"`
	Instances          []models.PluginInstance         `json:"instances"`
	ValidationReport   map[string]string               `json:"validation_report"`
	ParamEnums         IntKeyMap[[]models.EnumOption]   `json:"param_enums"`
	ParamFormats       IntKeyMap[models.FormatTriplet]  `json:"param_formats"`
	ParamFormatSamples IntKeyMap[[]models.FormatSample] `json:"param_format_samples"`
}

// NewHandshake builds a HandshakeMsg with the Type field already set.
func NewHandshake(token string, instances []models.PluginInstance, validation map[string]string,
	enums map[int][]models.EnumOption, formats map[int]models.FormatTriplet, samples map[int][]models.FormatSample) HandshakeMsg {
	return HandshakeMsg{
		Type:               TypeHandshake,
		SessionToken:       token,
		Instances:          instances,
		ValidationReport:   validation,
		ParamEnums:         IntKeyMap[[]models.EnumOption](enums),
		ParamFormats:       IntKeyMap[models.FormatTriplet](formats),
		ParamFormatSamples: IntKeyMap[[]models.FormatSample](samples),
	}
}

// ProjectChangedMsg notifies the client that the FxLookup was invalidated.
type ProjectChangedMsg struct {
	Type string `json:"type"`
}

func NewProjectChanged() ProjectChangedMsg {
	return ProjectChangedMsg{Type: TypeProjectChanged}
}

// AckMsg confirms a set_tone was applied.
type AckMsg struct {
	Type          string                `json:"type"`
	CommandID     string                `json:"command_id"`
	AppliedParams []models.AppliedParam `json:"applied_params"`
}

func NewAck(commandID string, applied []models.AppliedParam) AckMsg {
	return AckMsg{Type: TypeAck, CommandID: commandID, AppliedParams: applied}
}

// ErrorMsg reports a failure; Index is non-nil only for InvalidValue errors
// naming the offending parameter index.
type ErrorMsg struct {
	Type string    `json:"type"`
	Msg  string    `json:"msg"`
	Code ErrorCode `json:"code"`
}

func NewError(code ErrorCode, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, Msg: msg, Code: code}
}

// HandshakeAckCmd acknowledges the handshake and unblocks deferred commands.
type HandshakeAckCmd struct {
	Type         string `json:"type"`
	SessionToken string `json:"session_token"`
}

// RefreshInstancesCmd requests a fresh C2 scan; idempotent, droppable.
type RefreshInstancesCmd struct {
	Type         string `json:"type"`
	SessionToken string `json:"session_token"`
}

// SetToneCmd requests a parameter write set be applied to one FX instance.
type SetToneCmd struct {
	Type         string                `json:"type"`
	SessionToken string                `json:"session_token"`
	CommandID    string                `json:"command_id"`
	TargetFxGUID string                `json:"target_fx_guid"`
	Mode         models.MergeMode      `json:"mode"`
	Params       []models.ParamChange `json:"params"`
}

// SessionToken returns the carried token for any client command, mirroring
// ClientCommand::session_token() in gojira_protocol.
func (c HandshakeAckCmd) sessionToken() string     { return c.SessionToken }
func (c RefreshInstancesCmd) sessionToken() string { return c.SessionToken }
func (c SetToneCmd) sessionToken() string          { return c.SessionToken }

// ClientCommand is any decoded client->server command; callers type-switch
// on the concrete type after ParseClientCommand dispatches on "type".
type ClientCommand interface {
	sessionToken() string
}

// SessionToken extracts the session_token carried by any ClientCommand.
func SessionToken(cmd ClientCommand) string { return cmd.sessionToken() }

var _ ClientCommand = HandshakeAckCmd{}
var _ ClientCommand = RefreshInstancesCmd{}
var _ ClientCommand = SetToneCmd{}

// discriminant peeks only the "type" field, avoiding a full unmarshal before
// we know which concrete struct to decode into.
type discriminant struct {
	Type string `json:"type"`
}

// ParseClientCommand decodes one inbound text frame into its concrete
// ClientCommand, or an error if "type" is missing/unknown or the payload
// doesn't match the shape implied by it (surfaced as InvalidCommand by the
// caller, per §7).
func ParseClientCommand(data []byte) (ClientCommand, error) {
	var d discriminant
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("protocol: malformed envelope: %w", err)
	}

	switch d.Type {
	case TypeHandshakeAck:
		var c HandshakeAckCmd
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("protocol: malformed handshake_ack: %w", err)
		}
		return c, nil
	case TypeRefreshInstance:
		var c RefreshInstancesCmd
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("protocol: malformed refresh_instances: %w", err)
		}
		return c, nil
	case TypeSetTone:
		var c SetToneCmd
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("protocol: malformed set_tone: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("protocol: unknown command type %q", d.Type)
	}
}

// ServerMessage is any outbound message; MarshalJSON on the concrete type
// already carries its own "type" field, so the network thread can encode
// any of these directly without a wrapper.
type ServerMessage interface {
	isServerMessage()
}

func (HandshakeMsg) isServerMessage()      {}
func (ProjectChangedMsg) isServerMessage() {}
func (AckMsg) isServerMessage()            {}
func (ErrorMsg) isServerMessage()          {}

// ParseServerMessage decodes one inbound text frame into its concrete
// ServerMessage, the client driver's mirror of ParseClientCommand.
func ParseServerMessage(data []byte) (ServerMessage, error) {
	var d discriminant
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("protocol: malformed envelope: %w", err)
	}

	switch d.Type {
	case TypeHandshake:
		var m HandshakeMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("protocol: malformed handshake: %w", err)
		}
		return m, nil
	case TypeProjectChanged:
		var m ProjectChangedMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("protocol: malformed project_changed: %w", err)
		}
		return m, nil
	case TypeAck:
		var m AckMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("protocol: malformed ack: %w", err)
		}
		return m, nil
	case TypeError:
		var m ErrorMsg
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("protocol: malformed error: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("protocol: unknown message type %q", d.Type)
	}
}
