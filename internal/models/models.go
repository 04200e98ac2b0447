// Package models holds the wire/data shapes shared across the sidecar,
// the pipeline, and the client driver (spec §3).
package models

// PluginInstance is one discovered target-plugin instance.
type PluginInstance struct {
	TrackGUID     string     `json:"track_guid"`
	TrackName     string     `json:"track_name"`
	FxGUID        string     `json:"fx_guid"`
	FxName        string     `json:"fx_name"`
	LastKnownSlot int        `json:"last_known_slot"`
	Confidence    Confidence `json:"confidence"`
}

// Confidence is the classification confidence for a discovered FX instance.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// FxLookupEntry is one verified mapping of an fx_guid to its last-seen slot.
type FxLookupEntry struct {
	TrackGUID string
	Slot      int
}

// FxLookup maps fx_guid to (track_guid, slot_index). Owned by the main loop;
// never shared across threads directly (access it only from the tick).
type FxLookup map[string]FxLookupEntry

// ParamChange is the canonical wire unit: a normalized float write.
type ParamChange struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// AiParamChange is the loose unit the LLM emits: either a number or a string.
type AiParamChange struct {
	Index int         `json:"index"`
	Value interface{} `json:"value"`
}

// EnumOption is one discrete setting of an enumerated parameter.
type EnumOption struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// FormatTriplet is the formatted display at normalized 0.0/0.5/1.0.
type FormatTriplet struct {
	Min string `json:"min"`
	Mid string `json:"mid"`
	Max string `json:"max"`
}

// FormatSample is one (normalized, formatted) pair from the sample probe.
type FormatSample struct {
	Norm      float64 `json:"norm"`
	Formatted string  `json:"formatted"`
}

// Session is the single active WS session (§3).
type Session struct {
	Token      string
	SocketAddr string
	StartTime  int64 // unix nanos; stamped by the caller, never time.Now() internally
}

// MergeMode is the tagged variant controlling how a SetTone is applied.
type MergeMode string

const (
	MergeModeMerge         MergeMode = "merge"
	MergeModeReplaceActive MergeMode = "replace_active"
)

// DiffItem describes one parameter whose applied value differs from the
// cached prior write set for its fx_guid (§4.5 5e).
type DiffItem struct {
	Label string   `json:"label"`
	Index int      `json:"index"`
	Old   *float64 `json:"old,omitempty"`
	New   *float64 `json:"new,omitempty"`
}

// AppliedParam echoes one requested index with its post-clamp value and
// formatted display, as returned in an Ack (§6.2).
type AppliedParam struct {
	Index     int     `json:"index"`
	Requested float64 `json:"requested"`
	Applied   float64 `json:"applied"`
	Formatted string  `json:"formatted"`
}

// MaxParamIndex is the inclusive upper bound on a valid parameter index
// (§3 invariant ii). Overridable only for tests; production code should
// read config.Config.MaxParamIndex instead of this constant directly.
const MaxParamIndex = 4096
