package sidecar

import (
	"sync"
	"time"

	"github.com/tonebridge/reaper-sidecar/internal/bridgeerr"
	"github.com/tonebridge/reaper-sidecar/internal/daw"
	"github.com/tonebridge/reaper-sidecar/internal/logger"
	"github.com/tonebridge/reaper-sidecar/internal/metrics"
	"github.com/tonebridge/reaper-sidecar/internal/models"
	"github.com/tonebridge/reaper-sidecar/internal/pipeline"
	"github.com/tonebridge/reaper-sidecar/internal/probe"
	"github.com/tonebridge/reaper-sidecar/internal/protocol"
	"github.com/tonebridge/reaper-sidecar/internal/resolver"
	"github.com/tonebridge/reaper-sidecar/pkg/embedded"
)

// DefaultTarget names the brand/family tokens the resolver classifies FX
// names against, transcribed from resolver.rs's gojira_confidence
// ("archetype" + "gojira" => high, "gojira" alone => low).
var DefaultTarget = resolver.Target{
	BrandTokens:  []string{"archetype"},
	FamilyTokens: []string{"gojira"},
}

// projectChangedDebounce is the minimum interval between two ProjectChanged
// broadcasts (§4.4), matching main_loop.rs's PROJECT_CHANGED_DEBOUNCE.
const projectChangedDebounce = 500 * time.Millisecond

// DefaultAnchors are the curated drift-detection anchors transcribed from
// validator.rs: the delay and reverb "active" toggles, each paired with a
// neighboring mix-parameter search range.
var DefaultAnchors = []probe.AnchorSpec{
	{
		Key:           "delay_active",
		Index:         101,
		NameContains:  []string{"active", "on", "enable"},
		MixSearchFrom: 100,
		MixSearchTo:   115,
	},
	{
		Key:           "reverb_active",
		Index:         112,
		NameContains:  []string{"active", "on", "enable"},
		MixSearchFrom: 110,
		MixSearchTo:   125,
	},
}

// sessionState is the per-session state machine (§4.4):
// Connecting -> Handshaking -> Ready <-> Applying -> Closed.
type sessionState int

const (
	stateClosed sessionState = iota
	stateHandshaking
	stateReady
)

type projectCache struct {
	lookup            models.FxLookup
	lastChangeCount   int32
	lastBroadcastTime time.Time
	lastTrackCount    int32
	lastTotalFXCount  int32
}

// MainLoop is the DAW-main-thread half of the bridge, ticked once per frame
// by the host, grounded on main_loop.rs's MainLoop/tick.
type MainLoop struct {
	net    *Network
	target resolver.Target

	mu           sync.Mutex
	state        sessionState
	sessionToken string

	cache            projectCache
	validationReport map[string]string
	// fxGUIDs tracks which fx_guids have been probed since the last
	// handshake/rescan, for the debug snapshot's tracked-instance list.
	fxGUIDs map[string]struct{}
	anchors []probe.AnchorSpec
	metrics metricsSink
}

// SetMetrics wires optional operational-counter exporters; call once before
// the first Tick. Safe to leave unset, in which case recording is a no-op.
func (m *MainLoop) SetMetrics(cw *metrics.Client, sentry *metrics.SentryMetrics) {
	m.metrics = metricsSink{cw: cw, sentry: sentry}
}

// DebugSnapshot is the read-only view of session state exposed on
// /debug/sessions (opshttp), mirroring the teacher's metrics-handler idiom
// of a small JSON-tagged struct assembled on demand rather than a live
// gauge registry.
type DebugSnapshot struct {
	Connected        bool              `json:"connected"`
	State            string            `json:"state"`
	ValidationReport map[string]string `json:"validation_report"`
	TrackedFxGUIDs   []string          `json:"tracked_fx_guids"`
}

func (s sessionState) String() string {
	switch s {
	case stateHandshaking:
		return "handshaking"
	case stateReady:
		return "ready"
	default:
		return "closed"
	}
}

// DebugSnapshot reports the current session state for the ops HTTP surface.
// Safe to call concurrently with Tick.
func (m *MainLoop) DebugSnapshot() DebugSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	guids := make([]string, 0, len(m.fxGUIDs))
	for guid := range m.fxGUIDs {
		guids = append(guids, guid)
	}

	return DebugSnapshot{
		Connected:        m.state != stateClosed,
		State:            m.state.String(),
		ValidationReport: m.validationReport,
		TrackedFxGUIDs:   guids,
	}
}

// NewMainLoop builds a MainLoop bound to net's inbound channel.
func NewMainLoop(net *Network, target resolver.Target, anchors []probe.AnchorSpec) *MainLoop {
	return &MainLoop{
		net:    net,
		target: target,
		state:  stateClosed,
		cache: projectCache{
			lookup:            make(models.FxLookup),
			lastBroadcastTime: time.Now().Add(-projectChangedDebounce),
			lastTrackCount:    -1,
			lastTotalFXCount:  -1,
		},
		validationReport: make(map[string]string),
		fxGUIDs:          make(map[string]struct{}),
		anchors:          anchors,
	}
}

// Tick drains every pending inbound message non-blockingly, applies at most
// one rescan/handshake and one SetTone, then checks the project-change
// watchdog (§5: "at most one SetTone applied, at most one rescan" per tick).
func (m *MainLoop) Tick(api daw.Capability) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tickStart := time.Now()
	defer func() { m.metrics.recordTickDuration(time.Since(tickStart)) }()

	var connectedToken string
	var connected bool
	var refreshInstances bool
	var lastSetTone *protocol.SetToneCmd

drain:
	for {
		select {
		case msg := <-m.net.Inbound():
			switch v := msg.(type) {
			case ClientConnected:
				connectedToken = v.SessionToken
				connected = true
			case ClientDisconnected:
				m.state = stateClosed
				m.sessionToken = ""
				m.cache.lookup = make(models.FxLookup)
				m.fxGUIDs = make(map[string]struct{})
			case CommandMsg:
				switch cmd := v.Cmd.(type) {
				case protocol.RefreshInstancesCmd:
					refreshInstances = true
				case protocol.SetToneCmd:
					c := cmd
					if lastSetTone != nil {
						m.metrics.recordCoalescedDrop(lastSetTone.TargetFxGUID)
					}
					lastSetTone = &c
				case protocol.HandshakeAckCmd:
					if m.state == stateHandshaking && cmd.SessionToken == m.sessionToken {
						m.state = stateReady
					}
				}
			}
		default:
			break drain
		}
	}

	if connected {
		m.sessionToken = connectedToken
		m.state = stateHandshaking
		m.validationReport = make(map[string]string)
		m.fxGUIDs = make(map[string]struct{})
		m.refreshAndHandshake(api)
	} else if refreshInstances && m.sessionToken != "" {
		m.refreshAndHandshake(api)
	}

	m.watchdog(api)

	if lastSetTone != nil {
		m.applySetTone(api, *lastSetTone)
	}
}

func (m *MainLoop) refreshAndHandshake(api daw.Capability) {
	project := api.CurrentProject()
	instances, lookup := resolver.Scan(api, project, m.target)
	m.cache.lookup = lookup

	var enums map[int][]models.EnumOption
	var formats map[int]models.FormatTriplet
	var samples map[int][]models.FormatSample
	report := make(map[string]string)

	if len(instances) > 0 {
		first := instances[0]
		if track, fxIndex, err := resolver.Resolve(api, project, m.target, m.cache.lookup, first.FxGUID); err == nil {
			report = probe.Validate(api, track, fxIndex, m.anchors)

			indices := make([]int, 0, len(embedded.ProbeIndices()))
			expected := make(map[int]int)
			for _, spec := range embedded.ProbeIndices() {
				indices = append(indices, spec.Index)
				expected[spec.Index] = spec.ExpectedOptions
			}
			probeStart := time.Now()
			result := probe.ProbeIndices(api, track, fxIndex, indices, expected)
			m.metrics.recordProbeDuration("handshake", time.Since(probeStart))
			enums, formats, samples = result.Enums, result.Formats, result.Samples

			m.fxGUIDs[first.FxGUID] = struct{}{}
		}
	}

	m.validationReport = report

	m.net.Send(protocol.NewHandshake(m.sessionToken, instances, report, enums, formats, samples))
}

func (m *MainLoop) watchdog(api daw.Capability) {
	state := api.ProjectStateChangeCount()
	if state == m.cache.lastChangeCount {
		return
	}
	m.cache.lastChangeCount = state

	project := api.CurrentProject()
	trackCount := api.CountTracks(project)
	totalFX := totalFXCount(api, project, trackCount)
	instancesAffected := trackCount != m.cache.lastTrackCount || totalFX != m.cache.lastTotalFXCount

	m.cache.lastTrackCount = trackCount
	m.cache.lastTotalFXCount = totalFX

	if !instancesAffected {
		return
	}

	now := time.Now()
	if now.Sub(m.cache.lastBroadcastTime) < projectChangedDebounce {
		return
	}
	m.cache.lastBroadcastTime = now
	m.cache.lookup = make(models.FxLookup)
	m.fxGUIDs = make(map[string]struct{})

	m.net.Send(protocol.NewProjectChanged())
}

func totalFXCount(api daw.Capability, project int32, trackCount int32) int32 {
	var sum int32
	for ti := int32(0); ti < trackCount; ti++ {
		track, ok := api.GetTrack(project, ti)
		if !ok {
			continue
		}
		sum += api.TrackFXCount(track)
	}
	return sum
}

// applySetTone runs the server's half of the pipeline: sanitize, then the
// replace-active clean if the command asked for it (§4.4). Value-resolve and
// diffing are the client's job, already done once before the command was
// sent; applying them again here would resolve an already-resolved value.
func (m *MainLoop) applySetTone(api daw.Capability, cmd protocol.SetToneCmd) {
	if m.state != stateReady {
		m.net.Send(protocol.NewError(protocol.ErrNotReady, "not ready (handshake/validation required)"))
		return
	}

	project := api.CurrentProject()
	track, fxIndex, err := resolver.Resolve(api, project, m.target, m.cache.lookup, cmd.TargetFxGUID)
	if err != nil {
		m.net.Send(protocol.NewError(protocol.ErrTargetNotFound, "target fx guid not found"))
		return
	}

	requested := make(map[int]float64, len(cmd.Params))
	for _, p := range cmd.Params {
		requested[p.Index] = p.Value
	}

	sanitized, err := pipeline.Sanitize(cmd.Params)
	if err != nil {
		m.sendPipelineError(err)
		return
	}
	cleaned := pipeline.CleanReplaceActive(cmd.Mode, sanitized)

	applied := make([]models.AppliedParam, 0, len(cleaned))
	for _, p := range cleaned {
		if writeErr := api.TrackFXSetParam(track, fxIndex, int32(p.Index), float32(p.Value)); writeErr != nil {
			logger.Error("param write failed", writeErr, logger.Fields{"index": p.Index, "fx_guid": cmd.TargetFxGUID})
			m.net.Send(protocol.NewError(protocol.ErrInternalError, "apply failed"))
			return
		}
		formatted, _ := api.TrackFXFormatParamValue(track, fxIndex, int32(p.Index), float32(p.Value))
		applied = append(applied, models.AppliedParam{
			Index:     p.Index,
			Requested: requested[p.Index],
			Applied:   p.Value,
			Formatted: formatted,
		})
	}

	m.net.Send(protocol.NewAck(cmd.CommandID, applied))
}

func (m *MainLoop) sendPipelineError(err error) {
	if bErr, ok := err.(*bridgeerr.Error); ok {
		m.net.Send(protocol.NewError(protocol.ErrorCode(bErr.Code), bErr.Msg))
		return
	}
	m.net.Send(protocol.NewError(protocol.ErrInvalidValue, err.Error()))
}
