package daw

import (
	"fmt"
	"sync/atomic"
)

// FormatFunc renders a normalized [0,1] parameter value the way a real plugin
// would render it in its own units. Returning ok=false mirrors the DAW
// declining to format an index it doesn't recognize.
type FormatFunc func(paramIndex int32, value float32) (formatted string, ok bool)

// MockParam is one parameter slot on a MockFX.
type MockParam struct {
	Name  string
	Value float32
}

// MockFX is one FX slot on a MockTrack.
type MockFX struct {
	GUID   string
	Name   string
	Params []MockParam
	Format FormatFunc
}

// MockTrack is one track in a MockProject.
type MockTrack struct {
	GUID string
	Name string
	FX   []MockFX
}

// MockProject is one open project tab.
type MockProject struct {
	Tracks []MockTrack
}

// MockCapability is an in-memory Capability used by tests and the
// sidecar-standalone "-mock" binary, keeping a parameter map in memory the
// way reaper_gojira_dll/src/bin/mock_sidecar.rs stands in for a real REAPER
// host. Parameter writes are observable via TrackFXGetParam, which is the
// one property the resolver/pipeline tests lean on.
type MockCapability struct {
	Projects []MockProject
	Current  int32

	stateChangeCount int32
}

// NewMockCapability creates an empty mock with a single empty project.
func NewMockCapability() *MockCapability {
	return &MockCapability{Projects: []MockProject{{}}}
}

// Bump increments the project-state-change counter, simulating an edit made
// by the (simulated) user outside of param writes driven by the sidecar.
func (m *MockCapability) Bump() {
	atomic.AddInt32(&m.stateChangeCount, 1)
}

func (m *MockCapability) ProjectStateChangeCount() int32 {
	return atomic.LoadInt32(&m.stateChangeCount)
}

func (m *MockCapability) CountProjects() int32 {
	return int32(len(m.Projects))
}

func (m *MockCapability) CurrentProject() int32 {
	return m.Current
}

func (m *MockCapability) CountTracks(project int32) int32 {
	p, ok := m.project(project)
	if !ok {
		return 0
	}
	return int32(len(p.Tracks))
}

func (m *MockCapability) GetTrack(project int32, index int32) (TrackHandle, bool) {
	p, ok := m.project(project)
	if !ok || index < 0 || int(index) >= len(p.Tracks) {
		return 0, false
	}
	return encodeTrackHandle(project, index), true
}

func (m *MockCapability) TrackGUID(track TrackHandle) (string, bool) {
	t, ok := m.track(track)
	if !ok {
		return "", false
	}
	return t.GUID, true
}

func (m *MockCapability) TrackName(track TrackHandle) string {
	t, ok := m.track(track)
	if !ok {
		return ""
	}
	return t.Name
}

func (m *MockCapability) TrackFXCount(track TrackHandle) int32 {
	t, ok := m.track(track)
	if !ok {
		return 0
	}
	return int32(len(t.FX))
}

func (m *MockCapability) TrackFXNumParams(track TrackHandle, fxIndex int32) (int32, bool) {
	fx, ok := m.fx(track, fxIndex)
	if !ok || len(fx.Params) == 0 {
		return 0, false
	}
	return int32(len(fx.Params)), true
}

func (m *MockCapability) TrackFXGUID(track TrackHandle, fxIndex int32) (string, bool) {
	fx, ok := m.fx(track, fxIndex)
	if !ok {
		return "", false
	}
	return fx.GUID, true
}

func (m *MockCapability) TrackFXName(track TrackHandle, fxIndex int32) string {
	fx, ok := m.fx(track, fxIndex)
	if !ok {
		return ""
	}
	return fx.Name
}

func (m *MockCapability) TrackFXParamName(track TrackHandle, fxIndex, paramIndex int32) (string, bool) {
	fx, ok := m.fx(track, fxIndex)
	if !ok || paramIndex < 0 || int(paramIndex) >= len(fx.Params) {
		return "", false
	}
	return fx.Params[paramIndex].Name, true
}

func (m *MockCapability) TrackFXFormatParamValue(track TrackHandle, fxIndex, paramIndex int32, value float32) (string, bool) {
	fx, ok := m.fx(track, fxIndex)
	if !ok || paramIndex < 0 || int(paramIndex) >= len(fx.Params) {
		return "", false
	}
	if fx.Format != nil {
		return fx.Format(paramIndex, value)
	}
	return fmt.Sprintf("%.3f", value), true
}

func (m *MockCapability) TrackFXGetParam(track TrackHandle, fxIndex, paramIndex int32) (float32, bool) {
	fx, ok := m.fxPtr(track, fxIndex)
	if !ok || paramIndex < 0 || int(paramIndex) >= len(fx.Params) {
		return 0, false
	}
	return fx.Params[paramIndex].Value, true
}

func (m *MockCapability) TrackFXSetParam(track TrackHandle, fxIndex, paramIndex int32, value float32) error {
	fx, ok := m.fxPtr(track, fxIndex)
	if !ok {
		return fmt.Errorf("daw: no such fx (track=%v fx=%d)", track, fxIndex)
	}
	if paramIndex < 0 || int(paramIndex) >= len(fx.Params) {
		return fmt.Errorf("daw: param index %d out of range", paramIndex)
	}
	fx.Params[paramIndex].Value = value
	return nil
}

// --- handle encoding and lookup helpers ---

// encodeTrackHandle packs (project, index) into the opaque TrackHandle the
// same way the Rust implementation casts a raw pointer to usize: callers
// never interpret the bits, they just pass the handle back in.
func encodeTrackHandle(project, index int32) TrackHandle {
	return TrackHandle(int64(project)<<32 | int64(uint32(index)))
}

func decodeTrackHandle(h TrackHandle) (project, index int32) {
	return int32(int64(h) >> 32), int32(int64(h) & 0xFFFFFFFF)
}

func (m *MockCapability) project(project int32) (*MockProject, bool) {
	if project < 0 || int(project) >= len(m.Projects) {
		return nil, false
	}
	return &m.Projects[project], true
}

func (m *MockCapability) track(h TrackHandle) (*MockTrack, bool) {
	project, index := decodeTrackHandle(h)
	p, ok := m.project(project)
	if !ok || index < 0 || int(index) >= len(p.Tracks) {
		return nil, false
	}
	return &p.Tracks[index], true
}

func (m *MockCapability) fx(h TrackHandle, fxIndex int32) (*MockFX, bool) {
	return m.fxPtr(h, fxIndex)
}

func (m *MockCapability) fxPtr(h TrackHandle, fxIndex int32) (*MockFX, bool) {
	t, ok := m.track(h)
	if !ok || fxIndex < 0 || int(fxIndex) >= len(t.FX) {
		return nil, false
	}
	return &t.FX[fxIndex], true
}

var _ Capability = (*MockCapability)(nil)
