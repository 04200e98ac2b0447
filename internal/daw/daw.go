// Package daw defines the narrow capability interface the sidecar consumes
// from the DAW host, grounded on the trait split in
// reaper_api.rs (ReaperApi / ReaperApiImpl) and generalized beyond one track
// per call the way shaban-macaudio/devices separates its Go-facing interface
// from a cgo-backed production implementation.
package daw

// TrackHandle identifies a track within the current project. Its concrete
// value is opaque to everything above this package, mirroring the Rust
// trait's `usize` handle cast from a raw MediaTrack pointer.
type TrackHandle int64

// Capability is the complete surface the sidecar needs from the DAW's C API.
// Every method is synchronous and, per contract, safe to call only from the
// DAW's main thread — callers never invoke it from the network thread.
type Capability interface {
	// ProjectStateChangeCount returns a counter the DAW bumps on any edit to
	// the current project. Used by the watchdog to detect structural changes
	// without diffing the whole track/FX tree every tick.
	ProjectStateChangeCount() int32

	// CountProjects returns the number of open projects (tabs).
	CountProjects() int32

	// CurrentProject returns the index of the currently active project tab.
	CurrentProject() int32

	// CountTracks returns the number of tracks in the given project index.
	CountTracks(project int32) int32

	// GetTrack returns the handle for the track at index within project, or
	// ok=false if the index is out of range.
	GetTrack(project int32, index int32) (handle TrackHandle, ok bool)

	// TrackGUID returns the track's stable brace-wrapped GUID string, or
	// ok=false if the handle is no longer valid.
	TrackGUID(track TrackHandle) (guid string, ok bool)

	// TrackName returns the track's display name, empty if unavailable.
	TrackName(track TrackHandle) string

	// TrackFXCount returns the number of FX slots on the track.
	TrackFXCount(track TrackHandle) int32

	// TrackFXNumParams returns the parameter count for the FX at fxIndex, or
	// ok=false if the slot is empty or the count could not be read.
	TrackFXNumParams(track TrackHandle, fxIndex int32) (count int32, ok bool)

	// TrackFXGUID returns the FX's stable brace-wrapped GUID, or ok=false.
	TrackFXGUID(track TrackHandle, fxIndex int32) (guid string, ok bool)

	// TrackFXName returns the FX's display name, empty if unavailable.
	TrackFXName(track TrackHandle, fxIndex int32) string

	// TrackFXParamName returns the parameter's display name, or ok=false.
	TrackFXParamName(track TrackHandle, fxIndex, paramIndex int32) (name string, ok bool)

	// TrackFXFormatParamValue formats a normalized [0,1] value the way the FX
	// itself renders it (e.g. "-6.0 dB", "Clean"), or ok=false if the FX
	// declined to format it.
	TrackFXFormatParamValue(track TrackHandle, fxIndex, paramIndex int32, value float32) (formatted string, ok bool)

	// TrackFXGetParam reads the current normalized [0,1] value of a parameter.
	TrackFXGetParam(track TrackHandle, fxIndex, paramIndex int32) (value float32, ok bool)

	// TrackFXSetParam writes a normalized [0,1] value to a parameter. Returns
	// an error if the underlying API call reports failure.
	TrackFXSetParam(track TrackHandle, fxIndex, paramIndex int32, value float32) error
}
