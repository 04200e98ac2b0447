package daw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockCapability_WritesAreObservable(t *testing.T) {
	m := NewMockCapability()
	m.Projects[0].Tracks = []MockTrack{
		{
			GUID: "{T1}",
			Name: "Guitar",
			FX: []MockFX{
				{GUID: "{FX1}", Name: "Archetype: ToneBridgeAmp", Params: []MockParam{
					{Name: "Gain", Value: 0.5},
				}},
			},
		},
	}

	track, ok := m.GetTrack(0, 0)
	require.True(t, ok)

	err := m.TrackFXSetParam(track, 0, 0, 0.75)
	require.NoError(t, err)

	value, ok := m.TrackFXGetParam(track, 0, 0)
	require.True(t, ok)
	assert.InDelta(t, 0.75, value, 1e-6)
}

func TestMockCapability_FormatFallback(t *testing.T) {
	m := NewMockCapability()
	m.Projects[0].Tracks = []MockTrack{
		{GUID: "{T1}", FX: []MockFX{{GUID: "{FX1}", Params: []MockParam{{Name: "Mix"}}}}},
	}
	track, _ := m.GetTrack(0, 0)

	formatted, ok := m.TrackFXFormatParamValue(track, 0, 0, 0.5)
	require.True(t, ok)
	assert.Equal(t, "0.500", formatted)
}

func TestMockCapability_FormatFunc(t *testing.T) {
	m := NewMockCapability()
	m.Projects[0].Tracks = []MockTrack{
		{
			GUID: "{T1}",
			FX: []MockFX{{
				GUID:   "{FX1}",
				Params: []MockParam{{Name: "Mode"}},
				Format: func(paramIndex int32, value float32) (string, bool) {
					if value < 0.5 {
						return "Clean", true
					}
					return "Dirty", true
				},
			}},
		},
	}
	track, _ := m.GetTrack(0, 0)

	formatted, ok := m.TrackFXFormatParamValue(track, 0, 0, 0.9)
	require.True(t, ok)
	assert.Equal(t, "Dirty", formatted)
}

func TestMockCapability_InvalidHandle(t *testing.T) {
	m := NewMockCapability()
	_, ok := m.GetTrack(0, 5)
	assert.False(t, ok)

	err := m.TrackFXSetParam(TrackHandle(9999), 0, 0, 0.1)
	assert.Error(t, err)
}

func TestMockCapability_Bump(t *testing.T) {
	m := NewMockCapability()
	assert.Equal(t, int32(0), m.ProjectStateChangeCount())
	m.Bump()
	m.Bump()
	assert.Equal(t, int32(2), m.ProjectStateChangeCount())
}
