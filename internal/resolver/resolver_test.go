package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonebridge/reaper-sidecar/internal/daw"
	"github.com/tonebridge/reaper-sidecar/internal/models"
)

var testTarget = Target{
	BrandTokens:  []string{"archetype"},
	FamilyTokens: []string{"tonebridgeamp"},
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		fxName   string
		expected models.Confidence
	}{
		{"brand and family present", "Archetype: ToneBridgeAmp", models.ConfidenceHigh},
		{"family only", "ToneBridgeAmp (Demo)", models.ConfidenceLow},
		{"neither present", "ReaEQ", models.Confidence("")},
		{"case and punctuation insensitive", "  archetype -- TONE BRIDGE AMP!! ", models.ConfidenceHigh},
		{"brand without family does not match", "Archetype: OtherAmp", models.Confidence("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.fxName, testTarget))
		})
	}
}

func buildMockProject() *daw.MockCapability {
	m := daw.NewMockCapability()
	m.Projects[0].Tracks = []daw.MockTrack{
		{
			GUID: "{TRACK-1}",
			Name: "Guitar",
			FX: []daw.MockFX{
				{GUID: "{FX-EQ}", Name: "ReaEQ", Params: []daw.MockParam{{Name: "Band 1"}}},
				{GUID: "{FX-AMP}", Name: "Archetype: ToneBridgeAmp", Params: []daw.MockParam{{Name: "Gain"}}},
			},
		},
		{
			GUID: "{TRACK-2}",
			Name: "Bass",
			FX: []daw.MockFX{
				{GUID: "{FX-OTHER}", Name: "Kontakt 7", Params: []daw.MockParam{{Name: "Volume"}}},
			},
		},
	}
	return m
}

func TestScan(t *testing.T) {
	m := buildMockProject()

	instances, lookup := Scan(m, 0, testTarget)

	require.Len(t, instances, 1)
	assert.Equal(t, "{FX-AMP}", instances[0].FxGUID)
	assert.Equal(t, "{TRACK-1}", instances[0].TrackGUID)
	assert.Equal(t, 1, instances[0].LastKnownSlot)
	assert.Equal(t, models.ConfidenceHigh, instances[0].Confidence)

	entry, ok := lookup["{FX-AMP}"]
	require.True(t, ok)
	assert.Equal(t, "{TRACK-1}", entry.TrackGUID)
	assert.Equal(t, 1, entry.Slot)
}

func TestResolve_CacheHit(t *testing.T) {
	m := buildMockProject()
	_, cache := Scan(m, 0, testTarget)

	track, slot, err := Resolve(m, 0, testTarget, cache, "{FX-AMP}")
	require.NoError(t, err)
	assert.Equal(t, int32(1), slot)

	guid, ok := m.TrackGUID(track)
	require.True(t, ok)
	assert.Equal(t, "{TRACK-1}", guid)
}

func TestResolve_RescansOnSlotShift(t *testing.T) {
	m := buildMockProject()
	_, cache := Scan(m, 0, testTarget)

	// Simulate the user inserting a new FX before the amp, shifting its slot.
	track1 := m.Projects[0].Tracks[0]
	newFX := []daw.MockFX{{GUID: "{FX-NEW}", Name: "Inserted"}}
	track1.FX = append(newFX, track1.FX...)
	m.Projects[0].Tracks[0] = track1

	track, slot, err := Resolve(m, 0, testTarget, cache, "{FX-AMP}")
	require.NoError(t, err)
	assert.Equal(t, int32(2), slot)
	guid, _ := m.TrackGUID(track)
	assert.Equal(t, "{TRACK-1}", guid)

	entry := cache["{FX-AMP}"]
	assert.Equal(t, 2, entry.Slot)
}

func TestResolve_TargetNotFound(t *testing.T) {
	m := buildMockProject()
	_, cache := Scan(m, 0, testTarget)

	_, _, err := Resolve(m, 0, testTarget, cache, "{DOES-NOT-EXIST}")
	require.Error(t, err)
}

func TestScanAll_MultipleProjects(t *testing.T) {
	m := buildMockProject()
	m.Projects = append(m.Projects, daw.MockProject{
		Tracks: []daw.MockTrack{
			{GUID: "{P2-T1}", Name: "Lead", FX: []daw.MockFX{
				{GUID: "{P2-FX}", Name: "Archetype: ToneBridgeAmp"},
			}},
		},
	})

	result := ScanAll(m, testTarget)
	require.Len(t, result, 2)
	assert.Len(t, result[0], 1)
	assert.Len(t, result[1], 1)
}
