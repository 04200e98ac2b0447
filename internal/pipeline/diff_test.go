package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonebridge/reaper-sidecar/internal/models"
)

func TestDiff_EmitsChangedIndices(t *testing.T) {
	prior := PriorState{14: 0.3, 17: 0.0}
	applied := []models.ParamChange{{Index: 14, Value: 0.6}, {Index: 17, Value: 0.0}}

	items := Diff(prior, applied, nil)
	require.Len(t, items, 1)
	assert.Equal(t, 14, items[0].Index)
	assert.Equal(t, "Overdrive: Drive", items[0].Label)
	require.NotNil(t, items[0].Old)
	require.NotNil(t, items[0].New)
	assert.Equal(t, 0.3, *items[0].Old)
	assert.Equal(t, 0.6, *items[0].New)
}

func TestDiff_NewIndexHasNilOld(t *testing.T) {
	prior := PriorState{}
	applied := []models.ParamChange{{Index: 101, Value: 1.0}}

	items := Diff(prior, applied, nil)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Old)
	require.NotNil(t, items[0].New)
	assert.Equal(t, 1.0, *items[0].New)
	assert.Equal(t, "Delay: Active", items[0].Label)
}

func TestDiff_UnknownIndexGetsGenericLabel(t *testing.T) {
	prior := PriorState{}
	applied := []models.ParamChange{{Index: 4000, Value: 0.5}}
	items := Diff(prior, applied, nil)
	require.Len(t, items, 1)
	assert.Equal(t, genericLabel, items[0].Label)
}

func TestDiff_ReverseMapsForLabelLookup(t *testing.T) {
	prior := PriorState{}
	remap := IndexRemap{14: 214}
	applied := []models.ParamChange{{Index: 214, Value: 0.6}}

	items := Diff(prior, applied, remap.Reverse())
	require.Len(t, items, 1)
	assert.Equal(t, 214, items[0].Index)
	assert.Equal(t, "Overdrive: Drive", items[0].Label)
}

func TestNextPriorState_FoldsAppliedOverPrior(t *testing.T) {
	prior := PriorState{14: 0.3}
	applied := []models.ParamChange{{Index: 14, Value: 0.6}, {Index: 17, Value: 0.0}}
	next := NextPriorState(prior, applied)
	assert.Equal(t, 0.6, next[14])
	assert.Equal(t, 0.0, next[17])
	assert.Equal(t, 0.3, prior[14]) // prior map untouched
}
