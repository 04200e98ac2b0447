package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonebridge/reaper-sidecar/internal/models"
)

func TestRun_FullSequence_ReplaceActive(t *testing.T) {
	ctx := emptyContext()
	in := Input{
		Mode: models.MergeModeReplaceActive,
		Params: []models.AiParamChange{
			{Index: 14, Value: 0.7},
			{Index: 15, Value: "60%"},
		},
		Context: ctx,
		Prior:   PriorState{14: 0.2, 17: 0.0},
	}

	out, err := Run(in)
	require.NoError(t, err)

	set := indexSet(out.Applied)
	assert.Equal(t, 0.7, set[14])
	assert.InDelta(t, 0.6, set[15], 1e-9)
	assert.Equal(t, 0.0, set[17]) // distortion untouched, replace-active clean forces bypass

	var driveDiff *models.DiffItem
	for i := range out.Diff {
		if out.Diff[i].Index == 14 {
			driveDiff = &out.Diff[i]
		}
	}
	require.NotNil(t, driveDiff)
	require.NotNil(t, driveDiff.Old)
	assert.Equal(t, 0.2, *driveDiff.Old)
	assert.Equal(t, 0.7, *driveDiff.New)

	assert.Equal(t, 0.7, out.NextPrior[14])
}

func TestRun_MergeMode_SkipsReplaceActiveClean(t *testing.T) {
	ctx := emptyContext()
	in := Input{
		Mode:    models.MergeModeMerge,
		Params:  []models.AiParamChange{{Index: 14, Value: 0.7}},
		Context: ctx,
		Prior:   PriorState{},
	}

	out, err := Run(in)
	require.NoError(t, err)
	require.Len(t, out.Applied, 1)
	assert.Equal(t, 14, out.Applied[0].Index)
}

func TestRun_RemapRewritesBeforeDiff(t *testing.T) {
	ctx := emptyContext()
	in := Input{
		Mode:    models.MergeModeMerge,
		Params:  []models.AiParamChange{{Index: 14, Value: 0.7}},
		Context: ctx,
		Remap:   IndexRemap{14: 214},
		Prior:   PriorState{214: 0.1},
	}

	out, err := Run(in)
	require.NoError(t, err)
	require.Len(t, out.Applied, 1)
	assert.Equal(t, 214, out.Applied[0].Index)
	require.Len(t, out.Diff, 1)
	assert.Equal(t, "Overdrive: Drive", out.Diff[0].Label)
}

func TestRun_PropagatesResolveError(t *testing.T) {
	ctx := emptyContext()
	in := Input{
		Mode:    models.MergeModeMerge,
		Params:  []models.AiParamChange{{Index: 14, Value: "banana"}},
		Context: ctx,
		Prior:   PriorState{},
	}
	_, err := Run(in)
	require.Error(t, err)
}

func TestRun_SanitizeIsIdempotentOnOutput(t *testing.T) {
	ctx := emptyContext()
	in := Input{
		Mode:    models.MergeModeReplaceActive,
		Params:  []models.AiParamChange{{Index: 14, Value: 0.7}},
		Context: ctx,
		Prior:   PriorState{},
	}
	out, err := Run(in)
	require.NoError(t, err)

	again, err := Sanitize(out.Applied)
	require.NoError(t, err)
	assert.ElementsMatch(t, out.Applied, again)
}
