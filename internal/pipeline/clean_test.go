package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonebridge/reaper-sidecar/internal/models"
)

func indexSet(params []models.ParamChange) map[int]float64 {
	out := make(map[int]float64, len(params))
	for _, p := range params {
		out[p.Index] = p.Value
	}
	return out
}

func TestCleanReplaceActive_MergeModeIsNoOp(t *testing.T) {
	in := []models.ParamChange{{Index: 14, Value: 0.6}}
	out := CleanReplaceActive(models.MergeModeMerge, in)
	assert.Equal(t, in, out)
}

func TestCleanReplaceActive_UntouchedModulesGetBypassedAtZero(t *testing.T) {
	in := []models.ParamChange{{Index: 14, Value: 0.6}} // overdrive: touched
	out := CleanReplaceActive(models.MergeModeReplaceActive, in)
	set := indexSet(out)

	assert.Equal(t, 0.6, set[14])
	// overdrive bypass (13) should NOT be forced off, since the module is touched.
	if v, ok := set[13]; ok {
		assert.NotEqual(t, 0.0, v)
	}
	// distortion untouched -> bypass forced to 0.
	assert.Equal(t, 0.0, set[17])
	// octaver untouched -> bypass forced to 0.
	assert.Equal(t, 0.0, set[8])
}

func TestCleanReplaceActive_DoesNotOverwriteExplicitBypass(t *testing.T) {
	in := []models.ParamChange{{Index: 17, Value: 1.0}} // distortion bypass explicitly on
	out := CleanReplaceActive(models.MergeModeReplaceActive, in)
	set := indexSet(out)
	assert.Equal(t, 1.0, set[17])
}

func TestCleanReplaceActive_SectionToggleForcedWhenDependentTouched(t *testing.T) {
	in := []models.ParamChange{{Index: 58, Value: 0.7}} // an eq_clean band
	out := CleanReplaceActive(models.MergeModeReplaceActive, in)
	set := indexSet(out)

	assert.Equal(t, 1.0, set[53]) // eq_clean toggle forced on
	assert.Equal(t, 1.0, set[52]) // eq_any toggle forced on
}

func TestCleanReplaceActive_SectionToggleNotOverwrittenWhenExplicit(t *testing.T) {
	in := []models.ParamChange{
		{Index: 58, Value: 0.7},
		{Index: 53, Value: 0.0}, // explicitly off despite a touched band
	}
	out := CleanReplaceActive(models.MergeModeReplaceActive, in)
	set := indexSet(out)
	assert.Equal(t, 0.0, set[53])
}

func TestCleanReplaceActive_PitchAndWowShareAModuleWithoutSpecialCasing(t *testing.T) {
	// wow_pitch module: bypass [3,4], params [3,4,6]. Touching 6 alone
	// (pitch amount) should leave module touched without any bypass special-case.
	in := []models.ParamChange{{Index: 6, Value: 0.3}}
	out := CleanReplaceActive(models.MergeModeReplaceActive, in)
	set := indexSet(out)
	assert.Equal(t, 0.3, set[6])
	_, bypassForced := set[3]
	assert.False(t, bypassForced)
	_, activeForced := set[4]
	assert.False(t, activeForced)
}
