package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonebridge/reaper-sidecar/internal/bridgeerr"
	"github.com/tonebridge/reaper-sidecar/internal/models"
)

func emptyContext() ResolveContext {
	return ResolveContext{
		Enums:   map[int][]models.EnumOption{},
		Formats: map[int]models.FormatTriplet{},
		Samples: map[int][]models.FormatSample{},
	}
}

func TestResolveValue_NumericInRange(t *testing.T) {
	v, err := ResolveValue(emptyContext(), 10, 0.42)
	require.NoError(t, err)
	assert.Equal(t, 0.42, v)
}

func TestResolveValue_PanIndexMapsFromBipolar(t *testing.T) {
	v, err := ResolveValue(emptyContext(), 90, -1.0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = ResolveValue(emptyContext(), 97, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = ResolveValue(emptyContext(), 90, 0.0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
}

func TestResolveValue_NonPanNumericOutOfRangeFailsWithoutInversionData(t *testing.T) {
	_, err := ResolveValue(emptyContext(), 10, 5.0)
	require.Error(t, err)
	var bErr *bridgeerr.Error
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, bridgeerr.InvalidValue, bErr.Code)
}

func TestResolveValue_NumericViaSampleInversion(t *testing.T) {
	ctx := emptyContext()
	ctx.Samples[108] = []models.FormatSample{
		{Norm: 0.0, Formatted: "1 ms"},
		{Norm: 0.5, Formatted: "500 ms"},
		{Norm: 1.0, Formatted: "1000 ms"},
	}
	v, err := ResolveValue(ctx, 108, 250.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-6)
}

func TestResolveValue_NumericViaPhysicalTriplet(t *testing.T) {
	ctx := emptyContext()
	ctx.Formats[115] = models.FormatTriplet{Min: "0.1 s", Mid: "1.0 s", Max: "5.0 s"}
	v, err := ResolveValue(ctx, 115, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-6)
}

func TestResolveValue_NonPhysicalTripletLooksLikeNormalized(t *testing.T) {
	ctx := emptyContext()
	ctx.Formats[5] = models.FormatTriplet{Min: "0.00", Mid: "0.50", Max: "1.00"}
	_, err := ResolveValue(ctx, 5, 2.0)
	require.Error(t, err)
}

func TestResolveValue_BooleanStrings(t *testing.T) {
	for _, s := range []string{"on", "TRUE", "Yes", "enabled"} {
		v, err := ResolveValue(emptyContext(), 4, s)
		require.NoError(t, err)
		assert.Equal(t, 1.0, v)
	}
	for _, s := range []string{"off", "FALSE", "No", "disabled"} {
		v, err := ResolveValue(emptyContext(), 4, s)
		require.NoError(t, err)
		assert.Equal(t, 0.0, v)
	}
}

func TestResolveValue_AmpSelectorByFamilyName(t *testing.T) {
	cases := map[string]float64{
		"Clean":      0.0,
		"the crunch": 0.5,
		"Hot":        1.0,
		"rust":       0.5,
		"Lead":       1.0,
	}
	for s, want := range cases {
		v, err := ResolveValue(emptyContext(), AmpTypeIndex, s)
		require.NoError(t, err, s)
		assert.Equal(t, want, v, s)
	}
}

func TestResolveValue_EnumLabel(t *testing.T) {
	ctx := emptyContext()
	ctx.Enums[84] = []models.EnumOption{
		{Value: 0.0, Label: "Cab 1"},
		{Value: 0.5, Label: "Cab 2"},
		{Value: 1.0, Label: "Cab 3"},
	}
	v, err := ResolveValue(ctx, 84, "cab 2")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	v, err = ResolveValue(ctx, 84, "cab1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestResolveValue_Percent(t *testing.T) {
	v, err := ResolveValue(emptyContext(), 11, "75%")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, v, 1e-9)

	v, err = ResolveValue(emptyContext(), 11, "150%")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestResolveValue_FlatOnEQBandIndex(t *testing.T) {
	v, err := ResolveValue(emptyContext(), 60, "flat")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	_, err = ResolveValue(emptyContext(), 10, "flat")
	require.Error(t, err)
}

func TestResolveValue_DBFallbackOnEQBand(t *testing.T) {
	v, err := ResolveValue(emptyContext(), 60, "-6 dB")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-9)

	v, err = ResolveValue(emptyContext(), 60, "0 dB")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)
}

func TestResolveValue_DBViaSampleInversion(t *testing.T) {
	ctx := emptyContext()
	ctx.Samples[106] = []models.FormatSample{
		{Norm: 0.0, Formatted: "-96 dB"},
		{Norm: 1.0, Formatted: "0 dB"},
	}
	v, err := ResolveValue(ctx, 106, "-48 dB")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-6)
}

func TestResolveValue_TimeUnitsRequireInversionData(t *testing.T) {
	_, err := ResolveValue(emptyContext(), 108, "250 ms")
	require.Error(t, err)

	ctx := emptyContext()
	ctx.Samples[108] = []models.FormatSample{
		{Norm: 0.0, Formatted: "1 ms"},
		{Norm: 1.0, Formatted: "1000 ms"},
	}
	v, err := ResolveValue(ctx, 108, "500.5 ms")
	require.NoError(t, err)
	assert.True(t, v > 0 && v < 1)
}

func TestResolveValue_HzAndBpmRequireInversionData(t *testing.T) {
	_, err := ResolveValue(emptyContext(), 22, "2 Hz")
	require.Error(t, err)
	_, err = ResolveValue(emptyContext(), 22, "1.5 kHz")
	require.Error(t, err)
	_, err = ResolveValue(emptyContext(), 22, "120 bpm")
	require.Error(t, err)
}

func TestResolveValue_UnrecognizedStringFails(t *testing.T) {
	_, err := ResolveValue(emptyContext(), 10, "banana")
	require.Error(t, err)
}

func TestResolveAll_PreservesLengthAndOrder(t *testing.T) {
	ctx := emptyContext()
	params := []models.AiParamChange{
		{Index: 1, Value: 0.2},
		{Index: 2, Value: "on"},
		{Index: AmpTypeIndex, Value: "Hot"},
	}
	out, err := ResolveAll(ctx, params)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, 0.2, out[0].Value)
	assert.Equal(t, 1.0, out[1].Value)
	assert.Equal(t, 1.0, out[2].Value)
}

func TestResolveAll_FailsFastOnFirstInvalid(t *testing.T) {
	ctx := emptyContext()
	params := []models.AiParamChange{
		{Index: 1, Value: 0.2},
		{Index: 2, Value: "banana"},
	}
	_, err := ResolveAll(ctx, params)
	require.Error(t, err)
}
