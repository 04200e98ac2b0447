// Package probe samples a resolved FX's format function to build the
// metadata tables the pipeline later uses to invert symbolic/unit values,
// grounded on §4.3 and on the sampling shape implied by param_map-style
// curated indices in the original DLL (no standalone probe.rs existed in
// original_source/; the curated-index list and sample counts are carried
// in SPEC_FULL.md's embedded-data plan instead of reverse-engineered here).
package probe

import (
	"sort"

	"github.com/tonebridge/reaper-sidecar/internal/daw"
	"github.com/tonebridge/reaper-sidecar/internal/models"
)

// EnumSampleCounts are the candidate sample densities tried for the enum
// probe, smallest first; the caller picks one based on the expected option
// count for an index (§4.3's "N depends on the expected option count").
var EnumSampleCounts = [3]int{128, 512, 2048}

const defaultMaxOptions = 64
const defaultSampleCount = 11
const minSampleCount = 3
const maxSampleCount = 201

// formatter narrows daw.Capability to the one call the probes need, so tests
// can probe a raw format function without building a whole mock FX.
type formatter func(paramIndex int32, value float32) (string, bool)

func capabilityFormatter(api daw.Capability, track daw.TrackHandle, fxIndex int32) formatter {
	return func(paramIndex int32, value float32) (string, bool) {
		return api.TrackFXFormatParamValue(track, fxIndex, paramIndex, value)
	}
}

// EnumProbe samples n equally-spaced normalized points and collapses
// contiguous identical labels into one EnumOption per run, midpointed on the
// first run of each label, capped at maxOptions.
func EnumProbe(format formatter, paramIndex int32, n, maxOptions int) []models.EnumOption {
	if n <= 1 {
		return nil
	}
	if maxOptions <= 0 {
		maxOptions = defaultMaxOptions
	}

	type sample struct {
		norm  float64
		label string
		ok    bool
	}
	samples := make([]sample, n)
	for i := 0; i < n; i++ {
		norm := float64(i) / float64(n-1)
		label, ok := format(paramIndex, float32(norm))
		samples[i] = sample{norm: norm, label: label, ok: ok}
	}

	var options []models.EnumOption
	seen := make(map[string]bool)
	i := 0
	for i < n {
		if !samples[i].ok {
			i++
			continue
		}
		label := samples[i].label
		runStart := i
		j := i + 1
		for j < n && samples[j].ok && samples[j].label == label {
			j++
		}
		if !seen[label] {
			seen[label] = true
			mid := (samples[runStart].norm + samples[j-1].norm) / 2
			options = append(options, models.EnumOption{Value: mid, Label: label})
			if len(options) >= maxOptions {
				break
			}
		}
		i = j
	}

	return options
}

// TripletProbe reads the formatted display at 0.0, 0.5, 1.0. Returns ok=false
// if all three samples came back empty.
func TripletProbe(format formatter, paramIndex int32) (models.FormatTriplet, bool) {
	minS, okMin := format(paramIndex, 0.0)
	midS, okMid := format(paramIndex, 0.5)
	maxS, okMax := format(paramIndex, 1.0)
	if !okMin && !okMid && !okMax {
		return models.FormatTriplet{}, false
	}
	return models.FormatTriplet{Min: minS, Mid: midS, Max: maxS}, true
}

// SampleProbe records s equally-spaced (norm, formatted) pairs, clamped to
// [3, 201] and defaulting to 11, for later piecewise inversion.
func SampleProbe(format formatter, paramIndex int32, s int) []models.FormatSample {
	if s <= 0 {
		s = defaultSampleCount
	}
	if s < minSampleCount {
		s = minSampleCount
	}
	if s > maxSampleCount {
		s = maxSampleCount
	}

	samples := make([]models.FormatSample, 0, s)
	for i := 0; i < s; i++ {
		norm := float64(i) / float64(s-1)
		formatted, ok := format(paramIndex, float32(norm))
		if !ok {
			continue
		}
		samples = append(samples, models.FormatSample{Norm: norm, Formatted: formatted})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Norm < samples[j].Norm })
	return samples
}

// Result bundles the three probe views for one FX instance, keyed by index.
type Result struct {
	Enums   map[int][]models.EnumOption
	Formats map[int]models.FormatTriplet
	Samples map[int][]models.FormatSample
}

// ProbeIndices runs all three probe views across every index named, using
// an enum sample count chosen by the per-index expected option count (or the
// smallest density when unknown).
func ProbeIndices(api daw.Capability, track daw.TrackHandle, fxIndex int32, indices []int, expectedOptionCount map[int]int) Result {
	format := capabilityFormatter(api, track, fxIndex)
	result := Result{
		Enums:   make(map[int][]models.EnumOption),
		Formats: make(map[int]models.FormatTriplet),
		Samples: make(map[int][]models.FormatSample),
	}

	for _, idx := range indices {
		n := enumSampleCountFor(expectedOptionCount[idx])
		if opts := EnumProbe(format, int32(idx), n, defaultMaxOptions); len(opts) > 0 {
			result.Enums[idx] = opts
		}
		if triplet, ok := TripletProbe(format, int32(idx)); ok {
			result.Formats[idx] = triplet
		}
		if samples := SampleProbe(format, int32(idx), defaultSampleCount); len(samples) > 0 {
			result.Samples[idx] = samples
		}
	}

	return result
}

func enumSampleCountFor(expectedOptions int) int {
	switch {
	case expectedOptions <= 0:
		return EnumSampleCounts[0]
	case expectedOptions <= 16:
		return EnumSampleCounts[0]
	case expectedOptions <= 64:
		return EnumSampleCounts[1]
	default:
		return EnumSampleCounts[2]
	}
}
