package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tonebridge/reaper-sidecar/internal/bridgeerr"
	"github.com/tonebridge/reaper-sidecar/internal/models"
)

// AmpTypeIndex selects between the amp voicings (0.0=Clean, 0.5=Rust/Crunch,
// 1.0=Hot/Lead), transcribed from system_prompt.rs's "AMP SELECTION" table.
const AmpTypeIndex = 29

// CabTypeSelectorIndex is the cab-type enum the original resolver special-
// cases with "cab1"/"cab2"/"cab3"-style abbreviations.
const CabTypeSelectorIndex = 84

// PanIndices accepts a numeric value in [-1,1] mapped linearly to [0,1]
// instead of requiring [0,1] directly (§4.5 5b), transcribed from the two
// cab-pan controls in system_prompt.rs.
var PanIndices = map[int]bool{90: true, 97: true}

// eqBandRanges lists the three graphic-EQ band ranges (Clean/Rust/Hot),
// transcribed from system_prompt.rs's "GRAPHIC EQ" section.
var eqBandRanges = [][2]int{{54, 62}, {64, 72}, {74, 82}}

func isEQBandIndex(index int) bool {
	for _, r := range eqBandRanges {
		if index >= r[0] && index <= r[1] {
			return true
		}
	}
	return false
}

// ResolveContext bundles the probed metadata a value-resolve needs: enum
// labels, formatted triplets, and dense samples for piecewise inversion.
type ResolveContext struct {
	Enums   map[int][]models.EnumOption
	Formats map[int]models.FormatTriplet
	Samples map[int][]models.FormatSample
}

// point is one (physical, norm) pair used for piecewise inversion.
type point struct {
	physical float64
	norm     float64
}

// invertPiecewise mirrors value_resolver.rs's invert_piecewise: sort by
// physical value, dedupe near-duplicates, saturate outside the range, and
// linearly interpolate within the containing segment otherwise.
func invertPiecewise(points []point, target float64) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	pts := make([]point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].physical < pts[j].physical })

	deduped := pts[:1]
	for _, p := range pts[1:] {
		if p.physical-deduped[len(deduped)-1].physical < 1e-6 {
			continue
		}
		deduped = append(deduped, p)
	}
	pts = deduped

	min := pts[0]
	max := pts[len(pts)-1]
	if target <= min.physical {
		return min.norm, true
	}
	if target >= max.physical {
		return max.norm, true
	}

	for i := 0; i < len(pts)-1; i++ {
		x0, y0 := pts[i].physical, pts[i].norm
		x1, y1 := pts[i+1].physical, pts[i+1].norm
		if target < x0 || target > x1 {
			continue
		}
		if x1-x0 < 1e-6 {
			return y0, true
		}
		t := (target - x0) / (x1 - x0)
		return clamp01(y0 + t*(y1-y0)), true
	}
	return 0, false
}

var floatPrefixPattern = regexp.MustCompile(`[-+]?\d+(\.\d+)?`)

// extractFloatPrefix pulls the first signed float-like token out of s,
// tolerating a trailing or leading unit suffix ("−30 dB", "1.2kHz").
func extractFloatPrefix(s string) (float64, bool) {
	match := floatPrefixPattern.FindString(s)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isPhysicalTriplet decides whether a FormatTriplet's min/max describe a
// physical unit range (e.g. dB, Hz) rather than a plain 0..1-ish display,
// per §4.5 5b: "treat a triplet as physical only when its min/max span
// exceeds [-0.5, 1.5]".
func isPhysicalTriplet(t models.FormatTriplet) (minV, maxV float64, ok bool) {
	minV, okMin := extractFloatPrefix(t.Min)
	maxV, okMax := extractFloatPrefix(t.Max)
	if !okMin || !okMax {
		return 0, 0, false
	}
	if minV >= -0.5 && minV <= 1.5 && maxV >= -0.5 && maxV <= 1.5 {
		return 0, 0, false
	}
	return minV, maxV, true
}

func tripletPoints(t models.FormatTriplet) ([]point, bool) {
	minV, maxV, ok := isPhysicalTriplet(t)
	if !ok {
		return nil, false
	}
	midV, okMid := extractFloatPrefix(t.Mid)
	if !okMid {
		return []point{{minV, 0}, {maxV, 1}}, true
	}
	return []point{{minV, 0}, {midV, 0.5}, {maxV, 1}}, true
}

func samplePoints(samples []models.FormatSample) []point {
	pts := make([]point, 0, len(samples))
	for _, s := range samples {
		if v, ok := extractFloatPrefix(s.Formatted); ok {
			pts = append(pts, point{physical: v, norm: s.Norm})
		}
	}
	return pts
}

func resolveNumericPhysical(ctx ResolveContext, index int, target float64) (float64, bool) {
	if samples, ok := ctx.Samples[index]; ok {
		if pts := samplePoints(samples); len(pts) > 0 {
			if v, ok := invertPiecewise(pts, target); ok {
				return v, true
			}
		}
	}
	if triplet, ok := ctx.Formats[index]; ok {
		if pts, ok := tripletPoints(triplet); ok {
			if v, ok := invertPiecewise(pts, target); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func resolveNumeric(ctx ResolveContext, index int, v float64) (float64, error) {
	if v >= 0 && v <= 1 {
		return v, nil
	}
	if PanIndices[index] && v >= -1 && v <= 1 {
		return (v + 1) / 2, nil
	}
	if resolved, ok := resolveNumericPhysical(ctx, index, v); ok {
		return resolved, nil
	}
	return 0, bridgeerr.WithIndex(bridgeerr.InvalidValue,
		fmt.Sprintf("numeric value %v out of range and no inversion data available", v), index)
}

func resolveBooleanish(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "enabled":
		return 1.0, true
	case "off", "false", "no", "disabled":
		return 0.0, true
	}
	return 0, false
}

func resolveAmpType(s string) (float64, bool) {
	switch strings.ToLower(normalizeWS(s)) {
	case "clean", "the clean":
		return 0.0, true
	case "crunch", "the crunch", "rust":
		return 0.5, true
	case "lead", "the lead", "hot":
		return 1.0, true
	}
	return 0, false
}

func normalizeWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolveEnumLabel(ctx ResolveContext, index int, s string) (float64, bool) {
	opts, ok := ctx.Enums[index]
	if !ok {
		return 0, false
	}
	norm := normalizeWS(strings.TrimSpace(s))
	for _, opt := range opts {
		if strings.EqualFold(strings.TrimSpace(opt.Label), norm) {
			return opt.Value, true
		}
	}
	if index == CabTypeSelectorIndex {
		if v, ok := resolveCabAbbreviation(opts, norm); ok {
			return v, true
		}
	}
	return 0, false
}

func resolveCabAbbreviation(opts []models.EnumOption, s string) (float64, bool) {
	lookup := func(label string) (float64, bool) {
		for _, opt := range opts {
			if strings.EqualFold(opt.Label, label) {
				return opt.Value, true
			}
		}
		return 0, false
	}
	switch strings.ToLower(strings.ReplaceAll(s, " ", "")) {
	case "cab1", "cleancab":
		return lookup("Cab 1")
	case "cab2", "crunchcab":
		return lookup("Cab 2")
	case "cab3", "leadcab":
		return lookup("Cab 3")
	}
	return 0, false
}

var percentPattern = regexp.MustCompile(`^([-+]?\d+(\.\d+)?)\s*%$`)

func resolvePercent(s string) (float64, bool) {
	m := percentPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return clamp01(v / 100.0), true
}

const eqBandFallbackMinDB = -12.0
const eqBandFallbackMaxDB = 12.0

func resolveDB(ctx ResolveContext, index int, s string) (float64, bool) {
	lower := strings.ToLower(s)
	if !strings.Contains(lower, "db") {
		return 0, false
	}
	db, ok := extractFloatPrefix(lower)
	if !ok {
		return 0, false
	}

	if samples, ok := ctx.Samples[index]; ok {
		var pts []point
		for _, smp := range samples {
			fl := strings.ToLower(smp.Formatted)
			if !strings.Contains(fl, "db") {
				continue
			}
			if v, ok := extractFloatPrefix(fl); ok {
				pts = append(pts, point{physical: v, norm: smp.Norm})
			}
		}
		if len(pts) > 0 {
			if v, ok := invertPiecewise(pts, db); ok {
				return v, true
			}
		}
	}

	if isEQBandIndex(index) {
		return clamp01((db - eqBandFallbackMinDB) / (eqBandFallbackMaxDB - eqBandFallbackMinDB)), true
	}

	if triplet, ok := ctx.Formats[index]; ok {
		if pts, ok := tripletPoints(triplet); ok {
			if v, ok := invertPiecewise(pts, db); ok {
				return v, true
			}
		}
	}

	return 0, false
}

func hasInversionData(ctx ResolveContext, index int) bool {
	if s, ok := ctx.Samples[index]; ok && len(s) > 0 {
		return true
	}
	if t, ok := ctx.Formats[index]; ok {
		if _, ok := isPhysicalTriplet(t); ok {
			return true
		}
	}
	return false
}

var msPattern = regexp.MustCompile(`(?i)^([-+]?\d+(\.\d+)?)\s*ms$`)
var secPattern = regexp.MustCompile(`(?i)^([-+]?\d+(\.\d+)?)\s*s$`)
var hzPattern = regexp.MustCompile(`(?i)^([-+]?\d+(\.\d+)?)\s*khz$`)
var hzOnlyPattern = regexp.MustCompile(`(?i)^([-+]?\d+(\.\d+)?)\s*hz$`)
var bpmPattern = regexp.MustCompile(`(?i)^([-+]?\d+(\.\d+)?)\s*bpm$`)

func resolveUnitRequiringInversion(ctx ResolveContext, index int, s string, pattern *regexp.Regexp, unit string) (float64, bool, error) {
	m := pattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false, nil
	}
	if !hasInversionData(ctx, index) {
		return 0, true, bridgeerr.WithIndex(bridgeerr.InvalidValue,
			fmt.Sprintf("%s value %q requires inversion data not available for this index", unit, s), index)
	}
	target, _ := strconv.ParseFloat(m[1], 64)
	var pts []point
	if samples, ok := ctx.Samples[index]; ok {
		pts = samplePoints(samples)
	}
	if len(pts) == 0 {
		if triplet, ok := ctx.Formats[index]; ok {
			pts, _ = tripletPoints(triplet)
		}
	}
	v, ok := invertPiecewise(pts, target)
	if !ok {
		return 0, true, bridgeerr.WithIndex(bridgeerr.InvalidValue,
			fmt.Sprintf("%s value %q could not be inverted", unit, s), index)
	}
	return v, true, nil
}

// ResolveValue converts one loose AiParamChange.Value into a normalized
// [0,1] float, per the unit-inference rules of §4.5 5b.
func ResolveValue(ctx ResolveContext, index int, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return resolveNumeric(ctx, index, v)
	case int:
		return resolveNumeric(ctx, index, float64(v))
	case string:
		return resolveStringValue(ctx, index, v)
	default:
		return 0, bridgeerr.WithIndex(bridgeerr.InvalidValue,
			fmt.Sprintf("unsupported value type %T", value), index)
	}
}

func resolveStringValue(ctx ResolveContext, index int, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, bridgeerr.WithIndex(bridgeerr.InvalidValue, "empty string value", index)
	}

	if v, ok := resolveBooleanish(s); ok {
		return v, nil
	}
	if index == AmpTypeIndex {
		if v, ok := resolveAmpType(s); ok {
			return v, nil
		}
	}
	if v, ok := resolveEnumLabel(ctx, index, s); ok {
		return v, nil
	}
	if v, ok := resolvePercent(s); ok {
		return v, nil
	}
	if strings.EqualFold(s, "flat") && isEQBandIndex(index) {
		return 0.5, nil
	}
	if v, ok := resolveDB(ctx, index, s); ok {
		return v, nil
	}
	if v, handled, err := resolveUnitRequiringInversion(ctx, index, s, msPattern, "millisecond"); handled {
		return v, err
	}
	if v, handled, err := resolveUnitRequiringInversion(ctx, index, s, secPattern, "second"); handled {
		return v, err
	}
	if v, handled, err := resolveUnitRequiringInversion(ctx, index, s, hzPattern, "kilohertz"); handled {
		return v, err
	}
	if v, handled, err := resolveUnitRequiringInversion(ctx, index, s, hzOnlyPattern, "hertz"); handled {
		return v, err
	}
	if v, handled, err := resolveUnitRequiringInversion(ctx, index, s, bpmPattern, "bpm"); handled {
		return v, err
	}

	return 0, bridgeerr.WithIndex(bridgeerr.InvalidValue,
		fmt.Sprintf("could not resolve string value %q", s), index)
}

// ResolveAll resolves every AiParamChange in order, preserving length on
// success (property 4): one input change yields one output change.
func ResolveAll(ctx ResolveContext, params []models.AiParamChange) ([]models.ParamChange, error) {
	out := make([]models.ParamChange, 0, len(params))
	for _, p := range params {
		v, err := ResolveValue(ctx, p.Index, p.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ParamChange{Index: p.Index, Value: v})
	}
	return out, nil
}
