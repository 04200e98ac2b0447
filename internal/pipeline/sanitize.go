// Package pipeline implements the deterministic sanitize -> value-resolve ->
// module-consistency clean -> index remap -> diff sequence (§4.5), grounded
// on cleaner.rs's sanitize_params/apply_replace_active_cleaner,
// value_resolver.rs's resolve_value_for_index (tightened to the stricter,
// non-superseded behavior the spec calls out in its Open Questions), and
// diff.rs's diff_params/label_for_index.
package pipeline

import (
	"math"

	"github.com/tonebridge/reaper-sidecar/internal/bridgeerr"
	"github.com/tonebridge/reaper-sidecar/internal/models"
)

// MaxParamIndex is the inclusive upper bound on a valid index (§3 invariant ii).
const MaxParamIndex = models.MaxParamIndex

// Sanitize rejects out-of-range indices and non-finite values, deduplicates
// by index keeping the last occurrence, clamps to [0,1], and preserves the
// order of last occurrences (§4.5 5a). It is a pure function: calling it
// again on its own output returns the same slice (property 2).
func Sanitize(params []models.ParamChange) ([]models.ParamChange, error) {
	lastIndex := make(map[int]int, len(params))
	for i, p := range params {
		if p.Index < 0 || p.Index > MaxParamIndex {
			return nil, bridgeerr.WithIndex(bridgeerr.InvalidValue, "index out of range", p.Index)
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, bridgeerr.WithIndex(bridgeerr.InvalidValue, "non-finite value", p.Index)
		}
		lastIndex[p.Index] = i
	}

	out := make([]models.ParamChange, 0, len(lastIndex))
	seen := make(map[int]bool, len(lastIndex))
	for i, p := range params {
		if lastIndex[p.Index] != i {
			continue
		}
		if seen[p.Index] {
			continue
		}
		seen[p.Index] = true
		out = append(out, models.ParamChange{Index: p.Index, Value: clamp01(p.Value)})
	}

	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
