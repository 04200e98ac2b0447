package pipeline

import "github.com/tonebridge/reaper-sidecar/internal/models"

// IndexRemap maps a canonical index (the one the LLM/client reasons about)
// to the actual index on the resolved instance, to absorb parameter-layout
// drift across plugin versions (§4.5 5d).
type IndexRemap map[int]int

// Apply rewrites canonical indices to actual indices post-clean. Identity
// entries (actual == canonical) are ignored, matching "Identity entries are
// ignored" in §4.5 5d. Sanitize must be re-run on the result: a remap can
// introduce duplicate indices or push a value out of range.
func (r IndexRemap) Apply(params []models.ParamChange) []models.ParamChange {
	if len(r) == 0 {
		return params
	}
	out := make([]models.ParamChange, len(params))
	for i, p := range params {
		actual, ok := r[p.Index]
		if !ok || actual == p.Index {
			out[i] = p
			continue
		}
		out[i] = models.ParamChange{Index: actual, Value: p.Value}
	}
	return out
}

// Reverse returns the actual->canonical inverse, used by the diff stage to
// look up labels for remapped indices (§4.5 5e: "Indices remapped by 5d are
// reverse-mapped for label lookup"). Later entries win on collision, since a
// well-formed remap is a bijection over its rewritten indices.
func (r IndexRemap) Reverse() IndexRemap {
	out := make(IndexRemap, len(r))
	for canonical, actual := range r {
		if actual == canonical {
			continue
		}
		out[actual] = canonical
	}
	return out
}
