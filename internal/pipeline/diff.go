package pipeline

import (
	"github.com/tonebridge/reaper-sidecar/internal/models"
	"github.com/tonebridge/reaper-sidecar/pkg/embedded"
)

// PriorState is the per-fx_guid cached prior write set the diff stage
// compares against (§4.5 5e). The sidecar keeps one of these alive per
// resolved instance for the life of a session.
type PriorState map[int]float64

var paramLabelsOnce struct {
	labels map[int]string
}

func paramLabels() map[int]string {
	if paramLabelsOnce.labels == nil {
		paramLabelsOnce.labels = embedded.ParamLabels()
	}
	return paramLabelsOnce.labels
}

const genericLabel = "Param"

// labelForIndex looks up the diff label for an actual index, reverse-mapping
// through remap when present so the label matches the canonical index the
// static table was built against (§4.5 5e).
func labelForIndex(index int, reverse IndexRemap) string {
	canonical := index
	if reverse != nil {
		if c, ok := reverse[index]; ok {
			canonical = c
		}
	}
	if label, ok := paramLabels()[canonical]; ok {
		return label
	}
	return genericLabel
}

// Diff computes DiffItems between a prior write set and the newly applied
// params, transcribed from diff.rs's diff_params. Every index present in
// either side with a differing (or newly-present/newly-absent) value
// produces one DiffItem; indices with an unchanged value are omitted.
func Diff(prior PriorState, applied []models.ParamChange, reverse IndexRemap) []models.DiffItem {
	out := make([]models.DiffItem, 0, len(applied))
	seen := make(map[int]bool, len(applied))

	for _, p := range applied {
		seen[p.Index] = true
		old, hadOld := prior[p.Index]
		newV := p.Value
		if hadOld && old == newV {
			continue
		}
		item := models.DiffItem{
			Label: labelForIndex(p.Index, reverse),
			Index: p.Index,
			New:   &newV,
		}
		if hadOld {
			oldCopy := old
			item.Old = &oldCopy
		}
		out = append(out, item)
	}

	return out
}

// NextPriorState folds the newly applied params into the prior state, for
// the sidecar to retain as the next diff's baseline.
func NextPriorState(prior PriorState, applied []models.ParamChange) PriorState {
	out := make(PriorState, len(prior)+len(applied))
	for k, v := range prior {
		out[k] = v
	}
	for _, p := range applied {
		out[p.Index] = p.Value
	}
	return out
}
