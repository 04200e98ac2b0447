package pipeline

import (
	"github.com/tonebridge/reaper-sidecar/internal/models"
	"github.com/tonebridge/reaper-sidecar/pkg/embedded"
)

// CleanReplaceActive applies the module-consistency "replace-active" clean
// (§4.5 5c), transcribed from cleaner.rs's apply_replace_active_cleaner but
// driven by the embedded modules/sections tables instead of hardcoded
// constants.
//
// For every statically declared module, a module is "touched" when the
// input contains at least one of its non-bypass param indices. Untouched
// modules get their bypass indices appended at 0.0, unless that index is
// already present in the input. Hierarchical section toggles (EQ bands,
// cab mics) are forced to 1.0 when any index in their dependent range is
// touched, but never overwrite an explicit value already present.
//
// CleanReplaceActive is only applied under models.MergeModeReplaceActive;
// models.MergeModeMerge passes params through unchanged (§4.5 5c, §8 C5).
func CleanReplaceActive(mode models.MergeMode, params []models.ParamChange) []models.ParamChange {
	if mode != models.MergeModeReplaceActive {
		return params
	}

	present := make(map[int]bool, len(params))
	for _, p := range params {
		present[p.Index] = true
	}

	out := make([]models.ParamChange, len(params))
	copy(out, params)

	for _, mod := range embedded.Modules() {
		if moduleTouched(mod, present) {
			continue
		}
		for _, b := range mod.Bypass {
			if present[b] {
				continue
			}
			out = append(out, models.ParamChange{Index: b, Value: 0.0})
			present[b] = true
		}
	}

	for _, sec := range embedded.Sections() {
		if present[sec.Toggle] {
			continue
		}
		if rangeTouched(sec.Range, present) {
			out = append(out, models.ParamChange{Index: sec.Toggle, Value: 1.0})
			present[sec.Toggle] = true
		}
	}

	return out
}

func moduleTouched(mod embedded.ModuleDef, present map[int]bool) bool {
	bypass := make(map[int]bool, len(mod.Bypass))
	for _, b := range mod.Bypass {
		bypass[b] = true
	}
	for _, idx := range mod.Params {
		if bypass[idx] {
			continue
		}
		if present[idx] {
			return true
		}
	}
	return false
}

func rangeTouched(r [2]int, present map[int]bool) bool {
	for idx := range present {
		if idx >= r[0] && idx <= r[1] {
			return true
		}
	}
	return false
}
