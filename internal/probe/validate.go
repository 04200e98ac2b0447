package probe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tonebridge/reaper-sidecar/internal/daw"
)

// AnchorSpec names one expected toggle-style parameter the validator checks
// for drift: the index it was curated at, and the substring(s) its name is
// expected to still contain.
type AnchorSpec struct {
	Key           string
	Index         int32
	NameContains  []string
	MixSearchFrom int32
	MixSearchTo   int32
}

// ValidationStatus is one entry's verdict, mirrored on the wire as the
// validation_report string values (§6.2).
type ValidationStatus string

const (
	StatusOK       ValidationStatus = "ok"
	StatusDrifted  ValidationStatus = "drifted"
	StatusUnprobed ValidationStatus = "unprobed"
)

func normalizeLoose(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r >= 'A' && r <= 'Z' {
			b.WriteRune(r - 'A' + 'a')
		}
	}
	return b.String()
}

// Validate checks each curated anchor against the live parameter-name table,
// flagging drift when a plugin update has shifted parameter layout, adapted
// from validator.rs's anchor_report/pick_mix_near pair into the three-valued
// "ok"/"drifted"/"unprobed" status the wire protocol expects instead of the
// original's free-text messages.
func Validate(api daw.Capability, track daw.TrackHandle, fxIndex int32, anchors []AnchorSpec) map[string]string {
	report := make(map[string]string)

	for _, a := range anchors {
		name, ok := api.TrackFXParamName(track, fxIndex, a.Index)
		if !ok {
			report[a.Key] = string(StatusUnprobed)
			continue
		}
		n := normalizeLoose(name)
		if containsAnyLoose(n, a.NameContains) {
			report[a.Key] = string(StatusOK)
		} else {
			report[a.Key] = string(StatusDrifted)
		}

		if a.MixSearchFrom != 0 || a.MixSearchTo != 0 {
			mixKey := a.Key + "_mix"
			if idx, found := pickMixNear(api, track, fxIndex, a.Index, a.MixSearchFrom, a.MixSearchTo); found {
				report[mixKey] = fmt.Sprintf("%s:%d", StatusOK, idx)
			} else {
				report[mixKey] = string(StatusUnprobed)
			}
		}
	}

	return report
}

func containsAnyLoose(normalized string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(normalized, normalizeLoose(t)) {
			return true
		}
	}
	return false
}

type mixCandidate struct {
	index int32
	dist  int32
}

// pickMixNear finds the "mix" parameter closest to anchor within [from, to],
// tie-breaking toward a neighbor that mentions "feedback" or "time" — the
// same heuristic validator.rs applies to disambiguate delay/reverb mix slots
// that drift differently across plugin versions.
func pickMixNear(api daw.Capability, track daw.TrackHandle, fxIndex, anchor, from, to int32) (int32, bool) {
	var candidates []mixCandidate
	for idx := from; idx <= to; idx++ {
		name, ok := api.TrackFXParamName(track, fxIndex, idx)
		if !ok {
			continue
		}
		if strings.Contains(normalizeLoose(name), "mix") {
			dist := idx - anchor
			if dist < 0 {
				dist = -dist
			}
			candidates = append(candidates, mixCandidate{index: idx, dist: dist})
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	best := candidates[0].dist
	var tied []int32
	for _, c := range candidates {
		if c.dist == best {
			tied = append(tied, c.index)
		}
	}
	if len(tied) == 1 {
		return tied[0], true
	}

	for _, idx := range tied {
		for _, neighbor := range [2]int32{idx - 1, idx + 1} {
			name, ok := api.TrackFXParamName(track, fxIndex, neighbor)
			if !ok {
				continue
			}
			ns := normalizeLoose(name)
			if strings.Contains(ns, "feedback") || strings.Contains(ns, "time") {
				return idx, true
			}
		}
	}

	return tied[0], true
}
