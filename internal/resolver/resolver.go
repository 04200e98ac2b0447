// Package resolver scans a project for target-plugin FX instances and
// resolves a stable fx_guid back to a (track, slot) pair, grounded on
// resolver.rs's scan_project_instances/resolve_fx pair and on the
// name-normalization idiom in plugin_agent.go's
// extractBaseName/splitCamelCase helpers.
package resolver

import (
	"strings"

	"github.com/tonebridge/reaper-sidecar/internal/bridgeerr"
	"github.com/tonebridge/reaper-sidecar/internal/daw"
	"github.com/tonebridge/reaper-sidecar/internal/models"
)

// Target names the brand and family tokens a discovered FX name must contain
// to be classified as an instance of the controlled plugin (§4.2). Both are
// matched against the normalized name (lowercased alphanumerics only).
type Target struct {
	BrandTokens  []string
	FamilyTokens []string
}

// normalize reduces a raw FX display name to lowercased alphanumerics, the
// same fold resolver.rs's normalize() performs before substring matching.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		lower := unicodeToLowerASCII(r)
		if lower >= 'a' && lower <= 'z' {
			b.WriteRune(lower)
		}
	}
	return b.String()
}

func unicodeToLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func containsAny(normalized string, tokens []string) bool {
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if strings.Contains(normalized, t) {
			return true
		}
	}
	return false
}

// Classify returns the confidence for a raw FX display name against target,
// or "" (zero value) if neither brand nor family tokens are present.
func Classify(fxName string, target Target) models.Confidence {
	n := normalize(fxName)
	hasFamily := containsAny(n, target.FamilyTokens)
	if !hasFamily {
		return ""
	}
	if containsAny(n, target.BrandTokens) {
		return models.ConfidenceHigh
	}
	return models.ConfidenceLow
}

// Scan walks every track's FX chain in the given project, classifying each
// by name against target, and returns the discovered instances plus the
// fx_guid lookup table the main loop caches between ticks.
func Scan(api daw.Capability, project int32, target Target) ([]models.PluginInstance, models.FxLookup) {
	var instances []models.PluginInstance
	lookup := make(models.FxLookup)

	trackCount := api.CountTracks(project)
	for ti := int32(0); ti < trackCount; ti++ {
		track, ok := api.GetTrack(project, ti)
		if !ok {
			continue
		}
		trackGUID, ok := api.TrackGUID(track)
		if !ok {
			continue
		}
		trackName := api.TrackName(track)

		fxCount := api.TrackFXCount(track)
		for fi := int32(0); fi < fxCount; fi++ {
			fxName := api.TrackFXName(track, fi)
			confidence := Classify(fxName, target)
			if confidence == "" {
				continue
			}
			fxGUID, ok := api.TrackFXGUID(track, fi)
			if !ok {
				continue
			}

			lookup[fxGUID] = models.FxLookupEntry{TrackGUID: trackGUID, Slot: int(fi)}
			instances = append(instances, models.PluginInstance{
				TrackGUID:     trackGUID,
				TrackName:     trackName,
				FxGUID:        fxGUID,
				FxName:        fxName,
				LastKnownSlot: int(fi),
				Confidence:    confidence,
			})
		}
	}

	return instances, lookup
}

// findTrackByGUID linearly re-scans tracks looking for a matching GUID,
// mirroring resolver.rs's find_track_by_guid used by the rescan fallback.
func findTrackByGUID(api daw.Capability, project int32, trackGUID string) (daw.TrackHandle, bool) {
	trackCount := api.CountTracks(project)
	for ti := int32(0); ti < trackCount; ti++ {
		track, ok := api.GetTrack(project, ti)
		if !ok {
			continue
		}
		guid, ok := api.TrackGUID(track)
		if ok && guid == trackGUID {
			return track, true
		}
	}
	return 0, false
}

func verifyFxGUID(api daw.Capability, track daw.TrackHandle, slot int32, targetFxGUID string) bool {
	guid, ok := api.TrackFXGUID(track, slot)
	return ok && guid == targetFxGUID
}

// Resolve maps a target fx_guid to its current (track, slot), verifying the
// cache entry by reading the live FX GUID and falling back to a single full
// rescan on mismatch or absence (§4.2). cache is mutated in place on rescan.
func Resolve(api daw.Capability, project int32, target Target, cache models.FxLookup, targetFxGUID string) (daw.TrackHandle, int32, error) {
	if entry, ok := cache[targetFxGUID]; ok {
		if track, ok := findTrackByGUID(api, project, entry.TrackGUID); ok {
			if verifyFxGUID(api, track, int32(entry.Slot), targetFxGUID) {
				return track, int32(entry.Slot), nil
			}
		}
	}

	_, fresh := Scan(api, project, target)
	for k := range cache {
		delete(cache, k)
	}
	for k, v := range fresh {
		cache[k] = v
	}

	if entry, ok := cache[targetFxGUID]; ok {
		track, ok := findTrackByGUID(api, project, entry.TrackGUID)
		if !ok {
			return 0, 0, bridgeerr.New(bridgeerr.TargetNotFound, "track for cached fx_guid no longer present")
		}
		if verifyFxGUID(api, track, int32(entry.Slot), targetFxGUID) {
			return track, int32(entry.Slot), nil
		}
	}

	return 0, 0, bridgeerr.New(bridgeerr.TargetNotFound, "fx_guid not found after rescan")
}

// ScanAll enumerates every open project tab, supplementing the single-project
// scan/resolve contract of §4.2 with multi-project discovery the way
// reaper_api.rs's count_projects/get_track family implies the DAW host can
// expose more than one project tab at once.
func ScanAll(api daw.Capability, target Target) map[int32][]models.PluginInstance {
	result := make(map[int32][]models.PluginInstance)
	projectCount := api.CountProjects()
	for p := int32(0); p < projectCount; p++ {
		instances, _ := Scan(api, p, target)
		if len(instances) > 0 {
			result[p] = instances
		}
	}
	return result
}
