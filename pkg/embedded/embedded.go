// Package embedded carries the sidecar's static parameter-layout tables as
// go:embed JSON data, following the teacher's pkg/embedded pattern of
// compiling reference data into the binary rather than reading it from disk
// at runtime. The tables themselves (module bypass/params sets, section
// toggles, diff labels, curated probe indices) are transcribed from
// param_map.rs/cleaner.rs/diff.rs in original_source/gojira_brain_ui, which
// is where the prose of spec §4.3/§4.5 ("a curated list of indices",
// "modules are statically declared", "label is looked up in a static table")
// bottoms out into concrete numbers.
package embedded

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed data/modules.json
var modulesJSON []byte

//go:embed data/param_labels.json
var paramLabelsJSON []byte

//go:embed data/sections.json
var sectionsJSON []byte

//go:embed data/probe_indices.json
var probeIndicesJSON []byte

// ModuleDef is one statically declared module (§4.5 5c): bypass holds the
// toggle indices that enable/disable it, params holds every index that
// belongs to it including its own bypasses.
type ModuleDef struct {
	Key     string `json:"key"`
	Bypass  []int  `json:"bypass"`
	Params  []int  `json:"params"`
}

// SectionDef names one hierarchical hint (§4.5 5c.3): when any index in
// Range is present in a write set, Toggle should be forced to 1.0 unless
// already present explicitly.
type SectionDef struct {
	Key    string `json:"key"`
	Toggle int    `json:"toggle"`
	Range  [2]int `json:"range"`
}

// ProbeIndexSpec is one curated index the metadata probe sweeps, with an
// optional hint for how many enum options to expect (tunes the sample
// density chosen in internal/probe).
type ProbeIndexSpec struct {
	Index           int `json:"index"`
	ExpectedOptions int `json:"expected_options"`
}

// Modules returns the statically declared module list, decoded once.
func Modules() []ModuleDef {
	var out []ModuleDef
	if err := json.Unmarshal(modulesJSON, &out); err != nil {
		panic(fmt.Sprintf("embedded: invalid modules.json: %v", err))
	}
	return out
}

// ParamLabels returns the index->label table used by the diff stage (5e).
func ParamLabels() map[int]string {
	var raw map[string]string
	if err := json.Unmarshal(paramLabelsJSON, &raw); err != nil {
		panic(fmt.Sprintf("embedded: invalid param_labels.json: %v", err))
	}
	out := make(map[int]string, len(raw))
	for k, v := range raw {
		var idx int
		if _, err := fmt.Sscanf(k, "%d", &idx); err != nil {
			panic(fmt.Sprintf("embedded: invalid param_labels.json key %q: %v", k, err))
		}
		out[idx] = v
	}
	return out
}

// Sections returns the hierarchical section-toggle hints.
func Sections() []SectionDef {
	var out []SectionDef
	if err := json.Unmarshal(sectionsJSON, &out); err != nil {
		panic(fmt.Sprintf("embedded: invalid sections.json: %v", err))
	}
	return out
}

// ProbeIndices returns the curated indices the metadata probe sweeps.
func ProbeIndices() []ProbeIndexSpec {
	var out []ProbeIndexSpec
	if err := json.Unmarshal(probeIndicesJSON, &out); err != nil {
		panic(fmt.Sprintf("embedded: invalid probe_indices.json: %v", err))
	}
	return out
}
