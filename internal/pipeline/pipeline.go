package pipeline

import "github.com/tonebridge/reaper-sidecar/internal/models"

// Input bundles everything one pipeline run needs (§4.5): the merge mode,
// the loose proposal from the LLM, the probed metadata for the resolved
// instance, any index remap, and the cached prior state to diff against.
type Input struct {
	Mode    models.MergeMode
	Params  []models.AiParamChange
	Context ResolveContext
	Remap   IndexRemap
	Prior   PriorState
}

// Output is the result of one full pipeline run: the final write set ready
// for the DAW, the diff against the prior state, and the prior state to
// retain for the next run.
type Output struct {
	Applied   []models.ParamChange
	Diff      []models.DiffItem
	NextPrior PriorState
}

// Run executes the deterministic sanitize -> value-resolve -> clean -> remap
// -> diff sequence (§4.5). It is a pure function of its Input: the same
// Input always produces the same Output, and running Sanitize again on the
// Applied result is a no-op (property 2).
func Run(in Input) (Output, error) {
	resolved, err := ResolveAll(in.Context, in.Params)
	if err != nil {
		return Output{}, err
	}

	sanitized, err := Sanitize(resolved)
	if err != nil {
		return Output{}, err
	}

	cleaned := CleanReplaceActive(in.Mode, sanitized)

	remapped := in.Remap.Apply(cleaned)
	remapped, err = Sanitize(remapped)
	if err != nil {
		return Output{}, err
	}

	diffItems := Diff(in.Prior, remapped, in.Remap.Reverse())

	return Output{
		Applied:   remapped,
		Diff:      diffItems,
		NextPrior: NextPriorState(in.Prior, remapped),
	}, nil
}
