// Package llm defines the narrow contract this system needs from an LLM
// provider (§6.3): given a prompt, return a structured tone proposal or an
// error. The concrete HTTP clients' retry/backoff internals are explicitly
// out of scope (§1) — these adapters make exactly one structured-output
// call per Propose.
package llm

import "context"

// Provider is the external-collaborator contract for a tone-request LLM.
type Provider interface {
	// Propose asks the model to turn a natural-language tone request (plus
	// an optional preamble carrying ENUM_OPTIONS_JSON=/FORMATTED_VALUE_TRIPLETS_JSON=/
	// PARAM_FORMAT_SAMPLES_JSON= metadata blocks, §6.3) into a ToneProposal.
	Propose(ctx context.Context, systemPrompt, userPrompt string) (*ToneProposal, error)

	// Name returns the provider name ("openai", "gemini").
	Name() string
}

// ToneProposal is the LLM's structured output (§6.3): free-text reasoning
// plus the loose parameter list the pipeline (§4.5) is the sole consumer of.
type ToneProposal struct {
	Reasoning string              `json:"reasoning"`
	Params    []AiParamChangeWire `json:"params"`
}

// AiParamChangeWire mirrors models.AiParamChange's wire shape; kept local to
// this package so JSON-schema construction doesn't need to import models.
type AiParamChangeWire struct {
	Index int         `json:"index"`
	Value interface{} `json:"value"`
}

// ToneProposalSchema is the JSON Schema describing ToneProposal, passed to
// both providers' structured-output modes.
func ToneProposalSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reasoning": map[string]any{"type": "string"},
			"params": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"index": map[string]any{"type": "integer"},
						"value": map[string]any{
							"anyOf": []any{
								map[string]any{"type": "number"},
								map[string]any{"type": "string"},
							},
						},
					},
					"required":             []string{"index", "value"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"reasoning", "params"},
		"additionalProperties": false,
	}
}
