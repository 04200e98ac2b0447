package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/tonebridge/reaper-sidecar/internal/logger"
)

const providerNameOpenAI = "openai"

// OpenAIProvider implements Provider using OpenAI's Responses API with a
// strict JSON-schema text format, trimmed from the teacher's full CFG/MCP/
// streaming surface down to the one call this contract needs.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: &client, model: "gpt-5.1-mini"}
}

func (p *OpenAIProvider) Name() string { return providerNameOpenAI }

func (p *OpenAIProvider) Propose(ctx context.Context, systemPrompt, userPrompt string) (*ToneProposal, error) {
	start := time.Now()
	transaction := sentry.StartTransaction(ctx, "openai.propose")
	defer transaction.Finish()
	transaction.SetTag("model", p.model)

	schema := ToneProposalSchema()
	resp, err := p.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: p.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(systemPrompt, responses.EasyInputMessageRoleDeveloper),
				responses.ResponseInputItemParamOfMessage(userPrompt, responses.EasyInputMessageRoleUser),
			},
		},
		ParallelToolCalls: openai.Bool(false),
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema("tone_proposal", schema),
		},
	})
	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai propose: %w", err)
	}

	var proposal ToneProposal
	if err := json.Unmarshal([]byte(resp.OutputText()), &proposal); err != nil {
		return nil, fmt.Errorf("openai propose: decode output: %w", err)
	}

	logger.Info("openai tone proposal", logger.Fields{
		"duration_ms": time.Since(start).Milliseconds(),
		"params":      len(proposal.Params),
	})

	return &proposal, nil
}
