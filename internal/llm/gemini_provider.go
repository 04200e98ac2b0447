package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/tonebridge/reaper-sidecar/internal/logger"
	"google.golang.org/genai"
)

const providerNameGemini = "gemini"

// GeminiProvider implements Provider using Google's genai SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: "gemini-2.5-flash"}, nil
}

func (p *GeminiProvider) Name() string { return providerNameGemini }

func (p *GeminiProvider) Propose(ctx context.Context, systemPrompt, userPrompt string) (*ToneProposal, error) {
	start := time.Now()
	transaction := sentry.StartTransaction(ctx, "gemini.propose")
	defer transaction.Finish()
	transaction.SetTag("model", p.model)

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    toneProposalGeminiSchema(),
	}

	contents := []*genai.Content{{Parts: []*genai.Part{{Text: userPrompt}}, Role: "user"}}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("gemini propose: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini propose: empty response")
	}
	textOutput := result.Candidates[0].Content.Parts[0].Text

	var proposal ToneProposal
	if err := json.Unmarshal([]byte(textOutput), &proposal); err != nil {
		return nil, fmt.Errorf("gemini propose: decode output: %w", err)
	}

	logger.Info("gemini tone proposal", logger.Fields{
		"duration_ms": time.Since(start).Milliseconds(),
		"params":      len(proposal.Params),
	})

	return &proposal, nil
}

// toneProposalGeminiSchema builds the genai.Schema mirror of ToneProposalSchema.
// Gemini's SDK wants its own typed Schema rather than a raw JSON-Schema map.
func toneProposalGeminiSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"reasoning": {Type: genai.TypeString},
			"params": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"index": {Type: genai.TypeInteger},
						"value": {Type: genai.TypeString},
					},
					Required: []string{"index", "value"},
				},
			},
		},
		Required: []string{"reasoning", "params"},
	}
}
