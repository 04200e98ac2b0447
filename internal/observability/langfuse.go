// Package observability traces the client driver's LLM call (token usage,
// cost, reasoning) to Langfuse, adapted from the teacher's
// internal/observability/langfuse.go with the OpenAI-response-struct
// convenience method generalized to any provider's usage numbers.
package observability

import (
	"context"
	"log"

	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"
	"github.com/tonebridge/reaper-sidecar/internal/config"
)

// LangfuseClient wraps the Langfuse client with our configuration.
type LangfuseClient struct {
	client  *langfuse.Langfuse
	enabled bool
	ctx     context.Context
}

var globalClient *LangfuseClient

// InitializeLangfuse initializes the global Langfuse client.
func InitializeLangfuse(ctx context.Context, cfg *config.Config) *LangfuseClient {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" {
		log.Println("langfuse not configured (LANGFUSE_ENABLED=false or LANGFUSE_SECRET_KEY unset)")
		globalClient = &LangfuseClient{enabled: false, ctx: ctx}
		return globalClient
	}

	lf := langfuse.New(ctx)
	globalClient = &LangfuseClient{client: lf, enabled: true, ctx: ctx}
	log.Printf("langfuse initialized (host: %s)", cfg.LangfuseHost)
	return globalClient
}

// GetClient returns the global Langfuse client.
func GetClient() *LangfuseClient {
	if globalClient == nil {
		return &LangfuseClient{enabled: false, ctx: context.Background()}
	}
	return globalClient
}

// IsEnabled reports whether Langfuse is configured and usable.
func (c *LangfuseClient) IsEnabled() bool {
	return c.enabled && c.client != nil
}

// StartTrace starts a new trace for one tone-request round trip.
func (c *LangfuseClient) StartTrace(ctx context.Context, name string, metadata map[string]interface{}) *Trace {
	if !c.IsEnabled() {
		return &Trace{enabled: false, ctx: ctx}
	}

	trace, err := c.client.Trace(&model.Trace{Name: name, Metadata: metadata})
	if err != nil {
		log.Printf("langfuse: failed to create trace: %v", err)
		return &Trace{enabled: false, ctx: ctx}
	}

	return &Trace{trace: trace, enabled: true, ctx: ctx, client: c.client}
}

// Trace represents a Langfuse trace for one tone request.
type Trace struct {
	trace   *model.Trace
	enabled bool
	ctx     context.Context
	client  *langfuse.Langfuse
}

// LogProposal records the LLM call as a generation within the trace.
func (t *Trace) LogProposal(providerName, modelName, userPrompt, reasoning string, inputTokens, outputTokens int) {
	if !t.enabled {
		return
	}

	cost := CalculateCost(modelName, inputTokens, outputTokens)
	gen, err := t.client.Generation(&model.Generation{
		TraceID: t.trace.ID,
		Name:    "tone_proposal",
		Model:   modelName,
		Input:   userPrompt,
		Output:  reasoning,
		Usage: model.Usage{
			Input:     inputTokens,
			Output:    outputTokens,
			Total:     inputTokens + outputTokens,
			Unit:      model.ModelUsageUnitTokens,
			TotalCost: cost,
		},
		Metadata: map[string]interface{}{"provider": providerName, "cost_usd": cost},
	}, nil)
	if err != nil {
		log.Printf("langfuse: failed to log generation: %v", err)
		return
	}
	if _, err := t.client.GenerationEnd(gen); err != nil {
		log.Printf("langfuse: failed to end generation: %v", err)
	}
}

// Finish flushes the trace's batched events to Langfuse.
func (t *Trace) Finish() {
	if t.enabled && t.client != nil {
		t.client.Flush(t.ctx)
	}
}
