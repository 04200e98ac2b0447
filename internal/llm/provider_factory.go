package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderFactory dispatches to a concrete Provider by model-name prefix,
// mirroring the teacher's provider_factory.go.
type ProviderFactory struct {
	openaiAPIKey string
	geminiAPIKey string
}

func NewProviderFactory(openaiAPIKey, geminiAPIKey string) *ProviderFactory {
	return &ProviderFactory{openaiAPIKey: openaiAPIKey, geminiAPIKey: geminiAPIKey}
}

// GetProvider returns the appropriate provider for the given model name.
func (f *ProviderFactory) GetProvider(ctx context.Context, model string) (Provider, error) {
	modelLower := strings.ToLower(model)

	if strings.HasPrefix(modelLower, "gemini") {
		if f.geminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		return NewGeminiProvider(ctx, f.geminiAPIKey)
	}

	if f.openaiAPIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}
	return NewOpenAIProvider(f.openaiAPIKey), nil
}
