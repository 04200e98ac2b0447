package observability

// ModelPricing holds per-1K-token pricing for a model.
type ModelPricing struct {
	InputPricePer1K  float64
	OutputPricePer1K float64
}

// PricingTable covers the two providers wired in internal/llm.
var PricingTable = map[string]ModelPricing{
	"gpt-5.1-mini": {
		InputPricePer1K:  0.0005,
		OutputPricePer1K: 0.0015,
	},
	"gpt-5.1": {
		InputPricePer1K:  0.001,
		OutputPricePer1K: 0.003,
	},
	"gemini-2.5-flash": {
		InputPricePer1K:  0.0003,
		OutputPricePer1K: 0.0025,
	},
}

// CalculateCost returns the USD cost for a completed call.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := PricingTable[model]
	if !ok {
		pricing = PricingTable["gpt-5.1-mini"]
	}
	return (float64(inputTokens)/1000.0)*pricing.InputPricePer1K +
		(float64(outputTokens)/1000.0)*pricing.OutputPricePer1K
}
