// Package config loads process configuration from the environment, the way
// the teacher's internal/config/config.go does.
package config

import (
	"os"
	"strconv"
)

// Config holds the bridge's process configuration.
type Config struct {
	// WebSocket control port (§6.2)
	WSHost string
	WSPort int

	// Ops HTTP surface (health/metrics), separate from the control port
	HealthPort int

	// Pipeline limits (§3)
	MaxParamIndex int

	// Watchdog debounce (§4.4)
	ProjectChangedDebounceMS int

	// LLM provider credentials (external collaborators, §1)
	OpenAIAPIKey string
	GeminiAPIKey string

	// Observability
	SentryDSN         string
	LangfusePublicKey string
	LangfuseSecretKey string
	LangfuseHost      string
	LangfuseEnabled   bool

	// Optional CloudWatch metric export
	CloudWatchNamespace string

	Environment string
}

func Load() *Config {
	return &Config{
		WSHost:                   getEnv("WS_HOST", "127.0.0.1"),
		WSPort:                   getEnvInt("WS_PORT", 9001),
		HealthPort:               getEnvInt("HEALTH_PORT", 8089),
		MaxParamIndex:            getEnvInt("MAX_PARAM_INDEX", 4096),
		ProjectChangedDebounceMS: getEnvInt("PROJECT_CHANGED_DEBOUNCE_MS", 500),
		OpenAIAPIKey:             getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:             getEnv("GEMINI_API_KEY", ""),
		SentryDSN:                getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:        getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:        getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:             getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:          getEnv("LANGFUSE_ENABLED", "false") == "true",
		CloudWatchNamespace:      getEnv("AWS_CLOUDWATCH_NAMESPACE", ""),
		Environment:              getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

// CloudWatchEnabled reports whether CloudWatch metric export should be
// attempted (namespace configured).
func (c *Config) CloudWatchEnabled() bool {
	return c.CloudWatchNamespace != ""
}
