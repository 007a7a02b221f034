// Package profile holds startup configuration for the oto server, loaded
// from flags and OTO_* environment variables.
package profile

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the oto server.
type Profile struct {
	// Hosted LLM configuration (OpenAI-compatible protocol). All hosted
	// providers (openai, deepseek, siliconflow, gemini, ollama) share it.
	LLMProvider string // provider identifier
	LLMAPIKey   string
	LLMBaseURL  string // optional; has a default per provider
	LLMModel    string
	LLMTimeout  int // request timeout in seconds (default: 120)

	Mode    string // dev, prod
	Addr    string
	Port    int
	Version string
}

// llmProviderDefaults supplies the base URL and model used when the
// corresponding environment variables are not set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"gemini": {
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
		Model:   "gemini-2.0-flash",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

// IsDev reports whether the server runs in development mode.
func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsHostedAIEnabled reports whether a hosted LLM backend is configured.
// The simulated provider is always available regardless.
func (p *Profile) IsHostedAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// IsGoogleProvider reports whether the configured provider is Google-hosted;
// everything else on the OpenAI-compatible protocol counts as OpenAI-like.
func (p *Profile) IsGoogleProvider() bool {
	return p.LLMProvider == "gemini"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads LLM configuration from environment variables and applies
// provider defaults for anything left unset.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("OTO_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("OTO_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("OTO_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("OTO_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("OTO_AI_LLM_TIMEOUT_SECONDS", 120)

	defaults, ok := llmProviderDefaults[p.LLMProvider]
	if !ok {
		// Any other value is treated as a generic OpenAI-compatible
		// endpoint; base URL and model must then be explicit.
		return
	}
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = defaults.BaseURL
	}
	if p.LLMModel == "" {
		p.LLMModel = defaults.Model
	}
}

// Validate checks the profile for a runnable configuration.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.IsHostedAIEnabled() && p.LLMModel == "" {
		return errors.New("LLM model is required when a hosted provider is configured")
	}
	return nil
}
