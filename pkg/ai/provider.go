package ai

import (
	"fmt"
	"strings"
)

// ProviderConfig selects and configures one of the supported providers.
type ProviderConfig struct {
	Provider string
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
}

// NewCompleter returns the completer for the configured provider.
func NewCompleter(cfg ProviderConfig) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai", "gpt":
		return NewOpenAICompleter(cfg.OpenAI)
	case "gemini", "google":
		return NewGeminiCompleter(cfg.Gemini)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
