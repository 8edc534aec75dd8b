package ai

import "fmt"

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	// Ollama config
	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3", "mistral"
}

// NewClassifier selects the classifier implementation. The Gemini classifier
// is constructed by the caller and passed in, since pkg/gemini depends on
// this package's types and the import cannot run the other way.
func NewClassifier(cfg Config, gemini Classifier) (Classifier, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if gemini == nil {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return gemini, nil

	case ProviderOllama:
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	default:
		// Auto: Gemini with Ollama fallback when both are available
		ollama := NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel)
		if gemini != nil {
			return NewFallbackService(gemini, ollama), nil
		}
		return ollama, nil
	}
}
