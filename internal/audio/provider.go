package audio

import (
	"context"
	"fmt"
)

// Provider defines the interface for local text-to-speech providers used in
// direct mode, when speech is synthesized on this machine instead of by the
// backend.
type Provider interface {
	// Synthesize generates audio for text and saves it to outputFile.
	Synthesize(ctx context.Context, text string, outputFile string) error

	// Name returns the provider name.
	Name() string

	// IsAvailable checks if the provider is properly configured.
	IsAvailable() error
}

// Config holds configuration for direct-mode audio providers.
type Config struct {
	Provider     string // "openai" or "espeak"
	OutputFormat string // "mp3" or "wav"

	// OpenAI-specific settings
	OpenAIKey   string
	OpenAIModel string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice string  // "alloy", "nova", "shimmer", ...
	OpenAISpeed float64 // 0.25 to 4.0
}

// DefaultConfig returns default direct-mode configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:     "openai",
		OutputFormat: "mp3",
		OpenAIModel:  "gpt-4o-mini-tts",
		OpenAIVoice:  "alloy",
		OpenAISpeed:  1.0,
	}
}

// NewProvider creates the appropriate audio provider based on configuration.
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)
	case "espeak":
		return NewESpeakProvider(config), nil
	default:
		return nil, fmt.Errorf("unknown audio provider: %s", config.Provider)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option.
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
}

// NewProviderWithFallback creates a provider that falls back to secondary if
// primary fails.
func NewProviderWithFallback(primary, fallback Provider) Provider {
	return &ProviderWithFallback{primary: primary, fallback: fallback}
}

// Synthesize tries the primary provider first, falling back on error.
func (p *ProviderWithFallback) Synthesize(ctx context.Context, text string, outputFile string) error {
	if err := p.primary.Synthesize(ctx, text, outputFile); err != nil {
		return p.fallback.Synthesize(ctx, text, outputFile)
	}
	return nil
}

// Name returns the provider name.
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available.
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}
	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}
	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
