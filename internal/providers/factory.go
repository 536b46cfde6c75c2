package providers

import (
	"fmt"
	"os"

	"github.com/ChamsBouzaiene/scout/internal/engine"
)

// Options selects and configures an LLM provider.
type Options struct {
	Provider string // "openai" | "anthropic"
	APIKey   string
	Model    string
	BaseURL  string // OpenAI-compatible gateways only
}

// FromEnv builds provider Options from environment variables, preferring
// LLM_PROVIDER and falling back to openai.
func FromEnv() Options {
	opts := Options{
		Provider: os.Getenv("LLM_PROVIDER"),
	}
	if opts.Provider == "" {
		opts.Provider = "openai"
	}
	switch opts.Provider {
	case "anthropic":
		opts.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		opts.Model = os.Getenv("ANTHROPIC_MODEL")
		if opts.Model == "" {
			opts.Model = "claude-sonnet-4-20250514"
		}
	default:
		opts.APIKey = os.Getenv("OPENAI_API_KEY")
		opts.Model = os.Getenv("OPENAI_MODEL")
		opts.BaseURL = os.Getenv("OPENAI_BASE_URL")
		if opts.Model == "" {
			opts.Model = "gpt-4o"
		}
	}
	return opts
}

// New creates the engine.LLMClient named by opts.Provider.
func New(opts Options) (engine.LLMClient, error) {
	switch opts.Provider {
	case "openai":
		return NewOpenAIClient(opts.APIKey, opts.BaseURL)
	case "anthropic":
		return NewAnthropicClient(opts.APIKey)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", opts.Provider)
	}
}
