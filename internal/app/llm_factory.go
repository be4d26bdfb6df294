package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/xpanvictor/intervox/internal/config"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/assistant"
	geminiAdapter "github.com/xpanvictor/intervox/pkg/assistant/adapters/gemini"
	ollamaAdapter "github.com/xpanvictor/intervox/pkg/assistant/adapters/ollama"
	geminiProvider "github.com/xpanvictor/intervox/pkg/assistant/providers/gemini"
	ollamaProvider "github.com/xpanvictor/intervox/pkg/assistant/providers/ollama"
	"github.com/xpanvictor/intervox/pkg/assistant/router"
)

const (
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderGemini   = "gemini"
	ProviderScripted = "scripted"
)

// LLMRouterFactory builds the assistant router from configuration.
// assistant.provider is a comma separated list: the first entry is primary,
// the rest are fallbacks tried in order.
type LLMRouterFactory struct {
	config config.AssistantConfig
	logger *Logger.Logger
	// closers for provider clients holding connections
	closers []func() error
}

// NewLLMRouterFactory creates a new LLM router factory
func NewLLMRouterFactory(cfg config.AssistantConfig, logger *Logger.Logger) *LLMRouterFactory {
	return &LLMRouterFactory{
		config: cfg,
		logger: Logger.OrNop(logger),
	}
}

// Providers returns the configured provider names in failover order.
func (f *LLMRouterFactory) Providers() []string {
	var names []string
	for _, p := range strings.Split(f.config.Provider, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// CreateRouter creates an LLM router with configured providers
func (f *LLMRouterFactory) CreateRouter(ctx context.Context) (*router.Mux, error) {
	var packs []router.AdapterPack
	for _, name := range f.Providers() {
		adapter, err := f.createAdapter(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s adapter: %w", name, err)
		}
		packs = append(packs, router.AdapterPack{Adapter: adapter, Name: name})
	}

	if len(packs) == 0 {
		return nil, fmt.Errorf("no LLM adapters configured")
	}

	f.logger.Infof("LLM router created with %d adapter(s): %v", len(packs), f.Providers())
	return router.New(packs...), nil
}

func (f *LLMRouterFactory) createAdapter(ctx context.Context, name string) (assistant.Assistant, error) {
	switch name {
	case ProviderOpenAI:
		if f.config.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("assistant.openai_api_key is not set")
		}
		model := f.config.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return assistant.NewOpenAI(assistant.OpenAIConfig{
			APIKey:  f.config.OpenAIAPIKey,
			BaseURL: f.config.OpenAIURL,
			Model:   model,
		}), nil
	case ProviderOllama:
		if len(f.config.OllamaURLs) == 0 {
			return nil, fmt.Errorf("assistant.ollama_urls is empty")
		}
		provider := ollamaProvider.New(f.config.OllamaURLs, f.logger)
		f.logger.Infof("Ollama adapter created for URLs: %v", provider.URLs())
		return ollamaAdapter.New(provider, f.config.Model), nil
	case ProviderGemini:
		provider, err := geminiProvider.New(ctx, f.config.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		f.closers = append(f.closers, provider.Close)
		return geminiAdapter.New(provider, f.config.Model), nil
	case ProviderScripted:
		// no replies: every call fails and the interview falls back to
		// its built in question bank
		return assistant.NewScripted(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// Close releases provider clients.
func (f *LLMRouterFactory) Close() error {
	var first error
	for _, c := range f.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	f.closers = nil
	return first
}
