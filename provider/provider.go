package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/config"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/provider/heuristic"
	ollama_provider "github.com/hreddy742/enterprise-ai-due-diligence-agent/provider/ollama"
	openai_provider "github.com/hreddy742/enterprise-ai-due-diligence-agent/provider/openai"
)

// Client names a language model backend.
type Client string

const (
	Auto      Client = "auto"
	OpenAI    Client = "openai"
	Ollama    Client = "ollama"
	Heuristic Client = "heuristic"
	Hashing   Client = "hashing"
)

// Completer is a text-in, text-out language model. Output is untrusted:
// callers parse it leniently and fall back on anything unusable.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Embedder maps texts to vectors, one per input and in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Model is a backend that both completes and embeds.
type Model interface {
	Completer
	Embedder
}

// ResolveCompleter applies the auto rule: OpenAI when an API key is set,
// otherwise Ollama when a base URL is set, otherwise the heuristic stub.
func ResolveCompleter(cfg config.LLMConfig) Client {
	want := Client(strings.ToLower(strings.TrimSpace(cfg.Provider)))
	if want != "" && want != Auto {
		return want
	}
	switch {
	case strings.TrimSpace(cfg.OpenAI.APIKey) != "":
		return OpenAI
	case strings.TrimSpace(cfg.Ollama.BaseURL) != "":
		return Ollama
	default:
		return Heuristic
	}
}

// NewCompleter builds the language model selected by cfg.
func NewCompleter(cfg config.LLMConfig) (Completer, error) {
	switch c := ResolveCompleter(cfg); c {
	case OpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai completer requires an api key")
		}
		return newOpenAI(cfg), nil
	case Ollama:
		if cfg.Ollama.BaseURL == "" {
			return nil, fmt.Errorf("ollama completer requires a base url")
		}
		return newOllama(cfg), nil
	case Heuristic:
		return heuristic.Completer{}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", c)
	}
}

// ResolveEmbedder applies the same auto rule as ResolveCompleter, falling
// back to the feature-hashing embedder.
func ResolveEmbedder(llm config.LLMConfig, mem config.MemoryConfig) Client {
	want := Client(strings.ToLower(strings.TrimSpace(mem.EmbeddingProvider)))
	if want != "" && want != Auto {
		return want
	}
	switch {
	case strings.TrimSpace(llm.OpenAI.APIKey) != "":
		return OpenAI
	case strings.TrimSpace(llm.Ollama.BaseURL) != "":
		return Ollama
	default:
		return Hashing
	}
}

// NewEmbedder builds the embedding model selected by the memory config.
func NewEmbedder(llm config.LLMConfig, mem config.MemoryConfig) (Embedder, error) {
	switch c := ResolveEmbedder(llm, mem); c {
	case OpenAI:
		if llm.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai embedder requires an api key")
		}
		return newOpenAI(llm), nil
	case Ollama:
		if llm.Ollama.BaseURL == "" {
			return nil, fmt.Errorf("ollama embedder requires a base url")
		}
		return newOllama(llm), nil
	case Hashing:
		return heuristic.HashingEmbedder{Dim: mem.EmbeddingDimensions}, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", c)
	}
}

func newOpenAI(cfg config.LLMConfig) Model {
	return openai_provider.NewOpenAIClient(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.BaseURL,
		cfg.OpenAI.Model,
		cfg.OpenAI.EmbeddingModel,
		cfg.Temperature,
		cfg.OpenAI.MaxTokens,
		cfg.Timeout,
	)
}

func newOllama(cfg config.LLMConfig) Model {
	return ollama_provider.NewOllamaClient(
		cfg.Ollama.BaseURL,
		cfg.Ollama.Model,
		cfg.Ollama.EmbeddingModel,
		cfg.Temperature,
		cfg.Timeout,
	)
}
