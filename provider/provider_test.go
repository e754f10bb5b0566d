package provider

import (
	"testing"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/config"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/provider/heuristic"
)

func TestResolveCompleterAuto(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
		want Client
	}{
		{"openai key wins", config.LLMConfig{Provider: "auto", OpenAI: config.OpenAIConfig{APIKey: "sk"}, Ollama: config.OllamaConfig{BaseURL: "http://o"}}, OpenAI},
		{"ollama when no key", config.LLMConfig{Provider: "auto", Ollama: config.OllamaConfig{BaseURL: "http://o"}}, Ollama},
		{"heuristic otherwise", config.LLMConfig{Provider: "auto"}, Heuristic},
		{"empty means auto", config.LLMConfig{}, Heuristic},
		{"explicit", config.LLMConfig{Provider: "Ollama"}, Ollama},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveCompleter(tt.cfg); got != tt.want {
				t.Fatalf("ResolveCompleter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewCompleter(t *testing.T) {
	c, err := NewCompleter(config.LLMConfig{})
	if err != nil {
		t.Fatalf("NewCompleter: %v", err)
	}
	if _, ok := c.(heuristic.Completer); !ok {
		t.Fatalf("expected heuristic completer, got %T", c)
	}
	if _, err := NewCompleter(config.LLMConfig{Provider: "openai"}); err == nil {
		t.Fatalf("expected error for openai without key")
	}
	if _, err := NewCompleter(config.LLMConfig{Provider: "gemini"}); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
	if _, err := NewCompleter(config.LLMConfig{OpenAI: config.OpenAIConfig{APIKey: "sk"}}); err != nil {
		t.Fatalf("openai completer: %v", err)
	}
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(config.LLMConfig{}, config.MemoryConfig{EmbeddingProvider: "auto", EmbeddingDimensions: 64})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	h, ok := e.(heuristic.HashingEmbedder)
	if !ok || h.Dim != 64 {
		t.Fatalf("expected 64-dim hashing embedder, got %#v", e)
	}
	if got := ResolveEmbedder(config.LLMConfig{Ollama: config.OllamaConfig{BaseURL: "http://o"}}, config.MemoryConfig{}); got != Ollama {
		t.Fatalf("ResolveEmbedder() = %q, want ollama", got)
	}
	if _, err := NewEmbedder(config.LLMConfig{}, config.MemoryConfig{EmbeddingProvider: "openai"}); err == nil {
		t.Fatalf("expected error for openai embedder without key")
	}
}
