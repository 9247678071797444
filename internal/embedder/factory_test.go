package embedder

import (
	"errors"
	"testing"

	"github.com/Foundup/Foundups-Agent-sub010/internal/config"
)

func TestNewFromConfigLocal(t *testing.T) {
	emb, err := NewFromConfig(config.EmbeddingConfig{
		Provider:  "local",
		Dimension: 64,
	})
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	defer emb.Close()

	if emb.Provider() != ProviderLocal {
		t.Errorf("Provider() = %s, want %s", emb.Provider(), ProviderLocal)
	}
	if emb.Dimension() != 64 {
		t.Errorf("Dimension() = %d, want 64", emb.Dimension())
	}
}

func TestNewFromConfigOpenAI(t *testing.T) {
	emb, err := NewFromConfig(config.EmbeddingConfig{
		Provider: "openai",
		OpenAI: config.OpenAIConfig{
			APIKey: "sk-test",
			Model:  "text-embedding-3-large",
		},
		Dimension: 1536,
	})
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	defer emb.Close()

	if emb.Provider() != ProviderOpenAI {
		t.Errorf("Provider() = %s, want %s", emb.Provider(), ProviderOpenAI)
	}
	if emb.Model() != "text-embedding-3-large" {
		t.Errorf("Model() = %s", emb.Model())
	}
}

func TestNewFromConfigOpenAIRequiresKey(t *testing.T) {
	_, err := NewFromConfig(config.EmbeddingConfig{Provider: "openai"})
	if !errors.Is(err, ErrNoProviderEnabled) {
		t.Errorf("Expected ErrNoProviderEnabled, got %v", err)
	}
}

func TestNewFromConfigUnknownProvider(t *testing.T) {
	_, err := NewFromConfig(config.EmbeddingConfig{Provider: "quantum"})
	if !errors.Is(err, ErrNoProviderEnabled) {
		t.Errorf("Expected ErrNoProviderEnabled, got %v", err)
	}
}
