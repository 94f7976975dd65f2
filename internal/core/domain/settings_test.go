package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 3001, s.Server.Port)
	assert.Equal(t, AIProviderOllama, s.Embedding.Provider)
	assert.True(t, s.Search.RequireWiki)
	assert.True(t, s.Ingest.ReingestPolicy.IsValid())
}

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.True(t, AIProviderAnthropic.IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_SupportsEmbedding(t *testing.T) {
	assert.True(t, AIProviderOllama.SupportsEmbedding())
	assert.True(t, AIProviderOpenAI.SupportsEmbedding())
	assert.False(t, AIProviderAnthropic.SupportsEmbedding())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	s := DefaultSettings().Embedding
	assert.True(t, s.IsConfigured())

	// Anthropic has no embedding endpoint.
	s.Provider = AIProviderAnthropic
	assert.False(t, s.IsConfigured())

	s = DefaultSettings().Embedding
	s.Provider = AIProviderOpenAI
	s.APIKey = ""
	assert.False(t, s.IsConfigured())

	s.APIKey = "sk-test"
	assert.True(t, s.IsConfigured())
}

func TestWikiSettings_IsConfigured(t *testing.T) {
	s := DefaultSettings().Wiki
	assert.True(t, s.IsConfigured())

	s.Provider = AIProviderAnthropic
	s.APIKey = ""
	assert.False(t, s.IsConfigured())

	s.APIKey = "sk-ant-test"
	assert.True(t, s.IsConfigured())
}

func TestReingestPolicy_IsValid(t *testing.T) {
	assert.True(t, ReingestReject.IsValid())
	assert.True(t, ReingestPreempt.IsValid())
	assert.False(t, ReingestPolicy("queue").IsValid())
}
