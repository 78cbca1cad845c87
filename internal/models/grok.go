package models

import (
	"context"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const grokBaseURL = "https://api.x.ai/v1"

// NewGrokModel creates a Grok model through the x.ai OpenAI compatible API.
// modelName selects the Grok model (e.g. "grok-3", "grok-2-1212").
func NewGrokModel(ctx context.Context, modelName string, cfg *genai.ClientConfig) (model.LLM, error) {
	m, err := newOpenAICompatible(modelName, modelName, cfg, "grok-go", grokBaseURL)
	if err != nil {
		return nil, err
	}
	return m, nil
}
