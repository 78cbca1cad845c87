package models

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterModel creates a model routed through OpenRouter. Name reports
// "openrouter/<model>" while requests carry the bare model id.
func NewOpenRouterModel(ctx context.Context, modelName string, cfg *genai.ClientConfig) (model.LLM, error) {
	m, err := newOpenAICompatible(fmt.Sprintf("openrouter/%s", modelName), modelName, cfg, "openrouter-go", openRouterBaseURL)
	if err != nil {
		return nil, err
	}
	return m, nil
}
