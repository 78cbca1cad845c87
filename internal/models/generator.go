package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/easeaico/finadvisor/internal/utils"
)

// Providers accepted by NewModel.
const (
	ProviderOpenAI     = "openai"
	ProviderGrok       = "grok"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// ErrGeneration wraps every failure to produce a reply.
var ErrGeneration = errors.New("generation failed")

// Params are the sampling parameters for one generation.
type Params struct {
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// DefaultParams match the advisor's tuning.
func DefaultParams() Params {
	return Params{Temperature: 0.7, MaxTokens: 800, TopP: 0.9}
}

// NewModel builds the model.LLM for provider.
func NewModel(ctx context.Context, provider, modelName, apiKey string) (model.LLM, error) {
	cfg := &genai.ClientConfig{APIKey: apiKey}
	switch strings.ToLower(provider) {
	case "", ProviderOpenAI:
		return NewOpenAIModel(ctx, modelName, cfg)
	case ProviderGrok:
		return NewGrokModel(ctx, modelName, cfg)
	case ProviderOpenRouter:
		return NewOpenRouterModel(ctx, modelName, cfg)
	case ProviderGemini:
		cfg.Backend = genai.BackendGeminiAPI
		return gemini.NewModel(ctx, modelName, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// Generator turns a system prompt and a user message into reply text.
type Generator struct {
	llm model.LLM
}

// NewGenerator wraps llm.
func NewGenerator(llm model.LLM) *Generator {
	return &Generator{llm: llm}
}

// Name returns the underlying model name.
func (g *Generator) Name() string {
	return g.llm.Name()
}

// Generate runs a single non-streaming completion. Empty output is an error.
func (g *Generator) Generate(ctx context.Context, system, user string, p Params) (string, error) {
	if g == nil || g.llm == nil {
		return "", fmt.Errorf("%w: model not configured", ErrGeneration)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(p.Temperature)),
		TopP:        genai.Ptr(float32(p.TopP)),
	}
	if p.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.MaxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, "")
	}
	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText(user, "user")},
		Config:   cfg,
	}

	seq := g.llm.GenerateContent(ctx, req, false)
	var resp *model.LLMResponse
	var err error
	seq(func(r *model.LLMResponse, e error) bool {
		resp = r
		err = e
		return false
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	if resp.ErrorCode != "" {
		return "", fmt.Errorf("%w: %s: %s", ErrGeneration, resp.ErrorCode, resp.ErrorMessage)
	}

	text := strings.TrimSpace(utils.ExtractContentText(resp.Content))
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	return text, nil
}
