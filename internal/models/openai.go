// Package models adapts LLM providers to the ADK model.LLM interface and
// wraps them in a plain text generator.
package models

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"runtime"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/finadvisor/internal/utils"
)

const openAIBaseURL = "https://api.openai.com/v1"

// openaiModel wraps an OpenAI compatible chat completions client.
type openaiModel struct {
	client             *openai.Client
	name               string
	apiModel           string
	versionHeaderValue string
}

// NewOpenAIModel returns an OpenAI chat model.
func NewOpenAIModel(ctx context.Context, modelName string, cfg *genai.ClientConfig) (model.LLM, error) {
	m, err := newOpenAICompatible(modelName, modelName, cfg, "openai-go", openAIBaseURL)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newOpenAICompatible(name, apiModel string, cfg *genai.ClientConfig, agent, defaultBaseURL string) (*openaiModel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if apiModel == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	baseURL := defaultBaseURL
	if cfg.HTTPOptions.BaseURL != "" {
		baseURL = cfg.HTTPOptions.BaseURL
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(1),
	)

	headerValue := fmt.Sprintf("%s/%s go/%s", agent, "1.0.0", strings.TrimPrefix(runtime.Version(), "go"))

	return &openaiModel{
		name:               name,
		apiModel:           apiModel,
		client:             &client,
		versionHeaderValue: headerValue,
	}, nil
}

func (m *openaiModel) Name() string {
	return m.name
}

// GenerateContent always yields a single complete response; stream is
// accepted for interface compatibility.
func (m *openaiModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *openaiModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	params := buildOpenAIParams(req, m.apiModel)
	if len(params.Messages) == 0 {
		return nil, fmt.Errorf("request has no messages")
	}

	resp, err := m.client.Chat.Completions.New(ctx, params, option.WithHeader("User-Agent", m.versionHeaderValue))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("context cancelled: %w", err)
		}
		slog.Error("failed to call llm API", "model", m.name, "error", err.Error())
		return nil, fmt.Errorf("failed to call %s API: %w", m.name, err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return &model.LLMResponse{TurnComplete: true}, nil
	}

	choice := resp.Choices[0]
	content := &genai.Content{Role: "model"}
	if choice.Message.Content != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: choice.Message.Content})
	}

	if choice.FinishReason == "length" {
		slog.Warn("llm response truncated by max tokens", "model", m.name)
	}
	return &model.LLMResponse{Content: content, TurnComplete: true}, nil
}

// buildOpenAIParams converts an ADK request to chat completion parameters.
func buildOpenAIParams(req *model.LLMRequest, apiModel string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{Model: apiModel}
	if req.Model != "" {
		params.Model = req.Model
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.Config != nil {
		if system := utils.ExtractContentText(req.Config.SystemInstruction); system != "" {
			messages = append(messages, openai.SystemMessage(system))
		}
		if req.Config.Temperature != nil {
			params.Temperature = openai.Float(float64(*req.Config.Temperature))
		}
		if req.Config.MaxOutputTokens > 0 {
			params.MaxTokens = openai.Int(int64(req.Config.MaxOutputTokens))
		}
		if req.Config.TopP != nil {
			params.TopP = openai.Float(float64(*req.Config.TopP))
		}
	}
	params.Messages = append(messages, convertContentsToMessages(req.Contents)...)
	return params
}

// convertContentsToMessages maps genai roles onto chat roles.
func convertContentsToMessages(contents []*genai.Content) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, content := range contents {
		if content == nil {
			continue
		}
		text := utils.ExtractContentText(content)
		switch content.Role {
		case "model":
			messages = append(messages, openai.AssistantMessage(text))
		case "system":
			messages = append(messages, openai.SystemMessage(text))
		default:
			messages = append(messages, openai.UserMessage(text))
		}
	}
	return messages
}
