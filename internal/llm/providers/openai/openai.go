// internal/llm/providers/openai/openai.go
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/Corphon/ContinuityGuard/internal/llm"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

func init() {
	llm.Register("openai", func() llm.Provider {
		return &Provider{
			name:         "OpenAI",
			defaultModel: "gpt-4o-2024-08-06",
			recommendedModels: []string{
				"gpt-4o-2024-08-06",
				"gpt-4o-mini",
				"gpt-4.1",
				"gpt-4.1-mini",
			},
		}
	})

	// OpenRouter speaks the same wire protocol
	llm.Register("openrouter", func() llm.Provider {
		return &Provider{
			name:         "OpenRouter",
			baseURL:      openRouterBaseURL,
			defaultModel: "openai/gpt-4o-2024-08-06",
			recommendedModels: []string{
				"openai/gpt-4o-2024-08-06",
				"openai/gpt-4o-mini",
				"google/gemini-2.5-flash",
			},
		}
	})
}

// Provider is a chat-completions client on top of go-openai.
type Provider struct {
	name              string
	baseURL           string
	defaultModel      string
	recommendedModels []string
	client            *goopenai.Client
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey := strings.TrimSpace(config["api_key"])
	if apiKey == "" {
		return fmt.Errorf("%s: %w", p.name, llm.ErrMissingAPIKey)
	}

	if model := config["default_model"]; model != "" {
		p.defaultModel = model
	}
	if baseURL := config["base_url"]; baseURL != "" {
		p.baseURL = baseURL
	}

	clientConfig := goopenai.DefaultConfig(apiKey)
	if p.baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(p.baseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{}

	p.client = goopenai.NewClientWithConfig(clientConfig)
	return nil
}

func (p *Provider) GetName() string {
	return p.name
}

func (p *Provider) GetSupportedModels() []string {
	return p.recommendedModels
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.client == nil {
		return nil, fmt.Errorf("%s provider not initialized", p.name)
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, p.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.ErrEmptyCompletion
	}

	choice := resp.Choices[0]
	return &llm.CompletionResponse{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		TokensUsed:   resp.Usage.TotalTokens,
		PromptTokens: resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		ModelName:    resp.Model,
		ProviderName: p.name,
	}, nil
}

func (p *Provider) wrapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error (%d): %s: %w", p.name, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s request failed (%d): %w", p.name, reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("%s request failed: %w", p.name, err)
}
