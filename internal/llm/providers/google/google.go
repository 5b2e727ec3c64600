// internal/llm/providers/google/google.go
package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/Corphon/ContinuityGuard/internal/llm"
)

const defaultModel = "gemini-2.5-flash"

func init() {
	llm.Register("google", func() llm.Provider {
		return &Provider{
			defaultModel: defaultModel,
			recommendedModels: []string{
				"gemini-2.5-pro",
				"gemini-2.5-flash",
				"gemini-2.0-flash",
			},
		}
	})
}

// Provider talks to the Gemini API through the genai SDK.
type Provider struct {
	baseURL           string
	defaultModel      string
	recommendedModels []string
	client            *genai.Client
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey := strings.TrimSpace(config["api_key"])
	if apiKey == "" {
		return fmt.Errorf("google gemini: %w", llm.ErrMissingAPIKey)
	}

	// 默认模型名是 OpenAI 的时候忽略，避免把 gpt-* 发给 Gemini
	if model := config["default_model"]; model != "" && !strings.HasPrefix(model, "gpt-") {
		p.defaultModel = model
	}
	if baseURL := config["base_url"]; baseURL != "" {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	}
	if p.baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return fmt.Errorf("google gemini: failed to create client: %w", err)
	}
	p.client = client
	return nil
}

func (p *Provider) GetName() string {
	return "google gemini"
}

func (p *Provider) GetSupportedModels() []string {
	return p.recommendedModels
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.client == nil {
		return nil, fmt.Errorf("google gemini provider not initialized")
	}

	model := req.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = p.defaultModel
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSONMode {
		genConfig.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("google gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, llm.ErrEmptyCompletion
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, llm.ErrEmptyCompletion
	}

	out := &llm.CompletionResponse{
		Text:         text,
		FinishReason: string(resp.Candidates[0].FinishReason),
		ModelName:    model,
		ProviderName: p.GetName(),
	}
	if resp.ModelVersion != "" {
		out.ModelName = resp.ModelVersion
	}
	if usage := resp.UsageMetadata; usage != nil {
		out.TokensUsed = int(usage.TotalTokenCount)
		out.PromptTokens = int(usage.PromptTokenCount)
		out.OutputTokens = int(usage.CandidatesTokenCount)
	}
	return out, nil
}
