package openai

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strings"

    "github.com/sashabaranov/go-openai"

    domai "github.com/bryanwahyu/aegis-console/internal/domain/ai"
    "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
    "github.com/bryanwahyu/aegis-console/internal/infra/ai/prompt"
)

const maxTokens = 1024

type Client struct {
    *openai.Client
    Model string
}

func NewClient(apiKey, model string) *Client {
    return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// NewClientWithBaseURL points the client at an OpenAI compatible endpoint.
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
    cfg := openai.DefaultConfig(apiKey)
    if baseURL != "" {
        cfg.BaseURL = baseURL
    }
    return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Brief(ctx context.Context, id analysis.AnalysisID, r *analysis.Result) (domai.Briefing, error) {
    model := c.Model
    if model == "" {
        model = openai.GPT4oMini
    }
    req := openai.ChatCompletionRequest{
        Model: model,
        ResponseFormat: &openai.ChatCompletionResponseFormat{
            Type: openai.ChatCompletionResponseFormatTypeJSONObject,
        },
        Messages: []openai.ChatCompletionMessage{
            {Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
            {Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(id, r)},
        },
    }
    // For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
    if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
        req.MaxCompletionTokens = maxTokens
    } else {
        req.MaxTokens = maxTokens
    }

    resp, err := c.CreateChatCompletion(ctx, req)
    if err != nil {
        var apiErr *openai.APIError
        if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
            return domai.Briefing{}, fmt.Errorf("%w: %s", domai.ErrQuotaExceeded, apiErr.Message)
        }
        return domai.Briefing{}, fmt.Errorf("failed to create chat completion: %w", err)
    }
    if len(resp.Choices) == 0 {
        return domai.Briefing{}, domai.ErrEmptyCompletion
    }

    return prompt.ParseBriefing(resp.Choices[0].Message.Content)
}
