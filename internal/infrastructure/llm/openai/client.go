package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.7
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	Prompt      PromptConfig
}

// Client talks to any OpenAI compatible chat completions endpoint, including Ollama's /v1.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	prompt      PromptConfig
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: temperature,
		prompt:      cfg.Prompt.normalize(),
		httpClient:  &http.Client{Timeout: timeout},
		executor:    executor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Summarize sends text as the user message under the summary system prompt.
func (c *Client) Summarize(ctx context.Context, text string) (domain.SummaryResult, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.prompt.System()},
			{Role: "user", Content: text},
		},
		Temperature: c.temperature,
	}

	call := func(ctx context.Context) (chatResponse, error) {
		var resp chatResponse
		err := c.postJSON(ctx, "/chat/completions", req, &resp, "chat completion")
		return resp, err
	}

	var (
		resp chatResponse
		err  error
	)
	if c.executor != nil {
		resp, err = resilience.Call(ctx, c.executor, "llm.chat_completion", call, resilience.ClassifyNetwork)
	} else {
		resp, err = call(ctx)
	}
	if err != nil {
		return domain.SummaryResult{}, wrapTemporaryIfNeeded("llm chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return domain.SummaryResult{}, fmt.Errorf("llm chat completion: response has no choices")
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return domain.SummaryResult{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if resilience.ClassifyNetwork(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
