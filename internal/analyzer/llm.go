package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/qs3c/contract_critic/config"
)

// Completion 一次模型调用的结果
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Duration         time.Duration
}

// Completer 流水线依赖的模型调用接口
type Completer interface {
	SelectModel(textLength int, analysisType string) string
	Complete(ctx context.Context, model, prompt string) (*Completion, error)
}

// LLMClient OpenAI 兼容接口的客户端（默认指向 OpenRouter）
type LLMClient struct {
	cfg config.LLMConfig
	api *openai.Client
}

// NewLLMClient 根据显式配置创建客户端
func NewLLMClient(cfg config.LLMConfig) *LLMClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &titleTransport{title: cfg.SiteTitle, base: http.DefaultTransport},
	}

	return &LLMClient{
		cfg: cfg,
		api: openai.NewClientWithConfig(oc),
	}
}

// SelectModel 按固定规则选择模型档位
//  1. comprehensive 或文本长度超过上限 -> premium
//  2. quick_summary 或文本长度低于下限 -> economy
//  3. 其余 -> premium
func (c *LLMClient) SelectModel(textLength int, analysisType string) string {
	switch {
	case analysisType == TypeComprehensive || textLength > c.cfg.UpperThreshold:
		return c.cfg.PremiumModel
	case analysisType == TypeQuickSummary || textLength < c.cfg.LowerThreshold:
		return c.cfg.EconomyModel
	default:
		return c.cfg.PremiumModel
	}
}

// Complete 发送一次阻塞的 chat completion 请求，不重试
func (c *LLMClient) Complete(ctx context.Context, model, prompt string) (*Completion, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key not configured", ErrAuth)
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", ErrMalformedResponse)
	}

	usedModel := resp.Model
	if usedModel == "" {
		usedModel = model
	}

	return &Completion{
		Content:          resp.Choices[0].Message.Content,
		Model:            usedModel,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		Duration:         elapsed,
	}, nil
}

func classifyError(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrAuth, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}

// titleTransport 为 OpenRouter 附加应用标识头
type titleTransport struct {
	title string
	base  http.RoundTripper
}

func (t *titleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.title != "" {
		req = req.Clone(req.Context())
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}
