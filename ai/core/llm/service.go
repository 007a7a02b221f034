// Package llm implements the hosted AI provider over the OpenAI-compatible
// chat completion protocol. One adapter covers every hosted backend kind;
// the provider switch only picks base URLs and defaults.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/otolabs/oto/ai"
)

// Config represents hosted provider configuration.
type Config struct {
	Provider    string // openai, deepseek, siliconflow, gemini, ollama, or any compatible endpoint
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.7
	Timeout     int     // request timeout in seconds (default: 120)
}

// service implements ai.Provider over an OpenAI-compatible endpoint.
type service struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

var (
	_ ai.Provider      = (*service)(nil)
	_ ai.ChatCompleter = (*service)(nil)
)

// New creates a hosted provider from config. The provider name selects the
// default base URL; an explicit BaseURL always wins.
func New(cfg *Config) (ai.Provider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		switch cfg.Provider {
		case "openai":
			// go-openai's own default is fine.
		case "deepseek":
			baseURL = "https://api.deepseek.com"
		case "siliconflow":
			baseURL = "https://api.siliconflow.cn/v1"
		case "gemini":
			baseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
		case "openrouter":
			baseURL = "https://openrouter.ai/api/v1"
		case "ollama":
			baseURL = "http://localhost:11434/v1"
		default:
			slog.Info("llm: generic OpenAI-compatible provider", "provider", cfg.Provider)
		}
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = newHTTPClient()

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}

	return &service{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     time.Duration(timeout) * time.Second,
	}, nil
}

// GenerateResponse sends the prompt, prefixed by any context history, as a
// chat completion. Failures are reported as ai.ErrProviderUnavailable so
// the registry can decide on fallback.
func (s *service) GenerateResponse(ctx context.Context, prompt string, aictx *ai.Context) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 8)
	if aictx != nil {
		for _, m := range aictx.History {
			messages = append(messages, convertMessage(m))
		}
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	content, _, err := s.complete(ctx, messages, s.temperature)
	return content, err
}

// Complete runs the full request, honoring per-request sampling overrides
// and tool declarations, and reports usage and any tool calls back.
func (s *service) Complete(ctx context.Context, req ai.Request) (*ai.Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, convertMessage(m))
	}

	oreq := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    messages,
	}
	if req.MaxTokens > 0 {
		oreq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		oreq.Temperature = req.Temperature
	}
	for _, tool := range req.Tools {
		fn := &openai.FunctionDefinition{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if tool.Parameters != "" {
			fn.Parameters = json.RawMessage(tool.Parameters)
		}
		oreq.Tools = append(oreq.Tools, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: fn,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, oreq)
	if err != nil {
		slog.Error("llm: chat request failed", "provider", s.provider, "error", err)
		return nil, fmt.Errorf("%w: %v", ai.ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("llm: empty response", "provider", s.provider)
		return nil, fmt.Errorf("%w: empty response", ai.ErrProviderUnavailable)
	}

	choice := resp.Choices[0]
	out := &ai.Response{
		Content: choice.Message.Content,
		Model:   resp.Model,
		Usage: ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ai.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	slog.Debug("llm: completion received",
		"provider", s.provider,
		"tool_calls", len(out.ToolCalls),
		"total_tokens", out.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

const moderationPrompt = `You are a content moderation classifier. Respond with a single JSON object:
{"flagged": bool, "reason": string, "categories": [string], "severity": "low"|"medium"|"high"}
Flag spam, fraud, harassment, hate and explicit content. Do not add any other text.`

// Moderate classifies content with a JSON-only moderation prompt. Content
// beyond 8000 runes is truncated before classification.
func (s *service) Moderate(ctx context.Context, content string) (ai.ModerationResult, error) {
	const moderationInputLimit = 8000
	if runes := []rune(content); len(runes) > moderationInputLimit {
		content = string(runes[:moderationInputLimit])
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: moderationPrompt},
		{Role: openai.ChatMessageRoleUser, Content: content},
	}
	raw, _, err := s.complete(ctx, messages, 0.1)
	if err != nil {
		return ai.ModerationResult{}, err
	}

	var parsed struct {
		Flagged    bool     `json:"flagged"`
		Reason     string   `json:"reason"`
		Categories []string `json:"categories"`
		Severity   string   `json:"severity"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		slog.Warn("llm: unparseable moderation response", "provider", s.provider, "error", err)
		return ai.ModerationResult{}, fmt.Errorf("%w: malformed moderation response", ai.ErrProviderUnavailable)
	}

	result := ai.ModerationResult{
		Flagged:    parsed.Flagged,
		Reason:     parsed.Reason,
		Categories: parsed.Categories,
		Severity:   ai.Severity(parsed.Severity),
	}
	if result.Flagged && result.Reason == "" {
		result.Reason = "content flagged by moderation model"
	}
	return result, nil
}

// Summarize asks the model for a summary within maxLength runes and hard
// truncates anything the model returns beyond it. Content already within
// the limit is returned unchanged without a model call.
func (s *service) Summarize(ctx context.Context, content string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = 100
	}
	content = strings.TrimSpace(content)
	if len([]rune(content)) <= maxLength {
		return content, nil
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf("Summarize the user's text in at most %d characters. Reply with the summary only.", maxLength),
		},
		{Role: openai.ChatMessageRoleUser, Content: content},
	}
	summary, _, err := s.complete(ctx, messages, 0.3)
	if err != nil {
		return "", err
	}

	summary = strings.TrimSpace(summary)
	if runes := []rune(summary); len(runes) > maxLength {
		summary = string(runes[:maxLength])
	}
	return summary, nil
}

const extractTasksPrompt = `Extract actionable tasks from the conversation. Respond with a JSON array:
[{"title": string, "description": string, "priority": "low"|"medium"|"high"|"urgent", "dueDate": string}]
Use an empty array when there are no tasks. Do not add any other text.`

// ExtractTasks asks the model for a JSON task list. An unparseable
// response degrades to zero tasks rather than an error; extraction is
// best-effort.
func (s *service) ExtractTasks(ctx context.Context, conversation string) ([]ai.TaskSuggestion, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: extractTasksPrompt},
		{Role: openai.ChatMessageRoleUser, Content: conversation},
	}
	raw, _, err := s.complete(ctx, messages, 0.1)
	if err != nil {
		return nil, err
	}

	var parsed []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		DueDate     string `json:"dueDate"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		slog.Warn("llm: unparseable task extraction response", "provider", s.provider, "error", err)
		return nil, nil
	}

	tasks := make([]ai.TaskSuggestion, 0, len(parsed))
	for _, t := range parsed {
		if t.Title == "" {
			continue
		}
		tasks = append(tasks, ai.TaskSuggestion{
			Title:       t.Title,
			Description: t.Description,
			Priority:    ai.Priority(t.Priority),
			DueDate:     t.DueDate,
		})
	}
	return tasks, nil
}

// IsAvailable sends a one-token ping with a short deadline. Any failure
// reports false, never an error.
func (s *service) IsAvailable(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.client.CreateChatCompletion(pingCtx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
	})
	if err != nil {
		slog.Debug("llm: availability probe failed", "provider", s.provider, "error", err)
		return false
	}
	return true
}

// Warmup sends a lightweight ping to establish the connection early. Best
// effort; a failed warmup only means the first real request is slower.
func (s *service) Warmup(ctx context.Context) {
	start := time.Now()
	if !s.IsAvailable(ctx) {
		slog.Warn("llm: warmup ping failed", "provider", s.provider, "model", s.model)
		return
	}
	slog.Info("llm: connection warmed up",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// complete runs one chat completion under the configured timeout.
func (s *service) complete(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32) (string, ai.Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: temperature,
		Messages:    messages,
	})
	if err != nil {
		slog.Error("llm: chat request failed", "provider", s.provider, "error", err)
		return "", ai.Usage{}, fmt.Errorf("%w: %v", ai.ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("llm: empty response", "provider", s.provider)
		return "", ai.Usage{}, fmt.Errorf("%w: empty response", ai.ErrProviderUnavailable)
	}

	usage := ai.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	slog.Debug("llm: chat response received",
		"provider", s.provider,
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.Choices[0].Message.Content, usage, nil
}

func convertMessage(m ai.Message) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	switch m.Role {
	case "system":
		role = openai.ChatMessageRoleSystem
	case "assistant":
		role = openai.ChatMessageRoleAssistant
	}
	return openai.ChatCompletionMessage{Role: role, Content: m.Content}
}

// extractJSON strips markdown code fences and surrounding prose from a
// model reply that should be bare JSON.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "```"); idx >= 0 {
		raw = raw[idx+3:]
		raw = strings.TrimPrefix(raw, "json")
		if end := strings.Index(raw, "```"); end >= 0 {
			raw = raw[:end]
		}
	}
	start := strings.IndexAny(raw, "[{")
	if start < 0 {
		return raw
	}
	end := strings.LastIndexAny(raw, "]}")
	if end < start {
		return raw
	}
	return strings.TrimSpace(raw[start : end+1])
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
