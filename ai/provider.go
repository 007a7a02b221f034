// Package ai provides the provider-agnostic AI abstraction for Oto: a
// capability interface implemented per backend, a registry that routes
// requests and falls back between configured backends, and the assistant
// façade that mediates between spaces and the active provider.
package ai

import (
	"context"

	"github.com/otolabs/oto/space"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// Request is a generation request: an ordered message sequence plus optional
// tool declarations and sampling parameters.
type Request struct {
	Messages    []Message
	Tools       []ToolDescriptor
	MaxTokens   int     // 0 means provider default
	Temperature float32 // 0 means provider default
}

// ToolDescriptor represents a function/tool available to the model.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  string // JSON Schema string
}

// ToolCall represents a model request to invoke a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Usage carries token accounting for a single call. TotalTokens is
// informational only; no correctness depends on it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the result of a generation call, including the identity of
// the provider and model that produced it.
type Response struct {
	Content    string
	ToolCalls  []ToolCall
	Usage      Usage
	ProviderID string
	Model      string
}

// Context is the conversational and spatial context passed alongside a
// generation request. All fields are optional.
type Context struct {
	SpaceID   string
	SpaceType space.Type
	UserID    string
	History   []Message
	Metadata  map[string]string
}

// ModerationResult is the outcome of a content moderation pass. Reason is
// populated whenever Flagged is true.
type ModerationResult struct {
	Flagged    bool
	Reason     string
	Categories []string
	Severity   Severity
}

// Severity grades a moderation hit.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Priority grades an extracted task suggestion.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// TaskSuggestion is a task extracted from free-text conversation.
// Extraction is best-effort; duplicates are allowed.
type TaskSuggestion struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     string // free-form, e.g. "2026-09-01" or "tomorrow"; empty when unknown
}

// ProviderKind classifies a configured backend.
type ProviderKind string

const (
	KindHostedOpenAI ProviderKind = "hosted-openai"
	KindHostedGoogle ProviderKind = "hosted-google"
	KindSimulated    ProviderKind = "local-simulated"
	KindCustom       ProviderKind = "custom"
)

// ProviderStatus is the last observed connection state of a backend.
type ProviderStatus string

const (
	StatusConnected    ProviderStatus = "connected"
	StatusDisconnected ProviderStatus = "disconnected"
	StatusError        ProviderStatus = "error"
)

// Descriptor is the identity and capability descriptor for a configured
// backend. At most one registered descriptor has IsDefault set; the registry
// enforces this on every mutation.
type Descriptor struct {
	ID          string
	DisplayName string
	Kind        ProviderKind
	IsDefault   bool
	Status      ProviderStatus
}

// Provider is the capability interface every backend implements: simulated,
// hosted, or local. Implementations must not hold locks across the
// suspension points of their network calls.
type Provider interface {
	// GenerateResponse produces a reply to the prompt, optionally informed
	// by conversational context. Provider failures surface as
	// ErrProviderUnavailable; fallback is the registry's job, not the
	// provider's.
	GenerateResponse(ctx context.Context, prompt string, aictx *Context) (string, error)

	// Moderate classifies content. It never mutates its input and must
	// accept arbitrary-length text; implementations that truncate document
	// their limit.
	Moderate(ctx context.Context, content string) (ModerationResult, error)

	// Summarize condenses content to at most maxLength runes. A maxLength
	// of zero means the provider's own ceiling. The result never exceeds
	// the input for content already shorter than the limit.
	Summarize(ctx context.Context, content string, maxLength int) (string, error)

	// ExtractTasks scans a line-delimited conversation for actionable
	// items. Zero matches is a valid, non-error result.
	ExtractTasks(ctx context.Context, conversation string) ([]TaskSuggestion, error)

	// IsAvailable is a cheap health probe. It returns false rather than
	// erroring on any internal fault.
	IsAvailable(ctx context.Context) bool
}

// ChatCompleter is an optional extension of Provider. Backends that
// implement it receive the full Request, including tool declarations and
// per-request sampling overrides, and can report usage, tool calls and the
// serving model in the Response. The registry prefers this path when
// present; plain providers get the flattened GenerateResponse call, which
// carries messages only.
type ChatCompleter interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
