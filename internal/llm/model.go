// Package llm talks to the chat model that drives the mentor. Providers are
// interchangeable behind ChatModel; the mentor loop never sees wire formats.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message roles exchanged with the model. The system prompt travels separately in Request.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ErrEmptyResponse is returned when the provider answers with no candidate at all.
var ErrEmptyResponse = errors.New("model returned no choices")

// StatusError is a non-200 answer from the provider's HTTP API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat completion failed: status=%d, body=%s", e.StatusCode, e.Body)
}

// ToolCall is one function call requested by the model. Arguments is the raw JSON object.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of the conversation sent to the model.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant messages that requested tools
	ToolCallID string     // tool result messages
	Name       string     // tool result messages
}

// ToolSpec describes a callable tool with a JSON Schema for its arguments.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Request is one model call.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// Response is the model's answer: text, tool calls, or both.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// ChatModel is the provider-neutral chat completion interface.
type ChatModel interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
