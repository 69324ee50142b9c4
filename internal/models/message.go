package models

import "time"

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one entry in a user's append-only chat log.
type Message struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Role      MessageRole            `json:"role"`
	Content   string                 `json:"content"`
	ExtraData map[string]interface{} `json:"extra_data"`
	CreatedAt time.Time              `json:"created_at"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned from POST /chat.
type ChatResponse struct {
	Response     string `json:"response"`
	ResponseHTML string `json:"response_html,omitempty"`
}

// ChatHistoryResponse is returned from GET /chat/history.
type ChatHistoryResponse struct {
	Messages []Message `json:"messages"`
	Count    int       `json:"count"`
}
