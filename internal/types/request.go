package types

import "time"

// ChatRequest is a user message entering the chat pipeline.
type ChatRequest struct {
	RequestID  string    `json:"-"`
	UserID     string    `json:"user_id"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"-"`

	// Set by the pipeline once the message passed moderation.
	Unclear bool `json:"-"`
}

// ModerateRequest is the body of the moderation endpoints.
type ModerateRequest struct {
	Text string `json:"text"`
}

// ResetRequest is the body of the conversation reset endpoint.
type ResetRequest struct {
	UserID string `json:"user_id"`
}

// Message is one turn of a conversation in OpenAI chat format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
