package types

// ModerateResponse is returned by POST /v1/moderate.
type ModerateResponse struct {
	RequestID string `json:"request_id"`
	Accepted  bool   `json:"accepted"`
	Text      string `json:"text,omitempty"`
	Category  string `json:"category,omitempty"`
	Label     string `json:"label,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Notice    string `json:"notice,omitempty"`
}

// ClarityResponse is returned by POST /v1/moderate/clarity.
type ClarityResponse struct {
	RequestID string `json:"request_id"`
	Unclear   bool   `json:"unclear"`
}

// ChatResponse is returned by POST /v1/chat.
type ChatResponse struct {
	RequestID     string         `json:"request_id"`
	Reply         string         `json:"reply"`
	NeedsClarity  bool           `json:"needs_clarity,omitempty"`
	Model         string         `json:"model,omitempty"`
	Usage         Usage          `json:"usage"`
	FilterActions []FilterAction `json:"filter_actions,omitempty"`
}

// Completion is a parsed assistant reply.
type Completion struct {
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason"`
	Usage        Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type FilterAction struct {
	Filter  string `json:"filter"`
	Action  string `json:"action"`
	Message string `json:"message,omitempty"`
}
