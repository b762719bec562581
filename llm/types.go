package llm

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// CompletionRequest is the provider-independent request.
type CompletionRequest struct {
	// Model overrides the adapter's default model.
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`
	// SystemPrompt is sent as a leading system message.
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	// MaxTokens limits the response length. 0 means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionResponse is the provider-independent response.
type CompletionResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AllMessages returns the system prompt, if any, followed by Messages.
func (r CompletionRequest) AllMessages() []Message {
	msgs := make([]Message, 0, len(r.Messages)+1)
	if r.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: "system", Content: r.SystemPrompt})
	}
	return append(msgs, r.Messages...)
}
