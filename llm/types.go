package llm

// Roles used in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input every provider accepts.
type CompletionRequest struct {
	// Model overrides the provider's configured model.
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`
	// SystemPrompt is sent ahead of Messages.
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	// MaxTokens limits the response length. 0 leaves it to the provider.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionResponse is the generated text and its token accounting.
type CompletionResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
