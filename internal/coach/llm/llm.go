// Package llm is the narrow contract to the chat-completion model. The
// coach orchestrator and the profile insights generator both speak through
// it; everything OpenAI-specific stays in the client implementation.
package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// OpenRouterBaseURL is the default API endpoint; any OpenAI-compatible
// gateway works.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// ToolChoiceNone disables tool use for one completion, forcing plain text.
const ToolChoiceNone = "none"

// FunctionCall is the function payload within a requested tool call.
// Arguments is the raw JSON string exactly as the model produced it.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// ChatMessage is one message of the conversation, in the same shape the
// client sends and receives. Assistant messages may carry ToolCalls; tool
// messages carry the ToolCallID they answer plus the ToolName for client
// display.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolName   string     `json:"tool_name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// Tool describes one callable tool offered to the model. Parameters is a
// JSON-schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single completion request. ToolChoice: empty lets the model
// decide, ToolChoiceNone forbids tool use, any other value forces a call to
// that function.
type Request struct {
	Model       string
	Messages    []ChatMessage
	Tools       []Tool
	ToolChoice  string
	Temperature float32
}

// Completion is the model's answer: text, tool call requests, or both.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}
