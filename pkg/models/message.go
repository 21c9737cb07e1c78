package models

import (
	"encoding/json"
	"time"
)

// Role indicates the author of a turn message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall represents the LLM's request to execute a registered tool.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolCallResult pairs a tool call with the result returned to the model.
type ToolCallResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Message is a single turn in a conversation's durable history.
type Message struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversation_id"`
	UserID         string           `json:"user_id"`
	Role           Role             `json:"role"`
	Content        string           `json:"content"`
	ToolCalls      []ToolCall       `json:"tool_calls,omitempty"`
	ToolCallID     string           `json:"tool_call_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// AssistantMessage is the shape an LLMProvider completion returns: either
// plain text, or text plus one or more tool calls (§6).
type AssistantMessage struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// HasToolCalls reports whether the assistant emitted at least one
// tool call, the signal the orchestrator's `decide` step
// uses to choose DISPATCH_TOOLS vs FINALIZE (§4.1).
func (m AssistantMessage) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
