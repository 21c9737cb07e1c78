// Package llmprovider implements the LLMProvider abstraction from spec §6:
// a single-shot (non-streaming) chat completion boundary the orchestrator
// and the LLM-assisted planner call through, independent of the concrete
// model vendor.
package llmprovider

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/brickwork/pkg/models"
)

// ToolSchema is a single tool definition offered to the model for a turn.
type ToolSchema struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// Provider is the orchestrator-facing contract: a single-shot completion
// call that may return tool calls the caller is expected to dispatch and
// feed back as a subsequent user-role tool-result message. Streaming is
// explicitly out of scope (§6 non-goals).
type Provider interface {
	Complete(ctx context.Context, messages []models.Message, systemPrompt string, tools []ToolSchema) (models.AssistantMessage, error)
}
