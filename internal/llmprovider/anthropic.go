package llmprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/pkg/models"
)

// AnthropicConfig configures an AnthropicProvider. Only APIKey is required.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxTokens    int64
}

// AnthropicProvider implements Provider against Claude's Messages API using
// a single non-streaming call per completion, per §6's single-shot contract.
type AnthropicProvider struct {
	client       anthropic.Client
	defaultModel string
	maxTokens    int64
}

// NewAnthropicProvider constructs an AnthropicProvider from config.
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, kinderr.New(kinderr.Validation, "anthropic: API key is required")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "claude-sonnet-4-20250514"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicProvider{
		client:       anthropic.NewClient(opts...),
		defaultModel: config.DefaultModel,
		maxTokens:    config.MaxTokens,
	}, nil
}

// Complete sends a single, non-streaming Messages.New request and converts
// the resulting content blocks into an AssistantMessage (§6).
func (p *AnthropicProvider) Complete(ctx context.Context, messages []models.Message, systemPrompt string, tools []ToolSchema) (models.AssistantMessage, error) {
	converted, err := convertMessages(messages)
	if err != nil {
		return models.AssistantMessage{}, kinderr.Wrap(kinderr.Internal, "failed to convert messages", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.defaultModel),
		Messages:  converted,
		MaxTokens: p.maxTokens,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: systemPrompt}}
	}
	if len(tools) > 0 {
		converted, err := convertTools(tools)
		if err != nil {
			return models.AssistantMessage{}, kinderr.Wrap(kinderr.Internal, "failed to convert tool schemas", err)
		}
		params.Tools = converted
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return models.AssistantMessage{}, classifyError(err)
	}

	return toAssistantMessage(resp), nil
}

func toAssistantMessage(resp *anthropic.Message) models.AssistantMessage {
	var out models.AssistantMessage
	var text strings.Builder

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			tu := block.AsToolUse()
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{
				ID:   tu.ID,
				Name: tu.Name,
				Args: json.RawMessage(tu.Input),
			})
		}
	}

	out.Content = text.String()
	return out
}

func convertMessages(messages []models.Message) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam

	for _, msg := range messages {
		var content []anthropic.ContentBlockParamUnion

		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}

		if msg.Role == models.RoleTool {
			content = append(content, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
		}

		for _, tc := range msg.ToolCalls {
			var input map[string]interface{}
			if len(tc.Args) > 0 {
				if err := json.Unmarshal(tc.Args, &input); err != nil {
					return nil, fmt.Errorf("invalid tool call args for %s: %w", tc.Name, err)
				}
			}
			content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
		}

		if len(content) == 0 {
			continue
		}

		if msg.Role == models.RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			result = append(result, anthropic.NewUserMessage(content...))
		}
	}

	return result, nil
}

func convertTools(tools []ToolSchema) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam

	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Schema, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name, err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name)
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description)
		result = append(result, toolParam)
	}

	return result, nil
}

// classifyError maps Anthropic SDK errors onto the orchestrator's error
// taxonomy (§7): rate limits, 5xx and non-API (transport) failures are
// Upstream (retryable), 401/403 are Auth, and any other API error status
// is Validation.
func classifyError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return kinderr.Wrap(kinderr.Upstream, "anthropic request failed", err)
		}
		if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
			return kinderr.Wrap(kinderr.Auth, "anthropic authentication failed", err)
		}
		return kinderr.Wrap(kinderr.Validation, "anthropic rejected the request", err)
	}
	return kinderr.Wrap(kinderr.Upstream, "anthropic request failed", err)
}
