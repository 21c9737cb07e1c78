package llmprovider

import (
	"context"

	"github.com/haasonsaas/brickwork/pkg/models"
)

// TextCompletion adapts a Provider to the narrower single-string completion
// surface the LLM-assisted planner needs (internal/planner.CompletionProvider),
// without pulling the planner package's types into this one.
type TextCompletion struct {
	Provider Provider
}

// Complete issues a single-shot completion with no tools and returns the
// assistant's text content, discarding any tool calls the model attempted.
func (t TextCompletion) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	msg, err := t.Provider.Complete(ctx, []models.Message{{Role: models.RoleUser, Content: userPrompt}}, systemPrompt, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}
