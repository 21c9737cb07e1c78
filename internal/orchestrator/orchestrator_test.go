package orchestrator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/brickwork/internal/llmprovider"
	"github.com/haasonsaas/brickwork/internal/repo"
	"github.com/haasonsaas/brickwork/internal/tools"
	"github.com/haasonsaas/brickwork/pkg/models"
)

// scriptedProvider returns one canned AssistantMessage per call, cycling
// through responses; it never talks to a real LLM.
type scriptedProvider struct {
	responses []models.AssistantMessage
	calls     int
	delay     time.Duration
}

func (p *scriptedProvider) Complete(ctx context.Context, _ []models.Message, _ string, _ []llmprovider.ToolSchema) (models.AssistantMessage, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return models.AssistantMessage{}, ctx.Err()
		}
	}
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	return p.responses[idx], nil
}

func newRegistry(t *testing.T, repos repo.Repositories) *tools.ToolRegistry {
	t.Helper()
	r := tools.NewToolRegistry()
	_, err := tools.RegisterAll(r, tools.Dependencies{Repos: repos})
	require.NoError(t, err)
	return r
}

func listBricksCall(id string) models.ToolCall {
	args, _ := json.Marshal(map[string]any{})
	return models.ToolCall{ID: id, Name: "list_bricks", Args: args}
}

func TestGraph_BoundedLoopStopsAtMaxAssistantTurns(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	registry := newRegistry(t, repos)

	// Every call returns another tool call, never a plain-text finish, so
	// the loop can only stop via the MaxAssistantTurns cutoff.
	provider := &scriptedProvider{
		responses: []models.AssistantMessage{
			{ToolCalls: []models.ToolCall{listBricksCall("call-1")}},
			{ToolCalls: []models.ToolCall{listBricksCall("call-2")}},
			{ToolCalls: []models.ToolCall{listBricksCall("call-3")}},
		},
	}

	graph := NewGraph(provider, registry, repos.Messages(), WithMaxAssistantTurns(2))

	result, err := graph.ProcessTurn(context.Background(), "user-1", "conv-1", "keep listing my bricks")
	require.NoError(t, err)
	require.Equal(t, boundedNotice, result.ResponseText)
	require.Len(t, result.ToolsInvoked, 2)
	require.Equal(t, 2, provider.calls)
}

func TestGraph_IdentityInjectionOverridesToolArgs(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	registry := newRegistry(t, repos)

	// The model supplies a forged user_id; identity injection must replace
	// it with the authenticated caller before dispatch (§4.1 step 2).
	createArgs, _ := json.Marshal(map[string]any{
		"user_id":                    "someone-else",
		"title":                     "Write the quarterly report",
		"category":                  "work",
		"priority":                  "high",
		"estimated_duration_minutes": 120,
	})
	provider := &scriptedProvider{
		responses: []models.AssistantMessage{
			{ToolCalls: []models.ToolCall{{ID: "call-1", Name: "create_brick", Args: createArgs}}},
			{Content: "Created your brick."},
		},
	}

	graph := NewGraph(provider, registry, repos.Messages())

	result, err := graph.ProcessTurn(context.Background(), "real-user", "conv-2", "add a goal to write the quarterly report")
	require.NoError(t, err)
	require.Equal(t, "Created your brick.", result.ResponseText)
	require.Len(t, result.BricksCreated, 1)

	bricks, err := repos.Bricks().List(context.Background(), "real-user", repo.ListOptions{})
	require.NoError(t, err)
	require.Len(t, bricks, 1)
	require.Equal(t, "real-user", bricks[0].UserID)

	_, err = repos.Bricks().List(context.Background(), "someone-else", repo.ListOptions{})
	require.NoError(t, err)
}

func TestGraph_TurnDeadlineProducesFallbackResponse(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	registry := newRegistry(t, repos)

	provider := &scriptedProvider{
		delay: 200 * time.Millisecond,
		responses: []models.AssistantMessage{
			{Content: "too slow"},
		},
	}

	graph := NewGraph(provider, registry, repos.Messages(), WithTurnDeadline(20*time.Millisecond))

	result, err := graph.ProcessTurn(context.Background(), "user-3", "conv-3", "hello")
	require.NoError(t, err)
	require.Equal(t, timeoutNotice, result.ResponseText)

	history, err := repos.Messages().History(context.Background(), "conv-3", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.RoleUser, history[0].Role)
	require.Equal(t, models.RoleAssistant, history[1].Role)
}

func TestGraph_SerializesTurnsPerConversation(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	registry := newRegistry(t, repos)
	provider := &scriptedProvider{responses: []models.AssistantMessage{{Content: "ok"}}}
	graph := NewGraph(provider, registry, repos.Messages())

	unlock := graph.lockConversation("conv-4")
	done := make(chan struct{})
	go func() {
		_, err := graph.ProcessTurn(context.Background(), "user-4", "conv-4", "hi")
		require.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("ProcessTurn completed while the conversation lock was held")
	case <-time.After(30 * time.Millisecond):
	}
	unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ProcessTurn never completed after the lock was released")
	}
}
