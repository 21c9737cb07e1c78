package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/haasonsaas/brickwork/internal/backoff"
	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/internal/llmprovider"
	"github.com/haasonsaas/brickwork/internal/repo"
	"github.com/haasonsaas/brickwork/internal/tools"
	"github.com/haasonsaas/brickwork/pkg/models"
)

// MaxAssistantTurns bounds the CALL_MODEL/DISPATCH_TOOLS loop (§4.1).
const MaxAssistantTurns = 5

// TurnDeadline is the fixed overall timeout for ProcessTurn (§4.1, §5).
const TurnDeadline = 45 * time.Second

const boundedNotice = "I've made several tool calls without reaching a final answer. Here's what I've done so far; let me know how you'd like to continue."

const timeoutNotice = "That took longer than expected to process. Your request is still saved; please try again or rephrase it."

const llmFallbackNotice = "I'm having trouble reaching the language model right now. Please try again shortly."

const systemPreamble = `You are a personal-productivity orchestrator. You decompose goals into
Bricks and Quantas, detect and resolve calendar conflicts, and propose
schedules. Use the available tools to act; never fabricate a user_id,
brick_id, or quanta_id — rely on tool results for identifiers. Reply with
plain text only when you have nothing left to do for this turn.`

// Graph implements OrchestratorGraph (C1): the five-state machine
//
//	START -> CALL_MODEL -> (decide) -> DISPATCH_TOOLS -> CALL_MODEL (loop)
//	                                -> FINALIZE -> END
//
// grounded on the teacher's AgenticLoop (internal/agent/loop.go), adapted
// to the spec's sequential, single-shot-per-turn contract (no streaming,
// no concurrent tool execution).
type Graph struct {
	provider llmprovider.Provider
	registry *tools.ToolRegistry
	messages repo.MessageRepository
	logger   *slog.Logger

	maxAssistantTurns int
	turnDeadline      time.Duration
	retryPolicy       backoff.Policy

	convMu    sync.Mutex
	convLocks map[string]*conversationLock
}

// conversationLock serializes ProcessTurn calls for a single conversation
// (§5: "a new turn for the same conversation_id must not start while the
// previous is active"), with a reference count so the map entry can be
// dropped once no turn is waiting on it.
type conversationLock struct {
	mu   sync.Mutex
	refs int
}

// lockConversation acquires the per-conversation lock, creating it on
// first use and removing it from the map once released.
func (g *Graph) lockConversation(conversationID string) func() {
	g.convMu.Lock()
	if g.convLocks == nil {
		g.convLocks = make(map[string]*conversationLock)
	}
	lock, ok := g.convLocks[conversationID]
	if !ok {
		lock = &conversationLock{}
		g.convLocks[conversationID] = lock
	}
	lock.refs++
	g.convMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		g.convMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(g.convLocks, conversationID)
		}
		g.convMu.Unlock()
	}
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger overrides the graph's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) { g.logger = logger }
}

// WithTurnDeadline overrides TurnDeadline, for tests that need a tighter
// bound than the production default.
func WithTurnDeadline(d time.Duration) Option {
	return func(g *Graph) { g.turnDeadline = d }
}

// WithMaxAssistantTurns overrides MaxAssistantTurns, for tests that need
// to exercise the bounded-loop notice with fewer iterations.
func WithMaxAssistantTurns(n int) Option {
	return func(g *Graph) { g.maxAssistantTurns = n }
}

// NewGraph constructs an OrchestratorGraph over provider, registry and the
// message history repository.
func NewGraph(provider llmprovider.Provider, registry *tools.ToolRegistry, messages repo.MessageRepository, opts ...Option) *Graph {
	g := &Graph{
		provider:          provider,
		registry:          registry,
		messages:          messages,
		logger:            slog.Default(),
		maxAssistantTurns: MaxAssistantTurns,
		turnDeadline:      TurnDeadline,
		retryPolicy:       backoff.TurnRetryPolicy(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ProcessTurn implements §4.1's contract. userID/conversationID identify
// the caller and the durable conversation; userMessage is the new inbound
// text. The returned TurnResult always reflects the best effort made,
// even after a timeout or bounded-loop exit.
func (g *Graph) ProcessTurn(ctx context.Context, userID, conversationID, userMessage string) (TurnResult, error) {
	unlock := g.lockConversation(conversationID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, g.turnDeadline)
	defer cancel()

	history, err := g.messages.History(ctx, conversationID, 0)
	if err != nil {
		g.logger.Error("failed to load conversation history", "error", err, "conversation_id", conversationID)
		history = nil
	}

	state := &turnState{userID: userID, conversationID: conversationID}
	for _, m := range history {
		state.history = append(state.history, *m)
	}
	userMsg := models.Message{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           models.RoleUser,
		Content:        userMessage,
		CreatedAt:      time.Now(),
	}
	state.append(userMsg)

	responseText := g.runLoop(ctx, state)
	return g.finalize(ctx, state, userMsg, responseText), nil
}

// runLoop drives CALL_MODEL -> decide -> DISPATCH_TOOLS until FINALIZE is
// reached, returning the response text FINALIZE should use.
func (g *Graph) runLoop(ctx context.Context, state *turnState) string {
	for {
		if ctx.Err() != nil {
			return timeoutNotice
		}
		if state.assistantTurns >= g.maxAssistantTurns {
			return boundedNotice
		}

		assistant, err := g.callModel(ctx, state)
		state.assistantTurns++
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return timeoutNotice
			}
			g.logger.Error("LLM call failed after retries", "error", err)
			return llmFallbackNotice
		}

		if !assistant.HasToolCalls() {
			return assistant.Content
		}

		state.append(models.Message{
			ConversationID: state.conversationID,
			UserID:         state.userID,
			Role:           models.RoleAssistant,
			Content:        assistant.Content,
			ToolCalls:      assistant.ToolCalls,
			CreatedAt:      time.Now(),
		})

		g.dispatchTools(ctx, state, assistant.ToolCalls)
		if ctx.Err() != nil {
			return timeoutNotice
		}
	}
}

// callModel implements §4.1's CALL_MODEL semantics: build the prompt from
// history plus working messages, pass the declared tool schemas, retry
// transient Upstream failures with exponential backoff up to 3 attempts.
func (g *Graph) callModel(ctx context.Context, state *turnState) (models.AssistantMessage, error) {
	var result models.AssistantMessage
	schemas := g.registry.AsLLMTools()

	opErr := backoff.Retry(ctx, g.retryPolicy, 3, kinderr.Retryable, func(ctx context.Context) error {
		msg, err := g.provider.Complete(ctx, state.allMessages(), systemPreamble, schemas)
		if err != nil {
			return err
		}
		result = msg
		return nil
	})
	return result, opErr
}

// dispatchTools implements §4.1's DISPATCH_TOOLS semantics: sequential,
// in emission order, with identity injection and causal metadata
// derivation. Any individual tool failure is recovered into a tool-error
// message; it never aborts the turn.
func (g *Graph) dispatchTools(ctx context.Context, state *turnState, calls []models.ToolCall) {
	for _, call := range calls {
		if ctx.Err() != nil {
			state.append(errorToolMessage(state, call, kinderr.New(kinderr.Deadline, "turn deadline exceeded")))
			return
		}

		args, err := tools.ParseArgs(call.Args)
		if err != nil {
			state.append(errorToolMessage(state, call, kinderr.New(kinderr.Validation, "could not parse tool arguments").WithHint(err.Error())))
			continue
		}

		if tools.IdentityBound(call.Name) {
			args["user_id"] = state.userID
		}

		content, err := g.registry.Dispatch(ctx, call.Name, args)
		if err != nil {
			state.append(errorToolMessage(state, call, err))
			continue
		}

		state.append(models.Message{
			ConversationID: state.conversationID,
			UserID:         state.userID,
			Role:           models.RoleTool,
			Content:        content,
			ToolCallID:     call.ID,
			CreatedAt:      time.Now(),
		})
		state.toolsInvoked = append(state.toolsInvoked, call.Name)
		deriveCausalMetadata(state, call.Name, content)
	}
}

func errorToolMessage(state *turnState, call models.ToolCall, err error) models.Message {
	kind := kinderr.Internal
	message := err.Error()
	hint := ""
	if kerr, ok := kinderr.As(err); ok {
		kind = kerr.Kind
		message = kerr.Message
		hint = kerr.Hint
	}
	payload, _ := json.Marshal(map[string]any{
		"error": map[string]string{"kind": string(kind), "message": message, "hint": hint},
	})
	return models.Message{
		ConversationID: state.conversationID,
		UserID:         state.userID,
		Role:           models.RoleTool,
		Content:        string(payload),
		ToolCallID:     call.ID,
		CreatedAt:      time.Now(),
	}
}

// deriveCausalMetadata implements §4.1 step 6.
func deriveCausalMetadata(state *turnState, toolName, content string) {
	switch toolName {
	case "create_brick":
		var out struct {
			BrickID string `json:"brick_id"`
		}
		if json.Unmarshal([]byte(content), &out) == nil && out.BrickID != "" {
			state.bricksCreated = append(state.bricksCreated, out.BrickID)
		}
	case "update_brick":
		var out struct {
			BrickID string `json:"brick_id"`
		}
		if json.Unmarshal([]byte(content), &out) == nil && out.BrickID != "" {
			state.bricksUpdated = append(state.bricksUpdated, out.BrickID)
		}
	case "generate_schedule", "optimize_schedule":
		state.scheduleUpdated = true
	case "list_resources", "search_resources":
		var out []struct {
			ID string `json:"id"`
		}
		if json.Unmarshal([]byte(content), &out) == nil {
			for _, r := range out {
				state.resourcesRec = append(state.resourcesRec, r.ID)
			}
		}
	}
}

// finalize implements §4.1's FINALIZE semantics: derive heuristic
// suggestions from causal metadata, persist the user message + assistant
// response pair, and return the TurnResult.
func (g *Graph) finalize(ctx context.Context, state *turnState, userMsg models.Message, responseText string) TurnResult {
	assistantMsg := models.Message{
		ConversationID: state.conversationID,
		UserID:         state.userID,
		Role:           models.RoleAssistant,
		Content:        responseText,
		CreatedAt:      time.Now(),
	}

	persistCtx := ctx
	if ctx.Err() != nil {
		// The turn deadline already fired; still attempt to persist using a
		// fresh short-lived context so the conversation isn't silently lost.
		var cancel context.CancelFunc
		persistCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := g.messages.Append(persistCtx, &userMsg); err != nil {
		g.logger.Error("failed to persist user message", "error", err)
	}
	if err := g.messages.Append(persistCtx, &assistantMsg); err != nil {
		g.logger.Error("failed to persist assistant message", "error", err)
	}

	return TurnResult{
		ResponseText:         responseText,
		ToolsInvoked:         nonNil(state.toolsInvoked),
		BricksCreated:        nonNil(state.bricksCreated),
		BricksUpdated:        nonNil(state.bricksUpdated),
		ResourcesRecommended: nonNil(state.resourcesRec),
		ScheduleUpdated:      state.scheduleUpdated,
		Suggestions:          suggestions(state),
	}
}

func suggestions(state *turnState) []string {
	out := []string{}
	if state.scheduleUpdated {
		out = append(out, "Review today's schedule")
	}
	if len(state.bricksCreated) > 0 {
		out = append(out, "Break down your new goal into smaller steps")
	}
	if len(state.bricksUpdated) > 0 {
		out = append(out, "Check in on your updated goal's progress")
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
