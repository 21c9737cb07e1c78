package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/pkg/models"
)

// CompletionProvider is the minimal single-shot LLM surface the planner
// needs; it is a narrowed view of the orchestrator's LLMProvider (§6) so
// this package does not depend on the orchestrator.
type CompletionProvider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMPlanner assembles a scheduling prompt, calls the model once, and
// validates its structured output against the same PlanResult contract
// as the heuristic planner (§4.4). It falls back to the heuristic planner
// when the completion fails or its output cannot be parsed; individual
// scheduled entries that fail validation are dropped with a warning.
type LLMPlanner struct {
	provider CompletionProvider
	fallback *HeuristicPlanner
	logger   *slog.Logger
	deadline time.Duration
}

// LLMPlannerOption configures an LLMPlanner.
type LLMPlannerOption func(*LLMPlanner)

// WithLogger sets the planner's logger.
func WithLogger(logger *slog.Logger) LLMPlannerOption {
	return func(p *LLMPlanner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewLLMPlanner constructs an LLMPlanner, falling back to fallback when
// the model fails to produce valid output.
func NewLLMPlanner(provider CompletionProvider, fallback *HeuristicPlanner, opts ...LLMPlannerOption) *LLMPlanner {
	p := &LLMPlanner{
		provider: provider,
		fallback: fallback,
		logger:   slog.Default(),
		deadline: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

const llmPlannerSystemPrompt = `You are a scheduling assistant. Given tasks, existing events, user
preferences, and constraints, produce a JSON object of the form:
{"scheduled_events":[{"task_id":"...","title":"...","start_time":"RFC3339","end_time":"RFC3339"}],"reasoning":"..."}
Respect all hard constraints and never overlap a non-moveable existing event.
Respond with exactly one JSON object and nothing else.`

type llmScheduledEvent struct {
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type llmPlanOutput struct {
	ScheduledEvents []llmScheduledEvent `json:"scheduled_events"`
	Reasoning       string              `json:"reasoning"`
}

// Plan implements §4.4: assemble prompts, call the model once, extract
// and validate JSON. A failed completion or unparsable output falls back
// to the heuristic planner; scheduled entries that fail validation are
// removed and reported in Warnings, and their tasks are listed as
// unscheduled.
func (p *LLMPlanner) Plan(ctx context.Context, tasks []models.Task, existing []models.Event, prefs models.Preferences, constraints []models.Constraint, horizonDays int) models.PlanResult {
	if p.provider == nil {
		return p.fallbackResult(tasks, existing, prefs, constraints, horizonDays, "no LLM provider configured")
	}

	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	userPrompt := buildUserPrompt(tasks, existing, prefs, constraints, horizonDays)

	raw, err := p.provider.Complete(ctx, llmPlannerSystemPrompt, userPrompt)
	if err != nil {
		p.logger.Warn("llm planner completion failed", "error", err)
		return p.fallbackResult(tasks, existing, prefs, constraints, horizonDays, "LLM completion failed")
	}

	jsonPayload, ok := extractJSONObject(raw)
	if !ok {
		p.logger.Warn("llm planner produced no parsable JSON object")
		return p.fallbackResult(tasks, existing, prefs, constraints, horizonDays, "LLM parse failure")
	}

	var out llmPlanOutput
	if err := json.Unmarshal([]byte(jsonPayload), &out); err != nil {
		p.logger.Warn("llm planner JSON unmarshal failed", "error", err)
		return p.fallbackResult(tasks, existing, prefs, constraints, horizonDays, "LLM parse failure")
	}

	validIDs := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		validIDs[t.ID] = true
	}

	var scheduled []models.Event
	var warnings []string
	seenTaskIDs := make(map[string]bool)

	for _, se := range out.ScheduledEvents {
		event, err := validateScheduledEvent(se, validIDs, existing, constraints)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		if seenTaskIDs[se.TaskID] {
			warnings = append(warnings, fmt.Sprintf("duplicate scheduling for task %q ignored", se.TaskID))
			continue
		}
		seenTaskIDs[se.TaskID] = true
		scheduled = append(scheduled, event)
	}

	var unscheduled []string
	for _, t := range tasks {
		if !seenTaskIDs[t.ID] {
			unscheduled = append(unscheduled, t.ID)
		}
	}

	if scheduled == nil {
		scheduled = []models.Event{}
	}
	if unscheduled == nil {
		unscheduled = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}

	confidence := clamp(0.3+0.6*float64(len(scheduled))/float64(max(1, len(tasks))), 0, 1)

	return models.PlanResult{
		ScheduledEvents:    scheduled,
		UnscheduledTaskIDs: unscheduled,
		Warnings:           warnings,
		Reasoning:          out.Reasoning,
		Confidence:         confidence,
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (p *LLMPlanner) fallbackResult(tasks []models.Task, existing []models.Event, prefs models.Preferences, constraints []models.Constraint, horizonDays int, reason string) models.PlanResult {
	if p.fallback == nil {
		return models.PlanResult{Warnings: []string{reason}, UnscheduledTaskIDs: taskIDs(tasks)}
	}
	result := p.fallback.Plan(tasks, existing, prefs, constraints, horizonDays)
	result.Confidence = 0.3
	result.Warnings = append([]string{reason}, result.Warnings...)
	return result
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// validateScheduledEvent checks §4.4 step 5's invariants: well-formed
// times with end>start, a task_id that belongs to the input set, and no
// overlap with non-moveable existing events or hard constraint blocks.
func validateScheduledEvent(se llmScheduledEvent, validIDs map[string]bool, existing []models.Event, constraints []models.Constraint) (models.Event, error) {
	if se.TaskID == "" || !validIDs[se.TaskID] {
		return models.Event{}, kinderr.New(kinderr.Validation, fmt.Sprintf("scheduled event references unknown task_id %q", se.TaskID))
	}
	start, err := time.Parse(time.RFC3339, se.StartTime)
	if err != nil {
		return models.Event{}, kinderr.Wrap(kinderr.Validation, "invalid start_time", err)
	}
	end, err := time.Parse(time.RFC3339, se.EndTime)
	if err != nil {
		return models.Event{}, kinderr.Wrap(kinderr.Validation, "invalid end_time", err)
	}
	if !end.After(start) {
		return models.Event{}, kinderr.New(kinderr.Validation, fmt.Sprintf("task %q: end_time must be after start_time", se.TaskID))
	}

	candidate := models.Event{ID: models.NewID(), Title: se.Title, StartTime: start, EndTime: end, Source: models.SourceManaged, IsMoveable: true}

	for _, e := range existing {
		if e.IsMoveable {
			continue
		}
		if models.Overlaps(candidate, e.Normalize()) {
			return models.Event{}, kinderr.New(kinderr.Validation, fmt.Sprintf("task %q overlaps non-moveable event %q", se.TaskID, e.ID))
		}
	}
	for _, c := range constraints {
		if !c.IsHard || c.Start == nil || c.End == nil {
			continue
		}
		block := models.Event{StartTime: *c.Start, EndTime: *c.End}
		if models.Overlaps(candidate, block) {
			return models.Event{}, kinderr.New(kinderr.Validation, fmt.Sprintf("task %q overlaps a hard constraint block", se.TaskID))
		}
	}

	return candidate, nil
}

// extractJSONObject locates the first '{' through the last '}' substring,
// per §4.4 step 4.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func buildUserPrompt(tasks []models.Task, existing []models.Event, prefs models.Preferences, constraints []models.Constraint, horizonDays int) string {
	tasksJSON, _ := json.Marshal(tasks)
	existingJSON, _ := json.Marshal(existing)
	prefsJSON, _ := json.Marshal(prefs)
	constraintsJSON, _ := json.Marshal(constraints)

	var b strings.Builder
	fmt.Fprintf(&b, "current_time: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "horizon_days: %d\n", horizonDays)
	fmt.Fprintf(&b, "preferences: %s\n", prefsJSON)
	fmt.Fprintf(&b, "existing_events: %s\n", existingJSON)
	fmt.Fprintf(&b, "tasks: %s\n", tasksJSON)
	fmt.Fprintf(&b, "constraints: %s\n", constraintsJSON)
	return b.String()
}
