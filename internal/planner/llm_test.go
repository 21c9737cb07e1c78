package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/brickwork/internal/clock"
	"github.com/haasonsaas/brickwork/pkg/models"
)

type stubProvider struct {
	response string
	err      error
}

func (s stubProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.response, s.err
}

func fixedFallback(at time.Time) *HeuristicPlanner {
	return NewHeuristicPlanner(clock.Fixed{At: at})
}

func TestLLMPlanner_HappyPath(t *testing.T) {
	monday9am := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	response := `Here is the plan:
{"scheduled_events":[{"task_id":"t1","title":"Write report","start_time":"2024-01-15T10:00:00Z","end_time":"2024-01-15T11:00:00Z"}],"reasoning":"placed before lunch"}
Hope that helps!`

	p := NewLLMPlanner(stubProvider{response: response}, fixedFallback(monday9am))
	tasks := []models.Task{{ID: "t1", Title: "Write report", EstimatedDurationMinutes: 60, Priority: models.PriorityMedium}}

	result := p.Plan(context.Background(), tasks, nil, models.Preferences{Timezone: "UTC"}, nil, 1)

	require.Len(t, result.ScheduledEvents, 1)
	require.Empty(t, result.UnscheduledTaskIDs)
	require.Equal(t, "placed before lunch", result.Reasoning)
	require.InDelta(t, 0.9, result.Confidence, 0.001)
}

func TestLLMPlanner_MalformedJSONFallsBack(t *testing.T) {
	monday9am := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	p := NewLLMPlanner(stubProvider{response: "not json at all"}, fixedFallback(monday9am))
	tasks := []models.Task{{ID: "t1", Title: "Task", EstimatedDurationMinutes: 30, Priority: models.PriorityMedium}}

	result := p.Plan(context.Background(), tasks, nil, models.Preferences{Timezone: "UTC", WorkStart: "09:00", WorkEnd: "17:00"}, nil, 1)

	require.Equal(t, 0.3, result.Confidence)
	require.Contains(t, result.Warnings, "LLM parse failure")
	require.Len(t, result.ScheduledEvents, 1)
}

func TestLLMPlanner_ProviderErrorFallsBack(t *testing.T) {
	monday9am := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	p := NewLLMPlanner(stubProvider{err: errors.New("upstream unavailable")}, fixedFallback(monday9am))
	tasks := []models.Task{{ID: "t1", Title: "Task", EstimatedDurationMinutes: 30, Priority: models.PriorityMedium}}

	result := p.Plan(context.Background(), tasks, nil, models.Preferences{Timezone: "UTC", WorkStart: "09:00", WorkEnd: "17:00"}, nil, 1)

	require.Equal(t, 0.3, result.Confidence)
	require.Contains(t, result.Warnings, "LLM completion failed")
	require.Len(t, result.ScheduledEvents, 1)
}

func TestLLMPlanner_InvalidScheduledEventIsRemovedAndWarned(t *testing.T) {
	monday9am := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	response := `{"scheduled_events":[
		{"task_id":"unknown","title":"Ghost","start_time":"2024-01-15T10:00:00Z","end_time":"2024-01-15T11:00:00Z"},
		{"task_id":"t1","title":"Valid","start_time":"2024-01-15T10:00:00Z","end_time":"2024-01-15T09:00:00Z"}
	],"reasoning":"test"}`
	p := NewLLMPlanner(stubProvider{response: response}, fixedFallback(monday9am))
	tasks := []models.Task{{ID: "t1", Title: "Valid", EstimatedDurationMinutes: 60, Priority: models.PriorityMedium}}

	result := p.Plan(context.Background(), tasks, nil, models.Preferences{Timezone: "UTC"}, nil, 1)

	require.Empty(t, result.ScheduledEvents)
	require.ElementsMatch(t, []string{"t1"}, result.UnscheduledTaskIDs)
	require.Len(t, result.Warnings, 2)
}

func TestLLMPlanner_OverlapWithFixedEventRejected(t *testing.T) {
	monday9am := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	fixed := models.Event{
		ID: "meeting", StartTime: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		EndTime: time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC), IsMoveable: false,
	}
	response := `{"scheduled_events":[{"task_id":"t1","title":"Clash","start_time":"2024-01-15T10:30:00Z","end_time":"2024-01-15T11:30:00Z"}],"reasoning":"test"}`
	p := NewLLMPlanner(stubProvider{response: response}, fixedFallback(monday9am))
	tasks := []models.Task{{ID: "t1", Title: "Clash", EstimatedDurationMinutes: 60, Priority: models.PriorityMedium}}

	result := p.Plan(context.Background(), tasks, []models.Event{fixed}, models.Preferences{Timezone: "UTC"}, nil, 1)

	require.Empty(t, result.ScheduledEvents)
	require.ElementsMatch(t, []string{"t1"}, result.UnscheduledTaskIDs)
}

func TestLLMPlanner_NoProviderFallsBack(t *testing.T) {
	monday9am := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	p := NewLLMPlanner(nil, fixedFallback(monday9am))
	tasks := []models.Task{{ID: "t1", Title: "Task", EstimatedDurationMinutes: 30, Priority: models.PriorityMedium}}

	result := p.Plan(context.Background(), tasks, nil, models.Preferences{Timezone: "UTC", WorkStart: "09:00", WorkEnd: "17:00"}, nil, 1)

	require.Equal(t, 0.3, result.Confidence)
	require.Contains(t, result.Warnings, "no LLM provider configured")
}
