package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/brickwork/internal/clock"
	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/internal/planner"
	"github.com/haasonsaas/brickwork/internal/repo"
	"github.com/haasonsaas/brickwork/pkg/models"
)

func TestGetScheduleTool_FiltersByDeadlineRange(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	ctx := context.Background()
	now := time.Now().UTC()

	near := now.Add(2 * 24 * time.Hour)
	far := now.Add(60 * 24 * time.Hour)

	b1 := &models.Brick{UserID: "u1", Title: "Due soon", Category: models.CategoryWork, Priority: models.PriorityHigh, EstimatedDurationMinutes: 30, Deadline: &near}
	b2 := &models.Brick{UserID: "u1", Title: "Due later", Category: models.CategoryWork, Priority: models.PriorityLow, EstimatedDurationMinutes: 30, Deadline: &far}
	require.NoError(t, repos.Bricks().Create(ctx, b1))
	require.NoError(t, repos.Bricks().Create(ctx, b2))

	tool := getScheduleTool{repos: repos}
	out, err := tool.Execute(ctx, map[string]any{
		"user_id":    "u1",
		"start_date": now.Format(time.RFC3339),
		"end_date":   now.Add(7 * 24 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	view := out.(ScheduleView)
	require.Len(t, view.Entries, 1)
	require.Equal(t, "Due soon", view.Entries[0].Title)
}

func TestGetScheduleTool_DefaultsToSevenDayWindow(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	tool := getScheduleTool{repos: repos}
	out, err := tool.Execute(context.Background(), map[string]any{"user_id": "u1"})
	require.NoError(t, err)
	view := out.(ScheduleView)
	require.WithinDuration(t, view.StartDate.Add(7*24*time.Hour), view.EndDate, time.Second)
}

func TestGenerateScheduleTool_RejectsEmptyTaskList(t *testing.T) {
	heuristic := HeuristicAdapter{Inner: planner.NewHeuristicPlanner(clock.Real{})}
	tool := generateScheduleTool{heuristic: heuristic}
	_, err := tool.Execute(context.Background(), map[string]any{"tasks": []any{}})
	require.Error(t, err)
	kerr, ok := kinderr.As(err)
	require.True(t, ok)
	require.Equal(t, kinderr.Validation, kerr.Kind)
}

func TestGenerateScheduleTool_DelegatesToHeuristicPlanner(t *testing.T) {
	heuristic := HeuristicAdapter{Inner: planner.NewHeuristicPlanner(clock.Real{})}
	tool := generateScheduleTool{heuristic: heuristic}

	out, err := tool.Execute(context.Background(), map[string]any{
		"tasks": []any{
			map[string]any{
				"id":                         "t1",
				"title":                      "Draft proposal",
				"estimated_duration_minutes": float64(60),
				"priority":                   "high",
			},
		},
		"horizon_days": float64(3),
	})
	require.NoError(t, err)
	result := out.(models.PlanResult)
	require.True(t, result.Confidence > 0)
}

func TestOptimizeScheduleTool_RejectsScheduleWithNoMoveableEvents(t *testing.T) {
	heuristic := HeuristicAdapter{Inner: planner.NewHeuristicPlanner(clock.Real{})}
	tool := optimizeScheduleTool{heuristic: heuristic}

	now := time.Now().UTC()
	_, err := tool.Execute(context.Background(), map[string]any{
		"existing_schedule": []any{
			map[string]any{
				"id":          "e1",
				"title":       "Fixed meeting",
				"start_time":  now.Format(time.RFC3339),
				"end_time":    now.Add(time.Hour).Format(time.RFC3339),
				"is_moveable": false,
			},
		},
	})
	require.Error(t, err)
	kerr, ok := kinderr.As(err)
	require.True(t, ok)
	require.Equal(t, kinderr.Validation, kerr.Kind)
}

func TestOptimizeScheduleTool_ReframesMoveableEventsAsTasks(t *testing.T) {
	heuristic := HeuristicAdapter{Inner: planner.NewHeuristicPlanner(clock.Real{})}
	tool := optimizeScheduleTool{heuristic: heuristic}

	now := time.Now().UTC()
	out, err := tool.Execute(context.Background(), map[string]any{
		"existing_schedule": []any{
			map[string]any{
				"id":          "e1",
				"title":       "Focus block",
				"start_time":  now.Format(time.RFC3339),
				"end_time":    now.Add(90 * time.Minute).Format(time.RFC3339),
				"is_moveable": true,
				"priority":    "high",
			},
			map[string]any{
				"id":          "e2",
				"title":       "Standup",
				"start_time":  now.Format(time.RFC3339),
				"end_time":    now.Add(30 * time.Minute).Format(time.RFC3339),
				"is_moveable": false,
			},
		},
		"goals": []any{
			map[string]any{"description": "protect mornings for deep work"},
		},
	})
	require.NoError(t, err)
	_, ok := out.(models.PlanResult)
	require.True(t, ok)
}
