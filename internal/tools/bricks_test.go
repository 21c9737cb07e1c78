package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/internal/repo"
	"github.com/haasonsaas/brickwork/pkg/models"
)

func TestCreateBrickTool_CreatesAndAssignsID(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	tool := createBrickTool{repos: repos}

	out, err := tool.Execute(context.Background(), map[string]any{
		"user_id":                    "u1",
		"title":                      "Ship the release",
		"category":                   "work",
		"priority":                   "high",
		"estimated_duration_minutes": float64(120),
	})
	require.NoError(t, err)
	result, ok := out.(map[string]string)
	require.True(t, ok)
	require.NotEmpty(t, result["brick_id"])

	stored, err := repos.Bricks().Get(context.Background(), "u1", result["brick_id"])
	require.NoError(t, err)
	require.Equal(t, "Ship the release", stored.Title)
}

func TestCreateBrickTool_RejectsMissingDuration(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	tool := createBrickTool{repos: repos}

	_, err := tool.Execute(context.Background(), map[string]any{
		"user_id":  "u1",
		"title":    "Ship the release",
		"category": "work",
		"priority": "high",
	})
	require.Error(t, err)
	kerr, ok := kinderr.As(err)
	require.True(t, ok)
	require.Equal(t, kinderr.Validation, kerr.Kind)
}

func TestUpdateBrickTool_RejectsUpdateToCompletedBrick(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	ctx := context.Background()

	create := createBrickTool{repos: repos}
	out, err := create.Execute(ctx, map[string]any{
		"user_id":                    "u1",
		"title":                      "Ship the release",
		"category":                   "work",
		"priority":                   "high",
		"estimated_duration_minutes": float64(120),
	})
	require.NoError(t, err)
	brickID := out.(map[string]string)["brick_id"]

	stored, err := repos.Bricks().Get(ctx, "u1", brickID)
	require.NoError(t, err)
	stored.Status = "completed"
	require.NoError(t, repos.Bricks().Update(ctx, stored))

	update := updateBrickTool{repos: repos}
	_, err = update.Execute(ctx, map[string]any{
		"user_id":  "u1",
		"brick_id": brickID,
		"title":    "Ship the release, again",
	})
	require.Error(t, err)
	kerr, ok := kinderr.As(err)
	require.True(t, ok)
	require.Equal(t, kinderr.Conflict, kerr.Kind)
}

func TestUpdateBrickTool_AppliesPartialFields(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	ctx := context.Background()

	create := createBrickTool{repos: repos}
	out, err := create.Execute(ctx, map[string]any{
		"user_id":                    "u1",
		"title":                      "Ship the release",
		"category":                   "work",
		"priority":                   "medium",
		"estimated_duration_minutes": float64(120),
	})
	require.NoError(t, err)
	brickID := out.(map[string]string)["brick_id"]

	update := updateBrickTool{repos: repos}
	result, err := update.Execute(ctx, map[string]any{
		"user_id":  "u1",
		"brick_id": brickID,
		"priority": "urgent",
	})
	require.NoError(t, err)
	require.Equal(t, "not_started", result.(map[string]string)["status"])

	stored, err := repos.Bricks().Get(ctx, "u1", brickID)
	require.NoError(t, err)
	require.Equal(t, "Ship the release", stored.Title)
	require.EqualValues(t, "urgent", stored.Priority)
}

func TestDeleteBrickTool_CascadesWhenRequested(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	ctx := context.Background()

	create := createBrickTool{repos: repos}
	out, err := create.Execute(ctx, map[string]any{
		"user_id":                    "u1",
		"title":                      "Ship the release",
		"category":                   "work",
		"priority":                   "medium",
		"estimated_duration_minutes": float64(120),
	})
	require.NoError(t, err)
	brickID := out.(map[string]string)["brick_id"]

	createQuanta := createQuantaTool{repos: repos}
	_, err = createQuanta.Execute(ctx, map[string]any{
		"user_id":                    "u1",
		"brick_id":                   brickID,
		"title":                      "Draft notes",
		"description":                "",
		"estimated_duration_minutes": float64(30),
		"order_index":                float64(0),
	})
	require.NoError(t, err)

	del := deleteBrickTool{repos: repos}
	_, err = del.Execute(ctx, map[string]any{
		"user_id":        "u1",
		"brick_id":       brickID,
		"delete_quantas": true,
	})
	require.NoError(t, err)

	_, err = repos.Bricks().Get(ctx, "u1", brickID)
	require.Error(t, err)
}

func TestListBricksTool_FiltersByCategory(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	ctx := context.Background()

	create := createBrickTool{repos: repos}
	_, err := create.Execute(ctx, map[string]any{
		"user_id":                    "u1",
		"title":                      "Work thing",
		"category":                   "work",
		"priority":                   "medium",
		"estimated_duration_minutes": float64(30),
	})
	require.NoError(t, err)
	_, err = create.Execute(ctx, map[string]any{
		"user_id":                    "u1",
		"title":                      "Health thing",
		"category":                   "health",
		"priority":                   "medium",
		"estimated_duration_minutes": float64(30),
	})
	require.NoError(t, err)

	list := listBricksTool{repos: repos}
	out, err := list.Execute(ctx, map[string]any{
		"user_id":  "u1",
		"category": "health",
	})
	require.NoError(t, err)
	bricks, ok := out.([]*models.Brick)
	require.True(t, ok)
	require.Len(t, bricks, 1)
	require.Equal(t, "Health thing", bricks[0].Title)
}
