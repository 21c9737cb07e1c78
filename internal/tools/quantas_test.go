package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/internal/repo"
	"github.com/haasonsaas/brickwork/pkg/models"
)

func createTestBrick(t *testing.T, repos repo.Repositories, userID string) string {
	t.Helper()
	tool := createBrickTool{repos: repos}
	out, err := tool.Execute(context.Background(), map[string]any{
		"user_id":                    userID,
		"title":                      "Plan the offsite",
		"category":                   "work",
		"priority":                   "medium",
		"estimated_duration_minutes": float64(240),
	})
	require.NoError(t, err)
	return out.(map[string]string)["brick_id"]
}

func TestCreateQuantaTool_RejectsUnknownBrick(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	tool := createQuantaTool{repos: repos}

	_, err := tool.Execute(context.Background(), map[string]any{
		"user_id":                    "u1",
		"brick_id":                   "does-not-exist",
		"title":                      "Book venue",
		"description":                "",
		"estimated_duration_minutes": float64(30),
		"order_index":                float64(0),
	})
	require.Error(t, err)
	kerr, ok := kinderr.As(err)
	require.True(t, ok)
	require.Equal(t, kinderr.NotFound, kerr.Kind)
}

func TestCreateQuantaTool_CreatesUnderOwningBrick(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	brickID := createTestBrick(t, repos, "u1")

	tool := createQuantaTool{repos: repos}
	out, err := tool.Execute(context.Background(), map[string]any{
		"user_id":                    "u1",
		"brick_id":                   brickID,
		"title":                      "Book venue",
		"description":                "",
		"estimated_duration_minutes": float64(30),
		"order_index":                float64(0),
	})
	require.NoError(t, err)
	quantaID := out.(map[string]string)["quanta_id"]
	require.NotEmpty(t, quantaID)

	stored, err := repos.Quantas().Get(context.Background(), quantaID)
	require.NoError(t, err)
	require.Equal(t, brickID, stored.BrickID)
}

func TestUpdateQuantaTool_AppliesStatusChange(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	ctx := context.Background()
	brickID := createTestBrick(t, repos, "u1")

	create := createQuantaTool{repos: repos}
	out, err := create.Execute(ctx, map[string]any{
		"user_id":                    "u1",
		"brick_id":                   brickID,
		"title":                      "Book venue",
		"description":                "",
		"estimated_duration_minutes": float64(30),
		"order_index":                float64(0),
	})
	require.NoError(t, err)
	quantaID := out.(map[string]string)["quanta_id"]

	update := updateQuantaTool{repos: repos}
	result, err := update.Execute(ctx, map[string]any{
		"quanta_id": quantaID,
		"status":    "completed",
	})
	require.NoError(t, err)
	require.Equal(t, "completed", result.(map[string]string)["status"])
}

func TestListQuantasTool_ScopesToBrick(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	ctx := context.Background()
	brickID := createTestBrick(t, repos, "u1")
	otherBrickID := createTestBrick(t, repos, "u1")

	create := createQuantaTool{repos: repos}
	_, err := create.Execute(ctx, map[string]any{
		"user_id": "u1", "brick_id": brickID, "title": "A", "description": "",
		"estimated_duration_minutes": float64(10), "order_index": float64(0),
	})
	require.NoError(t, err)
	_, err = create.Execute(ctx, map[string]any{
		"user_id": "u1", "brick_id": otherBrickID, "title": "B", "description": "",
		"estimated_duration_minutes": float64(10), "order_index": float64(0),
	})
	require.NoError(t, err)

	list := listQuantasTool{repos: repos}
	out, err := list.Execute(ctx, map[string]any{"brick_id": brickID})
	require.NoError(t, err)
	quantas := out.([]*models.Quanta)
	require.Len(t, quantas, 1)
	require.Equal(t, "A", quantas[0].Title)
}

func TestDeleteQuantaTool_RemovesSingleQuanta(t *testing.T) {
	repos := repo.NewMemoryRepositories()
	ctx := context.Background()
	brickID := createTestBrick(t, repos, "u1")

	create := createQuantaTool{repos: repos}
	out, err := create.Execute(ctx, map[string]any{
		"user_id": "u1", "brick_id": brickID, "title": "A", "description": "",
		"estimated_duration_minutes": float64(10), "order_index": float64(0),
	})
	require.NoError(t, err)
	quantaID := out.(map[string]string)["quanta_id"]

	del := deleteQuantaTool{repos: repos}
	_, err = del.Execute(ctx, map[string]any{"quanta_id": quantaID})
	require.NoError(t, err)

	_, err = repos.Quantas().Get(ctx, quantaID)
	require.Error(t, err)
}
