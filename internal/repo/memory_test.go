package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/pkg/models"
)

func TestMemoryRepositories_BrickCRUD(t *testing.T) {
	repos := NewMemoryRepositories()
	ctx := context.Background()

	brick := &models.Brick{UserID: "u1", Title: "Write report", Category: models.CategoryWork, Priority: models.PriorityMedium, Status: models.BrickNotStarted, EstimatedDurationMinutes: 60}
	require.NoError(t, repos.Bricks().Create(ctx, brick))
	require.NotEmpty(t, brick.ID)

	got, err := repos.Bricks().Get(ctx, "u1", brick.ID)
	require.NoError(t, err)
	require.Equal(t, "Write report", got.Title)

	got.Title = "Write the report"
	require.NoError(t, repos.Bricks().Update(ctx, got))

	got2, err := repos.Bricks().Get(ctx, "u1", brick.ID)
	require.NoError(t, err)
	require.Equal(t, "Write the report", got2.Title)

	_, err = repos.Bricks().Get(ctx, "other-user", brick.ID)
	require.Error(t, err)
}

func TestMemoryRepositories_DeleteRequiresCascadeWithQuantas(t *testing.T) {
	repos := NewMemoryRepositories()
	ctx := context.Background()

	brick := &models.Brick{UserID: "u1", Title: "Brick", Category: models.CategoryWork, Priority: models.PriorityMedium, EstimatedDurationMinutes: 30}
	require.NoError(t, repos.Bricks().Create(ctx, brick))

	quanta := &models.Quanta{BrickID: brick.ID, Title: "Step 1", EstimatedDurationMinutes: 15}
	require.NoError(t, repos.Quantas().Create(ctx, quanta))

	err := repos.Bricks().Delete(ctx, "u1", brick.ID, false)
	require.Error(t, err)
	kerr, ok := kinderr.As(err)
	require.True(t, ok)
	require.Equal(t, kinderr.Conflict, kerr.Kind)

	require.NoError(t, repos.Bricks().Delete(ctx, "u1", brick.ID, true))
	_, err = repos.Bricks().Get(ctx, "u1", brick.ID)
	require.Error(t, err)
	remaining, err := repos.Quantas().ListByBrick(ctx, brick.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestMemoryRepositories_MessageHistoryTrim(t *testing.T) {
	repos := NewMemoryRepositories()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repos.Messages().Append(ctx, &models.Message{ConversationID: "c1", Role: models.RoleUser, Content: "msg"}))
	}

	history, err := repos.Messages().History(ctx, "c1", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
}

func TestMemoryRepositories_ListFiltersByStatus(t *testing.T) {
	repos := NewMemoryRepositories()
	ctx := context.Background()

	b1 := &models.Brick{UserID: "u1", Title: "A", Status: models.BrickNotStarted}
	b2 := &models.Brick{UserID: "u1", Title: "B", Status: models.BrickCompleted}
	require.NoError(t, repos.Bricks().Create(ctx, b1))
	require.NoError(t, repos.Bricks().Create(ctx, b2))

	list, err := repos.Bricks().List(ctx, "u1", ListOptions{Status: models.BrickCompleted})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "B", list[0].Title)
}
