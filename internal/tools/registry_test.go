package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/internal/repo"
)

func newTestRegistry(t *testing.T) (*ToolRegistry, repo.Repositories) {
	t.Helper()
	repos := repo.NewMemoryRepositories()
	r := NewToolRegistry()
	_, err := RegisterAll(r, Dependencies{Repos: repos})
	require.NoError(t, err)
	return r, repos
}

func TestToolRegistry_DispatchRejectsUnknownTool(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Dispatch(context.Background(), "no_such_tool", map[string]any{})
	require.Error(t, err)
	kerr, ok := kinderr.As(err)
	require.True(t, ok)
	require.Equal(t, kinderr.Validation, kerr.Kind)
}

func TestToolRegistry_DispatchRejectsInvalidArgs(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Dispatch(context.Background(), "create_brick", map[string]any{
		"user_id": "u1",
	})
	require.Error(t, err)
	kerr, ok := kinderr.As(err)
	require.True(t, ok)
	require.Equal(t, kinderr.Validation, kerr.Kind)
}

func TestToolRegistry_DispatchRejectsUnknownProperty(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Dispatch(context.Background(), "create_brick", map[string]any{
		"user_id":                    "u1",
		"title":                      "Write report",
		"category":                   "work",
		"priority":                   "medium",
		"estimated_duration_minutes": 60,
		"not_a_real_field":           true,
	})
	require.Error(t, err)
}

func TestToolRegistry_DispatchExecutesValidCall(t *testing.T) {
	r, _ := newTestRegistry(t)
	out, err := r.Dispatch(context.Background(), "create_brick", map[string]any{
		"user_id":                    "u1",
		"title":                      "Write report",
		"category":                   "work",
		"priority":                   "medium",
		"estimated_duration_minutes": 60,
	})
	require.NoError(t, err)
	require.Contains(t, out, "brick_id")
}

func TestToolRegistry_AsLLMToolsCoversEveryRegisteredTool(t *testing.T) {
	r, _ := newTestRegistry(t)
	schemas := r.AsLLMTools()
	require.Len(t, schemas, 16)
	for _, s := range schemas {
		require.NotEmpty(t, s.Name)
		require.NotEmpty(t, s.Schema)
	}
}

func TestParseArgs_AcceptsDirectObjectAndNestedString(t *testing.T) {
	direct, err := ParseArgs([]byte(`{"a":1}`))
	require.NoError(t, err)
	require.Equal(t, float64(1), direct["a"])

	nested, err := ParseArgs([]byte(`"{\"a\":2}"`))
	require.NoError(t, err)
	require.Equal(t, float64(2), nested["a"])

	empty, err := ParseArgs(nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestIdentityBound_MatchesRegisteredMutatingAndReadTools(t *testing.T) {
	require.True(t, IdentityBound("create_brick"))
	require.True(t, IdentityBound("list_calendar_events"))
	require.False(t, IdentityBound("no_such_tool"))
}
