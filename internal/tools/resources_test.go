package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeResourceCatalog struct {
	resources []ResourceSummary
}

func (f *fakeResourceCatalog) List(ctx context.Context, query ResourceQuery) ([]ResourceSummary, error) {
	var out []ResourceSummary
	for _, r := range f.resources {
		if query.Category != "" && r.Type != query.Category {
			continue
		}
		if query.Keyword != "" && r.Title != query.Keyword {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func TestListResourcesTool_ReturnsEmptyWithoutCatalog(t *testing.T) {
	tool := listResourcesTool{}
	out, err := tool.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestListResourcesTool_FiltersByCategory(t *testing.T) {
	catalog := &fakeResourceCatalog{resources: []ResourceSummary{
		{ID: "r1", Title: "Deep Work", Type: "book", URL: "https://example.com/r1"},
		{ID: "r2", Title: "Pomodoro Timer", Type: "tool", URL: "https://example.com/r2"},
	}}
	tool := listResourcesTool{catalog: catalog}

	out, err := tool.Execute(context.Background(), map[string]any{"category": "tool"})
	require.NoError(t, err)
	resources := out.([]ResourceSummary)
	require.Len(t, resources, 1)
	require.Equal(t, "Pomodoro Timer", resources[0].Title)
}

func TestSearchResourcesTool_RequiresKeyword(t *testing.T) {
	tool := searchResourcesTool{}
	_, err := tool.Execute(context.Background(), map[string]any{})
	require.Error(t, err)
}
