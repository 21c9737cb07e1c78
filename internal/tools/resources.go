package tools

import "context"

// ResourceSummary is the read-only shape list_resources/search_resources
// return: a pointer into whatever catalog the caller wires, never a
// recommendation decision made inside core (§1 Non-goal, SPEC_FULL
// supplemented features).
type ResourceSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
	URL   string `json:"url"`
}

// ResourceQuery narrows a resource lookup by category and/or keyword.
type ResourceQuery struct {
	Category string
	Keyword  string
}

// ResourceCatalog is injected by the caller; core carries no
// recommendation logic of its own.
type ResourceCatalog interface {
	List(ctx context.Context, query ResourceQuery) ([]ResourceSummary, error)
}

type listResourcesTool struct{ catalog ResourceCatalog }

func (t listResourcesTool) Name() string        { return "list_resources" }
func (t listResourcesTool) Description() string { return "List resources, optionally filtered by category." }
func (t listResourcesTool) IdentityBound() bool  { return true }
func (t listResourcesTool) ReadOnly() bool       { return true }

func (t listResourcesTool) Schema() string {
	return `{
  "type": "object",
  "properties": {
    "user_id": {"type": "string"},
    "category": {"type": "string"}
  },
  "additionalProperties": false
}`
}

func (t listResourcesTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	if t.catalog == nil {
		return []ResourceSummary{}, nil
	}
	category, _ := argString(args, "category")
	return t.catalog.List(ctx, ResourceQuery{Category: category})
}

type searchResourcesTool struct{ catalog ResourceCatalog }

func (t searchResourcesTool) Name() string        { return "search_resources" }
func (t searchResourcesTool) Description() string { return "Search resources by keyword." }
func (t searchResourcesTool) IdentityBound() bool  { return true }
func (t searchResourcesTool) ReadOnly() bool       { return true }

func (t searchResourcesTool) Schema() string {
	return `{
  "type": "object",
  "required": ["keyword"],
  "properties": {
    "user_id": {"type": "string"},
    "keyword": {"type": "string", "minLength": 1}
  },
  "additionalProperties": false
}`
}

func (t searchResourcesTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	keyword, err := requireString(args, "keyword")
	if err != nil {
		return nil, err
	}
	if t.catalog == nil {
		return []ResourceSummary{}, nil
	}
	return t.catalog.List(ctx, ResourceQuery{Keyword: keyword})
}
