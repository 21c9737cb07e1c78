package tools

import (
	"context"
	"sync"

	"github.com/haasonsaas/brickwork/internal/conflict"
	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/pkg/models"
)

// conflictCache holds the most recently detected conflicts per user so
// apply_conflict_resolution can look one up by id without the caller
// re-sending the full event payload (§6 lists apply_conflict_resolution's
// arguments as conflict_id/strategy only). Detection is re-run by
// sync_calendar each time, so this cache is a convenience index, not a
// second source of truth: conflicts are never mutated here.
type conflictCache struct {
	mu   sync.RWMutex
	byID map[string]map[string]models.Conflict // user_id -> conflict_id -> conflict
}

func newConflictCache() *conflictCache {
	return &conflictCache{byID: make(map[string]map[string]models.Conflict)}
}

func (c *conflictCache) store(userID string, conflicts []models.Conflict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := make(map[string]models.Conflict, len(conflicts))
	for _, cf := range conflicts {
		m[cf.ID] = cf
	}
	c.byID[userID] = m
}

func (c *conflictCache) get(userID, conflictID string) (models.Conflict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byID[userID]
	if !ok {
		return models.Conflict{}, false
	}
	cf, ok := m[conflictID]
	return cf, ok
}

type applyConflictResolutionTool struct{ conflicts *conflictCache }

func (t applyConflictResolutionTool) Name() string { return "apply_conflict_resolution" }
func (t applyConflictResolutionTool) Description() string {
	return "Apply resolution strategies to previously detected conflicts."
}
func (t applyConflictResolutionTool) IdentityBound() bool { return true }
func (t applyConflictResolutionTool) ReadOnly() bool      { return false }

func (t applyConflictResolutionTool) Schema() string {
	return `{
  "type": "object",
  "required": ["user_id", "resolutions"],
  "properties": {
    "user_id": {"type": "string"},
    "resolutions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["conflict_id", "strategy"],
        "properties": {
          "conflict_id": {"type": "string"},
          "strategy": {"type": "string", "enum": ["keep_existing", "replace_with_new", "merge_events", "move_to_alternative_time", "split_event", "cancel_event", "user_decision"]},
          "user_decision": {
            "type": "object",
            "properties": {
              "keep": {"type": "array", "items": {"type": "string"}},
              "discard": {"type": "array", "items": {"type": "string"}}
            }
          }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`
}

func (t applyConflictResolutionTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	userID, err := requireString(args, "user_id")
	if err != nil {
		return nil, err
	}
	if t.conflicts == nil {
		return nil, kinderr.New(kinderr.Internal, "no conflict cache configured")
	}

	items := argSlice(args, "resolutions")
	if len(items) == 0 {
		return nil, kinderr.New(kinderr.Validation, "resolutions must be a non-empty array")
	}

	out := make([]models.Resolution, 0, len(items))
	for _, raw := range items {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		conflictID, _ := argString(m, "conflict_id")
		strategy, _ := argString(m, "strategy")

		cf, found := t.conflicts.get(userID, conflictID)
		if !found {
			return nil, kinderr.New(kinderr.NotFound, "conflict not found: "+conflictID).
				WithHint("conflicts are only cached after a sync_calendar call; re-run sync_calendar first")
		}

		var decision *models.UserDecision
		if ud := argMap(m, "user_decision"); ud != nil {
			decision = &models.UserDecision{}
			for _, k := range argSlice(ud, "keep") {
				if s, ok := k.(string); ok {
					decision.Keep = append(decision.Keep, s)
				}
			}
			for _, d := range argSlice(ud, "discard") {
				if s, ok := d.(string); ok {
					decision.Discard = append(decision.Discard, s)
				}
			}
		}

		res, err := conflict.ResolveConflict(cf, models.ResolutionStrategy(strategy), decision)
		if err != nil {
			return nil, kinderr.New(kinderr.Validation, err.Error())
		}
		out = append(out, res)
	}
	return out, nil
}
