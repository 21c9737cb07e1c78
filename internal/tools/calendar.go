package tools

import (
	"context"

	"github.com/haasonsaas/brickwork/internal/backoff"
	"github.com/haasonsaas/brickwork/internal/calendarprovider"
	"github.com/haasonsaas/brickwork/internal/conflict"
	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/pkg/models"
)

type listCalendarEventsTool struct{ calendar calendarprovider.Provider }

func (t listCalendarEventsTool) Name() string        { return "list_calendar_events" }
func (t listCalendarEventsTool) Description() string { return "List events from a calendar within a time window." }
func (t listCalendarEventsTool) IdentityBound() bool  { return true }
func (t listCalendarEventsTool) ReadOnly() bool       { return true }

func (t listCalendarEventsTool) Schema() string {
	return `{
  "type": "object",
  "required": ["user_id", "calendar_id", "start", "end"],
  "properties": {
    "user_id": {"type": "string"},
    "calendar_id": {"type": "string"},
    "start": {"type": "string"},
    "end": {"type": "string"},
    "max": {"type": "integer", "minimum": 1}
  },
  "additionalProperties": false
}`
}

func (t listCalendarEventsTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	if t.calendar == nil {
		return nil, kinderr.New(kinderr.Internal, "no calendar provider configured")
	}
	userID, err := requireString(args, "user_id")
	if err != nil {
		return nil, err
	}
	calendarID, err := requireString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
	start, err := argTime(args, "start")
	if err != nil {
		return nil, err
	}
	end, err := argTime(args, "end")
	if err != nil {
		return nil, err
	}
	if start == nil || end == nil {
		return nil, kinderr.New(kinderr.Validation, "start and end are required")
	}

	events, err := t.calendar.ListEvents(ctx, userID, calendarID, *start, *end)
	if err != nil {
		return nil, err
	}
	if max, ok := argInt(args, "max"); ok && max > 0 && len(events) > max {
		events = events[:max]
	}
	return events, nil
}

// SyncSummary is sync_calendar's result (§6): what changed plus any
// conflicts detected over the events the provider returned for the
// window, per SPEC_FULL's
// supplemented sync-conflict-strategy behavior.
type SyncSummary struct {
	EventsAdded   int                 `json:"events_added"`
	EventsUpdated int                 `json:"events_updated"`
	Conflicts     []models.Conflict   `json:"conflicts"`
	Resolutions   []models.Resolution `json:"resolutions,omitempty"`
}

type syncCalendarTool struct {
	calendar  calendarprovider.Provider
	conflicts *conflictCache
}

func (t syncCalendarTool) Name() string        { return "sync_calendar" }
func (t syncCalendarTool) Description() string {
	return "Sync events from an external calendar and detect scheduling conflicts."
}
func (t syncCalendarTool) IdentityBound() bool { return true }
func (t syncCalendarTool) ReadOnly() bool      { return false }

func (t syncCalendarTool) Schema() string {
	return `{
  "type": "object",
  "required": ["user_id", "calendar_id", "start", "end"],
  "properties": {
    "user_id": {"type": "string"},
    "calendar_id": {"type": "string"},
    "start": {"type": "string"},
    "end": {"type": "string"},
    "conflict_strategy": {"type": "string", "enum": ["auto", "keep_existing", "replace_with_new", "none"]}
  },
  "additionalProperties": false
}`
}

// Execute counts every synced event as "added": this layer has no local
// event store to diff against, so added vs. updated is not yet
// distinguishable (see DESIGN.md open question).
func (t syncCalendarTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	if t.calendar == nil {
		return nil, kinderr.New(kinderr.Internal, "no calendar provider configured")
	}
	userID, err := requireString(args, "user_id")
	if err != nil {
		return nil, err
	}
	calendarID, err := requireString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
	start, err := argTime(args, "start")
	if err != nil {
		return nil, err
	}
	end, err := argTime(args, "end")
	if err != nil {
		return nil, err
	}
	if start == nil || end == nil {
		return nil, kinderr.New(kinderr.Validation, "start and end are required")
	}
	strategy, _ := argString(args, "conflict_strategy")

	var events []models.Event
	err = backoff.Retry(ctx, backoff.TurnRetryPolicy(), 3, kinderr.Retryable, func(ctx context.Context) error {
		var listErr error
		events, listErr = t.calendar.ListEvents(ctx, userID, calendarID, *start, *end)
		return listErr
	})
	if err != nil {
		return nil, err
	}

	conflicts := conflict.DetectConflicts(events, &conflict.Window{Start: *start, End: *end})
	if t.conflicts != nil {
		t.conflicts.store(userID, conflicts)
	}

	summary := SyncSummary{EventsAdded: len(events), Conflicts: conflicts}
	if strategy == "auto" {
		summary.Resolutions = conflict.AutoResolve(conflicts, nil)
	}
	return summary, nil
}
