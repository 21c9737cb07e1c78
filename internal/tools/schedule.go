package tools

import (
	"context"
	"time"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/internal/repo"
	"github.com/haasonsaas/brickwork/pkg/models"
)

// Planner is the shared contract both HeuristicPlanner and LLMPlanner
// satisfy (§4.3/§4.4), adapted here with a context parameter so the LLM
// planner receives the caller's context; HeuristicAdapter ignores it.
type Planner interface {
	Plan(ctx context.Context, tasks []models.Task, existing []models.Event, prefs models.Preferences, constraints []models.Constraint, horizonDays int) models.PlanResult
}

// heuristicPlan is satisfied by *planner.HeuristicPlanner's synchronous
// Plan method; wrapped below to fit the Planner interface.
type heuristicPlan interface {
	Plan(tasks []models.Task, existing []models.Event, prefs models.Preferences, constraints []models.Constraint, horizonDays int) models.PlanResult
}

// HeuristicAdapter adapts a context-free heuristic planner to Planner.
type HeuristicAdapter struct{ Inner heuristicPlan }

func (a HeuristicAdapter) Plan(ctx context.Context, tasks []models.Task, existing []models.Event, prefs models.Preferences, constraints []models.Constraint, horizonDays int) models.PlanResult {
	return a.Inner.Plan(tasks, existing, prefs, constraints, horizonDays)
}

// ScheduleEntry summarizes a Brick whose due date (deadline, or target
// date when no deadline is set) falls within a schedule view's date range
// (§6's "schedule view" result, not otherwise typed by the spec's data
// model since scheduling views are a read projection over Bricks rather
// than a persisted entity). Quantas are not included.
type ScheduleEntry struct {
	BrickID  string     `json:"brick_id"`
	Title    string     `json:"title"`
	Priority string     `json:"priority"`
	Status   string     `json:"status"`
	Due      *time.Time `json:"due,omitempty"`
}

// ScheduleView is get_schedule's result shape.
type ScheduleView struct {
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Entries   []ScheduleEntry `json:"entries"`
}

type getScheduleTool struct{ repos repo.Repositories }

func (t getScheduleTool) Name() string        { return "get_schedule" }
func (t getScheduleTool) Description() string {
	return "Return Bricks whose target date or deadline falls within a date range."
}
func (t getScheduleTool) IdentityBound() bool { return true }
func (t getScheduleTool) ReadOnly() bool      { return true }

func (t getScheduleTool) Schema() string {
	return `{
  "type": "object",
  "required": ["user_id"],
  "properties": {
    "user_id": {"type": "string"},
    "start_date": {"type": "string"},
    "end_date": {"type": "string"}
  },
  "additionalProperties": false
}`
}

func (t getScheduleTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	userID, err := requireString(args, "user_id")
	if err != nil {
		return nil, err
	}
	start, err := argTime(args, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := argTime(args, "end_date")
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if start == nil {
		s := now
		start = &s
	}
	if end == nil {
		e := start.Add(7 * 24 * time.Hour)
		end = &e
	}

	bricks, err := t.repos.Bricks().List(ctx, userID, repo.ListOptions{})
	if err != nil {
		return nil, err
	}

	view := ScheduleView{StartDate: *start, EndDate: *end, Entries: []ScheduleEntry{}}
	for _, b := range bricks {
		due := b.Deadline
		if due == nil {
			due = b.TargetDate
		}
		if due == nil || due.Before(*start) || due.After(*end) {
			continue
		}
		view.Entries = append(view.Entries, ScheduleEntry{
			BrickID: b.ID, Title: b.Title, Priority: string(b.Priority), Status: string(b.Status), Due: due,
		})
	}
	return view, nil
}

func taskList(raw []any) []models.Task {
	tasks := make([]models.Task, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := argString(m, "id")
		title, _ := argString(m, "title")
		duration, _ := argInt(m, "estimated_duration_minutes")
		priority, _ := argString(m, "priority")
		preferred, _ := argString(m, "preferred_time")
		deadline, _ := argTime(m, "deadline")
		var deps []string
		for _, d := range argSlice(m, "dependencies") {
			if s, ok := d.(string); ok {
				deps = append(deps, s)
			}
		}
		if id == "" {
			id = models.NewID()
		}
		tasks = append(tasks, models.Task{
			ID: id, Title: title, EstimatedDurationMinutes: duration,
			Priority: models.Priority(priority), Deadline: deadline,
			PreferredTime: models.PreferredTime(preferred), Dependencies: deps,
		})
	}
	return tasks
}

func eventList(raw []any) []models.Event {
	events := make([]models.Event, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := argString(m, "id")
		title, _ := argString(m, "title")
		start, _ := argTime(m, "start_time")
		end, _ := argTime(m, "end_time")
		priority, _ := argString(m, "priority")
		moveable := argBool(m, "is_moveable")
		if id == "" {
			id = models.NewID()
		}
		ev := models.Event{ID: id, Title: title, Priority: models.Priority(priority), IsMoveable: moveable, Source: models.SourceManaged}
		if start != nil {
			ev.StartTime = *start
		}
		if end != nil {
			ev.EndTime = *end
		}
		events = append(events, ev)
	}
	return events
}

func preferencesFromArgs(m map[string]any) models.Preferences {
	if m == nil {
		return models.Preferences{
			Timezone: "UTC", WorkStart: "09:00", WorkEnd: "17:00",
			WorkDays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
			BreakFrequencyMin: 90, BreakDurationMin: 10, LunchStart: "12:00", LunchDurationMin: 30,
			PreferredTaskDurMin: 60,
		}
	}
	tz, _ := argString(m, "timezone")
	workStart, _ := argString(m, "work_start")
	workEnd, _ := argString(m, "work_end")
	lunchStart, _ := argString(m, "lunch_start")
	avoidAfter, _ := argString(m, "avoid_after")
	breakFreq, _ := argInt(m, "break_frequency_minutes")
	breakDur, _ := argInt(m, "break_duration_minutes")
	lunchDur, _ := argInt(m, "lunch_duration_minutes")
	preferredDur, _ := argInt(m, "preferred_task_duration_minutes")

	if tz == "" {
		tz = "UTC"
	}
	if workStart == "" {
		workStart = "09:00"
	}
	if workEnd == "" {
		workEnd = "17:00"
	}
	return models.Preferences{
		Timezone: tz, WorkStart: workStart, WorkEnd: workEnd,
		WorkDays:            []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		BreakFrequencyMin:   breakFreq,
		BreakDurationMin:    breakDur,
		LunchStart:          lunchStart,
		LunchDurationMin:    lunchDur,
		PreferredTaskDurMin: preferredDur,
		AvoidAfter:          avoidAfter,
	}
}

func constraintList(raw []any) []models.Constraint {
	out := make([]models.Constraint, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := argString(m, "type")
		desc, _ := argString(m, "description")
		hard := argBool(m, "is_hard")
		start, _ := argTime(m, "start")
		end, _ := argTime(m, "end")
		out = append(out, models.Constraint{Type: models.ConstraintType(typ), Description: desc, IsHard: hard, Start: start, End: end})
	}
	return out
}

type generateScheduleTool struct {
	heuristic Planner
	llm       Planner
	useLLM    bool
}

func (t generateScheduleTool) Name() string        { return "generate_schedule" }
func (t generateScheduleTool) Description() string { return "Schedule a set of tasks around existing events and preferences." }
func (t generateScheduleTool) IdentityBound() bool { return true }
func (t generateScheduleTool) ReadOnly() bool       { return false }

func (t generateScheduleTool) Schema() string {
	return `{
  "type": "object",
  "required": ["tasks"],
  "properties": {
    "user_id": {"type": "string"},
    "tasks": {"type": "array", "items": {"type": "object"}},
    "existing_events": {"type": "array", "items": {"type": "object"}},
    "preferences": {"type": "object"},
    "constraints": {"type": "array", "items": {"type": "object"}},
    "horizon_days": {"type": "integer", "minimum": 1},
    "use_llm_planner": {"type": "boolean"}
  },
  "additionalProperties": false
}`
}

func (t generateScheduleTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	tasks := taskList(argSlice(args, "tasks"))
	if len(tasks) == 0 {
		return nil, kinderr.New(kinderr.Validation, "tasks must be a non-empty array")
	}
	existing := eventList(argSlice(args, "existing_events"))
	prefs := preferencesFromArgs(argMap(args, "preferences"))
	constraints := constraintList(argSlice(args, "constraints"))
	horizon, ok := argInt(args, "horizon_days")
	if !ok {
		horizon = 7
	}

	p := t.heuristic
	if useLLM, present := args["use_llm_planner"]; (present && useLLM == true) || (!present && t.useLLM) {
		if t.llm != nil {
			p = t.llm
		}
	}
	return p.Plan(ctx, tasks, existing, prefs, constraints, horizon), nil
}

type optimizeScheduleTool struct {
	heuristic Planner
	llm       Planner
	useLLM    bool
}

func (t optimizeScheduleTool) Name() string        { return "optimize_schedule" }
func (t optimizeScheduleTool) Description() string {
	return "Re-plan an existing schedule's moveable events around stated goals."
}
func (t optimizeScheduleTool) IdentityBound() bool { return true }
func (t optimizeScheduleTool) ReadOnly() bool      { return false }

func (t optimizeScheduleTool) Schema() string {
	return `{
  "type": "object",
  "required": ["existing_schedule"],
  "properties": {
    "user_id": {"type": "string"},
    "existing_schedule": {"type": "array", "items": {"type": "object"}},
    "goals": {"type": "array", "items": {"type": "object"}},
    "preferences": {"type": "object"},
    "horizon_days": {"type": "integer", "minimum": 1},
    "use_llm_planner": {"type": "boolean"}
  },
  "additionalProperties": false
}`
}

// optimizeScheduleTool reframes existing_schedule as a planning problem:
// moveable events become Tasks to re-place, non-moveable ones stay as
// fixed events the planner must route around, and goals become soft
// constraints describing desired outcomes.
func (t optimizeScheduleTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	schedule := eventList(argSlice(args, "existing_schedule"))
	if len(schedule) == 0 {
		return nil, kinderr.New(kinderr.Validation, "existing_schedule must be a non-empty array")
	}

	var tasks []models.Task
	var fixed []models.Event
	for _, ev := range schedule {
		if !ev.IsMoveable {
			fixed = append(fixed, ev)
			continue
		}
		duration := int(ev.EndTime.Sub(ev.StartTime).Minutes())
		if duration <= 0 {
			duration = 30
		}
		priority := ev.Priority
		if priority == "" {
			priority = models.PriorityMedium
		}
		tasks = append(tasks, models.Task{ID: ev.ID, Title: ev.Title, EstimatedDurationMinutes: duration, Priority: priority})
	}
	if len(tasks) == 0 {
		return nil, kinderr.New(kinderr.Validation, "existing_schedule has no moveable events to optimize")
	}

	var constraints []models.Constraint
	for _, g := range argSlice(args, "goals") {
		if m, ok := g.(map[string]any); ok {
			desc, _ := argString(m, "description")
			constraints = append(constraints, models.Constraint{Type: models.ConstraintCustom, Description: desc, IsHard: false})
		}
	}

	prefs := preferencesFromArgs(argMap(args, "preferences"))
	horizon, ok := argInt(args, "horizon_days")
	if !ok {
		horizon = 7
	}

	p := t.heuristic
	if useLLM, present := args["use_llm_planner"]; (present && useLLM == true) || (!present && t.useLLM) {
		if t.llm != nil {
			p = t.llm
		}
	}
	return p.Plan(ctx, tasks, fixed, prefs, constraints, horizon), nil
}
