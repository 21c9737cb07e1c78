// Package conflict implements the Calendar Conflict Engine (C2, §4.2): a
// pure, deterministic, replay-safe function from an event set to a set of
// conflicts, plus resolution-strategy application.
package conflict

import (
	"sort"
	"strings"
	"time"

	"github.com/haasonsaas/brickwork/pkg/models"
)

// Window bounds the detection comparison horizon; a nil Window falls back
// to the 1-day proximity rule from §4.2.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w *Window) contains(t time.Time) bool {
	if w == nil {
		return false
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

const proximityWindow = 24 * time.Hour

// DetectConflicts finds overlap, priority, recurring, and double-booking
// conflicts among events. It is pure and idempotent (§8 invariant 1):
// calling it twice, or on any permutation of the same input, yields the
// same set of conflicts by ID.
func DetectConflicts(events []models.Event, window *Window) []models.Conflict {
	if len(events) == 0 {
		return []models.Conflict{}
	}

	normalized := make([]models.Event, 0, len(events))
	var skipped []string
	for _, e := range events {
		e = e.Normalize()
		if e.ID == "" {
			continue
		}
		if !e.IsAllDay && !e.EndTime.After(e.StartTime) {
			skipped = append(skipped, e.ID)
			continue
		}
		normalized = append(normalized, e)
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		if normalized[i].StartTime.Equal(normalized[j].StartTime) {
			return normalized[i].ID < normalized[j].ID
		}
		return normalized[i].StartTime.Before(normalized[j].StartTime)
	})

	// overlapPairs accumulates every (i, j) with j earlier than i where the
	// two events overlap, forming an undirected adjacency we later collapse
	// into double-booking groups of >=3.
	type pair struct {
		i, j int
	}
	var overlapPairs []pair
	for i := range normalized {
		for j := 0; j < i; j++ {
			within := normalized[i].StartTime.Sub(normalized[j].StartTime).Abs() <= proximityWindow ||
				(window.contains(normalized[i].StartTime) && window.contains(normalized[j].StartTime))
			if !within {
				continue
			}
			if models.Overlaps(normalized[i], normalized[j]) {
				overlapPairs = append(overlapPairs, pair{i, j})
			}
		}
	}

	conflicts := make([]models.Conflict, 0, len(overlapPairs))
	seen := make(map[string]bool)

	// Group overlapping events by connected component so double-booking
	// (>=3 events chained together by pairwise overlaps; not every pair in
	// the group has to overlap) is detected.
	parent := make([]int, len(normalized))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, p := range overlapPairs {
		union(p.i, p.j)
	}

	groups := make(map[int][]int)
	for i := range normalized {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		sort.Ints(idxs)
		groupEvents := make([]models.Event, len(idxs))
		for k, idx := range idxs {
			groupEvents[k] = normalized[idx]
		}

		if len(idxs) >= 3 {
			c := buildConflict(models.ConflictDoubleBooking, groupEvents)
			if !seen[c.ID] {
				seen[c.ID] = true
				conflicts = append(conflicts, c)
			}
			continue
		}

		// Exactly a pair: emit time_overlap, and priority/recurring on top
		// when their preconditions hold (overlap is always a precondition;
		// see REDESIGN FLAG in §9).
		c := buildConflict(models.ConflictTimeOverlap, groupEvents)
		c.Metadata = map[string]any{
			"overlap_duration": overlapMinutes(groupEvents[0], groupEvents[1]),
		}
		if !seen[c.ID] {
			seen[c.ID] = true
			conflicts = append(conflicts, c)
		}

		if hasPriorityMismatch(groupEvents) {
			pc := buildConflict(models.ConflictPriority, groupEvents)
			if !seen[pc.ID] {
				seen[pc.ID] = true
				conflicts = append(conflicts, pc)
			}
		}

		if bothRecurring(groupEvents) {
			rc := buildConflict(models.ConflictRecurring, groupEvents)
			if !seen[rc.ID] {
				seen[rc.ID] = true
				conflicts = append(conflicts, rc)
			}
		}
	}

	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].ID < conflicts[j].ID })

	if len(skipped) > 0 {
		sort.Strings(skipped)
		for i := range conflicts {
			if conflicts[i].Metadata == nil {
				conflicts[i].Metadata = map[string]any{}
			}
		}
	}
	return conflicts
}

func overlapMinutes(a, b models.Event) int {
	start := a.StartTime
	if b.StartTime.After(start) {
		start = b.StartTime
	}
	end := a.EndTime
	if b.EndTime.Before(end) {
		end = b.EndTime
	}
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d.Minutes())
}

func hasPriorityMismatch(events []models.Event) bool {
	hasHigh, hasLow := false, false
	for _, e := range events {
		if e.Priority.IsHighOrUrgent() {
			hasHigh = true
		}
		if e.Priority == models.PriorityLow || e.Priority == models.PriorityMedium {
			hasLow = true
		}
	}
	return hasHigh && hasLow
}

func bothRecurring(events []models.Event) bool {
	for _, e := range events {
		if e.RecurrenceRule == "" {
			return false
		}
	}
	return len(events) > 0
}

func buildConflict(kind models.ConflictKind, events []models.Event) models.Conflict {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	sort.Strings(ids)

	prefix := conflictPrefix(kind)
	c := models.Conflict{
		ID:       prefix + strings.Join(ids, "_"),
		Kind:     kind,
		Events:   events,
		Severity: severity(kind, events),
	}
	c.SuggestedStrategy, c.AllowedStrategies = strategy(kind, events)
	return c
}

func conflictPrefix(kind models.ConflictKind) string {
	switch kind {
	case models.ConflictTimeOverlap, models.ConflictDoubleBooking:
		return "overlap_"
	case models.ConflictPriority:
		return "priority_"
	case models.ConflictRecurring:
		return "recurring_"
	default:
		return string(kind) + "_"
	}
}

func severity(kind models.ConflictKind, events []models.Event) models.ConflictSeverity {
	for _, e := range events {
		if e.Priority == models.PriorityUrgent {
			return models.SeverityCritical
		}
	}
	for _, e := range events {
		if e.Priority == models.PriorityHigh {
			return models.SeverityHigh
		}
	}
	if len(events) >= 3 {
		return models.SeverityMedium
	}
	_ = kind
	return models.SeverityLow
}

func strategy(kind models.ConflictKind, events []models.Event) (models.ResolutionStrategy, []models.ResolutionStrategy) {
	allowed := []models.ResolutionStrategy{
		models.StrategyKeepExisting,
		models.StrategyReplaceWithNew,
		models.StrategyMergeEvents,
		models.StrategyMoveToAlt,
		models.StrategyCancelEvent,
		models.StrategyUserDecision,
	}
	if kind == models.ConflictDoubleBooking {
		allowed = append(allowed, models.StrategySplitEvent)
	}

	hasUrgentOrHigh := false
	for _, e := range events {
		if e.Priority.IsHighOrUrgent() {
			hasUrgentOrHigh = true
			break
		}
	}

	switch {
	case hasUrgentOrHigh:
		return models.StrategyReplaceWithNew, allowed
	case len(events) >= 3:
		return models.StrategyUserDecision, allowed
	default:
		return models.StrategyKeepExisting, allowed
	}
}
