package conflict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/haasonsaas/brickwork/pkg/models"
)

// ResolveConflict applies a resolution strategy to a conflict, returning
// the resulting Resolution. userDecision is only consulted for the
// user_decision strategy.
func ResolveConflict(c models.Conflict, strategy models.ResolutionStrategy, userDecision *models.UserDecision) (models.Resolution, error) {
	if !allowed(c, strategy) {
		return models.Resolution{}, fmt.Errorf("strategy %q is not allowed for conflict kind %q", strategy, c.Kind)
	}

	switch strategy {
	case models.StrategyKeepExisting:
		return keepEarliest(c), nil
	case models.StrategyReplaceWithNew:
		return keepLatest(c), nil
	case models.StrategyMergeEvents:
		return merge(c), nil
	case models.StrategyMoveToAlt:
		return moveToAlt(c), nil
	case models.StrategyCancelEvent:
		return cancelAll(c), nil
	case models.StrategyUserDecision:
		return userChoice(c, userDecision)
	case models.StrategySplitEvent:
		return splitLongest(c), nil
	default:
		return models.Resolution{}, fmt.Errorf("unknown strategy %q", strategy)
	}
}

func allowed(c models.Conflict, strategy models.ResolutionStrategy) bool {
	for _, s := range c.AllowedStrategies {
		if s == strategy {
			return true
		}
	}
	return false
}

// sortedByStart returns a stable copy of c.Events sorted ascending by
// start time, tie-broken by ID, matching detection's own ordering.
func sortedByStart(c models.Conflict) []models.Event {
	out := make([]models.Event, len(c.Events))
	copy(out, c.Events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func keepEarliest(c models.Conflict) models.Resolution {
	events := sortedByStart(c)
	kept := events[0]
	discarded := idsExcept(events, kept.ID)
	return models.Resolution{ConflictID: c.ID, Strategy: models.StrategyKeepExisting, ResultEvents: []models.Event{kept}, DiscardedIDs: discarded}
}

func keepLatest(c models.Conflict) models.Resolution {
	events := sortedByStart(c)
	kept := events[len(events)-1]
	discarded := idsExcept(events, kept.ID)
	return models.Resolution{ConflictID: c.ID, Strategy: models.StrategyReplaceWithNew, ResultEvents: []models.Event{kept}, DiscardedIDs: discarded}
}

func idsExcept(events []models.Event, keepID string) []string {
	var ids []string
	for _, e := range events {
		if e.ID != keepID {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// merge produces one event whose title and description are pipe-joined
// (skipping empty descriptions) and whose span is [min(starts), max(ends)],
// per §4.2/§8's merge_events semantics (associative up to title/description
// order; start=min, end=max always).
func merge(c models.Conflict) models.Resolution {
	events := sortedByStart(c)

	titles := make([]string, 0, len(events))
	var descriptions []string
	start := events[0].StartTime
	end := events[0].EndTime
	for _, e := range events {
		titles = append(titles, e.Title)
		if e.Description != "" {
			descriptions = append(descriptions, e.Description)
		}
		if e.StartTime.Before(start) {
			start = e.StartTime
		}
		if e.EndTime.After(end) {
			end = e.EndTime
		}
	}

	merged := models.Event{
		ID:          models.NewID(),
		UserID:      events[0].UserID,
		Title:       strings.Join(titles, "|"),
		Description: strings.Join(descriptions, "|"),
		StartTime:   start,
		EndTime:     end,
		Source:      models.SourceManaged,
		IsMoveable:  true,
	}

	discarded := make([]string, len(events))
	for i, e := range events {
		discarded[i] = e.ID
	}

	return models.Resolution{ConflictID: c.ID, Strategy: models.StrategyMergeEvents, ResultEvents: []models.Event{merged}, DiscardedIDs: discarded}
}

// moveToAlt returns every event of the conflict, unchanged and ordered by
// start, as the set to re-plan by C3; it does not filter by IsMoveable and
// the engine itself never chooses a new time (§4.2).
func moveToAlt(c models.Conflict) models.Resolution {
	events := sortedByStart(c)
	result := make([]models.Event, len(events))
	copy(result, events)
	return models.Resolution{ConflictID: c.ID, Strategy: models.StrategyMoveToAlt, ResultEvents: result}
}

func cancelAll(c models.Conflict) models.Resolution {
	discarded := make([]string, len(c.Events))
	for i, e := range c.Events {
		discarded[i] = e.ID
	}
	return models.Resolution{ConflictID: c.ID, Strategy: models.StrategyCancelEvent, DiscardedIDs: discarded}
}

func userChoice(c models.Conflict, decision *models.UserDecision) (models.Resolution, error) {
	if decision == nil {
		return models.Resolution{}, fmt.Errorf("user_decision strategy requires an explicit keep/discard choice")
	}
	byID := make(map[string]models.Event, len(c.Events))
	for _, e := range c.Events {
		byID[e.ID] = e
	}
	kept := make([]models.Event, 0, len(decision.Keep))
	for _, id := range decision.Keep {
		if e, ok := byID[id]; ok {
			kept = append(kept, e)
		}
	}
	return models.Resolution{ConflictID: c.ID, Strategy: models.StrategyUserDecision, ResultEvents: kept, DiscardedIDs: decision.Discard}, nil
}

// splitLongest partitions the longest event into segments bounded by the
// other events in the conflict, an out-of-band extension noted in §4.2.
func splitLongest(c models.Conflict) models.Resolution {
	events := sortedByStart(c)
	longestIdx := 0
	for i, e := range events {
		if e.EndTime.Sub(e.StartTime) > events[longestIdx].EndTime.Sub(events[longestIdx].StartTime) {
			longestIdx = i
		}
	}
	longest := events[longestIdx]

	var boundaries []models.Event
	for i, e := range events {
		if i != longestIdx {
			boundaries = append(boundaries, e)
		}
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].StartTime.Before(boundaries[j].StartTime) })

	var segments []models.Event
	cursor := longest.StartTime
	for _, b := range boundaries {
		if b.StartTime.After(cursor) && b.StartTime.Before(longest.EndTime) {
			segments = append(segments, models.Event{
				ID: models.NewID(), UserID: longest.UserID, Title: longest.Title + " (part)",
				StartTime: cursor, EndTime: b.StartTime, Source: models.SourceManaged, IsMoveable: true,
			})
		}
		if b.EndTime.After(cursor) {
			cursor = b.EndTime
		}
	}
	if cursor.Before(longest.EndTime) {
		segments = append(segments, models.Event{
			ID: models.NewID(), UserID: longest.UserID, Title: longest.Title + " (part)",
			StartTime: cursor, EndTime: longest.EndTime, Source: models.SourceManaged, IsMoveable: true,
		})
	}

	return models.Resolution{ConflictID: c.ID, Strategy: models.StrategySplitEvent, ResultEvents: segments, DiscardedIDs: []string{longest.ID}}
}
