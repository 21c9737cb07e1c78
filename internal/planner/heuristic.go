// Package planner implements C3: the heuristic greedy/priority scheduler
// (§4.3) and the LLM-assisted planner (§4.4), both returning the shared
// models.PlanResult contract.
package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/haasonsaas/brickwork/internal/clock"
	"github.com/haasonsaas/brickwork/pkg/models"
)

// HeuristicPlanner is the deterministic fallback planner (§4.3).
type HeuristicPlanner struct {
	clock clock.Clock
}

// NewHeuristicPlanner constructs a HeuristicPlanner using clk as its time
// source. Determinism (§8) requires the same Clock across repeated calls.
func NewHeuristicPlanner(clk clock.Clock) *HeuristicPlanner {
	if clk == nil {
		clk = clock.Real{}
	}
	return &HeuristicPlanner{clock: clk}
}

type freeSlot struct {
	start time.Time
	end   time.Time
}

func (s freeSlot) duration() time.Duration { return s.end.Sub(s.start) }

// Plan implements §4.3's algorithm: carve free slots from the horizon,
// order tasks, and greedily place each into its best-fitting slot by
// fitness score.
func (p *HeuristicPlanner) Plan(tasks []models.Task, existing []models.Event, prefs models.Preferences, constraints []models.Constraint, horizonDays int) models.PlanResult {
	if horizonDays <= 0 {
		horizonDays = 1
	}
	loc := time.UTC
	if prefs.Timezone != "" {
		if l, err := time.LoadLocation(prefs.Timezone); err == nil {
			loc = l
		}
	}
	now := p.clock.Now().In(loc)

	if len(tasks) == 0 {
		return models.PlanResult{ScheduledEvents: []models.Event{}, UnscheduledTaskIDs: []string{}, Warnings: []string{}, Confidence: 1.0, Reasoning: "no tasks to schedule"}
	}

	slots := generateCandidateSlots(now, horizonDays, prefs, existing, constraints, loc)

	ordered := make([]models.Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority.Rank() != ordered[j].Priority.Rank() {
			return ordered[i].Priority.Rank() < ordered[j].Priority.Rank()
		}
		di, dj := deadlineOrInf(ordered[i]), deadlineOrInf(ordered[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return ordered[i].EstimatedDurationMinutes > ordered[j].EstimatedDurationMinutes
	})

	var scheduled []models.Event
	var unscheduled []string
	var warnings []string
	var softViolations int

	for _, task := range ordered {
		idx, slot, score := bestSlot(task, slots, now)
		if idx < 0 {
			unscheduled = append(unscheduled, task.ID)
			warnings = append(warnings, fmt.Sprintf("could not schedule task %q: no slot with sufficient free duration", task.Title))
			continue
		}
		_ = score

		duration := time.Duration(task.EstimatedDurationMinutes) * time.Minute
		placedStart := slot.start
		placedEnd := placedStart.Add(duration)

		scheduled = append(scheduled, models.Event{
			ID:         models.NewID(),
			Title:      task.Title,
			StartTime:  placedStart,
			EndTime:    placedEnd,
			Source:     models.SourceManaged,
			IsMoveable: true,
			Priority:   task.Priority,
		})

		remaining := make([]freeSlot, 0, len(slots)+1)
		remaining = append(remaining, slots[:idx]...)
		if placedStart.After(slot.start) {
			remaining = append(remaining, freeSlot{start: slot.start, end: placedStart})
		}
		if placedEnd.Before(slot.end) {
			remaining = append(remaining, freeSlot{start: placedEnd, end: slot.end})
		}
		remaining = append(remaining, slots[idx+1:]...)
		slots = remaining

		if task.Deadline != nil && placedEnd.After(*task.Deadline) {
			softViolations++
		}
	}

	total := len(tasks)
	scheduledFraction := float64(len(scheduled)) / float64(total)
	softRatio := 0.0
	if total > 0 {
		softRatio = float64(softViolations) / float64(total)
	}
	// 0.3 + 0.6*f - 0.1*r, computed over tenths so a fully scheduled plan
	// with no soft violations yields exactly 0.9 rather than 0.8999999999999999.
	confidence := clamp((3+6*scheduledFraction-softRatio)/10, 0, 1)

	if unscheduled == nil {
		unscheduled = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	if scheduled == nil {
		scheduled = []models.Event{}
	}

	sort.Slice(scheduled, func(i, j int) bool { return scheduled[i].StartTime.Before(scheduled[j].StartTime) })

	return models.PlanResult{
		ScheduledEvents:    scheduled,
		UnscheduledTaskIDs: unscheduled,
		Warnings:           warnings,
		Reasoning:          fmt.Sprintf("scheduled %d/%d tasks via greedy priority fitness scoring", len(scheduled), total),
		Confidence:         confidence,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func deadlineOrInf(t models.Task) time.Time {
	if t.Deadline != nil {
		return *t.Deadline
	}
	return time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
}

// bestSlot finds the candidate slot with the highest fitness score for
// task, per §4.3 step 3, tie-breaking by earliest start.
func bestSlot(task models.Task, slots []freeSlot, now time.Time) (int, freeSlot, float64) {
	needed := time.Duration(task.EstimatedDurationMinutes) * time.Minute
	bestIdx := -1
	var best freeSlot
	bestScore := -1.0

	for i, s := range slots {
		if s.duration() < needed {
			continue
		}
		score := fitness(task, s, now)
		if score > bestScore || (score == bestScore && bestIdx >= 0 && s.start.Before(best.start)) {
			bestScore = score
			bestIdx = i
			best = s
		}
	}
	return bestIdx, best, bestScore
}

// fitness computes §4.3 step 3's weighted score for placing task at the
// start of slot.
func fitness(task models.Task, slot freeSlot, now time.Time) float64 {
	score := 0.0

	if task.Deadline != nil {
		hoursUntil := task.Deadline.Sub(now).Hours()
		if hoursUntil < 0 {
			hoursUntil = 0
		}
		score += 100 / (1 + hoursUntil/24)
	}

	if task.PreferredTime != "" {
		preferredHour := task.PreferredTime.PreferredHour()
		slotHour := slot.start.Hour()
		diff := preferredHour - slotHour
		if diff < 0 {
			diff = -diff
		}
		score += 50 / (1 + float64(diff))
	}

	score += float64(11-task.Priority.Rank()) * 10

	if task.Priority.IsHighOrUrgent() && slot.start.Hour() < 12 {
		score += 20
	}

	needed := time.Duration(task.EstimatedDurationMinutes) * time.Minute
	if slot.duration() >= time.Duration(float64(needed)*1.5) {
		score += 10
	}

	return score
}
