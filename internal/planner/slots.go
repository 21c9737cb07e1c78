package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/haasonsaas/brickwork/pkg/models"
)

// generateCandidateSlots implements §4.3 step 1: for each configured work
// day in [now, now+horizonDays], carve [work_start, work_end] into free
// periods by subtracting fixed events and non-moveable hard constraints,
// then punch out break and lunch blocks.
func generateCandidateSlots(now time.Time, horizonDays int, prefs models.Preferences, existing []models.Event, constraints []models.Constraint, loc *time.Location) []freeSlot {
	workDays := prefs.WorkDays
	if len(workDays) == 0 {
		workDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	isWorkDay := make(map[time.Weekday]bool, len(workDays))
	for _, d := range workDays {
		isWorkDay[d] = true
	}

	workStart := parseHHMM(prefs.WorkStart, 9, 0)
	workEnd := parseHHMM(prefs.WorkEnd, 17, 0)
	lunchStart := parseHHMM(prefs.LunchStart, 12, 0)
	lunchDur := time.Duration(prefs.LunchDurationMin) * time.Minute
	if prefs.LunchDurationMin <= 0 {
		lunchDur = 60 * time.Minute
	}
	breakFreq := time.Duration(prefs.BreakFrequencyMin) * time.Minute
	breakDur := time.Duration(prefs.BreakDurationMin) * time.Minute

	var blocks []freeSlot
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	for d := 0; d <= horizonDays; d++ {
		cur := day.AddDate(0, 0, d)
		if !isWorkDay[cur.Weekday()] {
			continue
		}
		dayStart := atHHMM(cur, workStart)
		dayEnd := atHHMM(cur, workEnd)
		if dayEnd.Before(now) {
			continue
		}
		if dayStart.Before(now) {
			dayStart = now
		}
		if dayEnd.After(dayStart) {
			blocks = append(blocks, freeSlot{start: dayStart, end: dayEnd})
		}
	}

	busy := make([]freeSlot, 0, len(existing)+len(constraints))
	for _, e := range existing {
		if e.IsMoveable {
			continue
		}
		n := e.Normalize()
		busy = append(busy, freeSlot{start: n.StartTime, end: n.EndTime})
	}
	for _, c := range constraints {
		if !c.IsHard || c.Start == nil || c.End == nil {
			continue
		}
		busy = append(busy, freeSlot{start: *c.Start, end: *c.End})
	}

	// Inject lunch and periodic breaks as additional busy blocks per day.
	for d := 0; d <= horizonDays; d++ {
		cur := day.AddDate(0, 0, d)
		if !isWorkDay[cur.Weekday()] {
			continue
		}
		lunchAt := atHHMM(cur, lunchStart)
		busy = append(busy, freeSlot{start: lunchAt, end: lunchAt.Add(lunchDur)})

		if breakFreq > 0 && breakDur > 0 {
			dayStart := atHHMM(cur, workStart)
			dayEnd := atHHMM(cur, workEnd)
			for t := dayStart.Add(breakFreq); t.Before(dayEnd); t = t.Add(breakFreq) {
				busy = append(busy, freeSlot{start: t, end: t.Add(breakDur)})
			}
		}
	}

	sort.Slice(busy, func(i, j int) bool { return busy[i].start.Before(busy[j].start) })

	var free []freeSlot
	for _, block := range blocks {
		free = append(free, subtractBusy(block, busy)...)
	}

	var result []freeSlot
	for _, f := range free {
		if f.duration() > 0 {
			result = append(result, f)
		}
	}
	return result
}

// subtractBusy carves the busy intervals out of block, returning the
// remaining free sub-intervals.
func subtractBusy(block freeSlot, busy []freeSlot) []freeSlot {
	cursor := block.start
	var out []freeSlot
	for _, b := range busy {
		if b.end.Before(cursor) || !b.start.Before(block.end) {
			continue
		}
		s, e := b.start, b.end
		if s.Before(cursor) {
			s = cursor
		}
		if e.After(block.end) {
			e = block.end
		}
		if s.After(cursor) {
			out = append(out, freeSlot{start: cursor, end: s})
		}
		if e.After(cursor) {
			cursor = e
		}
	}
	if cursor.Before(block.end) {
		out = append(out, freeSlot{start: cursor, end: block.end})
	}
	return out
}

type hhmm struct {
	hour, minute int
}

func parseHHMM(s string, defHour, defMinute int) hhmm {
	if s == "" {
		return hhmm{defHour, defMinute}
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return hhmm{defHour, defMinute}
	}
	return hhmm{h, m}
}

func atHHMM(day time.Time, t hhmm) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.hour, t.minute, 0, 0, day.Location())
}
