package models

// ConflictKind classifies the nature of an incompatibility between events.
type ConflictKind string

const (
	ConflictTimeOverlap   ConflictKind = "time_overlap"
	ConflictDoubleBooking ConflictKind = "double_booking"
	ConflictPriority      ConflictKind = "priority"
	ConflictResource      ConflictKind = "resource"
	ConflictRecurring     ConflictKind = "recurring"
)

// ConflictSeverity ranks how disruptive a conflict is.
type ConflictSeverity string

const (
	SeverityLow      ConflictSeverity = "low"
	SeverityMedium   ConflictSeverity = "medium"
	SeverityHigh     ConflictSeverity = "high"
	SeverityCritical ConflictSeverity = "critical"
)

// ResolutionStrategy names a way to resolve a Conflict; see §4.2.
type ResolutionStrategy string

const (
	StrategyKeepExisting     ResolutionStrategy = "keep_existing"
	StrategyReplaceWithNew   ResolutionStrategy = "replace_with_new"
	StrategyMergeEvents      ResolutionStrategy = "merge_events"
	StrategyMoveToAlt        ResolutionStrategy = "move_to_alternative_time"
	StrategySplitEvent       ResolutionStrategy = "split_event"
	StrategyCancelEvent      ResolutionStrategy = "cancel_event"
	StrategyUserDecision     ResolutionStrategy = "user_decision"
)

// Conflict is a derived, non-persisted description of an incompatibility
// between two or more events over a time window. Its ID is deterministic
// so detection is idempotent (§4.2, §8).
type Conflict struct {
	ID               string             `json:"id"`
	Kind             ConflictKind       `json:"kind"`
	Severity         ConflictSeverity   `json:"severity"`
	Events           []Event            `json:"events"`
	SuggestedStrategy ResolutionStrategy `json:"suggested_strategy"`
	AllowedStrategies []ResolutionStrategy `json:"allowed_strategies"`
	Metadata         map[string]any     `json:"metadata,omitempty"`
}

// UserDecision is the caller-supplied choice for the user_decision
// resolution strategy: which event IDs to keep and which to discard.
type UserDecision struct {
	Keep    []string `json:"keep"`
	Discard []string `json:"discard"`
}

// Resolution is the outcome of applying a resolution strategy to a
// Conflict: the resulting events plus any discarded event IDs.
type Resolution struct {
	ConflictID     string             `json:"conflict_id"`
	Strategy       ResolutionStrategy `json:"strategy"`
	ResultEvents   []Event            `json:"result_events"`
	DiscardedIDs   []string           `json:"discarded_ids,omitempty"`
}
