package conflict

import "github.com/haasonsaas/brickwork/pkg/models"

// AutoResolveRules configures the default strategy chosen per conflict
// kind/severity, per §4.2's AutoResolve table.
type AutoResolveRules struct {
	BySeverity map[models.ConflictSeverity]models.ResolutionStrategy
	ByKind     map[models.ConflictKind]models.ResolutionStrategy
	NeverAuto  map[models.ConflictKind]bool
}

// DefaultAutoResolveRules returns §4.2's default rule table: low severity
// keeps the existing event, critical severity defers to the user, priority
// conflicts replace with the new event, and recurring conflicts are never
// auto-resolved.
func DefaultAutoResolveRules() AutoResolveRules {
	return AutoResolveRules{
		BySeverity: map[models.ConflictSeverity]models.ResolutionStrategy{
			models.SeverityLow:      models.StrategyKeepExisting,
			models.SeverityCritical: models.StrategyUserDecision,
		},
		ByKind: map[models.ConflictKind]models.ResolutionStrategy{
			models.ConflictTimeOverlap: models.StrategyKeepExisting,
			models.ConflictPriority:    models.StrategyReplaceWithNew,
		},
		NeverAuto: map[models.ConflictKind]bool{
			models.ConflictRecurring: true,
		},
	}
}

// AutoResolve resolves every conflict it can using rules, returning one
// Resolution per conflict it acted on. Critical-severity and
// never-auto-resolve conflicts (e.g. recurring) are skipped: the caller
// must resolve them explicitly via ResolveConflict. AutoResolve(nil) is
// AutoResolve(∅) = ∅ (§8), and is idempotent when applied twice to the
// same conflict set since it re-derives the same strategy each time.
func AutoResolve(conflicts []models.Conflict, rules *AutoResolveRules) []models.Resolution {
	if len(conflicts) == 0 {
		return []models.Resolution{}
	}
	r := DefaultAutoResolveRules()
	if rules != nil {
		r = *rules
	}

	resolutions := make([]models.Resolution, 0, len(conflicts))
	for _, c := range conflicts {
		if r.NeverAuto[c.Kind] {
			continue
		}
		if c.Severity == models.SeverityCritical {
			continue
		}

		strategy, ok := r.ByKind[c.Kind]
		if !ok {
			strategy, ok = r.BySeverity[c.Severity]
		}
		if !ok {
			strategy = c.SuggestedStrategy
		}

		res, err := ResolveConflict(c, strategy, nil)
		if err != nil {
			continue
		}
		resolutions = append(resolutions, res)
	}
	return resolutions
}
