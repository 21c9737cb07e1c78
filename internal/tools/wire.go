package tools

import (
	"github.com/haasonsaas/brickwork/internal/calendarprovider"
	"github.com/haasonsaas/brickwork/internal/planner"
	"github.com/haasonsaas/brickwork/internal/repo"
)

// Dependencies bundles everything a full tool surface needs. Calendar,
// LLMPlanner and ResourceCatalog are optional: registering without them
// still yields a working Bricks/Quantas/heuristic-scheduling tool set,
// since those concerns are injected rather than required (§6).
type Dependencies struct {
	Repos           repo.Repositories
	Heuristic       *planner.HeuristicPlanner
	LLM             *planner.LLMPlanner
	UseLLMByDefault bool
	Calendar        calendarprovider.Provider
	Catalog         ResourceCatalog
}

// RegisterAll registers every tool in §6's surface against deps,
// mirroring the teacher's ToolManager's role of wiring each tool group
// (internal/gateway/tool_manager.go) into one registry at startup.
func RegisterAll(r *ToolRegistry, deps Dependencies) (*conflictCache, error) {
	var heuristic, llm Planner
	if deps.Heuristic != nil {
		heuristic = HeuristicAdapter{Inner: deps.Heuristic}
	}
	if deps.LLM != nil {
		llm = deps.LLM
	}
	conflicts := newConflictCache()

	all := []Tool{
		createBrickTool{repos: deps.Repos},
		updateBrickTool{repos: deps.Repos},
		deleteBrickTool{repos: deps.Repos},
		listBricksTool{repos: deps.Repos},
		createQuantaTool{repos: deps.Repos},
		updateQuantaTool{repos: deps.Repos},
		deleteQuantaTool{repos: deps.Repos},
		listQuantasTool{repos: deps.Repos},
		getScheduleTool{repos: deps.Repos},
		generateScheduleTool{heuristic: heuristic, llm: llm, useLLM: deps.UseLLMByDefault},
		optimizeScheduleTool{heuristic: heuristic, llm: llm, useLLM: deps.UseLLMByDefault},
		listCalendarEventsTool{calendar: deps.Calendar},
		syncCalendarTool{calendar: deps.Calendar, conflicts: conflicts},
		applyConflictResolutionTool{conflicts: conflicts},
		listResourcesTool{catalog: deps.Catalog},
		searchResourcesTool{catalog: deps.Catalog},
	}

	for _, t := range all {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return conflicts, nil
}
