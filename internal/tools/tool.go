// Package tools implements the ToolRegistry (§4.5): every tool the
// orchestrator can dispatch, grouped into read-only and mutating sets,
// each declaring a strict JSON-schema for its arguments.
package tools

import "context"

// Tool is a single dispatchable operation. Schema is a JSON-schema
// document (draft 2020-12 compatible, matching the teacher's ws_schema.go
// convention of raw schema string constants compiled once at registration).
type Tool interface {
	Name() string
	Description() string
	Schema() string
	IdentityBound() bool
	ReadOnly() bool
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// identityBoundNames is the §4.1 step 2 set: tools the orchestrator must
// overlay user_id onto before validation, never trusting the LLM to
// supply identity itself.
var identityBoundNames = map[string]bool{
	"create_brick":         true,
	"create_quanta":        true,
	"update_brick":         true,
	"delete_brick":         true,
	"list_bricks":          true,
	"update_quanta":        true,
	"delete_quanta":        true,
	"list_quantas":         true,
	"get_schedule":         true,
	"optimize_schedule":    true,
	"generate_schedule":    true,
	"list_resources":       true,
	"search_resources":     true,
	"list_calendar_events": true,
	"sync_calendar":        true,
}

// IdentityBound reports whether name is in the identity-bound set from
// §4.1 step 2, independent of any particular Tool implementation.
func IdentityBound(name string) bool {
	return identityBoundNames[name]
}
