// Package models provides the canonical domain types shared by the
// conversational orchestrator, conflict engine, and schedule planners.
package models

import "github.com/google/uuid"

// NewID returns a new collision-resistant opaque identifier (UUIDv4).
func NewID() string {
	return uuid.NewString()
}
