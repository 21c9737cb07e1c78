// Package repo implements persistence for Bricks, Quantas, and Messages
// (§3, §6), mirroring the teacher's Store interface + pluggable backend
// pattern: an in-memory implementation for tests and local runs, and a
// Postgres-backed implementation for production.
package repo

import (
	"context"

	"github.com/haasonsaas/brickwork/pkg/models"
)

// ListOptions paginates Brick listings and filters them by status.
type ListOptions struct {
	Status models.BrickStatus
	Limit  int
	Offset int
}

// BrickRepository persists Bricks and cascades deletes to their Quantas
// (§5's atomic cascade-delete requirement).
type BrickRepository interface {
	Create(ctx context.Context, brick *models.Brick) error
	Get(ctx context.Context, userID, id string) (*models.Brick, error)
	Update(ctx context.Context, brick *models.Brick) error
	// Delete removes a brick. When cascade is true its quantas are deleted
	// in the same atomic operation; when false, deletion fails if any
	// quanta still reference the brick.
	Delete(ctx context.Context, userID, id string, cascade bool) error
	List(ctx context.Context, userID string, opts ListOptions) ([]*models.Brick, error)
}

// QuantaRepository persists Quantas, the sub-task units of a Brick.
type QuantaRepository interface {
	Create(ctx context.Context, quanta *models.Quanta) error
	Get(ctx context.Context, id string) (*models.Quanta, error)
	Update(ctx context.Context, quanta *models.Quanta) error
	Delete(ctx context.Context, id string) error
	ListByBrick(ctx context.Context, brickID string) ([]*models.Quanta, error)
	DeleteByBrick(ctx context.Context, brickID string) error
}

// MessageRepository persists the durable conversation history C1 reads
// and appends to each turn.
type MessageRepository interface {
	Append(ctx context.Context, msg *models.Message) error
	History(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
}

// Repositories bundles the three repositories an orchestrator instance
// depends on, grounded on the teacher's practice of wiring a single Store
// into its runtime rather than threading three separate interfaces.
// MemoryRepositories and PostgresRepositories both implement it via
// per-entity accessor methods.
type Repositories interface {
	Bricks() BrickRepository
	Quantas() QuantaRepository
	Messages() MessageRepository
}
