package tools

import (
	"context"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/internal/repo"
	"github.com/haasonsaas/brickwork/pkg/models"
)

type createQuantaTool struct{ repos repo.Repositories }

func (t createQuantaTool) Name() string        { return "create_quanta" }
func (t createQuantaTool) Description() string { return "Create a Quanta decomposing an existing Brick." }
func (t createQuantaTool) IdentityBound() bool  { return true }
func (t createQuantaTool) ReadOnly() bool       { return false }

func (t createQuantaTool) Schema() string {
	return `{
  "type": "object",
  "required": ["brick_id", "title", "description", "estimated_duration_minutes", "order_index"],
  "properties": {
    "user_id": {"type": "string"},
    "brick_id": {"type": "string"},
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "estimated_duration_minutes": {"type": "integer", "minimum": 1, "maximum": 1440},
    "order_index": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`
}

func (t createQuantaTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	brickID, err := requireString(args, "brick_id")
	if err != nil {
		return nil, err
	}
	title, err := requireString(args, "title")
	if err != nil {
		return nil, err
	}
	duration, ok := argInt(args, "estimated_duration_minutes")
	if !ok {
		return nil, kinderr.New(kinderr.Validation, "estimated_duration_minutes is required")
	}
	orderIndex, _ := argInt(args, "order_index")

	userID, _ := argString(args, "user_id")
	if _, err := t.repos.Bricks().Get(ctx, userID, brickID); err != nil {
		return nil, err
	}

	description, _ := argString(args, "description")
	quanta := &models.Quanta{
		BrickID:                  brickID,
		Title:                    title,
		Description:              description,
		Status:                   models.BrickNotStarted,
		EstimatedDurationMinutes: duration,
		OrderIndex:               orderIndex,
	}
	if err := quanta.Validate(); err != nil {
		return nil, kinderr.New(kinderr.Validation, err.Error())
	}
	if err := t.repos.Quantas().Create(ctx, quanta); err != nil {
		return nil, err
	}
	return map[string]string{"quanta_id": quanta.ID}, nil
}

type updateQuantaTool struct{ repos repo.Repositories }

func (t updateQuantaTool) Name() string        { return "update_quanta" }
func (t updateQuantaTool) Description() string { return "Update mutable fields of an existing Quanta." }
func (t updateQuantaTool) IdentityBound() bool  { return true }
func (t updateQuantaTool) ReadOnly() bool       { return false }

func (t updateQuantaTool) Schema() string {
	return `{
  "type": "object",
  "required": ["quanta_id"],
  "properties": {
    "user_id": {"type": "string"},
    "quanta_id": {"type": "string"},
    "title": {"type": "string"},
    "status": {"type": "string", "enum": ["not_started", "in_progress", "completed", "cancelled", "postponed"]},
    "estimated_duration_minutes": {"type": "integer", "minimum": 1, "maximum": 1440},
    "order_index": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`
}

func (t updateQuantaTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	quantaID, err := requireString(args, "quanta_id")
	if err != nil {
		return nil, err
	}
	quanta, err := t.repos.Quantas().Get(ctx, quantaID)
	if err != nil {
		return nil, err
	}

	if title, ok := argString(args, "title"); ok && title != "" {
		quanta.Title = title
	}
	if status, ok := argString(args, "status"); ok && status != "" {
		quanta.Status = models.BrickStatus(status)
	}
	if duration, ok := argInt(args, "estimated_duration_minutes"); ok {
		quanta.EstimatedDurationMinutes = duration
	}
	if orderIndex, ok := argInt(args, "order_index"); ok {
		quanta.OrderIndex = orderIndex
	}
	if err := quanta.Validate(); err != nil {
		return nil, kinderr.New(kinderr.Validation, err.Error())
	}
	if err := t.repos.Quantas().Update(ctx, quanta); err != nil {
		return nil, err
	}
	return map[string]string{"quanta_id": quanta.ID, "status": string(quanta.Status)}, nil
}

type deleteQuantaTool struct{ repos repo.Repositories }

func (t deleteQuantaTool) Name() string        { return "delete_quanta" }
func (t deleteQuantaTool) Description() string { return "Delete a single Quanta." }
func (t deleteQuantaTool) IdentityBound() bool  { return true }
func (t deleteQuantaTool) ReadOnly() bool       { return false }

func (t deleteQuantaTool) Schema() string {
	return `{
  "type": "object",
  "required": ["quanta_id"],
  "properties": {
    "user_id": {"type": "string"},
    "quanta_id": {"type": "string"}
  },
  "additionalProperties": false
}`
}

func (t deleteQuantaTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	quantaID, err := requireString(args, "quanta_id")
	if err != nil {
		return nil, err
	}
	if err := t.repos.Quantas().Delete(ctx, quantaID); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type listQuantasTool struct{ repos repo.Repositories }

func (t listQuantasTool) Name() string        { return "list_quantas" }
func (t listQuantasTool) Description() string { return "List Quantas, optionally scoped to one Brick or status." }
func (t listQuantasTool) IdentityBound() bool  { return true }
func (t listQuantasTool) ReadOnly() bool       { return true }

func (t listQuantasTool) Schema() string {
	return `{
  "type": "object",
  "properties": {
    "user_id": {"type": "string"},
    "brick_id": {"type": "string"},
    "status": {"type": "string", "enum": ["not_started", "in_progress", "completed", "cancelled", "postponed"]}
  },
  "additionalProperties": false
}`
}

func (t listQuantasTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	brickID, _ := argString(args, "brick_id")
	status, _ := argString(args, "status")

	var quantas []*models.Quanta
	if brickID != "" {
		var err error
		quantas, err = t.repos.Quantas().ListByBrick(ctx, brickID)
		if err != nil {
			return nil, err
		}
	} else {
		userID, _ := argString(args, "user_id")
		bricks, err := t.repos.Bricks().List(ctx, userID, repo.ListOptions{})
		if err != nil {
			return nil, err
		}
		for _, b := range bricks {
			qs, err := t.repos.Quantas().ListByBrick(ctx, b.ID)
			if err != nil {
				return nil, err
			}
			quantas = append(quantas, qs...)
		}
	}

	if status != "" {
		filtered := make([]*models.Quanta, 0, len(quantas))
		for _, q := range quantas {
			if string(q.Status) == status {
				filtered = append(filtered, q)
			}
		}
		quantas = filtered
	}
	return quantas, nil
}
