package tools

import (
	"context"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/internal/repo"
	"github.com/haasonsaas/brickwork/pkg/models"
)

type createBrickTool struct{ repos repo.Repositories }

func (t createBrickTool) Name() string        { return "create_brick" }
func (t createBrickTool) Description() string { return "Create a new durable goal (Brick) for the caller." }
func (t createBrickTool) IdentityBound() bool  { return true }
func (t createBrickTool) ReadOnly() bool       { return false }

func (t createBrickTool) Schema() string {
	return `{
  "type": "object",
  "required": ["user_id", "title", "category", "priority", "estimated_duration_minutes"],
  "properties": {
    "user_id": {"type": "string"},
    "title": {"type": "string", "minLength": 1, "maxLength": 200},
    "description": {"type": "string"},
    "category": {"type": "string", "enum": ["work", "personal", "health", "learning", "social", "maintenance", "recreation"]},
    "priority": {"type": "string", "enum": ["low", "medium", "high", "urgent"]},
    "estimated_duration_minutes": {"type": "integer", "minimum": 1},
    "target_date": {"type": "string"},
    "deadline": {"type": "string"}
  },
  "additionalProperties": false
}`
}

func (t createBrickTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	userID, err := requireString(args, "user_id")
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
	targetDate, err := argTime(args, "target_date")
	if err != nil {
		return nil, err
	}
	deadline, err := argTime(args, "deadline")
	if err != nil {
		return nil, err
	}
	description, _ := argString(args, "description")
	category, _ := argString(args, "category")
	priority, _ := argString(args, "priority")

	brick := &models.Brick{
		UserID:                   userID,
		Title:                    title,
		Description:              description,
		Category:                 models.BrickCategory(category),
		Priority:                 models.Priority(priority),
		Status:                   models.BrickNotStarted,
		EstimatedDurationMinutes: duration,
		TargetDate:               targetDate,
		Deadline:                 deadline,
	}
	if err := brick.Validate(); err != nil {
		return nil, kinderr.New(kinderr.Validation, err.Error())
	}
	if err := t.repos.Bricks().Create(ctx, brick); err != nil {
		return nil, err
	}
	return map[string]string{"brick_id": brick.ID}, nil
}

type updateBrickTool struct{ repos repo.Repositories }

func (t updateBrickTool) Name() string        { return "update_brick" }
func (t updateBrickTool) Description() string { return "Update mutable fields of an existing Brick." }
func (t updateBrickTool) IdentityBound() bool  { return true }
func (t updateBrickTool) ReadOnly() bool       { return false }

func (t updateBrickTool) Schema() string {
	return `{
  "type": "object",
  "required": ["user_id", "brick_id"],
  "properties": {
    "user_id": {"type": "string"},
    "brick_id": {"type": "string"},
    "title": {"type": "string", "minLength": 1, "maxLength": 200},
    "description": {"type": "string"},
    "status": {"type": "string", "enum": ["not_started", "in_progress", "completed", "cancelled", "postponed"]},
    "priority": {"type": "string", "enum": ["low", "medium", "high", "urgent"]}
  },
  "additionalProperties": false
}`
}

func (t updateBrickTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	userID, err := requireString(args, "user_id")
	if err != nil {
		return nil, err
	}
	brickID, err := requireString(args, "brick_id")
	if err != nil {
		return nil, err
	}

	brick, err := t.repos.Bricks().Get(ctx, userID, brickID)
	if err != nil {
		return nil, err
	}
	if brick.Status == models.BrickCompleted || brick.Status == models.BrickCancelled {
		return nil, kinderr.New(kinderr.Conflict, "cannot update a completed or cancelled brick").
			WithHint("completed and cancelled bricks cannot be changed, including their status")
	}

	if title, ok := argString(args, "title"); ok && title != "" {
		brick.Title = title
	}
	if description, ok := argString(args, "description"); ok {
		brick.Description = description
	}
	if status, ok := argString(args, "status"); ok && status != "" {
		brick.Status = models.BrickStatus(status)
	}
	if priority, ok := argString(args, "priority"); ok && priority != "" {
		brick.Priority = models.Priority(priority)
	}
	if err := brick.Validate(); err != nil {
		return nil, kinderr.New(kinderr.Validation, err.Error())
	}
	if err := t.repos.Bricks().Update(ctx, brick); err != nil {
		return nil, err
	}
	return map[string]string{"brick_id": brick.ID, "status": string(brick.Status)}, nil
}

type deleteBrickTool struct{ repos repo.Repositories }

func (t deleteBrickTool) Name() string        { return "delete_brick" }
func (t deleteBrickTool) Description() string { return "Delete a Brick, optionally cascading to its Quantas." }
func (t deleteBrickTool) IdentityBound() bool  { return true }
func (t deleteBrickTool) ReadOnly() bool       { return false }

func (t deleteBrickTool) Schema() string {
	return `{
  "type": "object",
  "required": ["user_id", "brick_id"],
  "properties": {
    "user_id": {"type": "string"},
    "brick_id": {"type": "string"},
    "delete_quantas": {"type": "boolean"}
  },
  "additionalProperties": false
}`
}

func (t deleteBrickTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	userID, err := requireString(args, "user_id")
	if err != nil {
		return nil, err
	}
	brickID, err := requireString(args, "brick_id")
	if err != nil {
		return nil, err
	}
	cascade := argBool(args, "delete_quantas")
	if err := t.repos.Bricks().Delete(ctx, userID, brickID, cascade); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type listBricksTool struct{ repos repo.Repositories }

func (t listBricksTool) Name() string        { return "list_bricks" }
func (t listBricksTool) Description() string { return "List the caller's Bricks, optionally filtered by status." }
func (t listBricksTool) IdentityBound() bool  { return true }
func (t listBricksTool) ReadOnly() bool       { return true }

func (t listBricksTool) Schema() string {
	return `{
  "type": "object",
  "required": ["user_id"],
  "properties": {
    "user_id": {"type": "string"},
    "status": {"type": "string", "enum": ["not_started", "in_progress", "completed", "cancelled", "postponed"]},
    "category": {"type": "string", "enum": ["work", "personal", "health", "learning", "social", "maintenance", "recreation"]}
  },
  "additionalProperties": false
}`
}

func (t listBricksTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	userID, err := requireString(args, "user_id")
	if err != nil {
		return nil, err
	}
	status, _ := argString(args, "status")
	category, _ := argString(args, "category")

	bricks, err := t.repos.Bricks().List(ctx, userID, repo.ListOptions{Status: models.BrickStatus(status)})
	if err != nil {
		return nil, err
	}
	if category != "" {
		filtered := make([]*models.Brick, 0, len(bricks))
		for _, b := range bricks {
			if string(b.Category) == category {
				filtered = append(filtered, b)
			}
		}
		bricks = filtered
	}
	return bricks, nil
}
