// Package orchestrator implements OrchestratorGraph (C1, §4.1): the
// conversational state machine that turns a user message into tool calls,
// model responses, and a persisted turn.
package orchestrator

import "github.com/haasonsaas/brickwork/pkg/models"

// turnState accumulates the working state of one ProcessTurn call: the
// message history plus everything produced since START, grounded on the
// teacher's LoopState (internal/agent/loop.go).
type turnState struct {
	userID         string
	conversationID string

	history []models.Message // prior persisted turns, oldest first
	working []models.Message // new messages produced during this turn

	assistantTurns  int
	toolsInvoked    []string
	bricksCreated   []string
	bricksUpdated   []string
	resourcesRec    []string
	scheduleUpdated bool
}

func (s *turnState) allMessages() []models.Message {
	out := make([]models.Message, 0, len(s.history)+len(s.working))
	out = append(out, s.history...)
	out = append(out, s.working...)
	return out
}

func (s *turnState) append(msg models.Message) {
	s.working = append(s.working, msg)
}

// TurnResult is ProcessTurn's return contract (§4.1).
type TurnResult struct {
	ResponseText         string   `json:"response_text"`
	ToolsInvoked         []string `json:"tools_invoked"`
	BricksCreated        []string `json:"bricks_created"`
	BricksUpdated        []string `json:"bricks_updated"`
	ResourcesRecommended []string `json:"resources_recommended"`
	ScheduleUpdated      bool     `json:"schedule_updated"`
	Suggestions          []string `json:"suggestions"`
}
