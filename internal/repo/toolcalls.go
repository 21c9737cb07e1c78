package repo

import (
	"encoding/json"

	"github.com/haasonsaas/brickwork/pkg/models"
)

func marshalToolCalls(calls []models.ToolCall) ([]byte, error) {
	if len(calls) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(calls)
}

func unmarshalToolCalls(data []byte) ([]models.ToolCall, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var calls []models.ToolCall
	if err := json.Unmarshal(data, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}
