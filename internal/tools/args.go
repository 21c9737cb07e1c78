package tools

import (
	"fmt"
	"time"

	"github.com/haasonsaas/brickwork/internal/kinderr"
)

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func requireString(args map[string]any, key string) (string, error) {
	s, ok := argString(args, key)
	if !ok || s == "" {
		return "", kinderr.New(kinderr.Validation, fmt.Sprintf("%q is required", key)).
			WithHint(fmt.Sprintf("provide a non-empty string for %q", key))
	}
	return s, nil
}

func argInt(args map[string]any, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func argBool(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func argTime(args map[string]any, key string) (*time.Time, error) {
	s, ok := argString(args, key)
	if !ok || s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, kinderr.New(kinderr.Validation, fmt.Sprintf("%q must be RFC3339", key)).WithHint(err.Error())
	}
	return &t, nil
}

func argMap(args map[string]any, key string) map[string]any {
	v, ok := args[key]
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

func argSlice(args map[string]any, key string) []any {
	v, ok := args[key]
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}
