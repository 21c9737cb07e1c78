package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/haasonsaas/brickwork/internal/kinderr"
	"github.com/haasonsaas/brickwork/internal/llmprovider"
)

// ToolRegistry holds every registered Tool plus its compiled argument
// schema, grounded on the teacher's wsSchemaRegistry (internal/gateway/
// ws_schema.go): schemas are compiled once at Register time via
// santhosh-tekuri/jsonschema, not re-parsed per call.
type ToolRegistry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
	logger  *slog.Logger
}

// Option configures a ToolRegistry.
type Option func(*ToolRegistry)

// WithLogger overrides the registry's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ToolRegistry) { r.logger = logger }
}

// NewToolRegistry constructs an empty registry.
func NewToolRegistry(opts ...Option) *ToolRegistry {
	r := &ToolRegistry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register compiles t's argument schema and adds it to the registry.
// Registering the same name twice replaces the prior tool.
func (r *ToolRegistry) Register(t Tool) error {
	compiled, err := jsonschema.CompileString(t.Name(), t.Schema())
	if err != nil {
		return fmt.Errorf("compile schema for tool %q: %w", t.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	r.schemas[t.Name()] = compiled
	return nil
}

// Get returns the tool registered under name, if any.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// AsLLMTools converts every registered tool into the ToolSchema shape the
// LLMProvider abstraction expects (§6).
func (r *ToolRegistry) AsLLMTools() []llmprovider.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]llmprovider.ToolSchema, 0, len(r.tools))
	for name, t := range r.tools {
		out = append(out, llmprovider.ToolSchema{
			Name:        name,
			Description: t.Description(),
			Schema:      json.RawMessage(t.Schema()),
		})
	}
	return out
}

// Dispatch validates args against the tool's declared schema and invokes
// it, per §4.1 steps 3-4. The caller is responsible for the earlier steps
// (JSON parsing of the raw LLM payload, identity injection). The result is
// the JSON-encoded payload that becomes the `tool` message's content.
func (r *ToolRegistry) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", kinderr.New(kinderr.Validation, fmt.Sprintf("unknown tool %q", name))
	}

	r.mu.RLock()
	schema := r.schemas[name]
	r.mu.RUnlock()

	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(args); err != nil {
		return "", kinderr.New(kinderr.Validation, "argument validation failed").
			WithHint(err.Error())
	}

	result, err := t.Execute(ctx, args)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return "", kinderr.Wrap(kinderr.Internal, "failed to marshal tool result", err)
	}
	return string(payload), nil
}

// ParseArgs implements §4.1 step 1: the LLM's raw argument payload is
// usually a JSON object already, but some providers emit it as a
// once-serialized JSON string. Try the object form first, then fall back
// to unwrapping a single layer of string-encoding.
func ParseArgs(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj, nil
	}

	var nested string
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("tool arguments are neither an object nor a JSON string: %w", err)
	}
	if err := json.Unmarshal([]byte(nested), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse nested tool argument string: %w", err)
	}
	return obj, nil
}
