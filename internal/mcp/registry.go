package mcp

import (
	"encoding/json"
	"fmt"
	"sync"
)

// ToolImpl is one callable tool behind the MCP tools/* methods.
type ToolImpl interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(input json.RawMessage) (interface{}, error)
}

type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolImpl
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]ToolImpl),
	}
}

func (r *Registry) Register(tool ToolImpl) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}

	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (ToolImpl, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

func (r *Registry) Execute(name string, input json.RawMessage) (interface{}, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool.Execute(input)
}

// List returns tools in registration order, so tools/list output is stable.
func (r *Registry) List() []ToolImpl {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ToolImpl, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}
